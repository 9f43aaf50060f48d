// Package form describes the input widgets the estimator page renders for each
// model feature and validates what the user submits through them.
//
// Each known feature maps to a Field carrying its widget Kind, bounds and
// default. Features the model expects but the schema does not know about are
// rendered as free numeric inputs defaulting to 0.
package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"house-price/internal/common"
)

// Kind selects how a field is rendered and which constraints apply to it.
type Kind int

const (
	// KindFreeNumber is an unconstrained numeric input.
	KindFreeNumber Kind = iota
	// KindSliderInt is an integer range slider.
	KindSliderInt
	// KindBoundedNumber is a numeric input with a lower and optional upper bound.
	KindBoundedNumber
	// KindEnumChoice is a select box over a fixed set of values.
	KindEnumChoice
)

func (k Kind) String() string {
	switch k {
	case KindSliderInt:
		return "slider-int"
	case KindBoundedNumber:
		return "bounded-number"
	case KindEnumChoice:
		return "enum-choice"
	default:
		return "free-number"
	}
}

// Field is one input widget bound to a model feature.
type Field struct {
	Name    string
	Label   string
	Kind    Kind
	Min     float64
	Max     float64
	HasMax  bool // Min is always enforced for bounded kinds, Max only when set
	Integer bool
	Choices []float64
	Default float64
}

// Schema is the lookup of known features to their widgets.
type Schema struct {
	known map[string]Field
}

// NewSchema builds the known-field lookup. currentYear caps the year fields.
func NewSchema(currentYear int) *Schema {
	year := float64(currentYear)
	fields := []Field{
		slider(common.FeatureOverallQual, "Material & finish quality", 1, 10, 5),
		bounded(common.FeatureGrLivArea, "Living area (sq ft)", 500, 5000, 1500, false),
		choice(common.FeatureGarageCars, "Garage capacity (cars)", 0, 0, 1, 2, 3, 4),
		bounded(common.FeatureTotalBsmtSF, "Basement area (sq ft)", 0, 3000, 1000, false),
		choice(common.FeatureFullBath, "Full bathrooms", 1, 1, 2, 3, 4),
		bounded(common.FeatureYearBuilt, "Year built", common.MinHouseYear, year, 2000, true),
		{
			Name:    common.FeatureFirstFlrSF,
			Label:   "Ground-floor area (sq ft)",
			Kind:    KindBoundedNumber,
			Min:     0,
			Default: 1000,
		},
		bounded(common.FeatureTotRmsAbvGrd, "Total rooms above grade", 2, 15, 6, true),
		bounded(common.FeatureYearRemodAdd, "Year remodeled", common.MinHouseYear, year, 2000, true),
		choice(common.FeatureFireplaces, "Fireplace count", 0, 0, 1, 2, 3),
	}

	s := &Schema{known: make(map[string]Field, len(fields))}
	for _, f := range fields {
		// Defaults must stay inside the bounds in years before 2000.
		if f.HasMax && f.Default > f.Max {
			f.Default = f.Max
		}
		s.known[f.Name] = f
	}
	return s
}

func slider(name, label string, min, max, def float64) Field {
	return Field{Name: name, Label: label, Kind: KindSliderInt, Min: min, Max: max, HasMax: true, Integer: true, Default: def}
}

func bounded(name, label string, min, max, def float64, integer bool) Field {
	return Field{Name: name, Label: label, Kind: KindBoundedNumber, Min: min, Max: max, HasMax: true, Integer: integer, Default: def}
}

func choice(name, label string, def float64, choices ...float64) Field {
	return Field{Name: name, Label: label, Kind: KindEnumChoice, Integer: true, Choices: choices, Default: def}
}

// Lookup returns the known field for name.
func (s *Schema) Lookup(name string) (Field, bool) {
	f, ok := s.known[name]
	return f, ok
}

// Fields returns one widget per expected feature, in model order.
func (s *Schema) Fields(expected []string) []Field {
	out := make([]Field, 0, len(expected))
	for _, name := range expected {
		if f, ok := s.Lookup(name); ok {
			out = append(out, f)
			continue
		}
		out = append(out, Field{Name: name, Label: name, Kind: KindFreeNumber})
	}
	return out
}

// Step is the HTML step attribute for the field's input.
func (f Field) Step() string {
	if f.Integer {
		return "1"
	}
	return "any"
}

// Format renders v the way the field's input displays it.
func (f Field) Format(v float64) string {
	return formatNumber(v)
}

// Describe is a short human hint about the accepted values.
func (f Field) Describe() string {
	switch f.Kind {
	case KindSliderInt, KindBoundedNumber:
		if f.HasMax {
			return fmt.Sprintf("%s to %s", formatNumber(f.Min), formatNumber(f.Max))
		}
		return fmt.Sprintf("at least %s", formatNumber(f.Min))
	case KindEnumChoice:
		return "one of " + joinNumbers(f.Choices)
	default:
		return ""
	}
}

// validate checks one parsed value against the field's constraints and
// returns a message, or "" when the value is acceptable.
func (f Field) validate(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "must be a finite number"
	}
	if f.Integer && v != math.Trunc(v) {
		return "must be a whole number"
	}

	switch f.Kind {
	case KindSliderInt, KindBoundedNumber:
		if v < f.Min || (f.HasMax && v > f.Max) {
			if f.HasMax {
				return fmt.Sprintf("must be between %s and %s", formatNumber(f.Min), formatNumber(f.Max))
			}
			return fmt.Sprintf("must be at least %s", formatNumber(f.Min))
		}
	case KindEnumChoice:
		for _, c := range f.Choices {
			if v == c {
				return ""
			}
		}
		return "must be one of " + joinNumbers(f.Choices)
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinNumbers(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatNumber(v)
	}
	return strings.Join(parts, ", ")
}
