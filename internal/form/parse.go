package form

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"house-price/internal/common"
)

// FieldError is a validation failure for one field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Label, e.Message)
}

// ValidationErrors lists every field that failed validation, in form order.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// For returns the message for field name, or "".
func (v ValidationErrors) For(name string) string {
	for _, e := range v {
		if e.Field == name {
			return e.Message
		}
	}
	return ""
}

// Parse reads one value per field from values. Blank or absent values take the
// field default. The returned map holds every field that parsed; errs is nil
// when all of them are valid.
func Parse(fields []Field, values url.Values) (map[string]float64, ValidationErrors) {
	inputs := make(map[string]float64, len(fields))
	var errs ValidationErrors

	for _, f := range fields {
		raw := strings.TrimSpace(values.Get(f.Name))
		if raw == "" {
			inputs[f.Name] = f.Default
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, FieldError{Field: f.Name, Label: f.Label, Message: "must be a number"})
			continue
		}
		if msg := f.validate(v); msg != "" {
			errs = append(errs, FieldError{Field: f.Name, Label: f.Label, Message: msg})
			continue
		}
		inputs[f.Name] = v
	}

	built, okBuilt := inputs[common.FeatureYearBuilt]
	remod, okRemod := inputs[common.FeatureYearRemodAdd]
	if okBuilt && okRemod && remod < built {
		label := common.FeatureYearRemodAdd
		for _, f := range fields {
			if f.Name == common.FeatureYearRemodAdd {
				label = f.Label
			}
		}
		errs = append(errs, FieldError{
			Field:   common.FeatureYearRemodAdd,
			Label:   label,
			Message: fmt.Sprintf("cannot be earlier than the build year (%s)", formatNumber(built)),
		})
	}

	return inputs, errs
}
