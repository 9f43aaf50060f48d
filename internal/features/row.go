// Package features assembles model input rows from user-supplied values.
//
// The model is positional: it reads columns by index, not by name. A Row therefore
// always carries its names in the model's expected order, and every expected name
// is present exactly once.
package features

import (
	"fmt"
	"strings"
)

// Row is a single model input: names[i] holds values[i].
type Row struct {
	names  []string
	values []float64
}

// Assemble builds a row laid out exactly as expected. Values for names missing
// from inputs default to 0; inputs whose names are not expected are dropped.
func Assemble(expected []string, inputs map[string]float64) Row {
	row := Row{
		names:  make([]string, len(expected)),
		values: make([]float64, len(expected)),
	}
	copy(row.names, expected)

	for i, name := range expected {
		// Zero-fill, not imputation.
		row.values[i] = inputs[name]
	}
	return row
}

// Missing reports which expected names had no value in inputs, in model order.
func Missing(expected []string, inputs map[string]float64) []string {
	var missing []string
	for _, name := range expected {
		if _, ok := inputs[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Names returns a copy of the column names in order.
func (r Row) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Values returns a copy of the column values in order.
func (r Row) Values() []float64 {
	out := make([]float64, len(r.values))
	copy(out, r.values)
	return out
}

func (r Row) Len() int {
	return len(r.names)
}

// Get returns the value for name and whether the row has that column.
func (r Row) Get(name string) (float64, bool) {
	for i, n := range r.names {
		if n == name {
			return r.values[i], true
		}
	}
	return 0, false
}

// MatchesLayout checks that the row's columns equal expected, in order.
func (r Row) MatchesLayout(expected []string) error {
	if len(r.names) != len(expected) {
		return fmt.Errorf("expected %d features, got %d", len(expected), len(r.names))
	}
	for i, name := range expected {
		if r.names[i] != name {
			return fmt.Errorf("feature %d is %q, model expects %q", i, r.names[i], name)
		}
	}
	return nil
}

func (r Row) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, n := range r.names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%g", n, r.values[i])
	}
	b.WriteByte('}')
	return b.String()
}
