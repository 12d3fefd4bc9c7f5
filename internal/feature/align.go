package feature

import "fmt"

// Schema is the ordered list of column names a trained model expects.
type Schema []string

// Validate rejects empty schemas, blank names and duplicate names.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("feature schema is empty")
	}
	seen := make(map[string]int, len(s))
	for i, name := range s {
		if name == "" {
			return fmt.Errorf("feature schema: column %d has an empty name", i)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("feature schema: duplicate column %q at %d and %d", name, prev, i)
		}
		seen[name] = i
	}
	return nil
}

// AlignReport lists what Align had to change to make a vector fit a schema.
type AlignReport struct {
	Padded  []string `json:"padded,omitempty"`
	Dropped []string `json:"dropped,omitempty"`
}

// PadValue is the value given to schema columns missing from the engineered vector.
const PadValue = 0.0

// Align projects v onto schema: the result has exactly the schema's columns in schema
// order. Schema columns absent from v are set to PadValue and columns of v outside the
// schema are dropped. Align never fails.
func Align(v Vector, schema Schema) (Vector, AlignReport) {
	var (
		out    Vector
		report AlignReport
	)
	out.names = make([]string, 0, len(schema))
	out.values = make([]float64, 0, len(schema))
	out.index = make(map[string]int, len(schema))

	for _, name := range schema {
		value, ok := v.Get(name)
		if !ok {
			value = PadValue
			report.Padded = append(report.Padded, name)
		}
		out.Set(name, value)
	}
	for _, name := range v.names {
		if !out.Has(name) {
			report.Dropped = append(report.Dropped, name)
		}
	}
	return out, report
}
