// Package feature derives model inputs from typed requests and fits them to a trained
// model's column schema.
package feature

import "fmt"

// Vector is an ordered mapping of feature name to numeric value.
// Column order is insertion order; setting an existing name overwrites it in place.
type Vector struct {
	names  []string
	values []float64
	index  map[string]int
}

// NewVector builds a Vector from parallel name/value slices.
func NewVector(names []string, values []float64) (Vector, error) {
	if len(names) != len(values) {
		return Vector{}, fmt.Errorf("feature: %d names but %d values", len(names), len(values))
	}
	var v Vector
	for i, name := range names {
		v.Set(name, values[i])
	}
	return v, nil
}

// Set assigns value to name, appending a new column when name is not present.
func (v *Vector) Set(name string, value float64) {
	if v.index == nil {
		v.index = make(map[string]int)
	}
	if i, ok := v.index[name]; ok {
		v.values[i] = value
		return
	}
	v.index[name] = len(v.names)
	v.names = append(v.names, name)
	v.values = append(v.values, value)
}

// Get returns the value stored under name.
func (v Vector) Get(name string) (float64, bool) {
	i, ok := v.index[name]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Has reports whether name is a column of v.
func (v Vector) Has(name string) bool {
	_, ok := v.index[name]
	return ok
}

// Len returns the number of columns.
func (v Vector) Len() int { return len(v.names) }

// Names returns a copy of the column names in order.
func (v Vector) Names() []string {
	return append([]string(nil), v.names...)
}

// Values returns a copy of the column values in order.
func (v Vector) Values() []float64 {
	return append([]float64(nil), v.values...)
}

// Concat returns a new Vector holding v's columns followed by other's.
// Columns of other that already exist in v overwrite v's value.
func (v Vector) Concat(other Vector) Vector {
	var out Vector
	for i, name := range v.names {
		out.Set(name, v.values[i])
	}
	for i, name := range other.names {
		out.Set(name, other.values[i])
	}
	return out
}

// Map returns the columns as an unordered map.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.names))
	for i, name := range v.names {
		out[name] = v.values[i]
	}
	return out
}
