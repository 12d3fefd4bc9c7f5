package artifact

import (
	"fmt"

	"github.com/gyaneshwarpardhi/bankpredict/internal/feature"
)

// Scaler standardizes numeric columns: (x - mean) / scale.
type Scaler struct {
	columns []string
	mean    []float64
	scale   []float64
}

type scalerSpec struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

// NewScaler builds a Scaler. A zero scale is treated as 1, matching constant training columns.
func NewScaler(columns []string, mean, scale []float64) (*Scaler, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("scaler: no columns")
	}
	if len(mean) != len(columns) || len(scale) != len(columns) {
		return nil, fmt.Errorf("scaler: %d columns, %d means, %d scales", len(columns), len(mean), len(scale))
	}
	if err := feature.Schema(columns).Validate(); err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	s := &Scaler{
		columns: append([]string(nil), columns...),
		mean:    append([]float64(nil), mean...),
		scale:   make([]float64, len(scale)),
	}
	for i, sc := range scale {
		if sc == 0 {
			sc = 1
		}
		s.scale[i] = sc
	}
	return s, nil
}

// Columns returns the scaled columns in order.
func (s *Scaler) Columns() []string { return append([]string(nil), s.columns...) }

// Apply returns the scaled columns of v in scaler order. Every scaler column must be
// present in v; other columns of v are ignored.
func (s *Scaler) Apply(v feature.Vector) (feature.Vector, error) {
	var out feature.Vector
	for i, name := range s.columns {
		x, ok := v.Get(name)
		if !ok {
			return feature.Vector{}, fmt.Errorf("scaler: input has no column %q", name)
		}
		out.Set(name, (x-s.mean[i])/s.scale[i])
	}
	return out, nil
}
