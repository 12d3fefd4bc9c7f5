// Package explain ranks per-feature attributions into the short list shown to users.
package explain

import (
	"math"
	"sort"
)

// DefaultTopN is the number of factors returned when the caller asks for n <= 0.
const DefaultTopN = 5

// Factor is one feature's contribution to a single prediction. Value is signed:
// positive values push toward the positive class.
type Factor struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Top returns at most n factors ordered by descending absolute value. Ties keep
// schema order. NaN attributions rank last.
func Top(names []string, values []float64, n int) []Factor {
	if n <= 0 {
		n = DefaultTopN
	}
	size := len(names)
	if len(values) < size {
		size = len(values)
	}
	factors := make([]Factor, size)
	for i := 0; i < size; i++ {
		factors[i] = Factor{Name: names[i], Value: values[i]}
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return magnitude(factors[i].Value) > magnitude(factors[j].Value)
	})
	if len(factors) > n {
		factors = factors[:n]
	}
	return factors
}

func magnitude(v float64) float64 {
	if math.IsNaN(v) {
		return -1
	}
	return math.Abs(v)
}
