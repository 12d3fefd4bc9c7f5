package artifact

import (
	"fmt"
	"sort"

	"github.com/gyaneshwarpardhi/bankpredict/internal/feature"
)

// Encoder maps categorical columns to the numeric codes used at training time.
type Encoder struct {
	columns []string
	specs   map[string]columnEncoding
}

type columnEncoding struct {
	Values  map[string]float64 `json:"values"`
	Default float64            `json:"default"`
}

type encoderSpec struct {
	Columns map[string]columnEncoding `json:"columns"`
}

func newEncoder(s encoderSpec) (*Encoder, error) {
	if len(s.Columns) == 0 {
		return nil, fmt.Errorf("encoder: no columns")
	}
	e := &Encoder{specs: s.Columns}
	for name, enc := range s.Columns {
		if len(enc.Values) == 0 {
			return nil, fmt.Errorf("encoder: column %q has no values", name)
		}
		e.columns = append(e.columns, name)
	}
	sort.Strings(e.columns)
	return e, nil
}

// Columns returns the encoded column names, sorted.
func (e *Encoder) Columns() []string { return append([]string(nil), e.columns...) }

// Apply encodes every encoder column found in cats. A category the encoder never saw,
// or a column missing from cats, takes the column default and is reported in unknown.
func (e *Encoder) Apply(cats map[string]string) (v feature.Vector, unknown []string) {
	for _, name := range e.columns {
		enc := e.specs[name]
		code, ok := enc.Values[cats[name]]
		if !ok {
			code = enc.Default
			unknown = append(unknown, name)
		}
		v.Set(name, code)
	}
	return v, unknown
}
