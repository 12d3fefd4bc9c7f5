package artifact

import (
	"fmt"
	"math"
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gyaneshwarpardhi/bankpredict/internal/feature"
)

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vectorizer is a fitted TF-IDF text vectorizer.
type Vectorizer struct {
	terms       []string // by column index
	index       map[string]int
	idf         []float64
	lowercase   bool
	l2          bool
	sublinearTF bool
}

type vectorizerSpec struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Lowercase   bool           `json:"lowercase"`
	Norm        string         `json:"norm"`
	SublinearTF bool           `json:"sublinear_tf"`
}

func newVectorizer(s vectorizerSpec) (*Vectorizer, error) {
	n := len(s.Vocabulary)
	if n == 0 {
		return nil, fmt.Errorf("vectorizer: empty vocabulary")
	}
	if len(s.IDF) != n {
		return nil, fmt.Errorf("vectorizer: %d terms but %d idf weights", n, len(s.IDF))
	}
	switch s.Norm {
	case "", "none", "l2":
	default:
		return nil, fmt.Errorf("vectorizer: unsupported norm %q", s.Norm)
	}
	v := &Vectorizer{
		terms:       make([]string, n),
		index:       make(map[string]int, n),
		idf:         append([]float64(nil), s.IDF...),
		lowercase:   s.Lowercase,
		l2:          s.Norm == "l2",
		sublinearTF: s.SublinearTF,
	}
	for term, i := range s.Vocabulary {
		if i < 0 || i >= n || v.terms[i] != "" {
			return nil, fmt.Errorf("vectorizer: term %q has invalid or duplicate index %d", term, i)
		}
		v.terms[i] = term
		v.index[term] = i
	}
	return v, nil
}

// Terms returns the output column names in column order.
func (v *Vectorizer) Terms() []string { return append([]string(nil), v.terms...) }

// Tokens splits text the way the vectorizer was fitted.
func (v *Vectorizer) Tokens(text string) []string {
	if v.lowercase {
		// Casers are stateful; build one per call.
		text = cases.Lower(language.Und).String(text)
	}
	return tokenPattern.FindAllString(text, -1)
}

// Transform returns the TF-IDF weights of text, one column per vocabulary term.
// Tokens outside the vocabulary are ignored.
func (v *Vectorizer) Transform(text string) feature.Vector {
	weights := make([]float64, len(v.terms))
	for _, tok := range v.Tokens(text) {
		if i, ok := v.index[tok]; ok {
			weights[i]++
		}
	}
	var norm float64
	for i, tf := range weights {
		if tf == 0 {
			continue
		}
		if v.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		weights[i] = tf * v.idf[i]
		norm += weights[i] * weights[i]
	}
	if v.l2 && norm > 0 {
		norm = math.Sqrt(norm)
		for i := range weights {
			weights[i] /= norm
		}
	}
	out, _ := feature.NewVector(v.terms, weights)
	return out
}
