// Package artifact loads the persisted training artifacts of every served model into an
// immutable Set, and swaps in a fresh Set when the files on disk change.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"time"

	"github.com/gyaneshwarpardhi/bankpredict/internal/feature"
	"github.com/gyaneshwarpardhi/bankpredict/internal/model"
)

// Served model names; each has its own directory under the artifacts root.
const (
	ModelChurn = "churn"
	ModelLoan  = "loan"
)

// Artifact file names inside a model directory.
const (
	FileSchema     = "features.json"
	FileScaler     = "scaler.json"
	FileVectorizer = "vectorizer.json"
	FileEncoder    = "encoder.json"
	FileModel      = "model.json"
)

// ChurnBundle is everything the churn flow needs at inference time.
type ChurnBundle struct {
	Schema     feature.Schema
	Scaler     *Scaler
	Vectorizer *Vectorizer
	Model      model.Model
}

// LoanBundle is everything the loan flow needs at inference time.
type LoanBundle struct {
	Schema  feature.Schema
	Encoder *Encoder
	Model   model.Model
}

// Set is one consistent generation of artifacts. It is never mutated after Load.
type Set struct {
	// Version identifies the file contents the set was built from.
	Version  string
	LoadedAt time.Time
	Churn    *ChurnBundle
	Loan     *LoanBundle
}

// Schema returns the feature schema of the named model.
func (s *Set) Schema(name string) (feature.Schema, bool) {
	switch name {
	case ModelChurn:
		return s.Churn.Schema, true
	case ModelLoan:
		return s.Loan.Schema, true
	}
	return nil, false
}

// Load reads and validates every artifact under dir.
func Load(dir string, reg *model.Registry) (*Set, error) {
	l := &loader{dir: dir, reg: reg, hash: sha256.New()}

	churn, err := l.churn()
	if err != nil {
		return nil, fmt.Errorf("load churn artifacts: %w", err)
	}
	loan, err := l.loan()
	if err != nil {
		return nil, fmt.Errorf("load loan artifacts: %w", err)
	}
	return &Set{
		Version:  hex.EncodeToString(l.hash.Sum(nil))[:12],
		LoadedAt: time.Now(),
		Churn:    churn,
		Loan:     loan,
	}, nil
}

type loader struct {
	dir  string
	reg  *model.Registry
	hash hash.Hash
}

func (l *loader) read(rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, rel))
	if err != nil {
		return nil, err
	}
	l.hash.Write([]byte(rel))
	l.hash.Write([]byte{0})
	l.hash.Write(data)
	return data, nil
}

func (l *loader) readJSON(rel string, v any) error {
	data, err := l.read(rel)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", rel, err)
	}
	return nil
}

func (l *loader) schema(name string) (feature.Schema, error) {
	var s feature.Schema
	if err := l.readJSON(filepath.Join(name, FileSchema), &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (l *loader) model(name string, schema feature.Schema) (model.Model, error) {
	data, err := l.read(filepath.Join(name, FileModel))
	if err != nil {
		return nil, err
	}
	m, err := l.reg.Decode(data)
	if err != nil {
		return nil, err
	}
	if m.NumFeatures() != len(schema) {
		return nil, fmt.Errorf("%s model expects %d features but schema lists %d", m.Kind(), m.NumFeatures(), len(schema))
	}
	return m, nil
}

func (l *loader) churn() (*ChurnBundle, error) {
	schema, err := l.schema(ModelChurn)
	if err != nil {
		return nil, err
	}
	var ss scalerSpec
	if err := l.readJSON(filepath.Join(ModelChurn, FileScaler), &ss); err != nil {
		return nil, err
	}
	scaler, err := NewScaler(ss.Columns, ss.Mean, ss.Scale)
	if err != nil {
		return nil, err
	}
	var vs vectorizerSpec
	if err := l.readJSON(filepath.Join(ModelChurn, FileVectorizer), &vs); err != nil {
		return nil, err
	}
	vec, err := newVectorizer(vs)
	if err != nil {
		return nil, err
	}
	m, err := l.model(ModelChurn, schema)
	if err != nil {
		return nil, err
	}
	return &ChurnBundle{Schema: schema, Scaler: scaler, Vectorizer: vec, Model: m}, nil
}

func (l *loader) loan() (*LoanBundle, error) {
	schema, err := l.schema(ModelLoan)
	if err != nil {
		return nil, err
	}
	var es encoderSpec
	if err := l.readJSON(filepath.Join(ModelLoan, FileEncoder), &es); err != nil {
		return nil, err
	}
	enc, err := newEncoder(es)
	if err != nil {
		return nil, err
	}
	m, err := l.model(ModelLoan, schema)
	if err != nil {
		return nil, err
	}
	return &LoanBundle{Schema: schema, Encoder: enc, Model: m}, nil
}

// Produced lists, in assembly order, the columns the inference flow of the named model
// builds before alignment.
func (s *Set) Produced(name string) ([]string, bool) {
	switch name {
	case ModelChurn:
		cols := s.Churn.Scaler.Columns()
		cols = append(cols, feature.ChurnFlagColumns...)
		return append(cols, s.Churn.Vectorizer.Terms()...), true
	case ModelLoan:
		cols := s.Loan.Encoder.Columns()
		return append(cols, feature.LoanNumericColumns...), true
	}
	return nil, false
}

// Coverage reports which schema columns are always padded and which produced columns
// are always dropped for the named model, independent of request values.
func (s *Set) Coverage(name string) (feature.AlignReport, bool) {
	schema, ok := s.Schema(name)
	if !ok {
		return feature.AlignReport{}, false
	}
	produced, _ := s.Produced(name)
	var v feature.Vector
	for _, col := range produced {
		v.Set(col, 0)
	}
	_, report := feature.Align(v, schema)
	return report, true
}
