package model

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const eps = 1e-12

func TestLogistic(t *testing.T) {
	l, err := NewLogistic(-1, []float64{2, -0.5}, []float64{1, 4})
	if err != nil {
		t.Fatalf("NewLogistic: %v", err)
	}
	row := []float64{1.5, 2}

	p, err := l.PredictProba(row)
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	// margin = -1 + 3 - 1 = 1
	if math.Abs(p-Sigmoid(1)) > eps {
		t.Fatalf("p = %v, want %v", p, Sigmoid(1))
	}

	attr, err := l.Attributions(row)
	if err != nil {
		t.Fatalf("Attributions: %v", err)
	}
	want := []float64{2 * 0.5, -0.5 * -2}
	if diff := cmp.Diff(want, attr, cmpopts.EquateApprox(0, eps)); diff != "" {
		t.Fatalf("attributions (-want +got):\n%s", diff)
	}
}

func TestLogisticRowMismatch(t *testing.T) {
	l, _ := NewLogistic(0, []float64{1, 2, 3}, nil)
	_, err := l.PredictProba([]float64{1, 2})
	if err == nil || !strings.Contains(err.Error(), "expected 3 features, got 2") {
		t.Fatalf("err = %v", err)
	}
	if _, err := l.PredictProba([]float64{1, math.NaN(), 3}); err == nil {
		t.Fatal("NaN feature should be rejected")
	}
}

func TestNewLogisticRejects(t *testing.T) {
	if _, err := NewLogistic(0, nil, nil); err == nil {
		t.Error("empty coefficients accepted")
	}
	if _, err := NewLogistic(0, []float64{1}, []float64{1, 2}); err == nil {
		t.Error("background length mismatch accepted")
	}
	if _, err := NewLogistic(math.Inf(1), []float64{1}, nil); err == nil {
		t.Error("infinite intercept accepted")
	}
}

func stump(feature int, threshold, left, right float64) Tree {
	return Tree{Nodes: []Node{
		{Feature: feature, Threshold: threshold, Left: 1, Right: 2, Value: (left + right) / 2},
		{Feature: -1, Value: left},
		{Feature: -1, Value: right},
	}}
}

func TestTreeEnsemble(t *testing.T) {
	deep := Tree{Nodes: []Node{
		{Feature: 0, Threshold: 10, Left: 1, Right: 2, Value: 0.1},
		{Feature: 1, Threshold: 0.5, Left: 3, Right: 4, Value: -0.2},
		{Feature: -1, Value: 0.6},
		{Feature: -1, Value: -0.5},
		{Feature: -1, Value: 0.3},
	}}
	e, err := NewTreeEnsemble(0.2, 3, []Tree{deep, stump(2, 1, -1, 1)})
	if err != nil {
		t.Fatalf("NewTreeEnsemble: %v", err)
	}

	row := []float64{5, 1, 0}
	margin, err := e.Margin(row)
	if err != nil {
		t.Fatalf("Margin: %v", err)
	}
	// deep: 5<10 left, 1>=0.5 right -> 0.3; stump: 0<1 left -> -1
	if math.Abs(margin-(0.2+0.3-1)) > eps {
		t.Fatalf("margin = %v", margin)
	}
	p, _ := e.PredictProba(row)
	if math.Abs(p-Sigmoid(margin)) > eps {
		t.Fatalf("p = %v", p)
	}

	attr, err := e.Attributions(row)
	if err != nil {
		t.Fatalf("Attributions: %v", err)
	}
	want := []float64{-0.2 - 0.1, 0.3 - -0.2, -1 - 0}
	if diff := cmp.Diff(want, attr, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("attributions (-want +got):\n%s", diff)
	}

	sum := e.Bias()
	for _, a := range attr {
		sum += a
	}
	if math.Abs(sum-margin) > 1e-9 {
		t.Fatalf("bias + attributions = %v, margin = %v", sum, margin)
	}
}

func TestNewTreeEnsembleRejects(t *testing.T) {
	cases := []struct {
		name  string
		trees []Tree
	}{
		{"no trees", nil},
		{"empty tree", []Tree{{}}},
		{"feature out of range", []Tree{stump(7, 0, 0, 0)}},
		{"child points back", []Tree{{Nodes: []Node{{Feature: 0, Left: 0, Right: 1}, {Feature: -1}}}}},
		{"child out of range", []Tree{{Nodes: []Node{{Feature: 0, Left: 1, Right: 5}, {Feature: -1}}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTreeEnsemble(0, 2, tc.trees); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRegistryDecode(t *testing.T) {
	r := DefaultRegistry()

	m, err := r.Decode([]byte(`{"kind":"logistic","intercept":0.5,"coefficients":[1,2]}`))
	if err != nil {
		t.Fatalf("Decode logistic: %v", err)
	}
	if m.Kind() != KindLogistic || m.NumFeatures() != 2 {
		t.Fatalf("got %s/%d", m.Kind(), m.NumFeatures())
	}

	m, err = r.Decode([]byte(`{"kind":"tree_ensemble","base_score":0,"num_features":1,
		"trees":[{"nodes":[{"feature":0,"threshold":1,"left":1,"right":2,"value":0},
		{"feature":-1,"value":-1},{"feature":-1,"value":1}]}]}`))
	if err != nil {
		t.Fatalf("Decode tree_ensemble: %v", err)
	}
	if p, _ := m.PredictProba([]float64{2}); math.Abs(p-Sigmoid(1)) > eps {
		t.Fatalf("p = %v", p)
	}

	for _, bad := range []string{`{}`, `{"kind":"svm"}`, `not json`} {
		if _, err := r.Decode([]byte(bad)); err == nil {
			t.Errorf("Decode(%s) should fail", bad)
		}
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate kind")
		}
	}()
	r := DefaultRegistry()
	r.Register(KindLogistic, decodeLogistic)
}

func TestRegistryKinds(t *testing.T) {
	if diff := cmp.Diff([]string{KindLogistic, KindTreeEnsemble}, DefaultRegistry().Kinds()); diff != "" {
		t.Fatalf("kinds (-want +got):\n%s", diff)
	}
}
