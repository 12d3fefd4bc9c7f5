package model

import (
	"encoding/json"
	"fmt"
)

// KindTreeEnsemble is the registry key of TreeEnsemble.
const KindTreeEnsemble = "tree_ensemble"

// Node is one node of a decision tree. Leaves have Feature -1. Internal nodes send
// rows with x[Feature] < Threshold to Left and everything else to Right. Value is the
// leaf output, or for internal nodes the expected output of the subtree.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a decision tree stored as a flat node list rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// TreeEnsemble is an additive ensemble of regression trees over the margin, as produced
// by gradient boosting: margin = base_score + Σ tree(x).
type TreeEnsemble struct {
	baseScore   float64
	numFeatures int
	trees       []Tree
}

type treeEnsembleSpec struct {
	BaseScore   float64 `json:"base_score"`
	NumFeatures int     `json:"num_features"`
	Trees       []Tree  `json:"trees"`
}

// NewTreeEnsemble validates trees and builds a TreeEnsemble over rows of numFeatures columns.
func NewTreeEnsemble(baseScore float64, numFeatures int, trees []Tree) (*TreeEnsemble, error) {
	if numFeatures <= 0 {
		return nil, fmt.Errorf("tree_ensemble: num_features must be positive")
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("tree_ensemble: no trees")
	}
	for i, t := range trees {
		if err := t.validate(numFeatures); err != nil {
			return nil, fmt.Errorf("tree_ensemble: tree %d: %w", i, err)
		}
	}
	return &TreeEnsemble{baseScore: baseScore, numFeatures: numFeatures, trees: trees}, nil
}

// validate requires children to come after their parent, which rules out cycles.
func (t Tree) validate(numFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("no nodes")
	}
	for i, n := range t.Nodes {
		if !allFinite([]float64{n.Threshold, n.Value}) {
			return fmt.Errorf("node %d: non-finite parameter", i)
		}
		if n.Feature < 0 {
			continue
		}
		if n.Feature >= numFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("node %d: invalid child %d", i, child)
			}
		}
	}
	return nil
}

func decodeTreeEnsemble(raw json.RawMessage) (Model, error) {
	var s treeEnsembleSpec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("tree_ensemble: %w", err)
	}
	return NewTreeEnsemble(s.BaseScore, s.NumFeatures, s.Trees)
}

func (e *TreeEnsemble) Kind() string      { return KindTreeEnsemble }
func (e *TreeEnsemble) NumFeatures() int { return e.numFeatures }

// path calls visit for every edge taken from the root to the leaf reached by row and
// returns the leaf value.
func (t Tree) path(row []float64, visit func(from, to Node)) float64 {
	cur := t.Nodes[0]
	for cur.Feature >= 0 {
		next := t.Nodes[cur.Right]
		if row[cur.Feature] < cur.Threshold {
			next = t.Nodes[cur.Left]
		}
		if visit != nil {
			visit(cur, next)
		}
		cur = next
	}
	return cur.Value
}

// Margin returns base_score plus the sum of leaf values reached by row.
func (e *TreeEnsemble) Margin(row []float64) (float64, error) {
	if err := checkRow(e.numFeatures, row); err != nil {
		return 0, err
	}
	m := e.baseScore
	for _, t := range e.trees {
		m += t.path(row, nil)
	}
	return m, nil
}

func (e *TreeEnsemble) PredictProba(row []float64) (float64, error) {
	m, err := e.Margin(row)
	if err != nil {
		return 0, err
	}
	return Sigmoid(m), nil
}

// Attributions credits each split's feature with the change in expected value along the
// decision path. The attributions plus Bias sum to Margin.
func (e *TreeEnsemble) Attributions(row []float64) ([]float64, error) {
	if err := checkRow(e.numFeatures, row); err != nil {
		return nil, err
	}
	out := make([]float64, e.numFeatures)
	for _, t := range e.trees {
		t.path(row, func(from, to Node) {
			out[from.Feature] += to.Value - from.Value
		})
	}
	return out, nil
}

// Bias is the part of every margin not attributed to any feature: base_score plus the
// root expected value of each tree.
func (e *TreeEnsemble) Bias() float64 {
	b := e.baseScore
	for _, t := range e.trees {
		b += t.Nodes[0].Value
	}
	return b
}
