// Package forest evaluates tree-ensemble classifiers exported to JSON.
//
// The artifact mirrors the arrays scikit-learn keeps on each fitted tree:
//
//	{
//	  "classes":       ["banana", "coconut", "rice"],
//	  "feature_names": ["year", "rainfall", ...],
//	  "trees": [{
//	    "children_left":  [1, -1, -1],
//	    "children_right": [2, -1, -1],
//	    "feature":        [3, -2, -2],
//	    "threshold":      [0.75, -2, -2],
//	    "value":          [[4, 3, 5], [4, 0, 1], [0, 3, 4]]
//	  }]
//	}
//
// A node is a leaf when children_left is -1. Internal nodes send a row left
// when row[feature] <= threshold. A leaf's value holds per-class sample counts.
// Predictions average the normalized leaf distributions over all trees and
// take the most probable class, as a random forest does.
package forest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
)

const leaf = -1

// Model is a loaded tree ensemble. It is immutable and safe for concurrent use.
type Model struct {
	classes  []string
	features []string
	trees    []tree
}

type artifact struct {
	Classes      []string `json:"classes"`
	FeatureNames []string `json:"feature_names"`
	Trees        []tree   `json:"trees"`
}

type tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Load decodes and validates a model artifact.
func Load(r io.Reader) (*Model, error) {
	var a artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if len(a.Classes) == 0 {
		return nil, errors.New("model artifact has no classes")
	}
	if len(a.FeatureNames) == 0 {
		return nil, errors.New("model artifact has no feature names")
	}
	if len(a.Trees) == 0 {
		return nil, errors.New("model artifact has no trees")
	}
	for i := range a.Trees {
		if err := a.Trees[i].validate(len(a.FeatureNames), len(a.Classes)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &Model{classes: a.Classes, features: a.FeatureNames, trees: a.Trees}, nil
}

func (t *tree) validate(numFeatures, numClasses int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("node arrays differ in length")
	}
	for i := range n {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == leaf {
			if len(t.Value[i]) != numClasses {
				return fmt.Errorf("leaf %d has %d class counts, want %d", i, len(t.Value[i]), numClasses)
			}
			continue
		}
		// Children always come after their parent in an exported tree; this
		// also rules out cycles.
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("node %d has invalid children %d/%d", i, left, right)
		}
		if f := t.Feature[i]; f < 0 || f >= numFeatures {
			return fmt.Errorf("node %d splits on unknown feature %d", i, f)
		}
	}
	return nil
}

// Classes returns the labels the model can predict.
func (m *Model) Classes() []string { return slices.Clone(m.classes) }

// FeatureNames returns the column order the model was trained with.
func (m *Model) FeatureNames() []string { return slices.Clone(m.features) }

// CheckSchema returns an error unless columns matches the model's training
// columns exactly, in order.
func (m *Model) CheckSchema(columns []string) error {
	if !slices.Equal(m.features, columns) {
		return fmt.Errorf("model feature names %v do not match reference schema %v", m.features, columns)
	}
	return nil
}

// Predict implements domain.Classifier.
func (m *Model) Predict(_ context.Context, rows []domain.FeatureRow) ([]string, error) {
	out := make([]string, len(rows))
	for i, row := range rows {
		if row.Len() != len(m.features) {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, row.Len(), len(m.features))
		}
		out[i] = m.classes[m.argmax(row.Values)]
	}
	return out, nil
}

func (m *Model) argmax(x []float64) int {
	proba := make([]float64, len(m.classes))
	for i := range m.trees {
		counts := m.trees[i].Value[m.trees[i].leafFor(x)]
		var total float64
		for _, c := range counts {
			total += c
		}
		if total == 0 {
			continue
		}
		for k, c := range counts {
			proba[k] += c / total
		}
	}

	best := 0
	for k := 1; k < len(proba); k++ {
		if proba[k] > proba[best] {
			best = k
		}
	}
	return best
}

func (t *tree) leafFor(x []float64) int {
	node := 0
	for t.ChildrenLeft[node] != leaf {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return node
}
