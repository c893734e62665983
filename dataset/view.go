package dataset

import (
	"github.com/feateval/feateval/errors"
)

// View is a window onto a subset of a dataset's objects. Views are cheap to
// construct and immutable; Materialize produces the concrete matrix a trainer
// consumes.
type View struct {
	Data    *Dataset
	Indices Subset
}

// NewView builds a view over the given subset.
func NewView(d *Dataset, indices Subset) *View {
	return &View{Data: d, Indices: indices}
}

// ObjectCount returns the number of objects in the view
func (v *View) ObjectCount() int {
	return len(v.Indices)
}

// EstimateBytes returns the approximate peak memory cost of materializing the
// view.
func (v *View) EstimateBytes() uint64 {
	perObject := uint64(v.Data.FeatureCount()+2) * 8
	return uint64(len(v.Indices)) * perObject
}

// Matrix is a materialized view: contiguous per-object copies of the feature
// vectors together with targets and weights, plus a mask of features excluded
// from training.
type Matrix struct {
	Rows   [][]float64
	Target []float64
	Weight []float64
	// Ignored masks features excluded from training, indexed by feature;
	// nil means no feature is ignored
	Ignored []bool
}

// Materialize copies the view's objects into a Matrix. The copy is refused if
// its estimated size exceeds byteLimit; a zero limit disables the check.
func (v *View) Materialize(byteLimit uint64) (*Matrix, error) {
	if byteLimit > 0 {
		if estimate := v.EstimateBytes(); estimate > byteLimit {
			return nil, errors.Errorf(
				"materializing %d objects needs about %d bytes, over the per-task budget of %d; increase the memory limit or decrease fold count",
				len(v.Indices), estimate, byteLimit)
		}
	}
	m := &Matrix{
		Rows:   make([][]float64, len(v.Indices)),
		Target: make([]float64, len(v.Indices)),
	}
	if v.Data.Weight != nil {
		m.Weight = make([]float64, len(v.Indices))
	}
	width := v.Data.FeatureCount()
	backing := make([]float64, len(v.Indices)*width)
	for i, idx := range v.Indices {
		row := backing[i*width : (i+1)*width : (i+1)*width]
		copy(row, v.Data.Features[idx])
		m.Rows[i] = row
		m.Target[i] = v.Data.Target[idx]
		if m.Weight != nil {
			m.Weight[i] = v.Data.Weight[idx]
		}
	}
	return m, nil
}

// ObjectCount returns the number of objects in the matrix
func (m *Matrix) ObjectCount() int {
	return len(m.Rows)
}

// FeatureCount returns the length of the feature vectors
func (m *Matrix) FeatureCount() int {
	if len(m.Rows) == 0 {
		return 0
	}
	return len(m.Rows[0])
}

// WithIgnored returns a shallow copy of the matrix with the listed features
// masked out. The feature data itself is shared, not copied.
func (m *Matrix) WithIgnored(features []int) *Matrix {
	restricted := *m
	restricted.Ignored = make([]bool, m.FeatureCount())
	for _, f := range features {
		restricted.Ignored[f] = true
	}
	return &restricted
}

// IsIgnored reports whether the feature is masked out
func (m *Matrix) IsIgnored(feature int) bool {
	return m.Ignored != nil && m.Ignored[feature]
}

// HasAvailableFeatures reports whether any non-ignored feature takes at least
// two distinct values. Training on a matrix without available features is
// pointless; the orchestrator substitutes baseline results.
func (m *Matrix) HasAvailableFeatures() bool {
	if len(m.Rows) == 0 {
		return false
	}
	for f := 0; f < m.FeatureCount(); f++ {
		if m.IsIgnored(f) {
			continue
		}
		first := m.Rows[0][f]
		for _, row := range m.Rows[1:] {
			if row[f] != first {
				return true
			}
		}
	}
	return false
}
