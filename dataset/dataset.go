// Package dataset holds the immutable labeled dataset consumed by feature
// evaluation, its group structure, and the partitioning algorithms that turn
// it into per-fold train/test index subsets.
package dataset

import (
	"github.com/feateval/feateval/errors"
)

// Dataset is an ordered collection of labeled objects. It is immutable once
// constructed; partitioning produces index views into it, never copies.
type Dataset struct {
	// Features holds one feature vector per object
	Features [][]float64
	// Target holds one label per object
	Target []float64
	// Weight holds per-object weights; nil means all objects have weight 1
	Weight []float64
	// GroupID holds per-object group ids; nil means all groups are trivial.
	// Objects of one group must be contiguous.
	GroupID []uint64
	// Timestamp holds per-object timestamps; nil disables time-split modes
	Timestamp []uint64
	// Ordered marks datasets whose object order is load-bearing and must not
	// be re-partitioned
	Ordered bool
}

// ObjectCount returns the number of objects
func (d *Dataset) ObjectCount() int {
	return len(d.Target)
}

// FeatureCount returns the length of the feature vectors
func (d *Dataset) FeatureCount() int {
	if len(d.Features) == 0 {
		return 0
	}
	return len(d.Features[0])
}

// HasTimestamps reports whether per-object timestamps are present
func (d *Dataset) HasTimestamps() bool {
	return d.Timestamp != nil
}

// Validate checks internal consistency of the column lengths
func (d *Dataset) Validate() error {
	n := d.ObjectCount()
	if n == 0 {
		return errors.New("dataset is empty")
	}
	if len(d.Features) != n {
		return errors.Errorf("feature row count %d does not match object count %d", len(d.Features), n)
	}
	width := d.FeatureCount()
	for i, row := range d.Features {
		if len(row) != width {
			return errors.Errorf("feature row %d has length %d, want %d", i, len(row), width)
		}
	}
	if d.Weight != nil && len(d.Weight) != n {
		return errors.Errorf("weight count %d does not match object count %d", len(d.Weight), n)
	}
	if d.GroupID != nil && len(d.GroupID) != n {
		return errors.Errorf("group id count %d does not match object count %d", len(d.GroupID), n)
	}
	if d.Timestamp != nil && len(d.Timestamp) != n {
		return errors.Errorf("timestamp count %d does not match object count %d", len(d.Timestamp), n)
	}
	return nil
}
