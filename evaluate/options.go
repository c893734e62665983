// Package evaluate decides whether adding or removing feature sets measurably
// improves model quality. It partitions a dataset into evaluation folds,
// trains one model per (feature set, role, fold) combination through an
// external Trainer, and reduces per-fold best metrics into a rank-based
// significance judgment per feature set.
package evaluate

import (
	"reflect"
	"strings"
	"time"

	"github.com/feateval/feateval/errors"
)

// Mode governs which features are excluded in baseline vs. testing training
// runs.
type Mode int

const (
	// OneVsAll compares the full feature space against models trained
	// without the other tested sets
	OneVsAll Mode = iota
	// OneVsOthers compares each set against a baseline that excludes it
	OneVsOthers
	// OthersVsAll compares the full feature space against models trained
	// without each tested set
	OthersVsAll
	// OneVsNone compares each set against a baseline that excludes every
	// tested feature
	OneVsNone
)

func (m Mode) String() string {
	switch m {
	case OneVsAll:
		return "OneVsAll"
	case OneVsOthers:
		return "OneVsOthers"
	case OthersVsAll:
		return "OthersVsAll"
	case OneVsNone:
		return "OneVsNone"
	}
	return "unknown"
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{OneVsAll, OneVsOthers, OthersVsAll, OneVsNone} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown feature evaluation mode %q", s)
}

// SamplingUnit is the granularity of fold splitting.
type SamplingUnit int

const (
	// ByObject counts fold sizes in objects
	ByObject SamplingUnit = iota
	// ByGroup counts fold sizes in groups
	ByGroup
)

func (u SamplingUnit) String() string {
	if u == ByObject {
		return "Object"
	}
	return "Group"
}

// CVParams requests an explicit cross-validation partition instead of
// fold-size-driven splitting. Only the inverted convention (train on the small
// fold, evaluate on its complement) is supported.
type CVParams struct {
	FoldCount int
	Inverted  bool
	Shuffle   bool
}

// Options configures a feature evaluation run.
type Options struct {
	// FeatureSets lists the feature-index sets nominated for joint
	// evaluation; empty means "evaluate the full model only, no comparison"
	FeatureSets [][]int
	// Mode selects the baseline/testing exclusion scheme
	Mode Mode

	// FoldCount is the number of folds to evaluate
	FoldCount int
	// FoldSize is the fold size in sampling units; 0 defers to RelativeFoldSize
	FoldSize int
	// RelativeFoldSize is the fold size as a fraction of the population,
	// used when FoldSize is 0
	RelativeFoldSize float64
	// Offset skips the first folds of the global fold sequence
	Offset int
	// Unit selects object- or group-level splitting
	Unit SamplingUnit
	// Shuffle permits re-partitioning with shuffled group order; required
	// whenever Offset+FoldCount exceeds the disjoint fold capacity
	Shuffle bool
	// TimeSplitQuantile positions the train/test boundary for datasets with
	// timestamps
	TimeSplitQuantile float64
	// CV requests an explicit cross-validation partition; nil uses
	// fold-size-driven splitting
	CV *CVParams

	// Seed drives every random decision of the run
	Seed int64
	// Iterations is the boosting iteration count requested from the trainer
	Iterations int
	// LearningRate is forwarded to the trainer
	LearningRate float64

	// MemoryLimit bounds the peak bytes spent materializing fold data;
	// 0 means unlimited
	MemoryLimit uint64
	// SnapshotPath enables resumable snapshots when non-empty
	SnapshotPath string
	// SnapshotInterval is the minimum time between periodic snapshot saves
	SnapshotInterval time.Duration
	// ComputeFeatureStrengths records per-feature strengths of every trained
	// model in the summary
	ComputeFeatureStrengths bool
}

// Validate fails fast on configuration errors, before any training starts.
func (o *Options) Validate() error {
	if o.CV == nil {
		if o.FoldCount <= 0 {
			return errors.New("fold count must be positive integer")
		}
		if o.FoldSize < 0 {
			return errors.New("fold size must be positive integer")
		}
		if o.FoldSize == 0 && (o.RelativeFoldSize <= 0 || o.RelativeFoldSize >= 1) {
			return errors.New("relative fold size must be in (0, 1) when fold size is not set")
		}
	} else {
		if !o.CV.Inverted {
			return errors.New("feature evaluation requires inverted cross-validation")
		}
		if o.CV.FoldCount <= 0 {
			return errors.New("cross-validation fold count must be positive integer")
		}
	}
	if o.Offset < 0 {
		return errors.New("fold offset must be non-negative")
	}
	switch o.Mode {
	case OneVsAll, OneVsOthers, OthersVsAll, OneVsNone:
	default:
		return errors.Errorf("unknown feature evaluation mode %d", int(o.Mode))
	}
	if o.TimeSplitQuantile < 0 || o.TimeSplitQuantile >= 1 {
		return errors.Errorf("time split quantile must be in [0, 1), got %v", o.TimeSplitQuantile)
	}
	if o.Iterations <= 0 {
		return errors.New("iteration count must be positive integer")
	}
	for i, set := range o.FeatureSets {
		if len(set) == 0 {
			return errors.Errorf("feature set %d is empty", i)
		}
		for _, f := range set {
			if f < 0 {
				return errors.Errorf("feature set %d contains negative feature index %d", i, f)
			}
		}
	}
	return nil
}

// evalOptions is the subset of Options persisted in snapshots; a resumed run
// must present identical values.
type evalOptions struct {
	FeatureSets       [][]int
	Mode              Mode
	FoldCount         int
	FoldSize          int
	RelativeFoldSize  float64
	Offset            int
	Unit              SamplingUnit
	Shuffle           bool
	TimeSplitQuantile float64
	CV                *CVParams
	Seed              int64
	Iterations        int
	LearningRate      float64
}

func (o *Options) evalOptions() evalOptions {
	return evalOptions{
		FeatureSets:       o.FeatureSets,
		Mode:              o.Mode,
		FoldCount:         o.FoldCount,
		FoldSize:          o.FoldSize,
		RelativeFoldSize:  o.RelativeFoldSize,
		Offset:            o.Offset,
		Unit:              o.Unit,
		Shuffle:           o.Shuffle,
		TimeSplitQuantile: o.TimeSplitQuantile,
		CV:                o.CV,
		Seed:              o.Seed,
		Iterations:        o.Iterations,
		LearningRate:      o.LearningRate,
	}
}

func (e evalOptions) equal(other evalOptions) bool {
	return reflect.DeepEqual(e, other)
}
