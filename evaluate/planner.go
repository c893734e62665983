package evaluate

import (
	"math/rand"

	"github.com/feateval/feateval/dataset"
	"github.com/feateval/feateval/errors"
)

// foldRange is one independent reshuffled partition of the dataset,
// contributing a window of folds to the global (offset, foldCount) request.
type foldRange struct {
	// begin is the absolute index of the partition's first fold:
	// rangeIdx * disjointFoldCount
	begin int
	// offset is the window start within this partition
	offset int
	// foldCount is the number of folds taken from this partition
	foldCount int
	// seed drives this partition's shuffle and per-fold seeds
	seed int64
}

func samplingUnitCount(g *dataset.Grouping, unit SamplingUnit) int {
	if unit == ByObject {
		return g.ObjectCount()
	}
	return g.GroupCount()
}

// countDisjointFolds computes the absolute fold size and the number of
// non-overlapping folds one partition of the dataset supports. For time-split
// datasets only the pre-boundary population counts.
func countDisjointFolds(d *dataset.Dataset, g *dataset.Grouping, opts *Options) (absFoldSize, disjoint int, err error) {
	var units int
	if !d.HasTimestamps() {
		units = samplingUnitCount(g, opts.Unit)
	} else {
		boundary, err := dataset.FindQuantileTimestamp(g, d.Timestamp, opts.TimeSplitQuantile)
		if err != nil {
			return 0, 0, err
		}
		for i := 0; i < g.GroupCount(); i++ {
			grp := g.Group(i)
			if d.Timestamp[grp.Begin] <= boundary {
				if opts.Unit == ByObject {
					units += grp.Size()
				} else {
					units++
				}
			}
		}
	}

	if opts.FoldSize > 0 {
		absFoldSize = opts.FoldSize
	} else {
		absFoldSize = int(opts.RelativeFoldSize * float64(units))
		if absFoldSize <= 0 {
			return 0, 0, errors.Errorf(
				"relative fold size must be greater than %v so that size of each fold is non-zero",
				1/float64(units))
		}
	}
	disjoint = units / absFoldSize
	if disjoint < 1 {
		disjoint = 1
	}
	return absFoldSize, disjoint, nil
}

// planFoldRanges splits the global (offset, foldCount) window into fold-range
// segments, each bounded within one disjoint partition. Per-range seeds come
// from a sequence derived from the top-level seed, so the plan is reproducible
// across runs and resumptions.
func planFoldRanges(disjoint, offset, foldCount int, seed int64) []foldRange {
	rangeCount := (offset + foldCount + disjoint - 1) / disjoint
	seeds := make([]int64, rangeCount)
	rng := rand.New(rand.NewSource(seed))
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	var ranges []foldRange
	rangeIdx := offset / disjoint
	current := foldRange{
		begin:  rangeIdx * disjoint,
		offset: offset % disjoint,
		seed:   seeds[rangeIdx],
	}
	current.foldCount = min(disjoint-current.offset, foldCount)

	processed := 0
	for processed < foldCount {
		ranges = append(ranges, current)
		processed += current.foldCount
		rangeIdx++
		current = foldRange{
			begin:  rangeIdx * disjoint,
			offset: 0,
		}
		current.foldCount = min(disjoint, foldCount-processed)
		if rangeIdx < len(seeds) {
			current.seed = seeds[rangeIdx]
		}
	}
	return ranges
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
