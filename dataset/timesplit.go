package dataset

import (
	"sort"

	"github.com/feateval/feateval/errors"
)

// GroupTimestamps returns one representative timestamp per group: the
// timestamp of the group's first object.
func GroupTimestamps(g *Grouping, timestamps []uint64) []uint64 {
	reps := make([]uint64, 0, g.GroupCount())
	for i := 0; i < g.GroupCount(); i++ {
		reps = append(reps, timestamps[g.Group(i).Begin])
	}
	return reps
}

// FindQuantileTimestamp returns the representative group timestamp at the
// requested quantile position; groups at or before it form the train side of a
// time split, groups after it form the shared test window.
func FindQuantileTimestamp(g *Grouping, timestamps []uint64, quantile float64) (uint64, error) {
	if g.GroupCount() == 0 {
		return 0, errors.New("cannot compute quantile timestamp of an empty grouping")
	}
	if quantile < 0 || quantile >= 1 {
		return 0, errors.Errorf("time split quantile must be in [0, 1), got %v", quantile)
	}
	reps := GroupTimestamps(g, timestamps)
	sort.Slice(reps, func(i, j int) bool { return reps[i] < reps[j] })
	return reps[int(float64(len(reps))*quantile)], nil
}

// quantileSplit buckets the pre-boundary groups in the given group order,
// closing a bucket when full says so, and returns the buckets followed by one
// final subset holding every post-boundary object.
func quantileSplit(g *Grouping, order []int, timestamps []uint64, boundary uint64, full func(subset Subset, groups int) bool) []Subset {
	var subsets []Subset
	var current Subset
	var currentGroups int
	var tail Subset
	for _, i := range order {
		grp := g.Group(i)
		if timestamps[grp.Begin] > boundary {
			tail = appendGroups(tail, g, []int{i})
			continue
		}
		current = appendGroups(current, g, []int{i})
		currentGroups++
		if full(current, currentGroups) {
			subsets = append(subsets, current)
			current = nil
			currentGroups = 0
		}
	}
	if len(current) > 0 {
		subsets = append(subsets, current)
	}
	return append(subsets, tail)
}

// QuantileSplitByGroups splits a time-ordered dataset at the boundary
// timestamp. Pre-boundary groups are bucketed into subsets of foldSize groups,
// following the given group order; the final returned subset is the shared
// post-boundary test window.
func QuantileSplitByGroups(g *Grouping, order []int, timestamps []uint64, boundary uint64, foldSize int) []Subset {
	return quantileSplit(g, order, timestamps, boundary, func(_ Subset, groups int) bool {
		return groups >= foldSize
	})
}

// QuantileSplitByObjects is QuantileSplitByGroups with the fold size counted
// in objects instead of groups.
func QuantileSplitByObjects(g *Grouping, order []int, timestamps []uint64, boundary uint64, foldSize int) []Subset {
	return quantileSplit(g, order, timestamps, boundary, func(subset Subset, _ int) bool {
		return len(subset) >= foldSize
	})
}
