package dataset

import (
	"math/rand"
)

// Subset is an ordered sequence of object indices identifying a train or test
// partition of a dataset.
type Subset []int

// ShuffledGroupOrder returns a random permutation of the group indices, drawn
// from the supplied random source. Each fold range of an evaluation uses an
// independently seeded permutation.
func ShuffledGroupOrder(g *Grouping, rng *rand.Rand) []int {
	return rng.Perm(g.GroupCount())
}

// IdentityGroupOrder returns the unpermuted group order.
func IdentityGroupOrder(g *Grouping) []int {
	order := make([]int, g.GroupCount())
	for i := range order {
		order[i] = i
	}
	return order
}

// appendGroups appends the object indices of the listed groups to the subset.
func appendGroups(subset Subset, g *Grouping, groups []int) Subset {
	for _, gi := range groups {
		grp := g.Group(gi)
		for obj := grp.Begin; obj < grp.End; obj++ {
			subset = append(subset, obj)
		}
	}
	return subset
}

// SplitByGroups buckets the groups, traversed in the given order, into
// consecutive subsets of foldSize groups each. A final subset smaller than
// foldSize holds the remainder, if any.
func SplitByGroups(g *Grouping, order []int, foldSize int) []Subset {
	var subsets []Subset
	for begin := 0; begin < len(order); begin += foldSize {
		end := begin + foldSize
		if end > len(order) {
			end = len(order)
		}
		subsets = append(subsets, appendGroups(nil, g, order[begin:end]))
	}
	return subsets
}

// SplitByObjects buckets the groups, traversed in the given order, into
// consecutive subsets of at least foldSize objects each. Buckets close only at
// group boundaries, so groups are never torn apart; with trivial groups this
// is a plain fixed-size object split.
func SplitByObjects(g *Grouping, order []int, foldSize int) []Subset {
	var subsets []Subset
	var current Subset
	for _, gi := range order {
		current = appendGroups(current, g, []int{gi})
		if len(current) >= foldSize {
			subsets = append(subsets, current)
			current = nil
		}
	}
	if len(current) > 0 {
		subsets = append(subsets, current)
	}
	return subsets
}

// Split partitions the groups, traversed in the given order, into foldCount
// nearly-equal consecutive subsets. This is the explicit cross-validation
// path; feature evaluation supports only the inverted convention, enforced by
// the caller.
func Split(g *Grouping, order []int, foldCount int) []Subset {
	subsets := make([]Subset, 0, foldCount)
	n := len(order)
	for fold := 0; fold < foldCount; fold++ {
		begin := fold * n / foldCount
		end := (fold + 1) * n / foldCount
		subsets = append(subsets, appendGroups(nil, g, order[begin:end]))
	}
	return subsets
}

// CalcTrainSubsets returns, for each test subset, the complement formed by
// concatenating all other subsets in order. The input subsets must partition
// the sampled population.
func CalcTrainSubsets(testSubsets []Subset) []Subset {
	trainSubsets := make([]Subset, len(testSubsets))
	for i := range testSubsets {
		var train Subset
		for j, subset := range testSubsets {
			if j != i {
				train = append(train, subset...)
			}
		}
		trainSubsets[i] = train
	}
	return trainSubsets
}
