package dataset

import (
	"github.com/feateval/feateval/errors"
)

// Group is a half-open range [Begin, End) of object indices belonging to one
// group under the dataset's object order.
type Group struct {
	Begin int
	End   int
}

// Size returns the number of objects in the group
func (g Group) Size() int {
	return g.End - g.Begin
}

// Grouping is the group structure of a dataset: a partition of the object
// index range into contiguous groups.
type Grouping struct {
	groups      []Group
	objectCount int
}

// NewGrouping derives the group structure from the dataset's group ids.
// Datasets without group ids get one trivial group per object. It is an error
// for a group id to reappear after a different id has been seen: groups must
// be contiguous under the current object order.
func NewGrouping(d *Dataset) (*Grouping, error) {
	n := d.ObjectCount()
	if d.GroupID == nil {
		groups := make([]Group, n)
		for i := range groups {
			groups[i] = Group{Begin: i, End: i + 1}
		}
		return &Grouping{groups: groups, objectCount: n}, nil
	}

	var groups []Group
	seen := make(map[uint64]bool)
	begin := 0
	for i := 1; i <= n; i++ {
		if i == n || d.GroupID[i] != d.GroupID[begin] {
			id := d.GroupID[begin]
			if seen[id] {
				return nil, errors.Errorf("group id %d is not contiguous under the current object order", id)
			}
			seen[id] = true
			groups = append(groups, Group{Begin: begin, End: i})
			begin = i
		}
	}
	return &Grouping{groups: groups, objectCount: n}, nil
}

// GroupCount returns the number of groups
func (g *Grouping) GroupCount() int {
	return len(g.groups)
}

// ObjectCount returns the number of objects covered by the grouping
func (g *Grouping) ObjectCount() int {
	return g.objectCount
}

// Group returns the i-th group under the dataset's object order
func (g *Grouping) Group(i int) Group {
	return g.groups[i]
}

// IsTrivial reports whether every group holds exactly one object
func (g *Grouping) IsTrivial() bool {
	return len(g.groups) == g.objectCount
}
