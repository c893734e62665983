package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feateval/feateval/dataset"
)

func TestPrepareFoldsInvertedConvention(t *testing.T) {
	d, g := syntheticDataset(t, 40, 2)
	opts := &Options{FoldSize: 10, Unit: ByObject}
	r := foldRange{begin: 0, offset: 1, foldCount: 2}

	folds, err := prepareFolds(d, g, dataset.IdentityGroupOrder(g), r, opts, 10)
	require.NoError(t, err)
	require.Len(t, folds, 2)

	for foldIdx, fd := range folds {
		// the fold window itself is the training data, its complement the test
		assert.Equal(t, 10, fd.Learn.ObjectCount())
		assert.Equal(t, 30, fd.Test.ObjectCount())
		assert.False(t, fd.SharedTest)

		firstObject := (r.offset + foldIdx) * 10
		for i := 0; i < 10; i++ {
			assert.Equal(t, d.Target[firstObject+i], fd.Learn.Target[i])
		}
	}
}

func TestPrepareFoldsWindowOverflow(t *testing.T) {
	d, g := syntheticDataset(t, 40, 2)
	opts := &Options{FoldSize: 10, Unit: ByObject}
	r := foldRange{begin: 0, offset: 3, foldCount: 2}

	_, err := prepareFolds(d, g, dataset.IdentityGroupOrder(g), r, opts, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset partition logic failed")
}

func TestPrepareFoldsMemoryLimit(t *testing.T) {
	d, g := syntheticDataset(t, 40, 2)
	opts := &Options{FoldSize: 10, Unit: ByObject, MemoryLimit: 64}
	r := foldRange{begin: 0, offset: 0, foldCount: 2}

	_, err := prepareFolds(d, g, dataset.IdentityGroupOrder(g), r, opts, 10)
	require.Error(t, err)
}

func timeSplitDataset(t *testing.T) (*dataset.Dataset, *dataset.Grouping) {
	const groups = 10
	d := &dataset.Dataset{}
	for i := 0; i < groups; i++ {
		for j := 0; j < 2; j++ {
			x := float64(2*i + j)
			d.Features = append(d.Features, []float64{x, 3 - x})
			d.Target = append(d.Target, x*x)
			d.GroupID = append(d.GroupID, uint64(i))
			d.Timestamp = append(d.Timestamp, uint64(i))
		}
	}
	g, err := dataset.NewGrouping(d)
	require.NoError(t, err)
	return d, g
}

func TestPrepareTimeSplitFolds(t *testing.T) {
	d, g := timeSplitDataset(t)
	opts := &Options{FoldSize: 2, Unit: ByGroup, TimeSplitQuantile: 0.5}

	absFoldSize, disjoint, err := countDisjointFolds(d, g, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, absFoldSize)
	assert.Equal(t, 3, disjoint)

	r := foldRange{begin: 0, offset: 0, foldCount: 2}
	folds, err := prepareTimeSplitFolds(d, g, dataset.IdentityGroupOrder(g), r, opts, absFoldSize)
	require.NoError(t, err)
	require.Len(t, folds, 2)

	for _, fd := range folds {
		assert.Equal(t, 4, fd.Learn.ObjectCount())
		// every fold shares the post-boundary window as its test data
		assert.Equal(t, 8, fd.Test.ObjectCount())
		assert.True(t, fd.SharedTest)
		assert.Equal(t, folds[0].Test.Target, fd.Test.Target)
	}
}

func TestPrepareTimeSplitFoldsEmptyTail(t *testing.T) {
	d, g := timeSplitDataset(t)
	// boundary at the last timestamp leaves nothing to test on
	opts := &Options{FoldSize: 2, Unit: ByGroup, TimeSplitQuantile: 0.9}

	r := foldRange{begin: 0, offset: 0, foldCount: 2}
	_, err := prepareTimeSplitFolds(d, g, dataset.IdentityGroupOrder(g), r, opts, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty test window")
}

func TestPrepareTimeSplitFoldsRequiresTimestamps(t *testing.T) {
	d, g := syntheticDataset(t, 20, 2)
	d.GroupID = make([]uint64, 20)
	for i := range d.GroupID {
		d.GroupID[i] = uint64(i)
	}
	opts := &Options{FoldSize: 2, Unit: ByGroup, TimeSplitQuantile: 0.5}

	_, err := prepareTimeSplitFolds(d, g, dataset.IdentityGroupOrder(g), foldRange{foldCount: 1}, opts, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamps")
}

func TestPrepareTimeSplitFoldsReshufflesPerRange(t *testing.T) {
	d, g := timeSplitDataset(t)
	opts := &Options{FoldSize: 2, Unit: ByGroup, TimeSplitQuantile: 0.5, Shuffle: true}
	r := foldRange{begin: 0, offset: 0, foldCount: 2}

	first, err := prepareTimeSplitFolds(d, g, dataset.IdentityGroupOrder(g), r, opts, 2)
	require.NoError(t, err)

	// a wrapped fold range arrives with its own reshuffled group order and
	// must train on a different partition of the pre-boundary groups
	reversed := make([]int, g.GroupCount())
	for i := range reversed {
		reversed[i] = g.GroupCount() - 1 - i
	}
	second, err := prepareTimeSplitFolds(d, g, reversed, r, opts, 2)
	require.NoError(t, err)

	assert.NotEqual(t, first[0].Learn.Target, second[0].Learn.Target)
	// the shared test tail is order-independent as a set
	assert.ElementsMatch(t, first[0].Test.Target, second[0].Test.Target)
}
