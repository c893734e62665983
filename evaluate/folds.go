package evaluate

import (
	"log"
	"runtime"

	"github.com/feateval/feateval/dataset"
	"github.com/feateval/feateval/errors"
	"github.com/feateval/feateval/workerpool"
)

// foldData is one fold's materialized train/test pair. Learn is the fold
// itself (the training window); Test is the held-out data the fold's models
// are measured on.
type foldData struct {
	Learn *dataset.Matrix
	Test  *dataset.Matrix
	// SharedTest marks the time-split layout where every fold of the range
	// is measured on the same post-boundary window
	SharedTest bool
}

// takeMiddleElements selects the [offset, offset+count) window of the
// subsets. Overflow is an internal consistency failure: the planner never
// requests a window beyond the partition.
func takeMiddleElements(subsets []dataset.Subset, offset, count int) ([]dataset.Subset, error) {
	if offset+count > len(subsets) {
		return nil, errors.Errorf(
			"dataset partition logic failed: window [%d, %d) exceeds %d subsets",
			offset, offset+count, len(subsets))
	}
	return subsets[offset : offset+count], nil
}

// createFoldData materializes the train and test views of every fold
// concurrently, dividing the memory budget evenly across the 2*foldCount
// materialization tasks.
func createFoldData(d *dataset.Dataset, trainSubsets, testSubsets []dataset.Subset, memoryLimit uint64, sharedTest bool) ([]foldData, error) {
	if len(trainSubsets) != len(testSubsets) {
		return nil, errors.Errorf(
			"number of train and test subsets do not match: %d != %d",
			len(trainSubsets), len(testSubsets))
	}
	var perTaskLimit uint64
	if memoryLimit > 0 {
		perTaskLimit = memoryLimit / uint64(2*len(trainSubsets))
	}

	folds := make([]foldData, len(trainSubsets))
	var jobs []workerpool.Job
	for foldIdx := range trainSubsets {
		foldIdx := foldIdx
		jobs = append(jobs,
			func() error {
				m, err := dataset.NewView(d, trainSubsets[foldIdx]).Materialize(perTaskLimit)
				if err != nil {
					return errors.Wrapf(err, "materializing train subset of fold %d", foldIdx)
				}
				folds[foldIdx].Learn = m
				return nil
			},
			func() error {
				m, err := dataset.NewView(d, testSubsets[foldIdx]).Materialize(perTaskLimit)
				if err != nil {
					return errors.Wrapf(err, "materializing test subset of fold %d", foldIdx)
				}
				folds[foldIdx].Test = m
				folds[foldIdx].SharedTest = sharedTest
				return nil
			})
	}

	pool := workerpool.New(runtime.NumCPU())
	pool.Add(jobs)
	err := pool.Wait()
	pool.Stop()
	if err != nil {
		return nil, err
	}
	return folds, nil
}

// prepareFolds builds the fold data of one fold range using the grouped
// cross-validation split: each fold trains on a window of foldSize sampling
// units and is measured on the window's complement.
func prepareFolds(d *dataset.Dataset, g *dataset.Grouping, order []int, r foldRange, opts *Options, absFoldSize int) ([]foldData, error) {
	var testSubsets []dataset.Subset
	if opts.CV != nil {
		testSubsets = dataset.Split(g, order, opts.CV.FoldCount)
	} else if opts.Unit == ByObject {
		testSubsets = dataset.SplitByObjects(g, order, absFoldSize)
	} else {
		testSubsets = dataset.SplitByGroups(g, order, absFoldSize)
	}
	trainSubsets := dataset.CalcTrainSubsets(testSubsets)

	// inverted convention: train on the fold window, test on its complement
	trainSubsets, testSubsets = testSubsets, trainSubsets

	if opts.CV == nil {
		var err error
		if trainSubsets, err = takeMiddleElements(trainSubsets, r.offset, r.foldCount); err != nil {
			return nil, err
		}
		if testSubsets, err = takeMiddleElements(testSubsets, r.offset, r.foldCount); err != nil {
			return nil, err
		}
	}
	return createFoldData(d, trainSubsets, testSubsets, opts.MemoryLimit, false)
}

// prepareTimeSplitFolds builds the fold data of one fold range using the
// time-ordered quantile split: pre-boundary windows train, the post-boundary
// tail is the test window shared by every fold. The group order carries the
// range's reshuffle, so wrapped fold ranges train on fresh partitions.
func prepareTimeSplitFolds(d *dataset.Dataset, g *dataset.Grouping, order []int, r foldRange, opts *Options, absFoldSize int) ([]foldData, error) {
	if d.GroupID == nil {
		return nil, errors.New("time split feature evaluation requires dataset with groups")
	}
	if !d.HasTimestamps() {
		return nil, errors.New("time split feature evaluation requires dataset with timestamps")
	}

	boundary, err := dataset.FindQuantileTimestamp(g, d.Timestamp, opts.TimeSplitQuantile)
	if err != nil {
		return nil, err
	}
	log.Printf("quantile timestamp %d", boundary)

	var subsets []dataset.Subset
	if opts.Unit == ByObject {
		subsets = dataset.QuantileSplitByObjects(g, order, d.Timestamp, boundary, absFoldSize)
	} else {
		subsets = dataset.QuantileSplitByGroups(g, order, d.Timestamp, boundary, absFoldSize)
	}

	trainSubsets, err := takeMiddleElements(subsets[:len(subsets)-1], r.offset, r.foldCount)
	if err != nil {
		return nil, err
	}
	tail := subsets[len(subsets)-1]
	if len(tail) == 0 {
		return nil, errors.New("time split produced an empty test window; decrease the time split quantile")
	}
	testSubsets := make([]dataset.Subset, r.foldCount)
	for i := range testSubsets {
		testSubsets[i] = tail
	}
	return createFoldData(d, trainSubsets, testSubsets, opts.MemoryLimit, true)
}
