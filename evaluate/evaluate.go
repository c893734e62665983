package evaluate

import (
	"log"
	"math/rand"
	"time"

	"github.com/feateval/feateval/dataset"
	"github.com/feateval/feateval/errors"
	"github.com/feateval/feateval/metric"
	"github.com/feateval/feateval/model"
)

// EvaluateFeatures measures the contribution of each nominated feature set by
// training baseline and testing models over windows of the dataset and
// comparing their held-out metrics. The returned Summary holds the full
// metric histories plus per-set p-values and average metric deltas.
func EvaluateFeatures(opts Options, d *dataset.Dataset, metrics []metric.Metric, trainer Trainer) (*Summary, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		return nil, errors.New("feature evaluation requires at least one metric")
	}
	if trainer == nil {
		return nil, errors.New("feature evaluation requires a trainer")
	}
	if d.Ordered {
		return nil, errors.New("feature evaluation does not support ordered objects data")
	}

	g, err := dataset.NewGrouping(d)
	if err != nil {
		return nil, err
	}

	var absFoldSize int
	var ranges []foldRange
	if opts.CV != nil {
		ranges = []foldRange{{begin: 0, offset: 0, foldCount: opts.CV.FoldCount, seed: opts.Seed}}
	} else {
		var disjoint int
		var err error
		absFoldSize, disjoint, err = countDisjointFolds(d, g, &opts)
		if err != nil {
			return nil, err
		}
		units := samplingUnitCount(g, opts.Unit)
		if units <= absFoldSize || units <= opts.FoldCount {
			return nil, errors.Errorf(
				"dataset with %d sampling units is too small to be split into folds of size %d",
				units, absFoldSize)
		}
		if disjoint < opts.Offset+opts.FoldCount && !opts.Shuffle {
			return nil, errors.Errorf(
				"dataset is too small to fit %d folds at offset %d without shuffling; decrease fold size to at most %d or enable dataset shuffling",
				opts.FoldCount, opts.Offset, units/(opts.Offset+opts.FoldCount))
		}
		ranges = planFoldRanges(disjoint, opts.Offset, opts.FoldCount, opts.Seed)
	}

	summary := &Summary{}
	cb := newCheckpoints(&opts, summary)
	if cb.snapshotExists() {
		if err := cb.loadSnapshot(); err != nil {
			return nil, err
		}
	}

	for _, r := range ranges {
		if err := evaluateFoldRange(&opts, d, g, metrics, trainer, r, absFoldSize, summary, cb); err != nil {
			return nil, err
		}
	}

	if err := summary.CalcSignificance(); err != nil {
		return nil, err
	}
	return summary, nil
}

// evaluateFoldRange trains and measures every (featureSet, role, fold) unit
// of one fold range. Every random decision of the range flows from the
// range's own seed, so ranges replay identically on resumption.
func evaluateFoldRange(opts *Options, d *dataset.Dataset, g *dataset.Grouping, metrics []metric.Metric, trainer Trainer, r foldRange, absFoldSize int, summary *Summary, cb *checkpoints) error {
	rng := rand.New(rand.NewSource(r.seed))

	shuffle := opts.Shuffle || (opts.CV != nil && opts.CV.Shuffle)
	var order []int
	if shuffle {
		order = dataset.ShuffledGroupOrder(g, rng)
	} else {
		order = dataset.IdentityGroupOrder(g)
	}

	var folds []foldData
	var err error
	if d.HasTimestamps() {
		folds, err = prepareTimeSplitFolds(d, g, order, r, opts, absFoldSize)
	} else {
		folds, err = prepareFolds(d, g, order, r, opts, absFoldSize)
	}
	if err != nil {
		return err
	}

	if err := summary.SetHeaderInfo(metrics, opts.FeatureSets); err != nil {
		return err
	}

	trainFullModels := func(isTest bool, setIdx int, restricted []foldData) error {
		for foldIdx := range restricted {
			p := progress{
				FoldRangeBegin:  r.begin,
				FeatureSetIndex: setIdx,
				IsTest:          isTest,
				FoldIndex:       r.offset + foldIdx,
			}
			if cb.shouldSkip(p) {
				continue
			}
			foldSeed := rng.Int63()
			cb.beginUnit(p)
			start := time.Now()

			ensemble, err := trainer.Train(TrainContext{
				Learn:        restricted[foldIdx].Learn,
				Metrics:      metrics,
				Iterations:   opts.Iterations,
				LearningRate: opts.LearningRate,
				Seed:         foldSeed,
				OnIteration:  cb.onIteration,
			})
			if err != nil {
				return errors.Wrapf(err, "training %s of feature set %d on fold %d",
					roleOf(isTest), setIdx, r.begin+p.FoldIndex)
			}

			history, err := calcMetricsOnTest(metrics, ensemble, restricted[foldIdx].Test, opts.Iterations)
			if err != nil {
				return err
			}
			if err := summary.AppendFeatureSetMetrics(isTest, setIdx, history); err != nil {
				return err
			}
			if opts.ComputeFeatureStrengths {
				summary.AppendFeatureStrengths(isTest, setIdx, ensemble.FeatureStrengths(d.FeatureCount()))
			}
			log.Printf("fold %d: model built in %.2f sec", r.begin+p.FoldIndex, time.Since(start).Seconds())
		}
		return nil
	}

	restrictFolds := func(role Role, setIdx int) ([]foldData, error) {
		ignored, err := ignoredFeatures(opts.Mode, opts.FeatureSets, role, setIdx)
		if err != nil {
			return nil, err
		}
		logIgnoredFeatures(role, setIdx, ignored)
		restricted := make([]foldData, len(folds))
		for i, fd := range folds {
			restricted[i] = foldData{
				Learn:      fd.Learn.WithIgnored(ignored),
				Test:       fd.Test,
				SharedTest: fd.SharedTest,
			}
		}
		return restricted, nil
	}

	if len(opts.FeatureSets) == 0 {
		return trainFullModels(false, 0, folds)
	}

	// for every mode except one-vs-others the baseline model is the same
	// across feature sets, so train it once and copy its results
	useCommonBaseline := opts.Mode != OneVsOthers
	for setIdx := range opts.FeatureSets {
		if setIdx == 0 || !useCommonBaseline {
			restricted, err := restrictFolds(Baseline, setIdx)
			if err != nil {
				return err
			}
			if err := trainFullModels(false, setIdx, restricted); err != nil {
				return err
			}
		} else {
			summary.CopyBaselineResults(0, setIdx)
		}

		restricted, err := restrictFolds(Testing, setIdx)
		if err != nil {
			return err
		}
		if hasAvailableFeatures(restricted) {
			if err := trainFullModels(true, setIdx, restricted); err != nil {
				return err
			}
		} else {
			log.Printf("warning: feature set %d consists of ignored or constant features; "+
				"assuming baseline data = testing data for this feature set", setIdx)
			baselineIdx := 0
			if !useCommonBaseline {
				baselineIdx = setIdx
			}
			summary.CopyBaselineAsTesting(baselineIdx, setIdx)
		}
	}
	return nil
}

func roleOf(isTest bool) Role {
	if isTest {
		return Testing
	}
	return Baseline
}

// hasAvailableFeatures reports whether every fold's learn data retains at
// least one usable feature after restriction.
func hasAvailableFeatures(folds []foldData) bool {
	for _, fd := range folds {
		if !fd.Learn.HasAvailableFeatures() {
			return false
		}
	}
	return true
}

// calcMetricsOnTest replays the ensemble tree by tree over the test data and
// records every metric after each iteration, mirroring the per-iteration
// histories the trainer reports on learn.
func calcMetricsOnTest(metrics []metric.Metric, ensemble *model.Ensemble, test *dataset.Matrix, iterations int) ([][]float64, error) {
	if ensemble.TreeCount() != iterations {
		return nil, errors.Errorf(
			"trained model has %d trees, expected %d", ensemble.TreeCount(), iterations)
	}
	approx := make([]float64, test.ObjectCount())
	for i := range approx {
		approx[i] = ensemble.Bias
	}
	history := make([][]float64, iterations)
	for iter := 0; iter < iterations; iter++ {
		for i, row := range test.Rows {
			approx[i] += ensemble.EvaluateTree(iter, row)
		}
		values := make([]float64, len(metrics))
		for metricIdx, m := range metrics {
			v, err := m.Evaluate(approx, test.Target, test.Weight)
			if err != nil {
				return nil, errors.Wrapf(err, "evaluating %s on test data", m.Name())
			}
			values[metricIdx] = v
		}
		history[iter] = values
	}
	return history, nil
}
