package evaluate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feateval/feateval/errors"
	"github.com/feateval/feateval/metric"
	"github.com/feateval/feateval/model"
)

// stubTrainer fits nothing: it emits constant trees whose output depends on
// the mean target and the number of features it was allowed to use, so
// baseline and testing models differ deterministically.
type stubTrainer struct{}

func (stubTrainer) Train(ctx TrainContext) (*model.Ensemble, error) {
	var sum float64
	for _, y := range ctx.Learn.Target {
		sum += y
	}
	mean := sum / float64(len(ctx.Learn.Target))

	available := 0
	for f := 0; f < ctx.Learn.FeatureCount(); f++ {
		if !ctx.Learn.IsIgnored(f) {
			available++
		}
	}
	step := ctx.LearningRate * mean * (1 + 0.05*float64(available)) / float64(ctx.Iterations)

	ensemble := &model.Ensemble{}
	var history [][]float64
	for i := 0; i < ctx.Iterations; i++ {
		ensemble.Trees = append(ensemble.Trees, constantTree(ctx.Learn.FeatureCount(), step))
		values := make([]float64, len(ctx.Metrics))
		for j := range values {
			values[j] = float64(ctx.Iterations - i)
		}
		history = append(history, values)
		if ctx.OnIteration != nil && !ctx.OnIteration(history) {
			break
		}
	}
	return ensemble, nil
}

func constantTree(featureCount int, output float64) model.Tree {
	return model.Tree{
		Nodes:        []model.Node{{Feature: 0, Threshold: 0, Left: 0, LeftIsLeaf: true, Right: 0, RightIsLeaf: true}},
		Outputs:      []float64{output},
		FeatureCount: featureCount,
		Depth:        1,
	}
}

func evalOptionsForTest() Options {
	return Options{
		FeatureSets:  [][]int{{0}, {1}},
		Mode:         OneVsAll,
		FoldCount:    3,
		FoldSize:     10,
		Unit:         ByObject,
		Shuffle:      true,
		Seed:         17,
		Iterations:   4,
		LearningRate: 0.5,
	}
}

func TestEvaluateFeatures(t *testing.T) {
	d, _ := syntheticDataset(t, 60, 2)
	opts := evalOptionsForTest()

	summary, err := EvaluateFeatures(opts, d, []metric.Metric{metric.RMSE{}}, stubTrainer{})
	require.NoError(t, err)

	assert.Equal(t, []string{"RMSE"}, summary.MetricNames)
	assert.Equal(t, 2, summary.FeatureSetCount())

	for setIdx := 0; setIdx < 2; setIdx++ {
		require.Len(t, summary.MetricsHistory[testingIdx][setIdx], 3)
		for _, history := range summary.MetricsHistory[testingIdx][setIdx] {
			require.Len(t, history, opts.Iterations)
			require.Len(t, history[0], 1)
		}
		require.Len(t, summary.BestBaselineIterations[setIdx], 3)
		require.Len(t, summary.PValues, 2)
		require.Len(t, summary.AverageMetricDelta[setIdx], 1)
	}

	// one-vs-all shares a single baseline across feature sets
	require.Len(t, summary.MetricsHistory[baselineIdx][0], 3)
	assert.Empty(t, summary.MetricsHistory[baselineIdx][1])
	assert.Equal(t, summary.BestMetrics[baselineIdx][0], summary.BestMetrics[baselineIdx][1])
	assert.Equal(t, summary.BestBaselineIterations[0], summary.BestBaselineIterations[1])
}

func TestEvaluateFeaturesDegenerateSet(t *testing.T) {
	d, _ := syntheticDataset(t, 60, 2)
	for i := range d.Features {
		d.Features[i][1] = 1 // constant feature
	}
	opts := evalOptionsForTest()

	summary, err := EvaluateFeatures(opts, d, []metric.Metric{metric.RMSE{}}, stubTrainer{})
	require.NoError(t, err)

	// the constant set cannot train, so its testing results mirror the
	// baseline and show no effect
	assert.Equal(t, 1.0, summary.PValues[1])
	assert.Equal(t, 0.0, summary.AverageMetricDelta[1][0])
	assert.Equal(t, summary.BestMetrics[baselineIdx][0], summary.BestMetrics[testingIdx][1])
}

func TestEvaluateFeaturesNoComparison(t *testing.T) {
	d, _ := syntheticDataset(t, 60, 2)
	opts := evalOptionsForTest()
	opts.FeatureSets = nil

	summary, err := EvaluateFeatures(opts, d, []metric.Metric{metric.RMSE{}}, stubTrainer{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FeatureSetCount())
	require.Len(t, summary.MetricsHistory[baselineIdx][0], 3)
	assert.Equal(t, 1.0, summary.PValues[0])
	assert.Equal(t, 0.0, summary.AverageMetricDelta[0][0])
}

func TestEvaluateFeaturesCapacityError(t *testing.T) {
	d, _ := syntheticDataset(t, 30, 2)
	opts := evalOptionsForTest()
	opts.FoldCount = 2
	opts.Offset = 2
	opts.Shuffle = false

	_, err := EvaluateFeatures(opts, d, []metric.Metric{metric.RMSE{}}, stubTrainer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enable dataset shuffling")
}

func TestEvaluateFeaturesOrderedDataset(t *testing.T) {
	d, _ := syntheticDataset(t, 60, 2)
	d.Ordered = true

	_, err := EvaluateFeatures(evalOptionsForTest(), d, []metric.Metric{metric.RMSE{}}, stubTrainer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ordered objects")
}

func TestEvaluateFeaturesTooSmall(t *testing.T) {
	d, _ := syntheticDataset(t, 8, 2)
	opts := evalOptionsForTest()

	_, err := EvaluateFeatures(opts, d, []metric.Metric{metric.RMSE{}}, stubTrainer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too small")
}

// failingTrainer injects a failure into the n-th training call to simulate an
// interrupted run.
type failingTrainer struct {
	inner  stubTrainer
	calls  int
	failAt int
}

func (f *failingTrainer) Train(ctx TrainContext) (*model.Ensemble, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, errors.New("injected failure")
	}
	return f.inner.Train(ctx)
}

func TestEvaluateFeaturesResumesFromSnapshot(t *testing.T) {
	d, _ := syntheticDataset(t, 60, 2)
	opts := evalOptionsForTest()

	want, err := EvaluateFeatures(opts, d, []metric.Metric{metric.RMSE{}}, stubTrainer{})
	require.NoError(t, err)

	opts.SnapshotPath = filepath.Join(t.TempDir(), "eval.gob")
	opts.SnapshotInterval = time.Nanosecond

	_, err = EvaluateFeatures(opts, d, []metric.Metric{metric.RMSE{}}, &failingTrainer{failAt: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected failure")

	got, err := EvaluateFeatures(opts, d, []metric.Metric{metric.RMSE{}}, stubTrainer{})
	require.NoError(t, err)

	assert.Equal(t, want.BestMetrics, got.BestMetrics)
	assert.Equal(t, want.BestBaselineIterations, got.BestBaselineIterations)
	assert.Equal(t, want.PValues, got.PValues)
	assert.Equal(t, want.AverageMetricDelta, got.AverageMetricDelta)
}
