package evaluate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feateval/feateval/metric"
)

func TestBestIteration(t *testing.T) {
	types := []metric.Direction{metric.Min}
	history := [][]float64{{5}, {3}, {3}, {7}}
	// the first occurrence of the best value wins
	assert.Equal(t, 1, bestIteration(types, history))

	types = []metric.Direction{metric.Max}
	history = [][]float64{{0.1}, {0.4}, {0.4}}
	assert.Equal(t, 1, bestIteration(types, history))
}

func TestSummarySignificance(t *testing.T) {
	s := &Summary{}
	metrics := []metric.Metric{metric.RMSE{}, metric.R2{}}
	require.NoError(t, s.SetHeaderInfo(metrics, [][]int{{0}}))

	require.NoError(t, s.AppendFeatureSetMetrics(false, 0, [][]float64{{0.40, 0.5}, {0.30, 0.6}}))
	require.NoError(t, s.AppendFeatureSetMetrics(false, 0, [][]float64{{0.35, 0.5}, {0.30, 0.7}}))
	require.NoError(t, s.AppendFeatureSetMetrics(true, 0, [][]float64{{0.25, 0.80}, {0.26, 0.7}}))
	require.NoError(t, s.AppendFeatureSetMetrics(true, 0, [][]float64{{0.25, 0.75}, {0.30, 0.6}}))

	assert.Equal(t, [][]int{{1, 1}}, s.BestBaselineIterations)

	require.NoError(t, s.CalcSignificance())
	require.Len(t, s.PValues, 1)
	assert.GreaterOrEqual(t, s.PValues[0], 0.0)
	assert.LessOrEqual(t, s.PValues[0], 1.0)

	// RMSE improved from 0.30 to 0.25, reported positive for a Min metric
	require.Len(t, s.AverageMetricDelta, 1)
	assert.InDelta(t, 0.05, s.AverageMetricDelta[0][0], 1e-9)
	// R2 improved from 0.65 to 0.775, positive for a Max metric too
	assert.InDelta(t, 0.125, s.AverageMetricDelta[0][1], 1e-9)
}

func TestSummaryHeaderReSet(t *testing.T) {
	s := &Summary{}
	metrics := []metric.Metric{metric.RMSE{}}
	require.NoError(t, s.SetHeaderInfo(metrics, [][]int{{0}, {1}}))

	// identical configuration is accepted across fold ranges
	require.NoError(t, s.SetHeaderInfo(metrics, [][]int{{0}, {1}}))

	err := s.SetHeaderInfo(metrics, [][]int{{0}, {2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature sets")

	err = s.SetHeaderInfo([]metric.Metric{metric.MAE{}}, [][]int{{0}, {1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics")
}

func TestSummaryCopyBaselineAsTesting(t *testing.T) {
	s := &Summary{}
	require.NoError(t, s.SetHeaderInfo([]metric.Metric{metric.RMSE{}}, [][]int{{0}, {1}}))
	require.NoError(t, s.AppendFeatureSetMetrics(false, 0, [][]float64{{0.4}, {0.3}}))
	s.CopyBaselineResults(0, 1)
	s.CopyBaselineAsTesting(0, 1)

	assert.Equal(t, s.BestMetrics[baselineIdx][0], s.BestMetrics[testingIdx][1])

	require.NoError(t, s.AppendFeatureSetMetrics(true, 0, [][]float64{{0.4}, {0.3}}))
	require.NoError(t, s.CalcSignificance())
	// identical samples cannot be significant and show no delta
	assert.Equal(t, 1.0, s.PValues[1])
	assert.Equal(t, 0.0, s.AverageMetricDelta[1][0])
}

func TestSummaryTable(t *testing.T) {
	s := &Summary{}
	require.NoError(t, s.SetHeaderInfo([]metric.Metric{metric.RMSE{}}, [][]int{{3, 4}}))
	require.NoError(t, s.AppendFeatureSetMetrics(false, 0, [][]float64{{0.4}, {0.3}}))
	require.NoError(t, s.AppendFeatureSetMetrics(true, 0, [][]float64{{0.2}, {0.25}}))
	require.NoError(t, s.CalcSignificance())

	table := s.Table()
	assert.True(t, strings.HasPrefix(table, "p-value"))
	assert.Contains(t, table, "RMSE")
	assert.Contains(t, table, "3,4")
}

func TestCopiedBaselineStaysIndependent(t *testing.T) {
	s := &Summary{}
	require.NoError(t, s.SetHeaderInfo([]metric.Metric{metric.RMSE{}}, [][]int{{0}, {1}}))
	require.NoError(t, s.AppendFeatureSetMetrics(false, 0, [][]float64{{0.40}}))
	require.NoError(t, s.AppendFeatureSetMetrics(false, 0, [][]float64{{0.41}}))
	require.NoError(t, s.AppendFeatureSetMetrics(false, 0, [][]float64{{0.42}}))

	// the set has nothing to train on in this fold range
	s.CopyBaselineResults(0, 1)
	s.CopyBaselineAsTesting(0, 1)

	// a later fold range trains both roles for real; appending to one set
	// must not alter the samples of the set it was copied from
	require.NoError(t, s.AppendFeatureSetMetrics(false, 0, [][]float64{{0.43}}))
	require.NoError(t, s.AppendFeatureSetMetrics(true, 1, [][]float64{{0.99}}))

	assert.Equal(t, []float64{0.40, 0.41, 0.42, 0.43}, s.BestMetrics[baselineIdx][0][0])
	assert.Equal(t, []float64{0.40, 0.41, 0.42, 0.99}, s.BestMetrics[testingIdx][1][0])
	assert.Equal(t, []int{0, 0, 0, 0}, s.BestBaselineIterations[0])
	assert.Equal(t, []int{0, 0, 0}, s.BestBaselineIterations[1])
}
