package evaluate

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/montanaflynn/stats"

	"github.com/feateval/feateval/errors"
	"github.com/feateval/feateval/metric"
	"github.com/feateval/feateval/ranktest"
)

// role indices into the Summary's paired slices
const (
	baselineIdx = 0
	testingIdx  = 1
)

func roleIndex(isTest bool) int {
	if isTest {
		return testingIdx
	}
	return baselineIdx
}

// Summary accumulates per-iteration metric histories and per-fold best-metric
// samples across the whole evaluation, and reduces them into a significance
// judgment per feature set. It is created once per evaluation, mutated
// incrementally across fold ranges, and finalized by CalcSignificance.
//
// The paired [2]-indexed fields hold baseline results at index 0 and testing
// results at index 1.
type Summary struct {
	// MetricNames lists the configured metrics, primary first
	MetricNames []string
	// MetricTypes lists each metric's optimization direction
	MetricTypes []metric.Direction
	// FeatureSets lists the evaluated feature sets; empty means the run
	// evaluated the full model only
	FeatureSets [][]int

	// MetricsHistory is indexed [role][featureSet][fold][iteration][metric]
	MetricsHistory [2][][][][]float64
	// FeatureStrengths is indexed [role][featureSet][fold][feature]
	FeatureStrengths [2][][][]float64
	// BestMetrics is indexed [role][featureSet][metric][foldSample]
	BestMetrics [2][][][]float64
	// BestBaselineIterations is indexed [featureSet][fold]
	BestBaselineIterations [][]int

	// PValues and AverageMetricDelta are filled by CalcSignificance,
	// indexed [featureSet] and [featureSet][metric]
	PValues            []float64
	AverageMetricDelta [][]float64
}

// FeatureSetCount returns the number of compared feature sets, which is 1 for
// a run without comparison.
func (s *Summary) FeatureSetCount() int {
	if len(s.FeatureSets) == 0 {
		return 1
	}
	return len(s.FeatureSets)
}

// HasHeaderInfo reports whether SetHeaderInfo has run.
func (s *Summary) HasHeaderInfo() bool {
	return len(s.MetricNames) > 0
}

// SetHeaderInfo fixes the metric and feature-set configuration of the
// summary. It may be called once; re-setting with a different configuration
// is an error, so results of differently-configured evaluations can never
// silently mix.
func (s *Summary) SetHeaderInfo(metrics []metric.Metric, featureSets [][]int) error {
	if s.HasHeaderInfo() {
		return s.verifyHeaderInfo(metrics, featureSets)
	}
	for _, m := range metrics {
		direction, _ := m.BestValue()
		s.MetricNames = append(s.MetricNames, m.Name())
		s.MetricTypes = append(s.MetricTypes, direction)
	}
	s.FeatureSets = featureSets
	count := s.FeatureSetCount()
	for role := 0; role < 2; role++ {
		s.MetricsHistory[role] = make([][][][]float64, count)
		s.FeatureStrengths[role] = make([][][]float64, count)
		s.BestMetrics[role] = make([][][]float64, count)
		for setIdx := 0; setIdx < count; setIdx++ {
			s.BestMetrics[role][setIdx] = make([][]float64, len(metrics))
		}
	}
	s.BestBaselineIterations = make([][]int, count)
	return nil
}

func (s *Summary) verifyHeaderInfo(metrics []metric.Metric, featureSets [][]int) error {
	var names []string
	var types []metric.Direction
	for _, m := range metrics {
		direction, _ := m.BestValue()
		names = append(names, m.Name())
		types = append(types, direction)
	}
	if !reflect.DeepEqual(names, s.MetricNames) || !reflect.DeepEqual(types, s.MetricTypes) {
		return errors.Errorf("summary already holds results for metrics %v, cannot evaluate with %v", s.MetricNames, names)
	}
	if !reflect.DeepEqual(featureSets, s.FeatureSets) {
		return errors.Errorf("summary already holds results for feature sets %v, cannot evaluate %v", s.FeatureSets, featureSets)
	}
	return nil
}

// bestIteration scans the iteration-indexed metric history and returns the
// iteration whose primary metric is best under its direction. Ties keep the
// earlier iteration.
func bestIteration(types []metric.Direction, history [][]float64) int {
	const lossIdx = 0
	best := 0
	for iteration := 1; iteration < len(history); iteration++ {
		if types[lossIdx] == metric.Min {
			if history[iteration][lossIdx] < history[best][lossIdx] {
				best = iteration
			}
		} else {
			if history[iteration][lossIdx] > history[best][lossIdx] {
				best = iteration
			}
		}
	}
	return best
}

// AppendFeatureSetMetrics records one fold's iteration-indexed metric history
// and folds its best-iteration metrics into the per-set samples.
func (s *Summary) AppendFeatureSetMetrics(isTest bool, setIdx int, history [][]float64) error {
	if setIdx >= s.FeatureSetCount() {
		return errors.Errorf("feature set index %d is too large", setIdx)
	}
	role := roleIndex(isTest)
	s.MetricsHistory[role][setIdx] = append(s.MetricsHistory[role][setIdx], history)

	best := bestIteration(s.MetricTypes, history)
	if !isTest {
		s.BestBaselineIterations[setIdx] = append(s.BestBaselineIterations[setIdx], best)
	}
	for metricIdx := range s.MetricTypes {
		s.BestMetrics[role][setIdx][metricIdx] = append(
			s.BestMetrics[role][setIdx][metricIdx], history[best][metricIdx])
	}
	return nil
}

// AppendFeatureStrengths records one fold's per-feature strengths.
func (s *Summary) AppendFeatureStrengths(isTest bool, setIdx int, strengths []float64) {
	role := roleIndex(isTest)
	s.FeatureStrengths[role][setIdx] = append(s.FeatureStrengths[role][setIdx], strengths)
}

// CopyBaselineResults duplicates the baseline results of set srcIdx into the
// baseline slot of set dstIdx; modes with a common baseline train it once.
// The copies are deep so later appends to one set never leak into the other.
func (s *Summary) CopyBaselineResults(srcIdx, dstIdx int) {
	s.BestMetrics[baselineIdx][dstIdx] = copySamples(s.BestMetrics[baselineIdx][srcIdx])
	s.BestBaselineIterations[dstIdx] = append([]int(nil), s.BestBaselineIterations[srcIdx]...)
}

// CopyBaselineAsTesting substitutes the baseline results of set srcIdx for
// the testing results of set dstIdx; used when a degenerate feature set
// leaves nothing to train on. The copies are deep, as in CopyBaselineResults.
func (s *Summary) CopyBaselineAsTesting(srcIdx, dstIdx int) {
	s.MetricsHistory[testingIdx][dstIdx] = copyHistories(s.MetricsHistory[baselineIdx][srcIdx])
	s.FeatureStrengths[testingIdx][dstIdx] = copySamples(s.FeatureStrengths[baselineIdx][srcIdx])
	s.BestMetrics[testingIdx][dstIdx] = copySamples(s.BestMetrics[baselineIdx][srcIdx])
}

func copySamples(src [][]float64) [][]float64 {
	if src == nil {
		return nil
	}
	dst := make([][]float64, len(src))
	for i, samples := range src {
		dst[i] = append([]float64(nil), samples...)
	}
	return dst
}

func copyHistories(src [][][]float64) [][][]float64 {
	if src == nil {
		return nil
	}
	dst := make([][][]float64, len(src))
	for i, history := range src {
		dst[i] = copySamples(history)
	}
	return dst
}

// CalcSignificance computes, per feature set, the rank-sum p-value on the
// primary metric and the average per-metric delta between testing and
// baseline, signed so that improvement reads positive for both Min and Max
// metrics.
func (s *Summary) CalcSignificance() error {
	const lossIdx = 0
	count := s.FeatureSetCount()
	s.PValues = make([]float64, count)
	s.AverageMetricDelta = make([][]float64, count)
	for setIdx := 0; setIdx < count; setIdx++ {
		baseline := s.BestMetrics[baselineIdx][setIdx]
		tested := s.BestMetrics[testingIdx][setIdx]
		if len(s.FeatureSets) == 0 {
			tested = baseline
		}
		s.PValues[setIdx] = ranktest.PValue(baseline[lossIdx], tested[lossIdx])

		deltas := make([]float64, len(s.MetricTypes))
		for metricIdx, direction := range s.MetricTypes {
			baselineAverage, err := stats.Mean(baseline[metricIdx])
			if err != nil {
				return errors.Wrapf(err, "baseline samples of feature set %d, metric %s", setIdx, s.MetricNames[metricIdx])
			}
			testedAverage, err := stats.Mean(tested[metricIdx])
			if err != nil {
				return errors.Wrapf(err, "tested samples of feature set %d, metric %s", setIdx, s.MetricNames[metricIdx])
			}
			if direction == metric.Min {
				deltas[metricIdx] = baselineAverage - testedAverage
			} else {
				deltas[metricIdx] = testedAverage - baselineAverage
			}
		}
		s.AverageMetricDelta[setIdx] = deltas
	}
	return nil
}

// Table renders the comparison report: one row per feature set with its
// p-value, per-fold best iterations, per-metric average deltas, and the
// feature indices in the set.
func (s *Summary) Table() string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprint(w, "p-value\tbest iteration in each fold")
	for _, name := range s.MetricNames {
		fmt.Fprintf(w, "\t%s", name)
	}
	fmt.Fprint(w, "\tfeature set\n")

	for setIdx := 0; setIdx < s.FeatureSetCount(); setIdx++ {
		fmt.Fprintf(w, "%.6g\t%s", s.PValues[setIdx], joinInts(s.BestBaselineIterations[setIdx]))
		for _, delta := range s.AverageMetricDelta[setIdx] {
			fmt.Fprintf(w, "\t%.6g", delta)
		}
		if len(s.FeatureSets) > 0 {
			fmt.Fprintf(w, "\t%s", joinInts(s.FeatureSets[setIdx]))
		} else {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, "\n")
	}
	w.Flush()
	return buf.String()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
