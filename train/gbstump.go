// Package train provides a gradient boosting trainer over depth-1 regression
// trees, suitable as the model builder behind feature evaluation.
package train

import (
	"math/rand"
	"sort"

	"github.com/feateval/feateval/dataset"
	"github.com/feateval/feateval/errors"
	"github.com/feateval/feateval/evaluate"
	"github.com/feateval/feateval/model"
)

// maxThresholds caps the number of candidate split thresholds tried per
// feature on each iteration.
const maxThresholds = 64

// GBStump is a least-squares gradient boosting trainer. Each iteration fits
// one depth-1 tree to the current residuals, choosing the split that most
// reduces weighted squared error among the features the learn data allows.
type GBStump struct {
	// Subsample, when in (0, 1), fits each tree on a random row sample of
	// that fraction, drawn from the training seed. 0 or 1 disables sampling.
	Subsample float64
}

// Train implements evaluate.Trainer.
func (g GBStump) Train(ctx evaluate.TrainContext) (*model.Ensemble, error) {
	learn := ctx.Learn
	n := learn.ObjectCount()
	if n == 0 {
		return nil, errors.New("cannot train on empty data")
	}
	if ctx.Iterations <= 0 {
		return nil, errors.Errorf("iteration count must be positive, got %d", ctx.Iterations)
	}
	if g.Subsample < 0 || g.Subsample > 1 {
		return nil, errors.Errorf("subsample fraction must be in [0, 1], got %v", g.Subsample)
	}
	rate := ctx.LearningRate
	if rate <= 0 {
		rate = 1
	}

	weight := learn.Weight
	if weight == nil {
		weight = make([]float64, n)
		for i := range weight {
			weight[i] = 1
		}
	}

	ensemble := &model.Ensemble{Bias: weightedMean(learn.Target, weight)}
	residual := make([]float64, n)
	approx := make([]float64, n)
	for i := range residual {
		residual[i] = learn.Target[i] - ensemble.Bias
		approx[i] = ensemble.Bias
	}

	rng := rand.New(rand.NewSource(ctx.Seed))
	var history [][]float64
	for iter := 0; iter < ctx.Iterations; iter++ {
		rows := allRows(n)
		if g.Subsample > 0 && g.Subsample < 1 {
			rows = sampleRows(rng, n, g.Subsample)
		}

		tree := fitStump(learn, residual, weight, rows, rate)
		ensemble.Trees = append(ensemble.Trees, tree)
		for i, row := range learn.Rows {
			out := tree.Evaluate(row)
			approx[i] += out
			residual[i] -= out
		}

		values := make([]float64, len(ctx.Metrics))
		for j, m := range ctx.Metrics {
			v, err := m.Evaluate(approx, learn.Target, learn.Weight)
			if err != nil {
				return nil, errors.Wrapf(err, "evaluating %s on learn data", m.Name())
			}
			values[j] = v
		}
		history = append(history, values)
		if ctx.OnIteration != nil && !ctx.OnIteration(history) {
			break
		}
	}
	return ensemble, nil
}

// fitStump finds the single split minimizing weighted squared error of the
// residuals over the given rows. If no feature admits a split, the stump
// degrades to a constant shift toward the mean residual.
func fitStump(learn *dataset.Matrix, residual, weight []float64, rows []int, rate float64) model.Tree {
	width := learn.FeatureCount()

	var totalSum, totalWeight float64
	for _, i := range rows {
		totalSum += residual[i] * weight[i]
		totalWeight += weight[i]
	}

	var bestFeature int
	var bestThreshold, bestGain float64
	var bestLeft, bestRight float64
	found := false

	for f := 0; f < width; f++ {
		if learn.IsIgnored(f) {
			continue
		}
		for _, threshold := range thresholds(learn, rows, f) {
			var leftSum, leftWeight float64
			for _, i := range rows {
				if learn.Rows[i][f] < threshold {
					leftSum += residual[i] * weight[i]
					leftWeight += weight[i]
				}
			}
			rightSum := totalSum - leftSum
			rightWeight := totalWeight - leftWeight
			if leftWeight == 0 || rightWeight == 0 {
				continue
			}
			gain := leftSum*leftSum/leftWeight +
				rightSum*rightSum/rightWeight -
				totalSum*totalSum/totalWeight
			if !found || gain > bestGain {
				found = true
				bestFeature = f
				bestThreshold = threshold
				bestGain = gain
				bestLeft = leftSum / leftWeight
				bestRight = rightSum / rightWeight
			}
		}
	}

	if !found {
		var out float64
		if totalWeight > 0 {
			out = rate * totalSum / totalWeight
		}
		return model.Tree{
			Nodes:        []model.Node{{Left: 0, LeftIsLeaf: true, Right: 0, RightIsLeaf: true}},
			Outputs:      []float64{out},
			FeatureCount: width,
			Depth:        1,
		}
	}
	return model.Tree{
		Nodes: []model.Node{{
			Feature:     bestFeature,
			Threshold:   bestThreshold,
			Gain:        bestGain,
			Left:        0,
			LeftIsLeaf:  true,
			Right:       1,
			RightIsLeaf: true,
		}},
		Outputs:      []float64{rate * bestLeft, rate * bestRight},
		FeatureCount: width,
		Depth:        1,
	}
}

// thresholds returns split candidates for one feature: midpoints between
// consecutive distinct values, thinned to at most maxThresholds.
func thresholds(learn *dataset.Matrix, rows []int, feature int) []float64 {
	values := make([]float64, 0, len(rows))
	for _, i := range rows {
		values = append(values, learn.Rows[i][feature])
	}
	sort.Float64s(values)

	var candidates []float64
	for i := 1; i < len(values); i++ {
		if values[i] != values[i-1] {
			candidates = append(candidates, (values[i]+values[i-1])/2)
		}
	}
	if len(candidates) > maxThresholds {
		thinned := make([]float64, 0, maxThresholds)
		for i := 0; i < maxThresholds; i++ {
			thinned = append(thinned, candidates[i*len(candidates)/maxThresholds])
		}
		candidates = thinned
	}
	return candidates
}

func weightedMean(values, weight []float64) float64 {
	var sum, wsum float64
	for i, v := range values {
		sum += v * weight[i]
		wsum += weight[i]
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// sampleRows draws a sorted sample of the rows without replacement.
func sampleRows(rng *rand.Rand, n int, fraction float64) []int {
	count := int(fraction * float64(n))
	if count < 1 {
		count = 1
	}
	sample := rng.Perm(n)[:count]
	sort.Ints(sample)
	return sample
}
