package metric

import (
	"math"

	"github.com/feateval/feateval/errors"
)

// Direction indicates whether smaller or larger values of a metric are better.
type Direction int

const (
	// Min means smaller metric values are better
	Min Direction = iota
	// Max means larger metric values are better
	Max
)

func (d Direction) String() string {
	if d == Min {
		return "Min"
	}
	return "Max"
}

// Metric evaluates the quality of raw model predictions against targets.
// The first configured metric of an evaluation is the primary (loss) metric:
// it drives best-iteration selection and the significance test.
type Metric interface {
	// Name describes the metric in reports
	Name() string
	// BestValue returns the optimization direction and the best value the
	// metric can theoretically attain
	BestValue() (Direction, float64)
	// Evaluate computes the metric for the given predictions. weight may be
	// nil, in which case all objects have weight 1.
	Evaluate(approx, target, weight []float64) (float64, error)
}

func checkLengths(approx, target, weight []float64) error {
	if len(approx) != len(target) {
		return errors.Errorf("approx length %d does not match target length %d", len(approx), len(target))
	}
	if weight != nil && len(weight) != len(target) {
		return errors.Errorf("weight length %d does not match target length %d", len(weight), len(target))
	}
	if len(target) == 0 {
		return errors.New("cannot evaluate metric on empty sample")
	}
	if weight != nil {
		var total float64
		for _, w := range weight {
			total += w
		}
		if total == 0 {
			return errors.New("cannot evaluate metric with zero total weight")
		}
	}
	return nil
}

// RMSE is root mean squared error.
type RMSE struct{}

// Name implements Metric
func (RMSE) Name() string { return "RMSE" }

// BestValue implements Metric
func (RMSE) BestValue() (Direction, float64) { return Min, 0 }

// Evaluate implements Metric
func (RMSE) Evaluate(approx, target, weight []float64) (float64, error) {
	if err := checkLengths(approx, target, weight); err != nil {
		return 0, err
	}
	var sum, totalWeight float64
	for i := range target {
		w := 1.0
		if weight != nil {
			w = weight[i]
		}
		diff := approx[i] - target[i]
		sum += w * diff * diff
		totalWeight += w
	}
	return math.Sqrt(sum / totalWeight), nil
}

// MAE is mean absolute error.
type MAE struct{}

// Name implements Metric
func (MAE) Name() string { return "MAE" }

// BestValue implements Metric
func (MAE) BestValue() (Direction, float64) { return Min, 0 }

// Evaluate implements Metric
func (MAE) Evaluate(approx, target, weight []float64) (float64, error) {
	if err := checkLengths(approx, target, weight); err != nil {
		return 0, err
	}
	var sum, totalWeight float64
	for i := range target {
		w := 1.0
		if weight != nil {
			w = weight[i]
		}
		sum += w * math.Abs(approx[i]-target[i])
		totalWeight += w
	}
	return sum / totalWeight, nil
}

// R2 is the coefficient of determination.
type R2 struct{}

// Name implements Metric
func (R2) Name() string { return "R2" }

// BestValue implements Metric
func (R2) BestValue() (Direction, float64) { return Max, 1 }

// Evaluate implements Metric
func (R2) Evaluate(approx, target, weight []float64) (float64, error) {
	if err := checkLengths(approx, target, weight); err != nil {
		return 0, err
	}
	var sumTarget, totalWeight float64
	for i := range target {
		w := 1.0
		if weight != nil {
			w = weight[i]
		}
		sumTarget += w * target[i]
		totalWeight += w
	}
	mean := sumTarget / totalWeight
	var ssRes, ssTot float64
	for i := range target {
		w := 1.0
		if weight != nil {
			w = weight[i]
		}
		res := approx[i] - target[i]
		tot := target[i] - mean
		ssRes += w * res * res
		ssTot += w * tot * tot
	}
	if ssTot == 0 {
		return 0, errors.New("R2 is undefined for constant targets")
	}
	return 1 - ssRes/ssTot, nil
}

// Quantile is the quantile (pinball) loss at level Alpha.
type Quantile struct {
	Alpha float64
}

// Name implements Metric
func (Quantile) Name() string { return "Quantile" }

// BestValue implements Metric
func (Quantile) BestValue() (Direction, float64) { return Min, 0 }

// Evaluate implements Metric
func (q Quantile) Evaluate(approx, target, weight []float64) (float64, error) {
	if err := checkLengths(approx, target, weight); err != nil {
		return 0, err
	}
	alpha := q.Alpha
	if alpha <= 0 || alpha >= 1 {
		return 0, errors.Errorf("quantile level must be in (0, 1), got %v", alpha)
	}
	var sum, totalWeight float64
	for i := range target {
		w := 1.0
		if weight != nil {
			w = weight[i]
		}
		diff := target[i] - approx[i]
		if diff >= 0 {
			sum += w * alpha * diff
		} else {
			sum -= w * (1 - alpha) * diff
		}
		totalWeight += w
	}
	return sum / totalWeight, nil
}

// FromName returns the metric with the given name.
func FromName(name string) (Metric, error) {
	switch name {
	case "RMSE":
		return RMSE{}, nil
	case "MAE":
		return MAE{}, nil
	case "R2":
		return R2{}, nil
	case "Quantile":
		return Quantile{Alpha: 0.5}, nil
	}
	return nil, errors.Errorf("unknown metric %q", name)
}
