package evaluate

import (
	"github.com/feateval/feateval/dataset"
	"github.com/feateval/feateval/metric"
	"github.com/feateval/feateval/model"
)

// TrainContext carries everything a Trainer needs for one training run: the
// feature-restricted learn matrix, the metrics to report per iteration, and
// the per-fold random seed.
type TrainContext struct {
	// Learn is the training data; its Ignored mask lists features the trainer
	// must not split on
	Learn *dataset.Matrix
	// Metrics are evaluated on the learn data after every iteration, primary
	// metric first
	Metrics []metric.Metric
	// Iterations is the number of boosting iterations to run
	Iterations int
	// LearningRate scales each iteration's contribution
	LearningRate float64
	// Seed drives the trainer's random decisions
	Seed int64
	// OnIteration, if non-nil, receives the per-iteration metric-on-learn
	// history after each iteration and returns whether to continue training
	OnIteration func(history [][]float64) bool
}

// Trainer builds one model per fold. Implementations must be deterministic
// given the same context and seed: the orchestrator's resume protocol assumes
// replayed units produce identical models.
type Trainer interface {
	Train(ctx TrainContext) (*model.Ensemble, error)
}
