package model

import (
	"encoding/json"
	"io"
)

// An Ensemble is an additive model: a base score plus the sum of the outputs
// of a sequence of decision trees, one per boosting iteration.
type Ensemble struct {
	// Bias is the base score added to every prediction
	Bias float64 `json:"bias"`
	// Trees is the sequence of trees, in boosting-iteration order
	Trees []Tree `json:"trees"`
}

// TreeCount returns the number of boosting iterations in the model
func (e *Ensemble) TreeCount() int {
	return len(e.Trees)
}

// Evaluate computes the full model output for a feature vector
func (e *Ensemble) Evaluate(x []float64) float64 {
	sum := e.Bias
	for i := range e.Trees {
		sum += e.Trees[i].Evaluate(x)
	}
	return sum
}

// EvaluateTree computes the contribution of the tree at the given boosting
// iteration only. Callers accumulating predictions iteration by iteration
// must seed the running sum with Bias.
func (e *Ensemble) EvaluateTree(i int, x []float64) float64 {
	return e.Trees[i].Evaluate(x)
}

// FeatureStrengths returns the total split gain attributed to each of
// featureCount features, normalized so that the strengths sum to 1 whenever
// any split exists.
func (e *Ensemble) FeatureStrengths(featureCount int) []float64 {
	strengths := make([]float64, featureCount)
	var total float64
	for i := range e.Trees {
		for _, node := range e.Trees[i].Nodes {
			strengths[node.Feature] += node.Gain
			total += node.Gain
		}
	}
	if total > 0 {
		for i := range strengths {
			strengths[i] /= total
		}
	}
	return strengths
}

// Load reads a JSON-encoded ensemble
func Load(r io.Reader) (*Ensemble, error) {
	var ensemble Ensemble
	rd := json.NewDecoder(r)
	err := rd.Decode(&ensemble)
	if err != nil {
		return nil, err
	}
	return &ensemble, nil
}

// Save writes the ensemble as JSON
func (e *Ensemble) Save(w io.Writer) error {
	return json.NewEncoder(w).Encode(e)
}
