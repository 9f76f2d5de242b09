// Package ensemble implements the per-league blended outcome model: a set
// of independently trained base learners, each wrapped in a sigmoid
// probability calibrator, combined through normalized blend weights and
// finished with data-driven adjustment rules.
package ensemble

import (
	"fmt"
	"math"

	"github.com/Scardubu/sabiscore/internal/models"
)

// Learner is the pluggable base-learner capability. The training algorithm
// behind Fit is the learner's own business; the ensemble only consumes
// outcome probabilities.
type Learner interface {
	Name() string
	Fit(vectors []models.FeatureVector, outcomes []models.Outcome) error
	PredictProbs(vec models.FeatureVector) ([3]float64, error)
}

// Dataset pairs feature vectors with observed outcomes
type Dataset struct {
	Vectors  []models.FeatureVector
	Outcomes []models.Outcome
}

// Len returns the number of samples
func (d Dataset) Len() int {
	return len(d.Vectors)
}

// Validate checks the dataset is usable for fitting
func (d Dataset) Validate() error {
	if len(d.Vectors) == 0 {
		return fmt.Errorf("empty training set")
	}
	if len(d.Vectors) != len(d.Outcomes) {
		return fmt.Errorf("vector/outcome length mismatch: %d vs %d", len(d.Vectors), len(d.Outcomes))
	}
	dim := len(d.Vectors[0])
	for i, v := range d.Vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has length %d, expected %d", i, len(v), dim)
		}
	}
	for i, o := range d.Outcomes {
		if !o.Valid() {
			return fmt.Errorf("sample %d has unknown outcome %q", i, o)
		}
	}
	return nil
}

func softmax(z [3]float64) [3]float64 {
	max := math.Max(z[0], math.Max(z[1], z[2]))
	var sum float64
	var out [3]float64
	for i, v := range z {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func normalizeProbs(p [3]float64) [3]float64 {
	sum := 0.0
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			p[i] = 0
		} else {
			sum += v
		}
	}
	if sum <= 0 {
		return [3]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	}
	for i := range p {
		p[i] /= sum
	}
	return p
}
