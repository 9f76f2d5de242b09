package ensemble

import (
	"fmt"
	"math"

	"github.com/Scardubu/sabiscore/internal/models"
)

const (
	plattEpochs = 200
	plattLR     = 0.1
)

// plattParams is a two-parameter logistic correction on the logit scale:
// calibrated = sigmoid(a*logit(p) + b). a > 0 keeps the mapping monotone.
type plattParams struct {
	A float64
	B float64
}

func (pp plattParams) apply(p float64) float64 {
	return sigmoid(pp.A*logit(p) + pp.B)
}

// calibratedLearner wraps a base learner with per-outcome sigmoid
// calibration fitted on the learner's own training-set outputs.
type calibratedLearner struct {
	base   Learner
	params [3]plattParams
	fitted bool
}

func newCalibratedLearner(base Learner) *calibratedLearner {
	return &calibratedLearner{base: base}
}

// Name returns the wrapped learner's name
func (c *calibratedLearner) Name() string {
	return c.base.Name()
}

// Fit trains the base learner, then fits the per-outcome sigmoid correction
// on the learner's in-sample probabilities.
func (c *calibratedLearner) Fit(vectors []models.FeatureVector, outcomes []models.Outcome) error {
	if err := c.base.Fit(vectors, outcomes); err != nil {
		return err
	}

	raw := make([][3]float64, len(vectors))
	for i, vec := range vectors {
		probs, err := c.base.PredictProbs(vec)
		if err != nil {
			return fmt.Errorf("calibration pass for %s: %w", c.base.Name(), err)
		}
		raw[i] = probs
	}

	for k := 0; k < 3; k++ {
		preds := make([]float64, len(raw))
		labels := make([]float64, len(raw))
		for i := range raw {
			preds[i] = raw[i][k]
			if outcomes[i].Index() == k {
				labels[i] = 1
			}
		}
		c.params[k] = fitPlatt(preds, labels)
	}

	c.fitted = true
	return nil
}

// PredictProbs returns calibrated, renormalized outcome probabilities
func (c *calibratedLearner) PredictProbs(vec models.FeatureVector) ([3]float64, error) {
	probs, err := c.base.PredictProbs(vec)
	if err != nil {
		return [3]float64{}, err
	}
	if !c.fitted {
		return probs, nil
	}
	for k := range probs {
		probs[k] = c.params[k].apply(probs[k])
	}
	return normalizeProbs(probs), nil
}

// fitPlatt fits the two-parameter logistic correction by gradient descent
// on log-loss. Starts at the identity (a=1, b=0); a is floored at a small
// positive value so the correction stays monotone.
func fitPlatt(preds, labels []float64) plattParams {
	a, b := 1.0, 0.0
	n := float64(len(preds))
	if n == 0 {
		return plattParams{A: 1}
	}
	for epoch := 0; epoch < plattEpochs; epoch++ {
		var gradA, gradB float64
		for i, p := range preds {
			x := logit(p)
			q := sigmoid(a*x + b)
			delta := q - labels[i]
			gradA += delta * x
			gradB += delta
		}
		a -= plattLR * gradA / n
		b -= plattLR * gradB / n
		if a < 0.05 {
			a = 0.05
		}
	}
	return plattParams{A: a, B: b}
}

func logit(p float64) float64 {
	const eps = 1e-6
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	return math.Log(p / (1 - p))
}
