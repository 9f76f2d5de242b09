package calibration

import (
	"fmt"
	"math"
)

const (
	plattFitEpochs = 250
	plattFitLR     = 0.1
)

// PlattParams is the two-parameter logistic correction
// calibrated = sigmoid(A*logit(p) + B). A is kept positive so the mapping
// preserves the rank order of raw probabilities.
type PlattParams struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Identity returns the no-op correction
func Identity() PlattParams {
	return PlattParams{A: 1, B: 0}
}

// Apply maps a raw probability through the correction
func (pp PlattParams) Apply(p float64) float64 {
	return sigmoid(pp.A*logit(p) + pp.B)
}

// FitPlatt fits the correction by gradient descent on log-loss
func FitPlatt(samples []Sample) (PlattParams, error) {
	if len(samples) < 5 {
		return Identity(), fmt.Errorf("platt fit needs at least 5 samples, got %d", len(samples))
	}
	a, b := 1.0, 0.0
	n := float64(len(samples))
	for epoch := 0; epoch < plattFitEpochs; epoch++ {
		var gradA, gradB float64
		for _, s := range samples {
			x := logit(s.RawProb)
			q := sigmoid(a*x + b)
			y := 0.0
			if s.Hit {
				y = 1
			}
			delta := q - y
			gradA += delta * x
			gradB += delta
		}
		a -= plattFitLR * gradA / n
		b -= plattFitLR * gradB / n
		if a < 0.05 {
			a = 0.05
		}
	}
	return PlattParams{A: a, B: b}, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
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
