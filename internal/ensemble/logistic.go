package ensemble

import (
	"fmt"
	"math"

	"github.com/Scardubu/sabiscore/internal/models"
)

const (
	defaultLogisticEpochs = 300
	defaultLogisticLR     = 0.05
	logisticL2            = 1e-4
)

// LogisticLearner is a multinomial logistic regression over standardized
// features, trained with batch gradient descent on log-loss.
type LogisticLearner struct {
	epochs int
	lr     float64

	weights [3][]float64 // per outcome: bias at index 0
	mean    []float64
	std     []float64
	fitted  bool
}

// NewLogisticLearner creates a logistic learner with default hyperparameters
func NewLogisticLearner() *LogisticLearner {
	return &LogisticLearner{epochs: defaultLogisticEpochs, lr: defaultLogisticLR}
}

// Name returns the learner name used in blend weights
func (l *LogisticLearner) Name() string {
	return "logistic"
}

// Fit trains the softmax weights on the dataset
func (l *LogisticLearner) Fit(vectors []models.FeatureVector, outcomes []models.Outcome) error {
	ds := Dataset{Vectors: vectors, Outcomes: outcomes}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("logistic fit: %w", err)
	}

	dim := len(vectors[0])
	l.mean, l.std = fitStandardizer(vectors, dim)
	for k := range l.weights {
		l.weights[k] = make([]float64, dim+1)
	}

	n := float64(len(vectors))
	for epoch := 0; epoch < l.epochs; epoch++ {
		grad := [3][]float64{}
		for k := range grad {
			grad[k] = make([]float64, dim+1)
		}
		for i, vec := range vectors {
			x := l.standardize(vec)
			p := softmax(l.logits(x))
			y := outcomes[i].Index()
			for k := 0; k < 3; k++ {
				delta := p[k]
				if k == y {
					delta -= 1
				}
				grad[k][0] += delta
				for j, xj := range x {
					grad[k][j+1] += delta * xj
				}
			}
		}
		for k := 0; k < 3; k++ {
			for j := range l.weights[k] {
				reg := 0.0
				if j > 0 {
					reg = logisticL2 * l.weights[k][j]
				}
				l.weights[k][j] -= l.lr * (grad[k][j]/n + reg)
			}
		}
	}

	l.fitted = true
	return nil
}

// PredictProbs returns softmax outcome probabilities for a vector
func (l *LogisticLearner) PredictProbs(vec models.FeatureVector) ([3]float64, error) {
	if !l.fitted {
		return [3]float64{}, models.ErrModelNotTrained
	}
	if len(vec) != len(l.mean) {
		return [3]float64{}, fmt.Errorf("vector length %d, trained on %d", len(vec), len(l.mean))
	}
	return softmax(l.logits(l.standardize(vec))), nil
}

func (l *LogisticLearner) logits(x []float64) [3]float64 {
	var z [3]float64
	for k := 0; k < 3; k++ {
		z[k] = l.weights[k][0]
		for j, xj := range x {
			z[k] += l.weights[k][j+1] * xj
		}
	}
	return z
}

func (l *LogisticLearner) standardize(vec models.FeatureVector) []float64 {
	x := make([]float64, len(vec))
	for j, v := range vec {
		x[j] = (v - l.mean[j]) / l.std[j]
	}
	return x
}

func fitStandardizer(vectors []models.FeatureVector, dim int) (mean, std []float64) {
	mean = make([]float64, dim)
	std = make([]float64, dim)
	n := float64(len(vectors))
	for _, vec := range vectors {
		for j, v := range vec {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, vec := range vectors {
		for j, v := range vec {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] < 1e-9 {
			std[j] = 1
		}
	}
	return mean, std
}
