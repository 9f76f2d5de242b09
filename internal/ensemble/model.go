package ensemble

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Scardubu/sabiscore/internal/models"
)

// Config parameterizes one league's model. A single Model type serves every
// league; specialization lives entirely in the schema-bound learners, the
// blend weights and the rule table.
type Config struct {
	League string
	// Weights maps learner name to blend weight. Empty means uniform.
	Weights models.EnsembleWeights
	// Rules is the ordered post-blend adjustment table
	Rules []AdjustmentRule
}

// Model is a per-league ensemble of calibrated base learners.
// Safe for concurrent Predict calls; Train replaces the fitted state under
// the write lock and is an administrative operation, never on the hot path.
type Model struct {
	league string
	rules  []AdjustmentRule

	mu       sync.RWMutex
	learners []*calibratedLearner
	weights  models.EnsembleWeights
	version  string
	trained  bool
	trainedAt time.Time

	logger *logrus.Logger
}

// New creates an untrained model over the given base learners
func New(cfg Config, learners []Learner, logger *logrus.Logger) (*Model, error) {
	if len(learners) == 0 {
		return nil, fmt.Errorf("at least one base learner is required")
	}
	wrapped := make([]*calibratedLearner, len(learners))
	seen := map[string]bool{}
	for i, l := range learners {
		if seen[l.Name()] {
			return nil, fmt.Errorf("duplicate learner name %q", l.Name())
		}
		seen[l.Name()] = true
		wrapped[i] = newCalibratedLearner(l)
	}

	weights := cfg.Weights.Normalized()
	if len(weights) == 0 {
		weights = make(models.EnsembleWeights, len(learners))
		for _, l := range learners {
			weights[l.Name()] = 1.0 / float64(len(learners))
		}
	}
	for name := range weights {
		if !seen[name] {
			return nil, fmt.Errorf("blend weight for unknown learner %q", name)
		}
	}

	return &Model{
		league:   cfg.League,
		rules:    cfg.Rules,
		learners: wrapped,
		weights:  weights,
		logger:   logger,
	}, nil
}

// League returns the league this model serves
func (m *Model) League() string {
	return m.league
}

// Trained reports whether the model has a fitted ensemble
func (m *Model) Trained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trained
}

// Version returns the identifier of the current fit, empty when untrained
func (m *Model) Version() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Weights returns a copy of the active blend weights
func (m *Model) Weights() models.EnsembleWeights {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(models.EnsembleWeights, len(m.weights))
	for k, v := range m.weights {
		out[k] = v
	}
	return out
}

// Train fits every base learner plus its probability calibrator and stamps
// a new model version.
func (m *Model) Train(vectors []models.FeatureVector, outcomes []models.Outcome) error {
	ds := Dataset{Vectors: vectors, Outcomes: outcomes}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("train %s: %w", m.league, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	for _, learner := range m.learners {
		if err := learner.Fit(vectors, outcomes); err != nil {
			return fmt.Errorf("train %s learner %s: %w", m.league, learner.Name(), err)
		}
	}
	m.version = uuid.New().String()
	m.trained = true
	m.trainedAt = time.Now()

	if m.logger != nil {
		m.logger.WithFields(logrus.Fields{
			"league":   m.league,
			"samples":  len(vectors),
			"learners": len(m.learners),
			"version":  m.version,
			"duration": time.Since(start).String(),
		}).Info("Ensemble trained")
	}
	return nil
}

// RawPredict blends calibrated learner outputs without applying adjustment
// rules. The recalibration pipeline records these raw probabilities.
func (m *Model) RawPredict(vec models.FeatureVector) ([3]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.trained {
		return [3]float64{}, models.ErrModelNotTrained
	}

	var blended [3]float64
	for _, learner := range m.learners {
		w, ok := m.weights[learner.Name()]
		if !ok || w <= 0 {
			continue
		}
		probs, err := learner.PredictProbs(vec)
		if err != nil {
			return [3]float64{}, fmt.Errorf("learner %s: %w", learner.Name(), err)
		}
		for k := range blended {
			blended[k] += w * probs[k]
		}
	}
	return normalizeProbs(blended), nil
}

// AdjustedFromRaw applies the league's adjustment rules to an already
// blended distribution. The rule table is fixed at construction, so no
// lock is taken.
func (m *Model) AdjustedFromRaw(raw [3]float64, mc models.MatchContext) [3]float64 {
	return ApplyRules(raw, mc, m.rules)
}

// Predict blends learner outputs, applies the league's adjustment rules
// against the match context and returns the final normalized result.
func (m *Model) Predict(vec models.FeatureVector, mc models.MatchContext) (models.PredictionResult, error) {
	blended, err := m.RawPredict(vec)
	if err != nil {
		return models.PredictionResult{}, err
	}
	adjusted := ApplyRules(blended, mc, m.rules)
	return models.FromProbs(adjusted), nil
}
