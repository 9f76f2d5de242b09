package ensemble

import (
	"fmt"
	"math"

	"github.com/Scardubu/sabiscore/internal/feature"
	"github.com/Scardubu/sabiscore/internal/models"
)

const poissonMaxGoals = 8

// PoissonLearner models scorelines as independent Poisson processes with
// per-team goal rates read from the feature vector. Fitting estimates the
// league's home-advantage multiplier by log-likelihood grid search.
type PoissonLearner struct {
	homeAttackIdx  int
	homeDefenceIdx int
	awayAttackIdx  int
	awayDefenceIdx int

	homeAdvantage float64
	fitted        bool
}

// NewPoissonLearner binds the learner to the goal-rate features of a schema
func NewPoissonLearner(schema *feature.Schema) (*PoissonLearner, error) {
	idx := map[string]int{}
	for i, key := range schema.Keys() {
		idx[key] = i
	}
	required := []string{
		"home_goals_for_avg5", "home_goals_against_avg5",
		"away_goals_for_avg5", "away_goals_against_avg5",
	}
	for _, key := range required {
		if _, ok := idx[key]; !ok {
			return nil, fmt.Errorf("schema %s missing feature %q", schema.League, key)
		}
	}
	return &PoissonLearner{
		homeAttackIdx:  idx["home_goals_for_avg5"],
		homeDefenceIdx: idx["home_goals_against_avg5"],
		awayAttackIdx:  idx["away_goals_for_avg5"],
		awayDefenceIdx: idx["away_goals_against_avg5"],
	}, nil
}

// Name returns the learner name used in blend weights
func (p *PoissonLearner) Name() string {
	return "poisson"
}

// Fit searches the home-advantage multiplier maximizing outcome likelihood
func (p *PoissonLearner) Fit(vectors []models.FeatureVector, outcomes []models.Outcome) error {
	ds := Dataset{Vectors: vectors, Outcomes: outcomes}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("poisson fit: %w", err)
	}

	bestAdv, bestLL := 1.0, math.Inf(-1)
	for adv := 0.9; adv <= 1.6; adv += 0.02 {
		ll := 0.0
		for i, vec := range vectors {
			probs := p.outcomeProbs(vec, adv)
			prob := probs[outcomes[i].Index()]
			if prob < 1e-12 {
				prob = 1e-12
			}
			ll += math.Log(prob)
		}
		if ll > bestLL {
			bestLL, bestAdv = ll, adv
		}
	}

	p.homeAdvantage = bestAdv
	p.fitted = true
	return nil
}

// PredictProbs returns outcome probabilities from the scoreline grid
func (p *PoissonLearner) PredictProbs(vec models.FeatureVector) ([3]float64, error) {
	if !p.fitted {
		return [3]float64{}, models.ErrModelNotTrained
	}
	maxIdx := p.awayDefenceIdx
	if p.homeDefenceIdx > maxIdx {
		maxIdx = p.homeDefenceIdx
	}
	if len(vec) <= maxIdx {
		return [3]float64{}, fmt.Errorf("vector too short for goal-rate features")
	}
	return p.outcomeProbs(vec, p.homeAdvantage), nil
}

func (p *PoissonLearner) outcomeProbs(vec models.FeatureVector, homeAdvantage float64) [3]float64 {
	lambdaHome := clampRate((vec[p.homeAttackIdx]+vec[p.awayDefenceIdx])/2) * homeAdvantage
	lambdaAway := clampRate((vec[p.awayAttackIdx] + vec[p.homeDefenceIdx]) / 2)

	var probs [3]float64
	for h := 0; h <= poissonMaxGoals; h++ {
		ph := poissonPMF(lambdaHome, h)
		for a := 0; a <= poissonMaxGoals; a++ {
			joint := ph * poissonPMF(lambdaAway, a)
			switch {
			case h > a:
				probs[0] += joint
			case h == a:
				probs[1] += joint
			default:
				probs[2] += joint
			}
		}
	}
	return normalizeProbs(probs)
}

func poissonPMF(lambda float64, k int) float64 {
	logP := -lambda + float64(k)*math.Log(lambda) - logFactorial(k)
	return math.Exp(logP)
}

func logFactorial(k int) float64 {
	sum := 0.0
	for i := 2; i <= k; i++ {
		sum += math.Log(float64(i))
	}
	return sum
}

func clampRate(v float64) float64 {
	if v < 0.1 {
		return 0.1
	}
	if v > 5.0 {
		return 5.0
	}
	return v
}
