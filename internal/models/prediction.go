package models

import (
	"fmt"
	"math"
	"time"
)

// ProbabilityTolerance is the accepted deviation of a probability simplex from 1.0
const ProbabilityTolerance = 1e-6

// PredictionResult holds outcome probabilities for a single match.
// Probabilities always lie in [0,1] and sum to 1 within ProbabilityTolerance;
// Confidence is the largest of the three.
type PredictionResult struct {
	HomeProb   float64 `json:"home_win"`
	DrawProb   float64 `json:"draw"`
	AwayProb   float64 `json:"away_win"`
	Confidence float64 `json:"confidence"`
}

// Probs returns the probabilities in canonical outcome order
func (p PredictionResult) Probs() [3]float64 {
	return [3]float64{p.HomeProb, p.DrawProb, p.AwayProb}
}

// ProbFor returns the probability of a single outcome
func (p PredictionResult) ProbFor(o Outcome) float64 {
	switch o {
	case OutcomeHomeWin:
		return p.HomeProb
	case OutcomeDraw:
		return p.DrawProb
	case OutcomeAwayWin:
		return p.AwayProb
	}
	return 0
}

// FromProbs builds a normalized PredictionResult from raw probabilities
func FromProbs(probs [3]float64) PredictionResult {
	p := PredictionResult{HomeProb: probs[0], DrawProb: probs[1], AwayProb: probs[2]}
	p.Normalize()
	return p
}

// Normalize clamps each probability into [0,1], rescales the simplex to sum
// to 1 and refreshes Confidence. A degenerate all-zero result falls back to
// the uniform distribution.
func (p *PredictionResult) Normalize() {
	probs := []float64{p.HomeProb, p.DrawProb, p.AwayProb}
	sum := 0.0
	for i, v := range probs {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		probs[i] = v
		sum += v
	}
	if sum <= 0 {
		probs = []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
		sum = 1
	}
	p.HomeProb = probs[0] / sum
	p.DrawProb = probs[1] / sum
	p.AwayProb = probs[2] / sum
	p.Confidence = math.Max(p.HomeProb, math.Max(p.DrawProb, p.AwayProb))
}

// Validate checks the probability simplex invariant
func (p PredictionResult) Validate() error {
	for _, v := range p.Probs() {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("probability %f out of [0,1]", v)
		}
	}
	sum := p.HomeProb + p.DrawProb + p.AwayProb
	if math.Abs(sum-1.0) > ProbabilityTolerance {
		return fmt.Errorf("probabilities sum to %f, expected 1", sum)
	}
	return nil
}

// MostLikely returns the highest-probability outcome and its probability
func (p PredictionResult) MostLikely() (Outcome, float64) {
	best := OutcomeHomeWin
	bestProb := p.HomeProb
	if p.DrawProb > bestProb {
		best, bestProb = OutcomeDraw, p.DrawProb
	}
	if p.AwayProb > bestProb {
		best, bestProb = OutcomeAwayWin, p.AwayProb
	}
	return best, bestProb
}

// ValueBetCandidate is a market outcome the detector priced as mispriced.
// Transient: emitted in responses, never persisted by the core.
type ValueBetCandidate struct {
	Outcome            Outcome `json:"outcome"`
	EdgeValue          float64 `json:"edge"`
	ImpliedProbability float64 `json:"implied_probability"`
	FairProbability    float64 `json:"fair_probability"`
	RecommendedStake   float64 `json:"recommended_stake"`
	DisplayStake       string  `json:"display_stake,omitempty"`
}

// EnsembleWeights maps base-learner name to its non-negative blend weight.
// Set at training time, read-only at inference.
type EnsembleWeights map[string]float64

// Normalized returns a copy scaled to sum to 1. Nil or all-zero weights
// normalize to the empty map.
func (w EnsembleWeights) Normalized() EnsembleWeights {
	sum := 0.0
	for _, v := range w {
		if v > 0 {
			sum += v
		}
	}
	out := make(EnsembleWeights, len(w))
	if sum <= 0 {
		return out
	}
	for k, v := range w {
		if v > 0 {
			out[k] = v / sum
		}
	}
	return out
}

// PredictionResponse is the outbound shape of a predict call
type PredictionResponse struct {
	League       string              `json:"league"`
	MatchID      string              `json:"match_id"`
	Predictions  PredictionResult    `json:"predictions"`
	ValueBets    []ValueBetCandidate `json:"value_bets"`
	ModelVersion string              `json:"model_version"`
	GeneratedAt  time.Time           `json:"generated_at"`
}
