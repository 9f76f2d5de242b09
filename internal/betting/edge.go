// Package betting turns calibrated probabilities and market odds into
// value-bet candidates with bounded stake recommendations.
package betting

import (
	"github.com/sirupsen/logrus"

	"github.com/Scardubu/sabiscore/internal/models"
)

// DefaultMinEdge is the league minimum edge when none is configured.
// Deployed leagues sit in the 4.2-4.4% band.
const DefaultMinEdge = 0.042

// DefaultVolumeWeight when the caller supplies no liquidity signal
const DefaultVolumeWeight = 1.0

// MatchOdds carries the per-outcome decimal odds supplied with a request,
// plus the externally sourced liquidity weight.
type MatchOdds struct {
	Home         float64 `json:"home"`
	Draw         float64 `json:"draw"`
	Away         float64 `json:"away"`
	VolumeWeight float64 `json:"volume_weight,omitempty"`
}

// For returns the odds quoted for one outcome
func (o MatchOdds) For(outcome models.Outcome) float64 {
	switch outcome {
	case models.OutcomeHomeWin:
		return o.Home
	case models.OutcomeDraw:
		return o.Draw
	case models.OutcomeAwayWin:
		return o.Away
	}
	return 0
}

// Detector compares calibrated probabilities with quoted odds and emits
// candidates for outcomes priced below fair value.
type Detector struct {
	minEdge map[string]float64
	sizer   *Sizer
	logger  *logrus.Logger
}

// NewDetector creates a detector with per-league minimum edges. Leagues
// absent from the map use DefaultMinEdge.
func NewDetector(minEdge map[string]float64, sizer *Sizer, logger *logrus.Logger) *Detector {
	return &Detector{minEdge: minEdge, sizer: sizer, logger: logger}
}

// MinEdge returns the configured minimum edge for a league
func (d *Detector) MinEdge(league string) float64 {
	if v, ok := d.minEdge[league]; ok && v > 0 {
		return v
	}
	return DefaultMinEdge
}

// Evaluate checks every quoted outcome independently. An outcome with odds
// at or below 1.0 is skipped (invalid market quote); the other outcomes are
// still evaluated. Candidates carry a stake recommendation from the sizer.
func (d *Detector) Evaluate(league string, result models.PredictionResult, odds MatchOdds, bankroll float64) []models.ValueBetCandidate {
	volumeWeight := odds.VolumeWeight
	if volumeWeight <= 0 {
		volumeWeight = DefaultVolumeWeight
	}
	threshold := d.MinEdge(league)

	var candidates []models.ValueBetCandidate
	for _, outcome := range models.Outcomes {
		quoted := odds.For(outcome)
		if quoted <= 1.0 {
			if quoted != 0 && d.logger != nil {
				d.logger.WithFields(logrus.Fields{
					"league":  league,
					"outcome": outcome,
					"odds":    quoted,
				}).Debug("Skipping outcome with invalid odds")
			}
			continue
		}

		fair := result.ProbFor(outcome)
		implied := 1.0 / quoted
		value := fair - implied
		if value <= 0 {
			continue
		}
		edge := value * (quoted - 1) * volumeWeight
		if edge < threshold {
			continue
		}

		candidate := models.ValueBetCandidate{
			Outcome:            outcome,
			EdgeValue:          edge,
			ImpliedProbability: implied,
			FairProbability:    fair,
		}
		if d.sizer != nil {
			candidate.RecommendedStake = d.sizer.Stake(fair, quoted, bankroll)
			candidate.DisplayStake = d.sizer.DisplayStake(candidate.RecommendedStake)
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}
