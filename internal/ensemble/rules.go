package ensemble

import "github.com/Scardubu/sabiscore/internal/models"

// RulePredicate decides whether an adjustment rule fires for a match context
type RulePredicate func(models.MatchContext) bool

// AdjustmentRule is one post-blend multiplicative nudge: when the predicate
// holds, the target outcome's probability is scaled by Multiplier before the
// final renormalization. These are data-driven tables, not learned
// parameters; magnitudes come from configuration and should be treated as
// empirically tunable, not validated constants.
type AdjustmentRule struct {
	Name       string
	Outcome    models.Outcome
	Multiplier float64
	When       RulePredicate
}

// ApplyRules evaluates the ordered rule list against a context and returns
// the renormalized probabilities. A nil or empty rule list is a no-op.
func ApplyRules(probs [3]float64, mc models.MatchContext, rules []AdjustmentRule) [3]float64 {
	applied := false
	for _, rule := range rules {
		if rule.Multiplier <= 0 || rule.When == nil || !rule.When(mc) {
			continue
		}
		idx := rule.Outcome.Index()
		if idx < 0 {
			continue
		}
		probs[idx] *= rule.Multiplier
		applied = true
	}
	if !applied {
		return probs
	}
	return normalizeProbs(probs)
}

// HeavyRainDrawBoost scales the draw probability when rainfall exceeds
// the threshold (mm expected during the match).
func HeavyRainDrawBoost(thresholdMM, multiplier float64) AdjustmentRule {
	return AdjustmentRule{
		Name:       "heavy_rain_draw_boost",
		Outcome:    models.OutcomeDraw,
		Multiplier: multiplier,
		When: func(mc models.MatchContext) bool {
			return mc.GetOr("weather_rain_mm", 0) >= thresholdMM
		},
	}
}

// ContinentalFixtureHomeFade reduces the home-win probability when the home
// side played a continental fixture within the given number of days.
func ContinentalFixtureHomeFade(withinDays, multiplier float64) AdjustmentRule {
	return AdjustmentRule{
		Name:       "continental_fixture_home_fade",
		Outcome:    models.OutcomeHomeWin,
		Multiplier: multiplier,
		When: func(mc models.MatchContext) bool {
			days, ok := mc.Get("home_days_since_continental")
			return ok && days >= 0 && days <= withinDays
		},
	}
}

// CongestedAwaySideFade reduces the away-win probability when the away side
// is deep into a congested run of fixtures.
func CongestedAwaySideFade(minMatches21d, multiplier float64) AdjustmentRule {
	return AdjustmentRule{
		Name:       "congested_away_side_fade",
		Outcome:    models.OutcomeAwayWin,
		Multiplier: multiplier,
		When: func(mc models.MatchContext) bool {
			return mc.GetOr("away_matches_last_21d", 0) >= minMatches21d
		},
	}
}

// DerbyDrawBoost scales the draw probability for flagged derby fixtures
func DerbyDrawBoost(multiplier float64) AdjustmentRule {
	return AdjustmentRule{
		Name:       "derby_draw_boost",
		Outcome:    models.OutcomeDraw,
		Multiplier: multiplier,
		When: func(mc models.MatchContext) bool {
			return mc.GetOr("derby_flag", 0) >= 1 || mc.GetOr("derby_della_flag", 0) >= 1
		},
	}
}
