package models

import "time"

// Outcome identifies one of the three full-time results of a match
type Outcome string

const (
	OutcomeHomeWin Outcome = "home_win"
	OutcomeDraw    Outcome = "draw"
	OutcomeAwayWin Outcome = "away_win"
)

// Outcomes lists the three outcomes in canonical order (home, draw, away)
var Outcomes = [3]Outcome{OutcomeHomeWin, OutcomeDraw, OutcomeAwayWin}

// Index returns the canonical position of the outcome, or -1 if unknown
func (o Outcome) Index() int {
	switch o {
	case OutcomeHomeWin:
		return 0
	case OutcomeDraw:
		return 1
	case OutcomeAwayWin:
		return 2
	}
	return -1
}

// Valid reports whether the outcome is one of the three known codes
func (o Outcome) Valid() bool {
	return o.Index() >= 0
}

// ParseOutcome maps external result codes onto an Outcome.
// Accepts the canonical codes plus the short forms used by result feeds.
func ParseOutcome(code string) (Outcome, bool) {
	switch code {
	case string(OutcomeHomeWin), "H", "1", "home":
		return OutcomeHomeWin, true
	case string(OutcomeDraw), "D", "X", "x":
		return OutcomeDraw, true
	case string(OutcomeAwayWin), "A", "2", "away":
		return OutcomeAwayWin, true
	}
	return "", false
}

// MatchContext is the raw statistics map supplied by the external data
// aggregator. Values are pre-encoded as numerics (categorical fields are
// mapped by the aggregator). Read-only inside the prediction core.
type MatchContext map[string]float64

// Get returns the value for key and whether it was present
func (mc MatchContext) Get(key string) (float64, bool) {
	v, ok := mc[key]
	return v, ok
}

// GetOr returns the value for key, or fallback when absent
func (mc MatchContext) GetOr(key string, fallback float64) float64 {
	if v, ok := mc[key]; ok {
		return v
	}
	return fallback
}

// FeatureVector is a fixed-length ordered numeric encoding of a MatchContext.
// Immutable once built; length is fixed per league schema.
type FeatureVector []float64

// HistoricalMatch is a finished match with its context and observed outcome,
// used to build per-league training sets.
type HistoricalMatch struct {
	League    string       `db:"league" json:"league"`
	MatchID   string       `db:"match_id" json:"match_id"`
	KickoffAt time.Time    `db:"kickoff_at" json:"kickoff_at"`
	Context   MatchContext `db:"context" json:"context"`
	Outcome   Outcome      `db:"outcome" json:"outcome"`
}

// LiveResultRecord is a finished-match outcome fed into the recalibration
// rolling buffer.
type LiveResultRecord struct {
	MatchID   string    `db:"match_id" json:"match_id"`
	League    string    `db:"league" json:"league"`
	Outcome   Outcome   `db:"outcome" json:"outcome"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`

	// RawProbs holds the uncalibrated ensemble probabilities recorded when
	// the match was predicted, in canonical outcome order. Recalibration
	// pairs these with the observed outcome.
	RawProbs [3]float64 `db:"raw_probs" json:"raw_probs"`
}
