package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionResultNormalize(t *testing.T) {
	t.Run("rescales to unit sum", func(t *testing.T) {
		p := PredictionResult{HomeProb: 2, DrawProb: 1, AwayProb: 1}
		p.Normalize()
		require.NoError(t, p.Validate())
		assert.InDelta(t, 0.5, p.HomeProb, 1e-9)
		assert.InDelta(t, 0.25, p.DrawProb, 1e-9)
		assert.InDelta(t, 0.25, p.AwayProb, 1e-9)
		assert.InDelta(t, 0.5, p.Confidence, 1e-9)
	})

	t.Run("degenerate input falls back to uniform", func(t *testing.T) {
		p := PredictionResult{HomeProb: 0, DrawProb: 0, AwayProb: 0}
		p.Normalize()
		require.NoError(t, p.Validate())
		assert.InDelta(t, 1.0/3, p.HomeProb, 1e-9)
		assert.InDelta(t, 1.0/3, p.DrawProb, 1e-9)
		assert.InDelta(t, 1.0/3, p.AwayProb, 1e-9)
	})

	t.Run("NaN and negative values are clamped", func(t *testing.T) {
		p := PredictionResult{HomeProb: math.NaN(), DrawProb: -0.5, AwayProb: 0.4}
		p.Normalize()
		require.NoError(t, p.Validate())
		assert.Equal(t, 0.0, p.HomeProb)
		assert.Equal(t, 0.0, p.DrawProb)
		assert.InDelta(t, 1.0, p.AwayProb, 1e-9)
	})
}

func TestPredictionResultValidate(t *testing.T) {
	p := PredictionResult{HomeProb: 0.5, DrawProb: 0.3, AwayProb: 0.3}
	assert.Error(t, p.Validate())

	p = FromProbs([3]float64{0.5, 0.3, 0.2})
	assert.NoError(t, p.Validate())
}

func TestMostLikely(t *testing.T) {
	p := FromProbs([3]float64{0.2, 0.5, 0.3})
	outcome, prob := p.MostLikely()
	assert.Equal(t, OutcomeDraw, outcome)
	assert.InDelta(t, 0.5, prob, 1e-9)
}

func TestEnsembleWeightsNormalized(t *testing.T) {
	t.Run("scales to unit sum dropping non-positive entries", func(t *testing.T) {
		w := EnsembleWeights{"a": 2, "b": 2, "c": -1}
		n := w.Normalized()
		assert.InDelta(t, 0.5, n["a"], 1e-9)
		assert.InDelta(t, 0.5, n["b"], 1e-9)
		assert.NotContains(t, n, "c")
	})

	t.Run("all-zero weights normalize to empty", func(t *testing.T) {
		assert.Empty(t, EnsembleWeights{"a": 0}.Normalized())
		assert.Empty(t, EnsembleWeights(nil).Normalized())
	})
}

func TestParseOutcome(t *testing.T) {
	cases := map[string]Outcome{
		"home_win": OutcomeHomeWin,
		"H":        OutcomeHomeWin,
		"1":        OutcomeHomeWin,
		"draw":     OutcomeDraw,
		"X":        OutcomeDraw,
		"away_win": OutcomeAwayWin,
		"2":        OutcomeAwayWin,
	}
	for code, want := range cases {
		got, ok := ParseOutcome(code)
		require.True(t, ok, "code %q", code)
		assert.Equal(t, want, got)
	}

	_, ok := ParseOutcome("postponed")
	assert.False(t, ok)
}

func TestOutcomeIndex(t *testing.T) {
	assert.Equal(t, 0, OutcomeHomeWin.Index())
	assert.Equal(t, 1, OutcomeDraw.Index())
	assert.Equal(t, 2, OutcomeAwayWin.Index())
	assert.Equal(t, -1, Outcome("void").Index())
	assert.False(t, Outcome("void").Valid())
}

func TestMatchContextGetOr(t *testing.T) {
	mc := MatchContext{"home_elo_rating": 1620}
	assert.Equal(t, 1620.0, mc.GetOr("home_elo_rating", 1500))
	assert.Equal(t, 1500.0, mc.GetOr("away_elo_rating", 1500))
}
