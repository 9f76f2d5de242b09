package betting

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scardubu/sabiscore/internal/models"
)

func testDetector() *Detector {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	sizer := NewSizer(0.125, 0.05, 1.0, "USD")
	return NewDetector(map[string]float64{"epl": 0.042}, sizer, log)
}

func TestEvaluateMarginalValueEmitsNothing(t *testing.T) {
	// Home quoted 2.10 implies 0.476; a 0.50 fair probability leaves a
	// positive value of ~0.024 but the edge stays under the 0.042 floor.
	detector := testDetector()
	result := models.FromProbs([3]float64{0.50, 0.27, 0.23})
	odds := MatchOdds{Home: 2.10, Draw: 3.40, Away: 3.20}

	candidates := detector.Evaluate("epl", result, odds, 10000)
	assert.Empty(t, candidates)
}

func TestEvaluateClearValueEmitsBoundedStake(t *testing.T) {
	// Same market, fair home probability 0.60: value ~0.124, edge ~0.136.
	detector := testDetector()
	result := models.FromProbs([3]float64{0.60, 0.22, 0.18})
	odds := MatchOdds{Home: 2.10, Draw: 3.40, Away: 3.20}
	bankroll := 10000.0

	candidates := detector.Evaluate("epl", result, odds, bankroll)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, models.OutcomeHomeWin, c.Outcome)
	assert.InDelta(t, 1.0/2.10, c.ImpliedProbability, 1e-9)
	assert.InDelta(t, 0.60, c.FairProbability, 1e-9)
	assert.InDelta(t, (0.60-1.0/2.10)*1.10, c.EdgeValue, 1e-9)
	assert.Greater(t, c.RecommendedStake, 0.0)
	assert.LessOrEqual(t, c.RecommendedStake, 0.05*bankroll)
	assert.NotEmpty(t, c.DisplayStake)
}

func TestEvaluateVolumeWeightScalesEdge(t *testing.T) {
	detector := testDetector()
	result := models.FromProbs([3]float64{0.60, 0.22, 0.18})
	odds := MatchOdds{Home: 2.10, Draw: 3.40, Away: 3.20, VolumeWeight: 0.25}

	// A thin market scales the edge below threshold
	candidates := detector.Evaluate("epl", result, odds, 10000)
	assert.Empty(t, candidates)
}

func TestEvaluateInvalidOddsSkipsOnlyThatOutcome(t *testing.T) {
	detector := testDetector()
	result := models.FromProbs([3]float64{0.60, 0.30, 0.10})
	odds := MatchOdds{Home: 1.0, Draw: 5.0, Away: 3.20}

	candidates := detector.Evaluate("epl", result, odds, 10000)
	require.Len(t, candidates, 1)
	assert.Equal(t, models.OutcomeDraw, candidates[0].Outcome)
}

func TestEvaluateNoNegativeValueCandidates(t *testing.T) {
	detector := testDetector()
	// Fair probabilities all below implied: nothing is mispriced
	result := models.FromProbs([3]float64{0.30, 0.25, 0.45})
	odds := MatchOdds{Home: 2.10, Draw: 3.40, Away: 2.05}

	candidates := detector.Evaluate("epl", result, odds, 10000)
	assert.Empty(t, candidates)
}

func TestMinEdgeFallsBackToDefault(t *testing.T) {
	detector := testDetector()
	assert.Equal(t, 0.042, detector.MinEdge("epl"))
	assert.Equal(t, DefaultMinEdge, detector.MinEdge("ligue1"))
}

func TestSizerStakeBounds(t *testing.T) {
	sizer := NewSizer(0.125, 0.05, 1.0, "USD")
	bankroll := 10000.0

	t.Run("positive edge yields bounded stake", func(t *testing.T) {
		stake := sizer.Stake(0.60, 2.10, bankroll)
		assert.Greater(t, stake, 0.0)
		assert.LessOrEqual(t, stake, sizer.MaxStake(bankroll))

		// f* = (0.6*1.1 - 0.4) / 1.1, scaled by 1/8
		expected := bankroll * ((0.60*1.10 - 0.40) / 1.10) * 0.125
		assert.InDelta(t, expected, stake, 1e-9)
	})

	t.Run("negative expectation yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, sizer.Stake(0.40, 2.10, bankroll))
	})

	t.Run("huge edge clamps to the ceiling", func(t *testing.T) {
		stake := sizer.Stake(0.95, 8.0, bankroll)
		assert.Equal(t, 0.05*bankroll, stake)
	})

	t.Run("degenerate inputs yield zero", func(t *testing.T) {
		assert.Equal(t, 0.0, sizer.Stake(0.6, 1.0, bankroll))
		assert.Equal(t, 0.0, sizer.Stake(0.0, 2.1, bankroll))
		assert.Equal(t, 0.0, sizer.Stake(1.0, 2.1, bankroll))
		assert.Equal(t, 0.0, sizer.Stake(0.6, 2.1, 0))
	})
}

func TestSizerDisplayStake(t *testing.T) {
	sizer := NewSizer(0.125, 0.05, 1.25, "EUR")
	assert.Equal(t, "125 EUR", sizer.DisplayStake(100))
	assert.Equal(t, "", sizer.DisplayStake(0))

	rounded := NewSizer(0.125, 0.05, 1.0, "USD")
	assert.Equal(t, "33.33 USD", rounded.DisplayStake(33.333))
}

func TestMatchOddsFor(t *testing.T) {
	odds := MatchOdds{Home: 2.1, Draw: 3.4, Away: 3.2}
	assert.Equal(t, 2.1, odds.For(models.OutcomeHomeWin))
	assert.Equal(t, 3.4, odds.For(models.OutcomeDraw))
	assert.Equal(t, 3.2, odds.For(models.OutcomeAwayWin))
	assert.Equal(t, 0.0, odds.For(models.Outcome("void")))
}
