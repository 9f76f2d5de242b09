package calibration

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scardubu/sabiscore/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// biasedSamples simulates an overconfident model: the true hit frequency is
// lower than the raw probability suggests.
func biasedSamples(n int, seed int64) []Sample {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]Sample, n)
	for i := range samples {
		raw := 0.1 + 0.8*rng.Float64()
		trueProb := raw * 0.8
		samples[i] = Sample{RawProb: raw, Hit: rng.Float64() < trueProb}
	}
	return samples
}

func TestFitIsotonicMonotone(t *testing.T) {
	curve, err := FitIsotonic(biasedSamples(400, 3))
	require.NoError(t, err)
	require.NotEmpty(t, curve.X)

	// Breakpoints must be monotone in both coordinates
	for i := 1; i < len(curve.X); i++ {
		assert.GreaterOrEqual(t, curve.X[i], curve.X[i-1])
		assert.GreaterOrEqual(t, curve.Y[i], curve.Y[i-1])
	}

	// Rank order of corrected probabilities is preserved
	prev := curve.Apply(0.0)
	for p := 0.05; p <= 1.0; p += 0.05 {
		cur := curve.Apply(p)
		assert.GreaterOrEqual(t, cur, prev-1e-12, "p=%.2f", p)
		assert.GreaterOrEqual(t, cur, 0.0)
		assert.LessOrEqual(t, cur, 1.0)
		prev = cur
	}
}

func TestFitIsotonicNeedsSamples(t *testing.T) {
	_, err := FitIsotonic(biasedSamples(5, 1))
	assert.Error(t, err)
}

func TestIsotonicCurveApplyEdges(t *testing.T) {
	curve := &IsotonicCurve{X: []float64{0.2, 0.5, 0.8}, Y: []float64{0.1, 0.4, 0.9}}

	assert.Equal(t, 0.1, curve.Apply(0.0))
	assert.Equal(t, 0.9, curve.Apply(1.0))
	assert.InDelta(t, 0.25, curve.Apply(0.35), 1e-9)

	var nilCurve *IsotonicCurve
	assert.Equal(t, 0.42, nilCurve.Apply(0.42))
}

func TestFitPlatt(t *testing.T) {
	params, err := FitPlatt(biasedSamples(300, 5))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, params.A, 0.05)

	// The fit must shrink an overconfident 0.8 toward the true rate
	assert.Less(t, params.Apply(0.8), 0.8)

	// Positive A preserves rank order
	prev := params.Apply(0.01)
	for p := 0.05; p < 1.0; p += 0.05 {
		cur := params.Apply(p)
		assert.Greater(t, cur, prev)
		prev = cur
	}
}

func TestFitPlattNeedsSamples(t *testing.T) {
	_, err := FitPlatt(biasedSamples(3, 1))
	assert.Error(t, err)
}

func TestBufferFIFO(t *testing.T) {
	buf := NewBuffer(5)
	for i := 0; i < 8; i++ {
		buf.Append(models.LiveResultRecord{
			League:  "epl",
			MatchID: fmt.Sprintf("m%d", i),
			Outcome: models.OutcomeHomeWin,
		})
	}

	assert.Equal(t, 5, buf.Len("epl"))
	assert.Equal(t, uint64(8), buf.TotalAppended("epl"))

	snap := buf.Snapshot("epl")
	require.Len(t, snap, 5)
	// Oldest three were evicted; the window starts at m3
	assert.Equal(t, "m3", snap[0].MatchID)
	assert.Equal(t, "m7", snap[4].MatchID)
}

func TestBufferLeagueIsolation(t *testing.T) {
	buf := NewBuffer(10)
	buf.Append(models.LiveResultRecord{League: "epl", MatchID: "a"})
	buf.Append(models.LiveResultRecord{League: "laliga", MatchID: "b"})

	assert.Equal(t, 1, buf.Len("epl"))
	assert.Equal(t, 1, buf.Len("laliga"))
	assert.Equal(t, 0, buf.Len("seriea"))
	assert.ElementsMatch(t, []string{"epl", "laliga"}, buf.Leagues())
	assert.Nil(t, buf.Snapshot("seriea"))
}

func TestStoreSnapshotSemantics(t *testing.T) {
	store := NewStore()

	t.Run("unseen league reads identity", func(t *testing.T) {
		lp := store.LeagueParams("epl")
		for _, p := range lp.Outcomes {
			assert.Equal(t, MethodIdentity, p.Method)
			assert.Equal(t, StateUninitialized, p.State)
		}
		result := store.Apply("epl", [3]float64{0.5, 0.3, 0.2})
		assert.InDelta(t, 0.5, result.HomeProb, 1e-9)
		assert.InDelta(t, 0.3, result.DrawProb, 1e-9)
	})

	t.Run("publish swaps atomically without touching old snapshot", func(t *testing.T) {
		before := store.Current()

		lp := uninitializedLeague()
		lp.Outcomes[0] = Params{
			Method:      MethodPlatt,
			Platt:       PlattParams{A: 1, B: -0.5},
			SampleCount: 100,
			UpdatedAt:   time.Now(),
			State:       StateCalibrated,
		}
		store.PublishLeague("epl", lp)

		after := store.Current()
		assert.NotSame(t, before, after)
		assert.NotContains(t, before.Leagues, "epl")
		assert.Contains(t, after.Leagues, "epl")

		// The published correction shrinks the home probability
		result := store.Apply("epl", [3]float64{0.5, 0.3, 0.2})
		assert.Less(t, result.HomeProb, 0.5)
		require.NoError(t, result.Validate())
	})

	t.Run("other leagues keep identity after a publish", func(t *testing.T) {
		result := store.Apply("laliga", [3]float64{0.4, 0.3, 0.3})
		assert.InDelta(t, 0.4, result.HomeProb, 1e-9)
	})
}

func appendResults(buf *Buffer, league string, n int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		raw := [3]float64{0.5, 0.28, 0.22}
		outcome := models.OutcomeAwayWin
		switch {
		case rng.Float64() < 0.40:
			outcome = models.OutcomeHomeWin
		case rng.Float64() < 0.5:
			outcome = models.OutcomeDraw
		}
		buf.Append(models.LiveResultRecord{
			League:   league,
			MatchID:  fmt.Sprintf("%s-%d-%d", league, seed, i),
			Outcome:  outcome,
			RawProbs: raw,
		})
	}
}

func TestLoopRecalibratesWithEnoughSamples(t *testing.T) {
	store := NewStore()
	buf := NewBuffer(500)
	loop := NewLoop(LoopConfig{MinSamples: 30, IsotonicMinSamples: 80}, store, buf, testLogger())

	appendResults(buf, "epl", 40, 9)
	loop.Tick()

	lp := store.LeagueParams("epl")
	fitted := 0
	for _, p := range lp.Outcomes {
		if p.State == StateCalibrated {
			fitted++
			assert.Equal(t, MethodPlatt, p.Method)
			assert.Equal(t, 40, p.SampleCount)
		}
	}
	assert.Greater(t, fitted, 0)
}

func TestLoopSkipsBelowMinSamples(t *testing.T) {
	store := NewStore()
	buf := NewBuffer(500)
	loop := NewLoop(LoopConfig{MinSamples: 30, IsotonicMinSamples: 80}, store, buf, testLogger())

	appendResults(buf, "epl", 10, 13)
	before := store.Current()
	loop.Tick()

	// Below the threshold the snapshot is untouched
	assert.Same(t, before, store.Current())
}

func TestLoopUsesIsotonicAboveThreshold(t *testing.T) {
	store := NewStore()
	buf := NewBuffer(500)
	loop := NewLoop(LoopConfig{MinSamples: 30, IsotonicMinSamples: 80}, store, buf, testLogger())

	appendResults(buf, "epl", 120, 21)
	loop.Tick()

	lp := store.LeagueParams("epl")
	for _, p := range lp.Outcomes {
		if p.State == StateCalibrated {
			assert.Equal(t, MethodIsotonic, p.Method)
			assert.NotNil(t, p.Curve)
		}
	}
}

func TestLoopRequiresNewSamplesBetweenTicks(t *testing.T) {
	store := NewStore()
	buf := NewBuffer(500)
	loop := NewLoop(LoopConfig{MinSamples: 30, IsotonicMinSamples: 80}, store, buf, testLogger())

	appendResults(buf, "epl", 40, 17)
	loop.Tick()
	afterFirst := store.Current()

	// No new results: the next tick publishes nothing
	loop.Tick()
	assert.Same(t, afterFirst, store.Current())

	// 10 more is still below the 30 new-sample threshold
	appendResults(buf, "epl", 10, 18)
	loop.Tick()
	assert.Same(t, afterFirst, store.Current())

	// Crossing the threshold fits again
	appendResults(buf, "epl", 25, 19)
	loop.Tick()
	assert.NotSame(t, afterFirst, store.Current())
}

func TestLoopLeagueFailureIsolation(t *testing.T) {
	store := NewStore()
	buf := NewBuffer(500)
	loop := NewLoop(LoopConfig{MinSamples: 5, IsotonicMinSamples: 80}, store, buf, testLogger())

	// One league has usable pairs, the other only zero raw probabilities
	appendResults(buf, "epl", 40, 23)
	for i := 0; i < 40; i++ {
		buf.Append(models.LiveResultRecord{
			League:  "laliga",
			MatchID: fmt.Sprintf("l-%d", i),
			Outcome: models.OutcomeHomeWin,
		})
	}

	loop.Tick()

	eplParams := store.LeagueParams("epl")
	calibrated := false
	for _, p := range eplParams.Outcomes {
		if p.State == StateCalibrated {
			calibrated = true
		}
	}
	assert.True(t, calibrated, "epl should calibrate despite laliga failing")

	laligaParams := store.LeagueParams("laliga")
	for _, p := range laligaParams.Outcomes {
		assert.Equal(t, MethodIdentity, p.Method)
	}
}

func TestOutcomeSamplesDropsUnpairedRecords(t *testing.T) {
	records := []models.LiveResultRecord{
		{Outcome: models.OutcomeHomeWin, RawProbs: [3]float64{0.5, 0.3, 0.2}},
		{Outcome: models.OutcomeDraw},
	}
	samples := outcomeSamples(records, 0)
	require.Len(t, samples, 1)
	assert.Equal(t, 0.5, samples[0].RawProb)
	assert.True(t, samples[0].Hit)
}
