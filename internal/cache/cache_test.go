package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scardubu/sabiscore/internal/models"
)

func testResponse(matchID string) *models.PredictionResponse {
	return &models.PredictionResponse{
		League:       "epl",
		MatchID:      matchID,
		Predictions:  models.FromProbs([3]float64{0.5, 0.3, 0.2}),
		ModelVersion: "v1",
		GeneratedAt:  time.Now().UTC(),
	}
}

func TestKeyString(t *testing.T) {
	key := Key{League: "epl", MatchID: "m1", ModelVersion: "v1"}
	assert.Equal(t, "epl:m1:v1", key.String())
}

func TestPredictionCachePutGet(t *testing.T) {
	pc := NewPredictionCache(time.Minute)
	ctx := context.Background()
	key := Key{League: "epl", MatchID: "m1", ModelVersion: "v1"}

	assert.Nil(t, pc.Get(ctx, key))

	resp := testResponse("m1")
	pc.Put(ctx, key, resp)

	t.Run("hit within TTL returns the identical response", func(t *testing.T) {
		got := pc.Get(ctx, key)
		require.NotNil(t, got)
		assert.Same(t, resp, got)
	})

	t.Run("model version participates in the key", func(t *testing.T) {
		stale := Key{League: "epl", MatchID: "m1", ModelVersion: "v2"}
		assert.Nil(t, pc.Get(ctx, stale))
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		pc.Delete(ctx, key)
		assert.Nil(t, pc.Get(ctx, key))
	})
}

func TestPredictionCacheExpiry(t *testing.T) {
	pc := NewPredictionCache(30 * time.Millisecond)
	ctx := context.Background()
	key := Key{League: "epl", MatchID: "m2", ModelVersion: "v1"}

	pc.Put(ctx, key, testResponse("m2"))
	require.NotNil(t, pc.Get(ctx, key))

	time.Sleep(60 * time.Millisecond)
	assert.Nil(t, pc.Get(ctx, key))
}

func TestPredictionCacheStats(t *testing.T) {
	pc := NewPredictionCache(time.Minute)
	ctx := context.Background()
	key := Key{League: "epl", MatchID: "m3", ModelVersion: "v1"}

	pc.Get(ctx, key) // miss
	pc.Put(ctx, key, testResponse("m3"))
	pc.Get(ctx, key) // hit

	hits, misses, ratio := pc.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.InDelta(t, 0.5, ratio, 1e-9)

	pc.Clear()
	hits, misses, _ = pc.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
	assert.Zero(t, pc.ItemCount())
}

func TestSharedCacheWithoutRedisDegradesToLocal(t *testing.T) {
	local := NewPredictionCache(time.Minute)
	sc := NewSharedCache(local, nil, time.Minute, nil)
	ctx := context.Background()
	key := Key{League: "epl", MatchID: "m4", ModelVersion: "v1"}

	assert.Nil(t, sc.Get(ctx, key))

	resp := testResponse("m4")
	sc.Put(ctx, key, resp)
	got := sc.Get(ctx, key)
	require.NotNil(t, got)
	assert.Same(t, resp, got)

	sc.Delete(ctx, key)
	assert.Nil(t, sc.Get(ctx, key))
}
