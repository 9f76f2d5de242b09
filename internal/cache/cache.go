// Package cache provides short-TTL caching for prediction responses.
// Caching is advisory: a stale hit returns a previously valid response, and
// every cache failure degrades to a recompute, never a request failure.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Scardubu/sabiscore/internal/metrics"
	"github.com/Scardubu/sabiscore/internal/models"
)

// DefaultTTL for cached predictions
const DefaultTTL = 300 * time.Second

// Key identifies one cached prediction
type Key struct {
	League       string
	MatchID      string
	ModelVersion string
}

// String returns the string form used by the underlying stores
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.League, k.MatchID, k.ModelVersion)
}

// PredictionCache is the in-process TTL cache for prediction responses
type PredictionCache struct {
	cache *gocache.Cache
	ttl   time.Duration

	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewPredictionCache creates a cache with the given TTL
func NewPredictionCache(ttl time.Duration) *PredictionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PredictionCache{
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Get retrieves a cached response, or nil on a miss
func (pc *PredictionCache) Get(ctx context.Context, key Key) *models.PredictionResponse {
	_ = ctx
	if v, found := pc.cache.Get(key.String()); found {
		if resp, ok := v.(*models.PredictionResponse); ok {
			pc.recordHit(true)
			return resp
		}
	}
	pc.recordHit(false)
	return nil
}

// Put stores a response under the cache TTL
func (pc *PredictionCache) Put(ctx context.Context, key Key, resp *models.PredictionResponse) {
	_ = ctx
	pc.cache.Set(key.String(), resp, pc.ttl)
}

// Delete removes a cached response
func (pc *PredictionCache) Delete(ctx context.Context, key Key) {
	_ = ctx
	pc.cache.Delete(key.String())
}

// Clear flushes the cache and resets counters
func (pc *PredictionCache) Clear() {
	pc.cache.Flush()
	pc.mu.Lock()
	pc.hitCount, pc.missCount = 0, 0
	pc.mu.Unlock()
}

// Stats returns hit/miss counts and the hit ratio
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	hits, misses = pc.hitCount, pc.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of cached entries
func (pc *PredictionCache) ItemCount() int {
	return pc.cache.ItemCount()
}

func (pc *PredictionCache) recordHit(hit bool) {
	pc.mu.Lock()
	if hit {
		pc.hitCount++
	} else {
		pc.missCount++
	}
	hits, misses := pc.hitCount, pc.missCount
	pc.mu.Unlock()

	if total := hits + misses; total > 0 {
		metrics.CacheHitRatio.Set(float64(hits) / float64(total))
	}
}
