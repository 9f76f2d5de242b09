package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Scardubu/sabiscore/internal/models"
)

// ResponseCache is what the orchestrator sees: get, put and delete with
// TTL semantics handled by the implementation.
type ResponseCache interface {
	Get(ctx context.Context, key Key) *models.PredictionResponse
	Put(ctx context.Context, key Key, resp *models.PredictionResponse)
	Delete(ctx context.Context, key Key)
}

// ConnectRedis dials the shared cache and verifies connectivity
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// SharedCache layers the in-process cache over a shared Redis instance so
// replicas can reuse each other's predictions. Redis errors are logged at
// debug and treated as misses; writes are fire-and-forget.
type SharedCache struct {
	local  *PredictionCache
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewSharedCache creates the layered cache. A nil client degrades to the
// local cache only.
func NewSharedCache(local *PredictionCache, client *redis.Client, ttl time.Duration, logger *logrus.Logger) *SharedCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SharedCache{local: local, client: client, ttl: ttl, logger: logger}
}

func redisKey(key Key) string {
	return "prediction:" + key.String()
}

// Get checks the local cache first, then the shared cache
func (sc *SharedCache) Get(ctx context.Context, key Key) *models.PredictionResponse {
	if resp := sc.local.Get(ctx, key); resp != nil {
		return resp
	}
	if sc.client == nil {
		return nil
	}

	raw, err := sc.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			sc.logger.WithError(err).Debug("Shared cache read failed, treating as miss")
		}
		return nil
	}
	resp := &models.PredictionResponse{}
	if err := json.Unmarshal(raw, resp); err != nil {
		sc.logger.WithError(err).Debug("Shared cache entry unreadable, treating as miss")
		return nil
	}
	// Refill the local layer so the next hit is in-process
	sc.local.Put(ctx, key, resp)
	return resp
}

// Put writes both layers; the shared write is best-effort
func (sc *SharedCache) Put(ctx context.Context, key Key, resp *models.PredictionResponse) {
	sc.local.Put(ctx, key, resp)
	if sc.client == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		sc.logger.WithError(err).Debug("Failed to encode prediction for shared cache")
		return
	}
	if err := sc.client.Set(ctx, redisKey(key), raw, sc.ttl).Err(); err != nil {
		sc.logger.WithError(err).Debug("Shared cache write failed")
	}
}

// Delete removes the entry from both layers
func (sc *SharedCache) Delete(ctx context.Context, key Key) {
	sc.local.Delete(ctx, key)
	if sc.client == nil {
		return
	}
	if err := sc.client.Del(ctx, redisKey(key)).Err(); err != nil {
		sc.logger.WithError(err).Debug("Shared cache delete failed")
	}
}
