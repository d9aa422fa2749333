// Package cache keeps read-mostly reference data in Redis
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/wellnesshub/backend/internal/models"
	"go.uber.org/zap"
)

const triggersKey = "badge_triggers:all"

// TriggerSource loads badge triggers from the document store
type TriggerSource interface {
	ListAll(ctx context.Context) ([]models.BadgeTrigger, error)
}

// KeyValueStore is the subset of the Redis client used by the cache
type KeyValueStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// TriggerCache is a read-through cache of the badge trigger registry.
// Redis failures degrade to reading the source directly.
type TriggerCache struct {
	store  KeyValueStore
	source TriggerSource
	ttl    time.Duration
	logger *zap.Logger
}

// NewTriggerCache creates a trigger cache
func NewTriggerCache(store KeyValueStore, source TriggerSource, ttl time.Duration, logger *zap.Logger) *TriggerCache {
	return &TriggerCache{
		store:  store,
		source: source,
		ttl:    ttl,
		logger: logger,
	}
}

// ListAll returns all badge triggers, from Redis when cached
func (c *TriggerCache) ListAll(ctx context.Context) ([]models.BadgeTrigger, error) {
	cached, err := c.store.Get(ctx, triggersKey).Bytes()
	switch {
	case err == nil:
		var triggers []models.BadgeTrigger
		decodeErr := json.Unmarshal(cached, &triggers)
		if decodeErr == nil {
			return triggers, nil
		}
		c.logger.Warn("discarding undecodable trigger cache entry", zap.Error(decodeErr))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("failed to read trigger cache", zap.Error(err))
	}

	triggers, err := c.source.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(triggers)
	if err != nil {
		c.logger.Warn("failed to encode triggers for cache", zap.Error(err))
		return triggers, nil
	}
	if err := c.store.Set(ctx, triggersKey, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to write trigger cache", zap.Error(err))
	}

	return triggers, nil
}
