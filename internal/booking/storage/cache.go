// internal/booking/storage/cache.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"venue-booking-workers/internal/booking/admission"
	"venue-booking-workers/internal/common/logger"
	"venue-booking-workers/internal/models"
)

// cachedSubscription is the redis payload for one (venue, user) pair.
type cachedSubscription struct {
	Subscription *models.Subscription `json:"subscription"`
	Plan         *models.Plan         `json:"plan"`
}

// CachedStore layers a redis read-through cache over another store for the
// subscription-with-plan read, the hottest and most stable lookup in the
// admission path. Every other operation passes straight through; booking
// reads and writes must never be served stale.
type CachedStore struct {
	admission.Store

	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(inner admission.Store, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{Store: inner, redis: rdb, ttl: ttl, logger: log}
}

func subscriptionKey(venueID, userID string) string {
	return fmt.Sprintf("sub:%s:%s", venueID, userID)
}

// FetchActiveSubscription serves from redis when possible. Cache failures
// degrade to the inner store; only found subscriptions are cached so a
// fresh signup is visible immediately.
func (c *CachedStore) FetchActiveSubscription(ctx context.Context, venueID, userID string) (*models.Subscription, *models.Plan, error) {
	key := subscriptionKey(venueID, userID)

	payload, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var cached cachedSubscription
		if unmarshalErr := json.Unmarshal([]byte(payload), &cached); unmarshalErr == nil {
			return cached.Subscription, cached.Plan, nil
		}
		c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{"key": key})
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("subscription cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	sub, plan, err := c.Store.FetchActiveSubscription(ctx, venueID, userID)
	if err != nil {
		return nil, nil, err
	}
	if sub != nil {
		c.populate(ctx, key, cachedSubscription{Subscription: sub, Plan: plan})
	}
	return sub, plan, nil
}

// InvalidateSubscription drops the cached entry for the pair. Called by
// plan or subscription mutations so the next admission sees fresh policy.
func (c *CachedStore) InvalidateSubscription(ctx context.Context, venueID, userID string) error {
	return c.redis.Del(ctx, subscriptionKey(venueID, userID)).Err()
}

func (c *CachedStore) populate(ctx context.Context, key string, entry cachedSubscription) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("subscription cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
