// internal/booking/storage/cache_test.go
package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-booking-workers/internal/common/logger"
	"venue-booking-workers/internal/models"
)

// fakeInner records subscription fetches; every other Store method is
// unused by the cache tests.
type fakeInner struct {
	PostgresStore

	sub   *models.Subscription
	plan  *models.Plan
	calls int
}

func (f *fakeInner) FetchActiveSubscription(context.Context, string, string) (*models.Subscription, *models.Plan, error) {
	f.calls++
	return f.sub, f.plan, nil
}

func newCacheFixture(t *testing.T, inner *fakeInner, ttl time.Duration) (*CachedStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCachedStore(inner, rdb, ttl, logger.NewNoOpLogger()), mr
}

func activeFixture() (*models.Subscription, *models.Plan) {
	max := 2
	return &models.Subscription{
			ID: "sub-1", VenueID: "venue-1", UserID: "user-1",
			PlanID: "plan-1", Status: models.SubscriptionStatusActive,
		}, &models.Plan{
			ID: "plan-1", VenueID: "venue-1", Name: "standard", Active: true,
			Policy: models.Policy{MaxBookingsPerDay: &max},
		}
}

func TestCacheMissPopulatesRedis(t *testing.T) {
	sub, plan := activeFixture()
	inner := &fakeInner{sub: sub, plan: plan}
	cache, mr := newCacheFixture(t, inner, 5*time.Minute)

	gotSub, gotPlan, err := cache.FetchActiveSubscription(context.Background(), "venue-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", gotSub.ID)
	require.NotNil(t, gotPlan.Policy.MaxBookingsPerDay)
	assert.Equal(t, 1, inner.calls)

	assert.True(t, mr.Exists("sub:venue-1:user-1"))
	ttl := mr.TTL("sub:venue-1:user-1")
	assert.Equal(t, 5*time.Minute, ttl)
}

func TestCacheHitSkipsInnerStore(t *testing.T) {
	sub, plan := activeFixture()
	inner := &fakeInner{sub: sub, plan: plan}
	cache, _ := newCacheFixture(t, inner, 5*time.Minute)
	ctx := context.Background()

	_, _, err := cache.FetchActiveSubscription(ctx, "venue-1", "user-1")
	require.NoError(t, err)

	gotSub, gotPlan, err := cache.FetchActiveSubscription(ctx, "venue-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", gotSub.ID)
	assert.Equal(t, "standard", gotPlan.Name)
	assert.Equal(t, 1, inner.calls, "second read must come from redis")
}

func TestMissingSubscriptionIsNotCached(t *testing.T) {
	inner := &fakeInner{}
	cache, mr := newCacheFixture(t, inner, 5*time.Minute)
	ctx := context.Background()

	sub, _, err := cache.FetchActiveSubscription(ctx, "venue-1", "user-1")
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.False(t, mr.Exists("sub:venue-1:user-1"))

	_, _, err = cache.FetchActiveSubscription(ctx, "venue-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "absent subscription must stay a pass-through")
}

func TestInvalidateSubscription(t *testing.T) {
	sub, plan := activeFixture()
	inner := &fakeInner{sub: sub, plan: plan}
	cache, mr := newCacheFixture(t, inner, 5*time.Minute)
	ctx := context.Background()

	_, _, err := cache.FetchActiveSubscription(ctx, "venue-1", "user-1")
	require.NoError(t, err)
	require.True(t, mr.Exists("sub:venue-1:user-1"))

	require.NoError(t, cache.InvalidateSubscription(ctx, "venue-1", "user-1"))
	assert.False(t, mr.Exists("sub:venue-1:user-1"))

	_, _, err = cache.FetchActiveSubscription(ctx, "venue-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestRedisOutageFallsBackToInnerStore(t *testing.T) {
	sub, plan := activeFixture()
	inner := &fakeInner{sub: sub, plan: plan}
	cache, mr := newCacheFixture(t, inner, 5*time.Minute)
	mr.Close()

	gotSub, _, err := cache.FetchActiveSubscription(context.Background(), "venue-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", gotSub.ID)
	assert.Equal(t, 1, inner.calls)
}

func TestCacheReadFailureDegradesToInner(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &fakeInner{}
	cache := NewCachedStore(inner, rdb, time.Minute, logger.NewNoOpLogger())

	mock.ExpectGet("sub:venue-1:user-1").SetErr(errors.New("i/o timeout"))

	sub, _, err := cache.FetchActiveSubscription(context.Background(), "venue-1", "user-1")
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCorruptCacheEntryIsIgnored(t *testing.T) {
	sub, plan := activeFixture()
	inner := &fakeInner{sub: sub, plan: plan}
	cache, mr := newCacheFixture(t, inner, 5*time.Minute)
	require.NoError(t, mr.Set("sub:venue-1:user-1", "{not json"))

	gotSub, _, err := cache.FetchActiveSubscription(context.Background(), "venue-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", gotSub.ID)
	assert.Equal(t, 1, inner.calls)
}
