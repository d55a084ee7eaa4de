package ratelimit

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tourhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingLimiterDisabled(t *testing.T) {
	limiter, err := NewPricingLimiter(config.Config{}, nil)
	require.NoError(t, err)
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestPricingLimiterRequiresRedis(t *testing.T) {
	_, err := NewPricingLimiter(config.Config{RateLimit: config.RateLimitConfig{Enabled: true, PricingRate: 1, PricingBurst: 1}}, nil)
	assert.Error(t, err)
}

func TestNilLockerIsInert(t *testing.T) {
	var locker *Locker
	_, ok, err := locker.TryLock(context.Background(), VendorTierKey("1"), time.Second)
	assert.ErrorIs(t, err, ErrLockNotConfigured)
	assert.False(t, ok)
	assert.NoError(t, locker.Release(context.Background(), VendorTierKey("1"), "token"))
}

func TestVendorTierKey(t *testing.T) {
	assert.Equal(t, "tier:vendor:42", VendorTierKey("42"))
	assert.Equal(t, "tier:vendor:42", VendorTierKey(" 42 "))
}

func TestLockerRejectsBadArgumentsBeforeRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	locker := NewLocker(client)
	ctx := context.Background()

	_, _, err := locker.TryLock(ctx, "invoice:42", time.Second)
	assert.ErrorIs(t, err, ErrInvalidLockKey)

	_, _, err = locker.TryLock(ctx, VendorTierKey(""), time.Second)
	assert.ErrorIs(t, err, ErrInvalidLockKey)

	_, _, err = locker.TryLock(ctx, VendorTierKey("42"), 0)
	assert.ErrorIs(t, err, ErrInvalidLockTTL)

	assert.NoError(t, locker.Release(ctx, VendorTierKey("42"), ""))
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 4*time.Second, defaultBucketTTL(20, 40))
	assert.Equal(t, time.Second, defaultBucketTTL(1000, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 0))
}

func TestCastHelpers(t *testing.T) {
	assert.Equal(t, int64(3), castToInt(int64(3)))
	assert.Equal(t, int64(2), castToInt(2.9))
	assert.Equal(t, 1.5, castToFloat("1.5"))
	assert.Equal(t, 0.0, castToFloat("nope"))
}
