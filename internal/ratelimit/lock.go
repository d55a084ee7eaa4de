package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Compare-and-delete so a lease that outlived its TTL cannot free a newer holder's lock.
const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const keyVendorTier = "tier:vendor:%s"

var (
	ErrLockNotConfigured = errors.New("vendor_lock_not_configured")
	ErrInvalidLockKey    = errors.New("invalid_vendor_lock_key")
	ErrInvalidLockTTL    = errors.New("invalid_vendor_lock_ttl")
)

// VendorTierKey is the advisory lock guarding one vendor's tier fields.
func VendorTierKey(vendorID string) string {
	return fmt.Sprintf(keyVendorTier, strings.TrimSpace(vendorID))
}

// Locker serialises tier writes for a vendor across API replicas and the
// tier worker. The monthly evaluation, manual assignment and expiry cleanup
// all take the same tier:vendor:<id> key; the tier_version check in the
// vendor store remains the source of truth when Redis is absent.
type Locker struct {
	client *redis.Client
	script *redis.Script
}

// NewLocker returns nil without a Redis client; tiering then relies on
// optimistic version checks alone.
func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

// TryLock takes key for ttl without waiting. ok is false when another
// process holds it; the returned token is needed to release.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	if l == nil || l.client == nil {
		return "", false, ErrLockNotConfigured
	}
	if !strings.HasPrefix(key, "tier:vendor:") || key == VendorTierKey("") {
		return "", false, ErrInvalidLockKey
	}
	if ttl <= 0 {
		return "", false, ErrInvalidLockTTL
	}

	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire %s: %w", key, err)
	}
	return token, ok, nil
}

// Release frees key if token still owns it. Releasing an expired lease is a no-op.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil || key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}
