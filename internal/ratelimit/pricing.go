package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tourhub/internal/config"
)

const keyPricingClient = "pricing:client:%s"

// PricingLimiter throttles pricing reads per client. Checkout pages poll the
// pricing endpoints, so a misbehaving client is cut off before it reaches the store.
type PricingLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewPricingLimiter(cfg config.Config, client *redis.Client) (*PricingLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limiting requires REDIS_ADDR")
	}
	if limitCfg.PricingRate <= 0 || limitCfg.PricingBurst <= 0 {
		return nil, errors.New("pricing rate limit must be positive")
	}

	return &PricingLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.PricingRate,
		burst:  limitCfg.PricingBurst,
	}, nil
}

func (l *PricingLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow consumes one token for clientKey. A disabled limiter allows everything.
func (l *PricingLimiter) Allow(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPricingClient, strings.TrimSpace(clientKey)), l.rate, l.burst)
}
