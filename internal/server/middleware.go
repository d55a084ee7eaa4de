package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/tourhub/internal/observability/context"
	"github.com/smallbiznis/tourhub/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	HeaderActorID  = "X-Actor-ID"
	HeaderClientID = "X-Client-ID"
)

// AdminActor tags admin requests with the operator named in X-Actor-ID.
// Authentication happens in front of this service.
func AdminActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := strings.TrimSpace(c.GetHeader(HeaderActorID))
		if actorID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		ctx := obscontext.WithActor(c.Request.Context(), "admin", actorID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// PricingRateLimit throttles pricing reads per client id, falling back to the client IP.
func (s *Server) PricingRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.pricingLimiter.Enabled() {
			c.Next()
			return
		}

		clientKey := strings.TrimSpace(c.GetHeader(HeaderClientID))
		if clientKey == "" {
			clientKey = c.ClientIP()
		}

		ctx := c.Request.Context()
		res, err := s.pricingLimiter.Allow(ctx, clientKey)
		if err != nil {
			logger.FromContext(ctx).Warn("pricing rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			logger.FromContext(ctx).Warn("pricing rate limit exceeded",
				zap.String("client", clientKey),
				zap.String("endpoint", c.FullPath()),
			)
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
