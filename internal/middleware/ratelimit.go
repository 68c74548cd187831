package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pohualizcalli/academy-admin/internal/ratelimit"
	"go.uber.org/zap"
)

// UploadRateLimit throttles upload endpoints per user. Limiter outages fail
// open: losing redis should degrade throttling, not block diploma batches.
func UploadRateLimit(limiter ratelimit.RateLimiter, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		scope := "upload:" + c.IP()
		if user, ok := CurrentUser(c); ok {
			scope = "upload:" + user.ID
		}

		allowed, err := limiter.Allow(c.Context(), scope)
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request",
				zap.String("scope", scope),
				zap.Error(err),
			)
			return c.Next()
		}
		if !allowed {
			return fiber.NewError(fiber.StatusTooManyRequests, "upload rate limit exceeded")
		}
		return c.Next()
	}
}
