package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/pohualizcalli/academy-admin/internal/domain"
	"go.uber.org/zap"
)

// Authenticator checks a presented worker API key against the expected one.
type Authenticator interface {
	Authenticate(provided string) error
}

// InternalAuth guards the worker callback surface with the shared secret from
// the parameter store. A missing secret is a server-side problem and maps to
// 503; a wrong key is the caller's problem and maps to 401. The two cases
// stay distinct so operators can tell a misconfigured service from a bad
// caller.
func InternalAuth(headerName string, auth Authenticator, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		err := auth.Authenticate(c.Get(headerName))
		if err == nil {
			return c.Next()
		}

		if errors.Is(err, domain.ErrNotReady) {
			logger.Error("internal auth unavailable, api key never loaded",
				zap.String("path", c.Path()),
			)
			return fiber.NewError(fiber.StatusServiceUnavailable, "api key not initialized")
		}

		logger.Warn("internal auth rejected",
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		return fiber.NewError(fiber.StatusUnauthorized, "invalid api key")
	}
}
