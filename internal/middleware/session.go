package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pohualizcalli/academy-admin/internal/domain"
	"github.com/pohualizcalli/academy-admin/internal/repository"
	"go.uber.org/zap"
)

// SessionCookie is the cookie carrying the admin-panel session ID. A Bearer
// token in Authorization works too, for non-browser clients.
const SessionCookie = "academy_session"

const userLocalKey = "currentUser"

// SessionResolver maps a session ID to the user ID that owns it.
type SessionResolver interface {
	Get(ctx context.Context, sessionID string) (string, error)
}

// Session authenticates admin-panel requests. The resolved user lands in the
// request locals; handlers read it back with CurrentUser.
func Session(sessions SessionResolver, users repository.UserRepository, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		sessionID := sessionIDFromRequest(c)
		if sessionID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing session")
		}

		userID, err := sessions.Get(c.Context(), sessionID)
		if errors.Is(err, domain.ErrUnauthorized) {
			return fiber.NewError(fiber.StatusUnauthorized, "session expired or invalid")
		}
		if err != nil {
			logger.Error("session lookup failed", zap.Error(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "session store unavailable")
		}

		user, err := users.GetByID(c.Context(), userID)
		if errors.Is(err, domain.ErrNotFound) {
			// Session outlived the user row. Treat it as logged out.
			return fiber.NewError(fiber.StatusUnauthorized, "session expired or invalid")
		}
		if err != nil {
			return err
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// CurrentUser returns the authenticated user placed by the Session middleware.
func CurrentUser(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(userLocalKey).(*domain.User)
	return user, ok
}

func sessionIDFromRequest(c *fiber.Ctx) string {
	if cookie := strings.TrimSpace(c.Cookies(SessionCookie)); cookie != "" {
		return cookie
	}

	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	const bearerPrefix = "Bearer "
	if strings.HasPrefix(auth, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix))
	}
	return ""
}
