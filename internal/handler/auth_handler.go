package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pohualizcalli/academy-admin/internal/domain"
	"github.com/pohualizcalli/academy-admin/internal/middleware"
)

// SessionManager opens and closes admin-panel sessions.
type SessionManager interface {
	Create(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

// UserStore is the slice of the user repository the auth surface needs.
type UserStore interface {
	Upsert(ctx context.Context, u *domain.User) (*domain.User, error)
}

type AuthHandler struct {
	users    UserStore
	sessions SessionManager
}

func NewAuthHandler(users UserStore, sessions SessionManager) (*AuthHandler, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &AuthHandler{users: users, sessions: sessions}, nil
}

// RegisterAuthRoutes mounts the session-authenticated auth endpoints on the
// admin surface.
func RegisterAuthRoutes(router fiber.Router, h *AuthHandler) error {
	if h == nil {
		return fmt.Errorf("auth handler is required")
	}
	router.Get("/auth/user", h.GetCurrentUser)
	router.Post("/auth/logout", h.Logout)
	return nil
}

// RegisterSessionExchangeRoutes mounts the session exchange. The frontend's
// server side authenticates users with its own identity provider, then trades
// the verified identity for a backend session here. The route must sit behind
// the shared-secret middleware.
func RegisterSessionExchangeRoutes(router fiber.Router, h *AuthHandler) error {
	if h == nil {
		return fmt.Errorf("auth handler is required")
	}
	router.Post("/sessions", h.CreateSession)
	return nil
}

type createSessionRequest struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ProfileImageURL string `json:"profileImageUrl"`
	Role            string `json:"role"`
}

type createSessionResponse struct {
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type userResponse struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
	Role            string `json:"role"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
		Role:            u.Role,
	}
}

func (h *AuthHandler) CreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Email) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "id and email are required")
	}

	user, err := h.users.Upsert(c.Context(), &domain.User{
		ID:              req.ID,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		ProfileImageURL: req.ProfileImageURL,
		Role:            req.Role,
	})
	if err != nil {
		return toHTTPError(err)
	}

	sessionID, err := h.sessions.Create(c.Context(), user.ID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(createSessionResponse{
		SessionID: sessionID,
		ExpiresAt: time.Now().UTC().Add(h.sessions.TTL()),
	})
}

func (h *AuthHandler) GetCurrentUser(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(toUserResponse(user))
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Cookies(middleware.SessionCookie))
	if sessionID == "" {
		auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		sessionID = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if sessionID != "" {
		if err := h.sessions.Delete(c.Context(), sessionID); err != nil {
			return toHTTPError(err)
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:    middleware.SessionCookie,
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
	})
	return c.SendStatus(fiber.StatusNoContent)
}
