package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pohualizcalli/academy-admin/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps admin-panel sessions in redis so API replicas share
// login state. The value under each session key is the user ID.
type SessionStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSessionStore(client *goredis.Client, ttl time.Duration) (*SessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{client: client, ttl: ttl}, nil
}

// Create opens a session for a user and returns the opaque session ID.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: userID is required", domain.ErrValidation)
	}

	sessionID := uuid.NewString()
	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return sessionID, nil
}

// Get resolves a session ID to its user ID, sliding the expiry forward so an
// active session does not log out mid-use. Unknown or expired sessions return
// ErrUnauthorized.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", domain.ErrUnauthorized
	}

	userID, err := s.client.GetEx(ctx, sessionKeyPrefix+sessionID, s.ttl).Result()
	if err == goredis.Nil {
		return "", domain.ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return userID, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// TTL exposes the configured session lifetime for cookie expiry.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}
