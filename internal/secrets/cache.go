package secrets

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"

	"github.com/pohualizcalli/academy-admin/internal/domain"
)

// Loader fetches the shared callback secret from a secret store.
type Loader interface {
	Load(ctx context.Context) (string, error)
}

// Cache holds the current worker shared secret. It is populated best-effort
// at startup and replaced only by an explicit Reload; rotation is
// push-driven, there is no TTL. Until a value is loaded, authentication
// fails closed with ErrNotReady rather than ErrUnauthorized.
type Cache struct {
	loader Loader

	mu     sync.RWMutex
	secret string
}

func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader}
}

// Reload fetches a fresh secret from the store and swaps it in.
func (c *Cache) Reload(ctx context.Context) error {
	if c == nil || c.loader == nil {
		return fmt.Errorf("%w: no secret loader configured", domain.ErrSecretUnavailable)
	}

	value, err := c.loader.Load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.secret = value
	c.mu.Unlock()
	return nil
}

// Loaded reports whether a secret is currently cached.
func (c *Cache) Loaded() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.secret != ""
}

// Authenticate compares the provided value against the cached secret in
// constant time. Returns ErrNotReady when no secret has been loaded yet and
// ErrUnauthorized on mismatch.
func (c *Cache) Authenticate(provided string) error {
	if c == nil {
		return domain.ErrNotReady
	}

	c.mu.RLock()
	expected := c.secret
	c.mu.RUnlock()

	if expected == "" {
		return fmt.Errorf("%w: internal key not initialized", domain.ErrNotReady)
	}

	provided = strings.TrimSpace(provided)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}
