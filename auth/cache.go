package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore is the durable backing for a Cache.
type TokenStore interface {
	// Load returns the stored token, or "" when none is stored.
	Load(ctx context.Context) (string, error)
	// Save overwrites the stored token.
	Save(ctx context.Context, token string) error
}

// Acquirer obtains a fresh token from the identity collaborator.
type Acquirer func(ctx context.Context) (string, error)

// Cache is a token cache over a durable store: it loads on construction,
// serves the cached token while it remains valid, acquires a replacement
// when it expires, and flushes back to the store only when dirty. Close
// flushes on every exit path.
type Cache struct {
	store   TokenStore
	acquire Acquirer
	skew    time.Duration

	mu    sync.Mutex
	token string
	dirty bool
}

// NewCache constructs a Cache and performs the initial load.
func NewCache(ctx context.Context, store TokenStore, acquire Acquirer) (*Cache, error) {
	if store == nil || acquire == nil {
		return nil, fmt.Errorf("auth: token store and acquirer are required")
	}
	token, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: initial token load: %w", err)
	}
	return &Cache{
		store:   store,
		acquire: acquire,
		skew:    5 * time.Minute,
		token:   token,
	}, nil
}

// Token returns a valid bearer token, acquiring a replacement when the
// cached one is absent or expires within the refresh skew.
func (c *Cache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && !c.expiringSoon(c.token) {
		return c.token, nil
	}

	fresh, err := c.acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("auth: acquire token: %w", err)
	}
	if fresh != c.token {
		c.token = fresh
		c.dirty = true
	}
	return c.token, nil
}

// Flush writes the token back to the store if it changed since load.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}
	if err := c.store.Save(ctx, c.token); err != nil {
		return fmt.Errorf("auth: flush token: %w", err)
	}
	c.dirty = false
	return nil
}

// Close flushes pending changes. Always call on shutdown.
func (c *Cache) Close(ctx context.Context) error {
	return c.Flush(ctx)
}

// expiringSoon inspects the token's exp claim without verifying the
// signature; validity is the remote service's concern, freshness is ours.
// Tokens that don't parse as JWTs are assumed non-expiring.
func (c *Cache) expiringSoon(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < c.skew
}

var _ Source = (*Cache)(nil)
