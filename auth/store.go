package auth

import (
	"context"
	"sync"

	"github.com/skillsenselab/drivescribe/redis"
)

// RedisTokenStore persists one named token in Redis.
type RedisTokenStore struct {
	store *redis.TypedStore[string]
	name  string
}

// NewRedisTokenStore creates a token store keyed by name under the given client.
func NewRedisTokenStore(client *redis.Client, name string) *RedisTokenStore {
	return &RedisTokenStore{
		store: redis.NewTypedStore[string](client, "token"),
		name:  name,
	}
}

// Load returns the stored token, or "" when none is stored.
func (s *RedisTokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.store.Load(ctx, s.name)
	if err != nil {
		return "", err
	}
	if token == nil {
		return "", nil
	}
	return *token, nil
}

// Save overwrites the stored token.
func (s *RedisTokenStore) Save(ctx context.Context, token string) error {
	return s.store.Save(ctx, s.name, &token, 0)
}

// MemoryTokenStore is an in-process TokenStore for tests.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
	saves int
}

// Load returns the stored token.
func (s *MemoryTokenStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

// Save overwrites the stored token.
func (s *MemoryTokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.saves++
	return nil
}

// Saves reports how many times Save ran.
func (s *MemoryTokenStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
