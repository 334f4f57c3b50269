package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{"exp": time.Now().Add(expiresIn).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func countingAcquirer(token string, calls *int) Acquirer {
	return func(_ context.Context) (string, error) {
		*calls++
		return token, nil
	}
}

func TestCache_ServesStoredToken(t *testing.T) {
	store := &MemoryTokenStore{}
	fresh := signedToken(t, time.Hour)
	if err := store.Save(context.Background(), fresh); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	calls := 0
	cache, err := NewCache(context.Background(), store, countingAcquirer("unused", &calls))
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	got, err := cache.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if got != fresh {
		t.Fatalf("expected stored token, got %q", got)
	}
	if calls != 0 {
		t.Fatalf("expected no acquisition, got %d calls", calls)
	}
}

func TestCache_AcquiresWhenEmpty(t *testing.T) {
	store := &MemoryTokenStore{}
	calls := 0
	cache, err := NewCache(context.Background(), store, countingAcquirer("fresh-token", &calls))
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	got, err := cache.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if got != "fresh-token" {
		t.Fatalf("unexpected token %q", got)
	}
	if calls != 1 {
		t.Fatalf("expected one acquisition, got %d", calls)
	}

	// Serve from cache on the second call.
	if _, err := cache.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cached token on second call, got %d acquisitions", calls)
	}
}

func TestCache_RefreshesExpiringToken(t *testing.T) {
	store := &MemoryTokenStore{}
	// Expires well inside the refresh skew.
	if err := store.Save(context.Background(), signedToken(t, time.Minute)); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	calls := 0
	replacement := signedToken(t, time.Hour)
	cache, err := NewCache(context.Background(), store, countingAcquirer(replacement, &calls))
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	got, err := cache.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if got != replacement {
		t.Fatal("expected expiring token to be replaced")
	}
	if calls != 1 {
		t.Fatalf("expected one acquisition, got %d", calls)
	}
}

func TestCache_FlushOnlyWhenDirty(t *testing.T) {
	store := &MemoryTokenStore{}
	if err := store.Save(context.Background(), signedToken(t, time.Hour)); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	seedSaves := store.Saves()

	cache, err := NewCache(context.Background(), store, countingAcquirer("unused", new(int)))
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	if _, err := cache.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if err := cache.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if store.Saves() != seedSaves {
		t.Fatal("clean cache must not write back on close")
	}
}

func TestCache_FlushWritesDirtyToken(t *testing.T) {
	store := &MemoryTokenStore{}
	cache, err := NewCache(context.Background(), store, countingAcquirer("fresh-token", new(int)))
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	if _, err := cache.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}

	if err := cache.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if store.Saves() != 1 {
		t.Fatalf("expected one write on close, got %d", store.Saves())
	}
	got, _ := store.Load(context.Background())
	if got != "fresh-token" {
		t.Fatalf("expected flushed token, got %q", got)
	}

	// A second flush with no new changes writes nothing.
	if err := cache.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if store.Saves() != 1 {
		t.Fatalf("expected no further writes, got %d", store.Saves())
	}
}

func TestCache_AcquireFailure(t *testing.T) {
	store := &MemoryTokenStore{}
	boom := errors.New("identity service down")
	cache, err := NewCache(context.Background(), store, func(_ context.Context) (string, error) {
		return "", boom
	})
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	if _, err := cache.Token(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected acquisition error, got %v", err)
	}
}

func TestCache_NonJWTAssumedFresh(t *testing.T) {
	store := &MemoryTokenStore{}
	if err := store.Save(context.Background(), "opaque-api-key"); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	calls := 0
	cache, err := NewCache(context.Background(), store, countingAcquirer("unused", &calls))
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	got, err := cache.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if got != "opaque-api-key" || calls != 0 {
		t.Fatalf("expected opaque token served unchanged, got %q (%d acquisitions)", got, calls)
	}
}
