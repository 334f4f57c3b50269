// Package auth provides bearer token plumbing for the remote drive and
// speech collaborators. Token acquisition itself is an external concern;
// this package caches and hands out whatever the acquirer produces.
package auth

import "context"

// Source hands out a bearer token for outbound calls.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// StaticSource returns a fixed token. Useful for tests and API-key style
// collaborators.
type StaticSource string

// Token returns the fixed token.
func (s StaticSource) Token(_ context.Context) (string, error) {
	return string(s), nil
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (string, error)

// Token calls the wrapped function.
func (f SourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}
