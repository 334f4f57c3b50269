// Package subscription stores the durable cursor and identity record kept
// for each active remote subscription.
package subscription

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record exists for a key.
var ErrNotFound = errors.New("subscription: record not found")

// Record is the durable state for one remote subscription.
type Record struct {
	// SubscriptionID is the opaque identity key assigned by the remote service.
	SubscriptionID string `json:"subscription_id"`
	// OwnerIdentity is the principal whose credentials are used for feed reads.
	OwnerIdentity string `json:"owner_identity"`
	// ResourceID identifies the watched root resource (a drive id).
	ResourceID string `json:"resource_id"`
	// Cursor is the opaque change feed position token. Empty means
	// "start from latest". It is written back only after a completed pass.
	Cursor string `json:"cursor"`
}

// Store persists subscription records with last-writer-wins semantics
// keyed by subscription id.
type Store interface {
	// Load retrieves the record for a subscription id, or ErrNotFound.
	Load(ctx context.Context, subscriptionID string) (*Record, error)
	// Save overwrites the record keyed by its subscription id.
	Save(ctx context.Context, rec *Record) error
	// FindByOwner retrieves the record for an owner identity, or ErrNotFound.
	// Used by activation and deactivation, not by the notification loop.
	FindByOwner(ctx context.Context, ownerIdentity string) (*Record, error)
	// Delete removes the record for a subscription id. Deleting an absent
	// record is not an error.
	Delete(ctx context.Context, subscriptionID string) error
}
