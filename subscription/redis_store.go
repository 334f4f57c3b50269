package subscription

import (
	"context"
	"fmt"

	"github.com/skillsenselab/drivescribe/errors"
	"github.com/skillsenselab/drivescribe/redis"
)

const (
	recordPrefix = "sub"
	ownerPrefix  = "subowner"
)

// RedisStore persists records in Redis as JSON. A secondary key maps owner
// identity to subscription id for FindByOwner. Writes are last-writer-wins.
type RedisStore struct {
	records *redis.TypedStore[Record]
	owners  *redis.TypedStore[string]
}

// NewRedisStore creates a RedisStore on the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		records: redis.NewTypedStore[Record](client, recordPrefix),
		owners:  redis.NewTypedStore[string](client, ownerPrefix),
	}
}

// Load retrieves the record for a subscription id, or ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, subscriptionID string) (*Record, error) {
	rec, err := s.records.Load(ctx, subscriptionID)
	if err != nil {
		return nil, errors.StorageError(err).WithDetail("subscription_id", subscriptionID)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Save overwrites the record and its owner index entry.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil || rec.SubscriptionID == "" {
		return fmt.Errorf("subscription: record with subscription id is required")
	}
	if err := s.records.Save(ctx, rec.SubscriptionID, rec, 0); err != nil {
		return errors.StorageError(err).WithDetail("subscription_id", rec.SubscriptionID)
	}
	if rec.OwnerIdentity != "" {
		id := rec.SubscriptionID
		if err := s.owners.Save(ctx, rec.OwnerIdentity, &id, 0); err != nil {
			return errors.StorageError(err).WithDetail("owner_identity", rec.OwnerIdentity)
		}
	}
	return nil
}

// FindByOwner resolves the owner index and loads the record.
func (s *RedisStore) FindByOwner(ctx context.Context, ownerIdentity string) (*Record, error) {
	id, err := s.owners.Load(ctx, ownerIdentity)
	if err != nil {
		return nil, errors.StorageError(err).WithDetail("owner_identity", ownerIdentity)
	}
	if id == nil {
		return nil, ErrNotFound
	}
	return s.Load(ctx, *id)
}

// Delete removes the record and its owner index entry.
func (s *RedisStore) Delete(ctx context.Context, subscriptionID string) error {
	rec, err := s.records.Load(ctx, subscriptionID)
	if err != nil {
		return errors.StorageError(err).WithDetail("subscription_id", subscriptionID)
	}
	if rec == nil {
		return nil
	}
	if rec.OwnerIdentity != "" {
		if err := s.owners.Delete(ctx, rec.OwnerIdentity); err != nil {
			return errors.StorageError(err).WithDetail("owner_identity", rec.OwnerIdentity)
		}
	}
	if err := s.records.Delete(ctx, subscriptionID); err != nil {
		return errors.StorageError(err).WithDetail("subscription_id", subscriptionID)
	}
	return nil
}
