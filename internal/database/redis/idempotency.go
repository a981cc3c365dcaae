// Package cache keeps short-lived request state in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// idem:reservation:create:{user_id}:{key} -> reservation_id
const keyIdemReservationCreate = "idem:reservation:create:%s:%s"

const DefaultIdempotencyTTL = 24 * time.Hour

type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

func idempotencyKey(userID, key string) string {
	return fmt.Sprintf(keyIdemReservationCreate, userID, key)
}

// Lookup returns the reservation id remembered for the user's key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, userID, key string) (string, bool, error) {
	id, err := s.client.Get(ctx, idempotencyKey(userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return id, true, nil
}

// Remember stores the mapping unless one already exists. It reports whether this call stored it.
func (s *IdempotencyStore) Remember(ctx context.Context, userID, key, reservationID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKey(userID, key), reservationID, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return ok, nil
}
