package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const currentTxPrefix = "current_tx:"

// CurrentTransactionStore keeps each merchant's in-flight transaction id in
// Redis so every API replica sees the same slot. Slots expire after ttl; the
// transaction itself stays in the ledger.
type CurrentTransactionStore struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewCurrentTransactionStore(client goredis.Cmdable, ttl time.Duration) *CurrentTransactionStore {
	return &CurrentTransactionStore{client: client, ttl: ttl}
}

func currentTxKey(merchantID uuid.UUID) string {
	return currentTxPrefix + merchantID.String()
}

// Get returns uuid.Nil when the merchant has no current transaction.
func (s *CurrentTransactionStore) Get(ctx context.Context, merchantID uuid.UUID) (uuid.UUID, error) {
	raw, err := s.client.Get(ctx, currentTxKey(merchantID)).Result()
	switch {
	case errors.Is(err, goredis.Nil):
		return uuid.Nil, nil
	case err != nil:
		return uuid.Nil, fmt.Errorf("read current transaction: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("current transaction slot holds %q: %w", raw, err)
	}
	return id, nil
}

// Set replaces the merchant's current transaction and restarts its expiry.
func (s *CurrentTransactionStore) Set(ctx context.Context, merchantID, txID uuid.UUID) error {
	if err := s.client.Set(ctx, currentTxKey(merchantID), txID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("write current transaction: %w", err)
	}
	return nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *CurrentTransactionStore) Clear(ctx context.Context, merchantID uuid.UUID) error {
	if err := s.client.Del(ctx, currentTxKey(merchantID)).Err(); err != nil {
		return fmt.Errorf("clear current transaction: %w", err)
	}
	return nil
}
