package ports

//go:generate mockgen -source=stores.go -destination=mocks/mock_stores.go -package=mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CurrentTransactionStore holds each merchant's single in-flight transaction id.
type CurrentTransactionStore interface {
	// Get returns uuid.Nil when the slot is empty.
	Get(ctx context.Context, merchantID uuid.UUID) (uuid.UUID, error)
	// Set replaces any previous value.
	Set(ctx context.Context, merchantID, txID uuid.UUID) error
	// Clear is idempotent.
	Clear(ctx context.Context, merchantID uuid.UUID) error
}

// IdempotencyCache stores the response of a completed request under a client key.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// RateLimitStore counts requests per key over a fixed window.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// EventPublisher delivers domain events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	Close()
}
