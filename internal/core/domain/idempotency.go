package domain

import "github.com/google/uuid"

// BuildIdempotencyKey scopes a client-supplied Idempotency-Key to one merchant.
func BuildIdempotencyKey(merchantID uuid.UUID, key string) string {
	return "disposition:" + merchantID.String() + ":" + key
}
