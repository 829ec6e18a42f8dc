package domain

import "time"

// EventType is the routing key of a published domain event.
type EventType string

const (
	EventTransactionStarted   EventType = "transaction.started"
	EventChangeDisposed       EventType = "change.disposed"
	EventDepositCreated       EventType = "deposit.created"
	EventPayoutRequested      EventType = "payout.requested"
	EventPayoutStatusChanged  EventType = "payout.status_changed"
	EventMerchantStatusChange EventType = "merchant.status_changed"
)

// Event is the envelope delivered to subscribers. Signature is an HMAC of the
// JSON-encoded payload when a signing secret is configured.
type Event struct {
	Type       EventType   `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
	Signature  string      `json:"signature,omitempty"`
}
