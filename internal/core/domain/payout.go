package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutStatus is the admin-controlled state of a payout request.
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid"
	PayoutStatusNotPaid PayoutStatus = "not_paid"
)

// ParsePayoutStatus validates a status value.
func ParsePayoutStatus(s string) (PayoutStatus, bool) {
	switch st := PayoutStatus(s); st {
	case PayoutStatusPending, PayoutStatusPaid, PayoutStatusNotPaid:
		return st, true
	}
	return "", false
}

// PayoutRequest asks an admin to push money to a bank (CCP) or card account.
type PayoutRequest struct {
	ID            uuid.UUID       `json:"id"`
	CCP           string          `json:"ccp"`
	CardInfo      string          `json:"card_info"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PayoutStatus    `json:"status"`
	MerchantID    *uuid.UUID      `json:"merchant_id,omitempty"`
	TransactionID *uuid.UUID      `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"timestamp"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewPayoutRequest validates the destination and amount of a pending payout.
func NewPayoutRequest(ccp, cardInfo string, amount decimal.Decimal, now time.Time) (*PayoutRequest, error) {
	ccp = strings.TrimSpace(ccp)
	cardInfo = strings.TrimSpace(cardInfo)
	if ccp == "" && cardInfo == "" {
		return nil, ErrMissingDestination
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &PayoutRequest{
		ID:        uuid.New(),
		CCP:       ccp,
		CardInfo:  cardInfo,
		Amount:    amount,
		Status:    PayoutStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// TransitionTo applies an admin decision. Decisions never return to pending and
// repeating the current status is rejected. paid and not_paid may be swapped.
func (p *PayoutRequest) TransitionTo(next PayoutStatus, now time.Time) error {
	if next == PayoutStatusPending || next == p.Status {
		return ErrInvalidTransition
	}
	p.Status = next
	p.UpdatedAt = now
	return nil
}
