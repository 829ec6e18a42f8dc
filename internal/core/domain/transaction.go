package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle state of a sale.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	// TransactionStatusCancelled is terminal and reserved; no flow produces it yet.
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// ParseTransactionStatus validates a status filter.
func ParseTransactionStatus(s string) (TransactionStatus, bool) {
	switch st := TransactionStatus(s); st {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusCancelled:
		return st, true
	}
	return "", false
}

// Disposition is what happens to a transaction's change.
type Disposition string

const (
	DispositionReturn  Disposition = "return"
	DispositionDonate  Disposition = "donate"
	DispositionDeposit Disposition = "deposit"
	DispositionPayout  Disposition = "payout"
)

// ParseDisposition validates a caller-supplied disposition.
func ParseDisposition(s string) (Disposition, error) {
	switch d := Disposition(s); d {
	case DispositionReturn, DispositionDonate, DispositionDeposit, DispositionPayout:
		return d, nil
	}
	return "", ErrUnknownDisposition
}

// Transaction is one recorded sale. Change is always Paid minus Amount.
type Transaction struct {
	ID              uuid.UUID         `json:"id"`
	MerchantID      uuid.UUID         `json:"merchant_id"`
	Amount          decimal.Decimal   `json:"amount"`
	Paid            decimal.Decimal   `json:"paid"`
	Change          decimal.Decimal   `json:"change"`
	Status          TransactionStatus `json:"status"`
	Disposition     *Disposition      `json:"disposition,omitempty"`
	CustomerID      *uuid.UUID        `json:"customer_id,omitempty"`
	PayoutRequestID *uuid.UUID        `json:"payout_request_id,omitempty"`
	CreatedAt       time.Time         `json:"timestamp"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
}

// NewTransaction records a sale and computes its change.
func NewTransaction(merchantID uuid.UUID, amount, paid decimal.Decimal, now time.Time) (*Transaction, error) {
	if amount.IsNegative() || paid.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if paid.LessThan(amount) {
		return nil, ErrInsufficientPayment
	}
	return &Transaction{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Amount:     amount,
		Paid:       paid,
		Change:     paid.Sub(amount),
		Status:     TransactionStatusPending,
		CreatedAt:  now,
	}, nil
}

// IsPending returns true while the change has not been disposed of.
func (t *Transaction) IsPending() bool {
	return t.Status == TransactionStatusPending
}

// Complete records the disposition and closes the transaction.
func (t *Transaction) Complete(d Disposition, now time.Time) error {
	if !t.IsPending() {
		return ErrTransactionNotActive
	}
	t.Status = TransactionStatusCompleted
	t.Disposition = &d
	t.CompletedAt = &now
	return nil
}
