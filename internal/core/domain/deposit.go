package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositSource tells where a deposit came from.
type DepositSource string

const (
	DepositSourceChange DepositSource = "change" // disposition of a sale
	DepositSourceManual DepositSource = "manual" // admin balance credit
)

// Deposit is an append-only credit to a customer's savings.
type Deposit struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Source        DepositSource   `json:"source"`
	TransactionID *uuid.UUID      `json:"transaction_id,omitempty"`
	MerchantID    *uuid.UUID      `json:"merchant_id,omitempty"`
	CreatedAt     time.Time       `json:"timestamp"`
}

// NewChangeDeposit credits the change of tx to customerID.
func NewChangeDeposit(customerID uuid.UUID, tx *Transaction, now time.Time) *Deposit {
	txID, merchantID := tx.ID, tx.MerchantID
	return &Deposit{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Amount:        tx.Change,
		Source:        DepositSourceChange,
		TransactionID: &txID,
		MerchantID:    &merchantID,
		CreatedAt:     now,
	}
}

// NewManualDeposit records an admin credit with no originating sale.
func NewManualDeposit(customerID uuid.UUID, amount decimal.Decimal, now time.Time) *Deposit {
	return &Deposit{
		ID:         uuid.New(),
		CustomerID: customerID,
		Amount:     amount,
		Source:     DepositSourceManual,
		CreatedAt:  now,
	}
}

// SumDeposits totals deposit amounts.
func SumDeposits(deposits []Deposit) decimal.Decimal {
	total := decimal.Zero
	for _, d := range deposits {
		total = total.Add(d.Amount)
	}
	return total
}
