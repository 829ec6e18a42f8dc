package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MerchantStatus represents the onboarding state of a merchant account.
type MerchantStatus string

const (
	MerchantStatusPending   MerchantStatus = "pending"
	MerchantStatusApproved  MerchantStatus = "approved"
	MerchantStatusRejected  MerchantStatus = "rejected"
	MerchantStatusSuspended MerchantStatus = "suspended"
)

// merchantTransitions lists the admin moves allowed out of each status.
// Rejected and suspended are terminal.
var merchantTransitions = map[MerchantStatus][]MerchantStatus{
	MerchantStatusPending:  {MerchantStatusApproved, MerchantStatusRejected},
	MerchantStatusApproved: {MerchantStatusSuspended},
}

// ParseMerchantStatus validates a status filter value.
func ParseMerchantStatus(s string) (MerchantStatus, bool) {
	switch st := MerchantStatus(s); st {
	case MerchantStatusPending, MerchantStatusApproved, MerchantStatusRejected, MerchantStatusSuspended:
		return st, true
	}
	return "", false
}

// Merchant represents a shop that records sales and routes change.
type Merchant struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	Email                string          `json:"email"`
	Phone                string          `json:"phone"`
	Address              string          `json:"address"`
	BusinessType         string          `json:"business_type"`
	BusinessLicense      string          `json:"business_license,omitempty"`
	PasswordHash         string          `json:"-"` // Never expose
	Status               MerchantStatus  `json:"status"`
	RegistrationDate     time.Time       `json:"registration_date"`
	LastLogin            *time.Time      `json:"last_login,omitempty"`
	MonthlyFee           decimal.Decimal `json:"monthly_fee"`
	TotalTransactions    int64           `json:"total_transactions"`
	TotalChangeGenerated decimal.Decimal `json:"total_change_generated"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// CanOperate returns true if the merchant may start transactions.
func (m *Merchant) CanOperate() bool {
	return m.Status == MerchantStatusApproved
}

// TransitionTo moves the merchant to next if the onboarding state machine allows it.
func (m *Merchant) TransitionTo(next MerchantStatus, now time.Time) error {
	for _, allowed := range merchantTransitions[m.Status] {
		if allowed == next {
			m.Status = next
			m.UpdatedAt = now
			return nil
		}
	}
	return ErrInvalidTransition
}

// RecordCompletion bumps the sales counters after a transaction completes.
func (m *Merchant) RecordCompletion(change decimal.Decimal) {
	m.TotalTransactions++
	m.TotalChangeGenerated = m.TotalChangeGenerated.Add(change)
}
