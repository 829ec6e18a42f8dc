package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a saver whose balance accumulates deposited change.
type Customer struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail applies the minimal shape check the UI enforces.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	return nil
}

// NewCustomer validates registration input and returns a zero-balance customer.
func NewCustomer(name, email, phone string, now time.Time) (*Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	email = NormalizeEmail(email)
	if name == "" || email == "" || phone == "" {
		return nil, ErrMissingFields
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	return &Customer{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Balance:   decimal.Zero,
		CreatedAt: now,
	}, nil
}

// CustomerSummary is the savings overview shown on the customer dashboard.
type CustomerSummary struct {
	Customer     *Customer       `json:"customer"`
	TotalSaved   decimal.Decimal `json:"total_saved"`
	SavedLast30d decimal.Decimal `json:"saved_last_30_days"`
	DepositCount int             `json:"deposit_count"`
}
