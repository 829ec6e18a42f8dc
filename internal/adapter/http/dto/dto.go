package dto

import (
	"bytes"
	"encoding/json"
	"errors"

	"change-aggregator/internal/core/domain"
)

var errNotANumber = errors.New("must be a JSON number")

// Amount is a money value sent either as a JSON number or a numeric string.
// The raw text is kept so the service layer parses it exactly once.
type Amount string

// UnmarshalJSON accepts 12.5 as well as "12.5".
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errNotANumber
	}
	*a = Amount(n.String())
	return nil
}

// Number is a money value that must be sent as a JSON number literal.
type Number string

// UnmarshalJSON rejects strings, booleans and objects.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) == 0 || b[0] == '"' {
		return errNotANumber
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return errNotANumber
	}
	*n = Number(num.String())
	return nil
}

// --- Auth ---

// MerchantSignupRequest is the request body for merchant self-registration.
type MerchantSignupRequest struct {
	Name            string `json:"name" binding:"required,max=100"`
	Email           string `json:"email" binding:"required,max=254"`
	Phone           string `json:"phone" binding:"required,phone"`
	Address         string `json:"address" binding:"required,max=255"`
	BusinessType    string `json:"business_type" binding:"required,max=100"`
	BusinessLicense string `json:"business_license" binding:"max=100"`
	Password        string `json:"password" binding:"required,min=8,max=128" sanitize:"-"`
}

// MerchantLoginRequest is the request body for merchant login.
type MerchantLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

// CustomerLoginRequest is the request body for customer login.
type CustomerLoginRequest struct {
	Email string `json:"email" binding:"required"`
}

// AdminLoginRequest is the request body for admin login.
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

// LoginResponse is the response body for a successful login of any role.
type LoginResponse struct {
	Token    string           `json:"token"`
	Expiry   int64            `json:"expiry"` // Unix timestamp
	Role     domain.Role      `json:"role"`
	Merchant *domain.Merchant `json:"merchant,omitempty"`
	Customer *domain.Customer `json:"customer,omitempty"`
}

// --- Transactions ---

// StartTransactionRequest is the request body for recording a sale.
type StartTransactionRequest struct {
	Amount Amount `json:"amount" binding:"required"`
	Paid   Amount `json:"paid" binding:"required"`
}

// CustomerRefRequest names the customer receiving a deposit.
type CustomerRefRequest struct {
	ID    *string `json:"id,omitempty" binding:"omitempty,uuid"`
	Email string  `json:"email,omitempty" binding:"max=254"`
	Name  string  `json:"name,omitempty" binding:"max=100"`
	Phone string  `json:"phone,omitempty" binding:"omitempty,phone"`
	New   bool    `json:"new,omitempty"`
}

// DispositionRequest is the request body for resolving the current transaction.
type DispositionRequest struct {
	Disposition string              `json:"disposition" binding:"required,oneof=return donate deposit payout"`
	Customer    *CustomerRefRequest `json:"customer,omitempty"`
	CCP         string              `json:"ccp,omitempty" binding:"omitempty,ccp"`
	CardInfo    string              `json:"card_info,omitempty" binding:"max=64"`
}

// --- Payouts ---

// CreatePayoutRequest is the request body for a standalone payout request.
type CreatePayoutRequest struct {
	CCP      string `json:"ccp,omitempty" binding:"omitempty,ccp"`
	CardInfo string `json:"card_info,omitempty" binding:"max=64"`
	Amount   Amount `json:"amount" binding:"required"`
}

// UpdatePayoutStatusRequest is the request body for the admin payout decision.
type UpdatePayoutStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- Customers ---

// RegisterCustomerRequest is the request body for customer registration.
type RegisterCustomerRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,max=254"`
	Phone string `json:"phone" binding:"required,phone"`
}

// CreditBalanceRequest is the request body for an admin balance credit.
type CreditBalanceRequest struct {
	Amount Number `json:"amount" binding:"required"`
}

// SuccessResponse acknowledges a mutation with no resource to return.
type SuccessResponse struct {
	Success bool `json:"success"`
}
