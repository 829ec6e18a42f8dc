package domain

import "errors"

// Domain rule violations. Services translate these into apperror values.
var (
	ErrInvalidAmount        = errors.New("invalid numeric input")
	ErrInsufficientPayment  = errors.New("insufficient payment")
	ErrUnknownDisposition   = errors.New("unknown disposition")
	ErrTransactionNotActive = errors.New("transaction is not pending")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrMissingDestination   = errors.New("ccp or card info is required")
	ErrMissingFields        = errors.New("missing required fields")
	ErrInvalidEmail         = errors.New("invalid email address")
)
