package service

import (
	"errors"
	"fmt"
	"time"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/apperror"
)

// nowUTC is the service clock.
var nowUTC = func() time.Time { return time.Now().UTC() }

// domainErr maps a domain rule violation to its caller-facing AppError.
// Errors that are already AppErrors pass through; anything else is internal.
func domainErr(err error) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, domain.ErrInvalidAmount):
		return apperror.ErrInvalidNumber()
	case errors.Is(err, domain.ErrInsufficientPayment):
		return apperror.ErrInsufficientPayment()
	case errors.Is(err, domain.ErrUnknownDisposition):
		return apperror.Validation("disposition must be one of return, donate, deposit, payout")
	case errors.Is(err, domain.ErrMissingDestination):
		return apperror.Validation("ccp or card_info is required")
	case errors.Is(err, domain.ErrMissingFields):
		return apperror.Validation("name, email and phone are required")
	case errors.Is(err, domain.ErrInvalidEmail):
		return apperror.Validation("email must contain @")
	case errors.Is(err, domain.ErrTransactionNotActive):
		return apperror.ErrInvalidState("transaction is already completed")
	case errors.Is(err, domain.ErrInvalidTransition):
		return apperror.ErrInvalidState("status transition not allowed")
	case errors.Is(err, ports.ErrDuplicateKey):
		return apperror.ErrEmailExists()
	default:
		return apperror.InternalError(err)
	}
}

// storeErr wraps a repository failure with the operation that hit it.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, ports.ErrDuplicateKey):
		return domainErr(err)
	case errors.Is(err, ports.ErrCipher):
		return apperror.ErrEncryptionFailure(fmt.Errorf("%s: %w", op, err))
	}
	return apperror.ErrDatabaseError(fmt.Errorf("%s: %w", op, err))
}

// isNotFound reports a repository miss on update.
func isNotFound(err error) bool {
	return errors.Is(err, ports.ErrRecordNotFound)
}

// isStale reports a conditional status update that lost a race.
func isStale(err error) bool {
	return errors.Is(err, ports.ErrStaleStatus)
}
