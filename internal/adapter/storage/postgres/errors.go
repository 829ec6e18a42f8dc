package postgres

import (
	"errors"
	"fmt"

	"change-aggregator/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// wrapErr annotates err with op and maps driver failures onto the port errors
// services branch on.
func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, ports.ErrDuplicateKey)
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%s: %w: %w", op, ports.ErrTransient, err)
		}
	}
	if pgconn.SafeToRetry(err) {
		return fmt.Errorf("%s: %w: %w", op, ports.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
