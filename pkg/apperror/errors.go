package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError is what handlers render: a stable code, a message safe to show the
// caller and the HTTP status. Err keeps the internal cause for logs only.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap attaches an internal cause to a caller-facing error.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ErrorKind is the caller-facing classification of an error.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindConflict     ErrorKind = "conflict"
	KindNotFound     ErrorKind = "not_found"
	KindAuth         ErrorKind = "auth"
	KindInvalidState ErrorKind = "invalid_state"
	KindRateLimit    ErrorKind = "rate_limit"
	KindSystem       ErrorKind = "system"
)

// codePrefixes maps the family prefix of a code to its kind.
var codePrefixes = []struct {
	prefix string
	kind   ErrorKind
}{
	{"VAL_", KindValidation},
	{"CON_", KindConflict},
	{"NF_", KindNotFound},
	{"AUTH_", KindAuth},
	{"STATE_", KindInvalidState},
	{"RATE_", KindRateLimit},
}

// Kind classifies err by the family of its code. Errors that are not
// AppErrors, and SYS_ codes, are KindSystem.
func Kind(err error) ErrorKind {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return KindSystem
	}
	for _, p := range codePrefixes {
		if strings.HasPrefix(appErr.Code, p.prefix) {
			return p.kind
		}
	}
	return KindSystem
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Validation returns a generic input validation error with a caller-facing message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidNumber() *AppError {
	return New("VAL_002", "invalid numeric input", http.StatusBadRequest)
}

func ErrInsufficientPayment() *AppError {
	return New("VAL_003", "insufficient payment", http.StatusBadRequest)
}

func ErrPayloadTooLarge(limit int64) *AppError {
	return New("VAL_004", fmt.Sprintf("request body exceeds %d bytes", limit), http.StatusRequestEntityTooLarge)
}

// ErrEmailExists is returned when a customer or merchant email is taken.
func ErrEmailExists() *AppError {
	return New("CON_001", "email already registered", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("NF_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// Authentication and authorization. 401 means no usable identity, 403 an
// identity that may not do this.

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid email or password", http.StatusUnauthorized)
}

func ErrMerchantPending() *AppError {
	return New("AUTH_002", "Your account is pending admin approval. Please wait for approval before logging in.", http.StatusForbidden)
}

func ErrMerchantRejected() *AppError {
	return New("AUTH_003", "Your merchant application has been rejected. Please contact support.", http.StatusForbidden)
}

func ErrMerchantSuspended() *AppError {
	return New("AUTH_004", "Your account has been suspended. Please contact support.", http.StatusForbidden)
}

func ErrMerchantNotApproved() *AppError {
	return New("AUTH_005", "merchant not allowed to operate", http.StatusForbidden)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_006", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_007", "Insufficient role for this resource", http.StatusForbidden)
}

// ErrInvalidState rejects an operation the entity's current status does not
// allow, such as resolving a completed transaction.
func ErrInvalidState(message string) *AppError {
	return New("STATE_001", message, http.StatusConflict)
}

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// ErrEncryptionFailure reports a payout destination that could not be sealed
// or opened.
func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
