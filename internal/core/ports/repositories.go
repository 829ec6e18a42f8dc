package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"change-aggregator/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Storage-level errors shared by every Ledger Store implementation.
var (
	// ErrRecordNotFound is returned by mutations that target a missing row.
	// Getters return (nil, nil) instead.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a natural key (email) is already taken.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrTransient marks failures that may succeed on retry
	// (serialization failure, deadlock, lost connection).
	ErrTransient = errors.New("transient storage failure")
	// ErrCipher marks payout destinations that could not be sealed or opened.
	ErrCipher = errors.New("payout destination cipher failure")
	// ErrStaleStatus is returned by conditional status updates when the row
	// is no longer in the expected status.
	ErrStaleStatus = errors.New("status changed by a concurrent update")
)

// CustomerRepository defines persistence operations for customers.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	// AddBalance atomically increments the balance and returns the updated customer.
	AddBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MerchantListParams filters merchant listings.
type MerchantListParams struct {
	Status *domain.MerchantStatus
	Search string // case-insensitive match on name or email
}

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByEmail(ctx context.Context, email string) (*domain.Merchant, error)
	List(ctx context.Context, params MerchantListParams) ([]domain.Merchant, error)
	// UpdateStatus writes merchant.Status only if the stored status is still
	// from; otherwise it returns ErrStaleStatus.
	UpdateStatus(ctx context.Context, merchant *domain.Merchant, from domain.MerchantStatus) error
	// RecordLogin sets last_login and nothing else.
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	// AddCompletion increments the sales counters in place.
	AddCompletion(ctx context.Context, id uuid.UUID, change decimal.Decimal, at time.Time) error
}

// TransactionListParams filters transaction listings.
type TransactionListParams struct {
	MerchantID *uuid.UUID
	Status     *domain.TransactionStatus
	Limit      int // 0 = no limit
}

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
	// List returns newest first.
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, error)
}

// DepositRepository is the append-only deposit history.
type DepositRepository interface {
	Create(ctx context.Context, deposit *domain.Deposit) error
	// ListByCustomer returns newest first.
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Deposit, error)
	// SumByCustomer totals every deposit, keyed by customer.
	SumByCustomer(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)
}

// PayoutRepository defines persistence operations for payout requests.
type PayoutRepository interface {
	Create(ctx context.Context, payout *domain.PayoutRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PayoutRequest, error)
	// List returns newest first; nil status means all.
	List(ctx context.Context, status *domain.PayoutStatus) ([]domain.PayoutRequest, error)
	// UpdateStatus writes payout.Status only if the stored status is still
	// from; otherwise it returns ErrStaleStatus.
	UpdateStatus(ctx context.Context, payout *domain.PayoutRequest, from domain.PayoutStatus) error
}

// AuditRepository is the append-only audit trail.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	// List returns newest first, at most limit entries.
	List(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

// Store bundles the repositories of one Ledger Store, either bound to the
// live connection or to an open unit of work.
type Store interface {
	Customers() CustomerRepository
	Merchants() MerchantRepository
	Transactions() TransactionRepository
	Deposits() DepositRepository
	Payouts() PayoutRepository
	Audit() AuditRepository
}

// UnitOfWork runs fn against a transactional Store. All writes made through tx
// commit together when fn returns nil and are discarded otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	// WithinSnapshot runs read-only fn against one consistent view of the
	// ledger. Writes made through tx fail.
	WithinSnapshot(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Ledger is a Store that can also open units of work.
type Ledger interface {
	Store
	UnitOfWork
}
