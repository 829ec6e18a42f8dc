package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"change-aggregator/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(subject string, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
	Role    domain.Role
}

// --- Service Ports (Business Logic) ---

// MerchantSignupRequest holds input for merchant self-registration.
type MerchantSignupRequest struct {
	Name            string
	Email           string
	Phone           string
	Address         string
	BusinessType    string
	BusinessLicense string
	Password        string
}

// LoginResult is a signed session plus the authenticated account view.
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Role      domain.Role      `json:"role"`
	Merchant  *domain.Merchant `json:"merchant,omitempty"`
	Customer  *domain.Customer `json:"customer,omitempty"`
}

// AuthService defines sign-up and sign-in for the three roles.
type AuthService interface {
	SignupMerchant(ctx context.Context, req MerchantSignupRequest) (*domain.Merchant, error)
	LoginMerchant(ctx context.Context, email, password string) (*LoginResult, error)
	LoginCustomer(ctx context.Context, email string) (*LoginResult, error)
	LoginAdmin(ctx context.Context, username, password string) (*LoginResult, error)
}

// MerchantService defines admin-side merchant management.
type MerchantService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	List(ctx context.Context, params MerchantListParams) ([]domain.Merchant, error)
	Approve(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Merchant, error)
	Reject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Merchant, error)
	Suspend(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Merchant, error)
}

// TransactionService records sales and manages each merchant's current transaction.
type TransactionService interface {
	// Start takes raw numeric input so parsing errors surface as validation errors.
	Start(ctx context.Context, merchantID uuid.UUID, amount, paid string) (*domain.Transaction, error)
	Current(ctx context.Context, merchantID uuid.UUID) (*domain.Transaction, error)
	Reset(ctx context.Context, merchantID uuid.UUID) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, error)
}

// CustomerRef identifies the customer receiving a deposit. When New is set the
// customer is registered from Name, Email and Phone; otherwise ID or Email is looked up.
type CustomerRef struct {
	ID    *uuid.UUID
	Email string
	Name  string
	Phone string
	New   bool
}

// DispositionRequest resolves a merchant's current transaction.
type DispositionRequest struct {
	MerchantID  uuid.UUID
	Disposition string
	Customer    *CustomerRef // deposit only
	CCP         string       // payout only
	CardInfo    string       // payout only
	Actor       domain.Actor
	// IdempotencyKey, when set, makes a retried request replay the first result.
	IdempotencyKey string
}

// DispositionResult carries the completed transaction and whatever it produced.
type DispositionResult struct {
	Transaction *domain.Transaction   `json:"transaction"`
	Customer    *domain.Customer      `json:"customer,omitempty"`
	Deposit     *domain.Deposit       `json:"deposit,omitempty"`
	Payout      *domain.PayoutRequest `json:"payout_request,omitempty"`
}

// DispositionService applies one of the four change dispositions.
type DispositionService interface {
	Resolve(ctx context.Context, req DispositionRequest) (*DispositionResult, error)
}

// CreatePayoutRequest holds input for a standalone payout request.
type CreatePayoutRequest struct {
	CCP        string
	CardInfo   string
	Amount     string
	MerchantID *uuid.UUID
}

// PayoutService defines the admin payout workflow.
type PayoutService interface {
	Create(ctx context.Context, actor domain.Actor, req CreatePayoutRequest) (*domain.PayoutRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.PayoutRequest, error)
	List(ctx context.Context, status *domain.PayoutStatus) ([]domain.PayoutRequest, error)
	ListPending(ctx context.Context) ([]domain.PayoutRequest, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status string) (*domain.PayoutRequest, error)
}

// RegisterCustomerRequest holds input for customer registration.
type RegisterCustomerRequest struct {
	Name  string
	Email string
	Phone string
}

// CustomerService defines customer registration and balance management.
type CustomerService interface {
	Register(ctx context.Context, actor domain.Actor, req RegisterCustomerRequest) (*domain.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	CreditBalance(ctx context.Context, actor domain.Actor, id uuid.UUID, amount string) (*domain.Customer, error)
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	Summary(ctx context.Context, id uuid.UUID) (*domain.CustomerSummary, error)
	Deposits(ctx context.Context, id uuid.UUID) ([]domain.Deposit, error)
}

// ReportingService defines admin dashboard aggregates.
type ReportingService interface {
	AdminStats(ctx context.Context) (*domain.AdminStats, error)
}

// ReconciliationService checks customer balances against deposit history.
type ReconciliationService interface {
	Reconcile(ctx context.Context) ([]domain.BalanceMismatch, error)
}

// AuditService records audit entries outside of a unit of work.
type AuditService interface {
	// Log hands entry to a background writer and returns immediately.
	Log(ctx context.Context, entry *domain.AuditLog)
	List(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

// MetricsRecorder receives business counters after a mutation commits.
type MetricsRecorder interface {
	Disposition(kind string, changeCents int64)
	PayoutStatus(status string)
	Mismatches(n int)
}

// EventService publishes domain events after a mutation commits.
type EventService interface {
	Emit(ctx context.Context, eventType domain.EventType, payload interface{})
}
