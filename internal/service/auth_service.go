package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AdminCredentials is the single operator account from configuration.
type AdminCredentials struct {
	Username string
	Password string
}

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	store      ports.Store
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
	adminUser  string
	adminHash  string
	monthlyFee decimal.Decimal
	log        zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl. The admin password is hashed
// here so it is never compared in plaintext; an empty password disables admin
// login.
func NewAuthService(
	store ports.Store,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	admin AdminCredentials,
	monthlyFee decimal.Decimal,
	log zerolog.Logger,
) (*AuthServiceImpl, error) {
	s := &AuthServiceImpl{
		store:      store,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
		adminUser:  admin.Username,
		monthlyFee: monthlyFee,
		log:        log,
	}
	if admin.Password != "" {
		hash, err := hashSvc.Hash(admin.Password)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		s.adminHash = hash
	} else {
		log.Warn().Msg("admin password not configured; admin login disabled")
	}
	return s, nil
}

// SignupMerchant registers a merchant in pending status.
func (s *AuthServiceImpl) SignupMerchant(ctx context.Context, req ports.MerchantSignupRequest) (*domain.Merchant, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	req.BusinessType = strings.TrimSpace(req.BusinessType)
	email := domain.NormalizeEmail(req.Email)

	if req.Name == "" || email == "" || req.Phone == "" || req.Address == "" || req.BusinessType == "" || req.Password == "" {
		return nil, apperror.Validation("name, email, phone, address, business_type and password are required")
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, domainErr(err)
	}

	existing, err := s.store.Merchants().GetByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("check merchant email", err)
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := nowUTC()
	merchant := &domain.Merchant{
		ID:                   uuid.New(),
		Name:                 req.Name,
		Email:                email,
		Phone:                req.Phone,
		Address:              req.Address,
		BusinessType:         req.BusinessType,
		BusinessLicense:      strings.TrimSpace(req.BusinessLicense),
		PasswordHash:         passwordHash,
		Status:               domain.MerchantStatusPending,
		RegistrationDate:     now,
		MonthlyFee:           s.monthlyFee,
		TotalChangeGenerated: decimal.Zero,
		UpdatedAt:            now,
	}

	if err := s.store.Merchants().Create(ctx, merchant); err != nil {
		return nil, storeErr("create merchant", err)
	}

	s.log.Info().Str("merchant_id", merchant.ID.String()).Msg("merchant signed up")
	return merchant, nil
}

// LoginMerchant checks credentials first, then onboarding status, so a wrong
// password never reveals whether an account is pending.
func (s *AuthServiceImpl) LoginMerchant(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	merchant, err := s.store.Merchants().GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, storeErr("find merchant", err)
	}
	if merchant == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, merchant.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, apperror.ErrInvalidCredentials()
	}

	switch merchant.Status {
	case domain.MerchantStatusPending:
		return nil, apperror.ErrMerchantPending()
	case domain.MerchantStatusRejected:
		return nil, apperror.ErrMerchantRejected()
	case domain.MerchantStatusSuspended:
		return nil, apperror.ErrMerchantSuspended()
	}

	now := nowUTC()
	merchant.LastLogin = &now
	if err := s.store.Merchants().RecordLogin(ctx, merchant.ID, now); err != nil {
		// A stale last-login stamp must not block the session.
		s.log.Warn().Err(err).Str("merchant_id", merchant.ID.String()).Msg("failed to record last login")
	}

	return s.issue(merchant.ID.String(), domain.RoleMerchant, func(r *ports.LoginResult) { r.Merchant = merchant })
}

// LoginCustomer signs a customer in by email alone.
func (s *AuthServiceImpl) LoginCustomer(ctx context.Context, email string) (*ports.LoginResult, error) {
	customer, err := s.store.Customers().GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, storeErr("find customer", err)
	}
	if customer == nil {
		return nil, apperror.ErrInvalidCredentials()
	}
	return s.issue(customer.ID.String(), domain.RoleCustomer, func(r *ports.LoginResult) { r.Customer = customer })
}

// LoginAdmin checks the configured operator account.
func (s *AuthServiceImpl) LoginAdmin(_ context.Context, username, password string) (*ports.LoginResult, error) {
	if s.adminHash == "" {
		return nil, apperror.ErrInvalidCredentials()
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUser)) == 1
	valid, err := s.hashSvc.Verify(password, s.adminHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify admin password: %w", err))
	}
	if !userOK || !valid {
		return nil, apperror.ErrInvalidCredentials()
	}
	return s.issue(s.adminUser, domain.RoleAdmin, nil)
}

func (s *AuthServiceImpl) issue(subject string, role domain.Role, decorate func(*ports.LoginResult)) (*ports.LoginResult, error) {
	token, expiresAt, err := s.tokenSvc.Generate(subject, role)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	result := &ports.LoginResult{Token: token, ExpiresAt: expiresAt, Role: role}
	if decorate != nil {
		decorate(result)
	}
	return result, nil
}

