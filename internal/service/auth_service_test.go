package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"change-aggregator/internal/adapter/storage/memory"
	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/internal/core/ports/mocks"
	"change-aggregator/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupAuthService(t *testing.T) (
	*AuthServiceImpl,
	*memory.Store,
	*mocks.MockHashService,
	*mocks.MockTokenService,
	*gomock.Controller,
) {
	ctrl := gomock.NewController(t)
	store := memory.New()
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	hashSvc.EXPECT().Hash("admin-pass").Return("$argon2id$admin", nil)
	svc, err := NewAuthService(store, hashSvc, tokenSvc,
		AdminCredentials{Username: "admin", Password: "admin-pass"},
		decimal.RequireFromString("25.00"), newTestLogger())
	require.NoError(t, err)
	return svc, store, hashSvc, tokenSvc, ctrl
}

func validSignup() ports.MerchantSignupRequest {
	return ports.MerchantSignupRequest{
		Name:         "Epicerie Nour",
		Email:        "Owner@Nour.DZ",
		Phone:        "0550123456",
		Address:      "12 Rue Larbi Ben M'hidi",
		BusinessType: "grocery",
		Password:     "StrongP@ss123",
	}
}

func TestAuthService_SignupMerchant_Success(t *testing.T) {
	svc, store, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	hashSvc.EXPECT().Hash("StrongP@ss123").Return("$argon2id$hashed", nil)

	merchant, err := svc.SignupMerchant(context.Background(), validSignup())
	require.NoError(t, err)
	assert.Equal(t, "owner@nour.dz", merchant.Email)
	assert.Equal(t, domain.MerchantStatusPending, merchant.Status)
	assert.Equal(t, "$argon2id$hashed", merchant.PasswordHash)
	assert.True(t, merchant.MonthlyFee.Equal(decimal.RequireFromString("25.00")))
	assert.Zero(t, merchant.TotalTransactions)

	stored, err := store.Merchants().GetByID(context.Background(), merchant.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestAuthService_SignupMerchant_Validation(t *testing.T) {
	svc, _, _, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	missing := validSignup()
	missing.BusinessType = "  "
	_, err := svc.SignupMerchant(context.Background(), missing)
	assert.True(t, apperror.Is(err, "VAL_001"))

	badEmail := validSignup()
	badEmail.Email = "owner.nour.dz"
	_, err = svc.SignupMerchant(context.Background(), badEmail)
	assert.True(t, apperror.Is(err, "VAL_001"))
}

func TestAuthService_SignupMerchant_DuplicateEmail(t *testing.T) {
	svc, _, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	hashSvc.EXPECT().Hash(gomock.Any()).Return("$argon2id$hashed", nil)
	_, err := svc.SignupMerchant(context.Background(), validSignup())
	require.NoError(t, err)

	again := validSignup()
	again.Email = "OWNER@nour.dz"
	_, err = svc.SignupMerchant(context.Background(), again)
	assert.Equal(t, apperror.KindConflict, apperror.Kind(err))
}

func TestAuthService_LoginMerchant_StatusMessages(t *testing.T) {
	tests := []struct {
		name   string
		status domain.MerchantStatus
		code   string
	}{
		{"pending", domain.MerchantStatusPending, "AUTH_002"},
		{"rejected", domain.MerchantStatusRejected, "AUTH_003"},
		{"suspended", domain.MerchantStatusSuspended, "AUTH_004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, hashSvc, _, ctrl := setupAuthService(t)
			defer ctrl.Finish()

			m := seedMerchant(t, store, tt.status)
			hashSvc.EXPECT().Verify("StrongP@ss123", m.PasswordHash).Return(true, nil)

			_, err := svc.LoginMerchant(context.Background(), m.Email, "StrongP@ss123")
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestAuthService_LoginMerchant_WrongPasswordHidesStatus(t *testing.T) {
	svc, store, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	m := seedMerchant(t, store, domain.MerchantStatusPending)
	hashSvc.EXPECT().Verify("wrong", m.PasswordHash).Return(false, nil)

	_, err := svc.LoginMerchant(context.Background(), m.Email, "wrong")
	assert.True(t, apperror.Is(err, "AUTH_001"))
}

func TestAuthService_LoginMerchant_UnknownEmail(t *testing.T) {
	svc, _, _, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	_, err := svc.LoginMerchant(context.Background(), "nobody@shop.dz", "x")
	assert.True(t, apperror.Is(err, "AUTH_001"))
}

func TestAuthService_LoginMerchant_Success(t *testing.T) {
	svc, store, hashSvc, tokenSvc, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	m := seedMerchant(t, store, domain.MerchantStatusApproved)
	expires := time.Now().Add(time.Hour)
	hashSvc.EXPECT().Verify("StrongP@ss123", m.PasswordHash).Return(true, nil)
	tokenSvc.EXPECT().Generate(m.ID.String(), domain.RoleMerchant).Return("jwt-token", expires, nil)

	result, err := svc.LoginMerchant(context.Background(), m.Email, "StrongP@ss123")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", result.Token)
	assert.Equal(t, domain.RoleMerchant, result.Role)
	require.NotNil(t, result.Merchant)
	assert.NotNil(t, result.Merchant.LastLogin)

	stored, _ := store.Merchants().GetByID(context.Background(), m.ID)
	assert.NotNil(t, stored.LastLogin)
}

func TestAuthService_LoginMerchant_KeepsConcurrentSuspension(t *testing.T) {
	svc, store, hashSvc, tokenSvc, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	events := mocks.NewMockEventService(ctrl)
	events.EXPECT().Emit(gomock.Any(), domain.EventMerchantStatusChange, gomock.Any())
	merchants := NewMerchantService(store, events, newTestLogger())

	m := seedMerchant(t, store, domain.MerchantStatusApproved)
	verifying := make(chan struct{})
	resume := make(chan struct{})
	// The password check runs after the merchant was read as approved; the
	// admin suspends the merchant while it is in progress.
	hashSvc.EXPECT().Verify("StrongP@ss123", m.PasswordHash).DoAndReturn(func(string, string) (bool, error) {
		close(verifying)
		<-resume
		return true, nil
	})
	tokenSvc.EXPECT().Generate(m.ID.String(), domain.RoleMerchant).Return("jwt-token", time.Now().Add(time.Hour), nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.LoginMerchant(context.Background(), m.Email, "StrongP@ss123")
		done <- err
	}()

	<-verifying
	_, err := merchants.Suspend(context.Background(), testAdmin, m.ID)
	require.NoError(t, err)
	close(resume)
	require.NoError(t, <-done)

	stored, err := store.Merchants().GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MerchantStatusSuspended, stored.Status)
	assert.NotNil(t, stored.LastLogin)
}

func TestAuthService_LoginCustomer(t *testing.T) {
	svc, store, _, tokenSvc, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	c := seedCustomer(t, store, "saver@mail.dz")
	tokenSvc.EXPECT().Generate(c.ID.String(), domain.RoleCustomer).Return("jwt-c", time.Now(), nil)

	result, err := svc.LoginCustomer(context.Background(), "SAVER@mail.dz")
	require.NoError(t, err)
	assert.Equal(t, c.ID, result.Customer.ID)

	_, err = svc.LoginCustomer(context.Background(), "ghost@mail.dz")
	assert.True(t, apperror.Is(err, "AUTH_001"))
}

func TestAuthService_LoginAdmin(t *testing.T) {
	svc, _, hashSvc, tokenSvc, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	hashSvc.EXPECT().Verify("admin-pass", "$argon2id$admin").Return(true, nil)
	tokenSvc.EXPECT().Generate("admin", domain.RoleAdmin).Return("jwt-a", time.Now(), nil)
	result, err := svc.LoginAdmin(context.Background(), "admin", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, result.Role)

	hashSvc.EXPECT().Verify("admin-pass", "$argon2id$admin").Return(true, nil)
	_, err = svc.LoginAdmin(context.Background(), "root", "admin-pass")
	assert.True(t, apperror.Is(err, "AUTH_001"))
}

func TestAuthService_LoginAdmin_Disabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, err := NewAuthService(memory.New(), mocks.NewMockHashService(ctrl), mocks.NewMockTokenService(ctrl),
		AdminCredentials{Username: "admin"}, decimal.Zero, newTestLogger())
	require.NoError(t, err)

	_, err = svc.LoginAdmin(context.Background(), "admin", "")
	assert.True(t, apperror.Is(err, "AUTH_001"))
}

func TestAuthService_TokenFailure(t *testing.T) {
	svc, store, _, tokenSvc, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	seedCustomer(t, store, "saver@mail.dz")
	tokenSvc.EXPECT().Generate(gomock.Any(), domain.RoleCustomer).Return("", time.Time{}, errors.New("signing failed"))

	_, err := svc.LoginCustomer(context.Background(), "saver@mail.dz")
	assert.Equal(t, apperror.KindSystem, apperror.Kind(err))
}
