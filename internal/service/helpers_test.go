package service

import (
	"context"
	"io"
	"testing"

	"change-aggregator/internal/adapter/storage/memory"
	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

var testAdmin = domain.Actor{Role: domain.RoleAdmin, ID: "admin", IP: "127.0.0.1"}

func seedMerchant(t *testing.T, store *memory.Store, status domain.MerchantStatus) *domain.Merchant {
	t.Helper()
	m := &domain.Merchant{
		ID:                   uuid.New(),
		Name:                 "Corner Shop",
		Email:                uuid.NewString() + "@shop.dz",
		Phone:                "0550000000",
		Address:              "1 Rue Didouche",
		BusinessType:         "grocery",
		PasswordHash:         "$argon2id$hash",
		Status:               status,
		RegistrationDate:     nowUTC(),
		MonthlyFee:           decimal.RequireFromString("25.00"),
		TotalChangeGenerated: decimal.Zero,
		UpdatedAt:            nowUTC(),
	}
	require.NoError(t, store.Merchants().Create(context.Background(), m))
	return m
}

func seedCustomer(t *testing.T, store *memory.Store, email string) *domain.Customer {
	t.Helper()
	c, err := domain.NewCustomer("Amina", email, "0661000000", nowUTC())
	require.NoError(t, err)
	require.NoError(t, store.Customers().Create(context.Background(), c))
	return c
}

// quietEvents accepts any number of events.
func quietEvents(ctrl *gomock.Controller) *mocks.MockEventService {
	events := mocks.NewMockEventService(ctrl)
	events.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return events
}
