package service

import (
	"context"
	"errors"
	"testing"

	"change-aggregator/internal/adapter/storage/memory"
	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports/mocks"
	"change-aggregator/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReportingService_AdminStats(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewReportingService(store)

	approved := seedMerchant(t, store, domain.MerchantStatusApproved)
	seedMerchant(t, store, domain.MerchantStatusApproved)
	seedMerchant(t, store, domain.MerchantStatusPending)
	seedMerchant(t, store, domain.MerchantStatusSuspended)
	seedCustomer(t, store, "a@mail.dz")

	for _, paid := range []string{"10.00", "20.50"} {
		txn, err := domain.NewTransaction(approved.ID, decimal.RequireFromString("7.25"), decimal.RequireFromString(paid), nowUTC())
		require.NoError(t, err)
		require.NoError(t, store.Transactions().Create(ctx, txn))
	}
	payout, err := domain.NewPayoutRequest("0012345678", "", decimal.RequireFromString("5"), nowUTC())
	require.NoError(t, err)
	require.NoError(t, store.Payouts().Create(ctx, payout))

	stats, err := svc.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalMerchants)
	assert.Equal(t, 2, stats.ActiveMerchants)
	assert.Equal(t, 1, stats.PendingMerchants)
	assert.Equal(t, 1, stats.TotalCustomers)
	assert.Equal(t, 2, stats.TotalTransactions)
	assert.Equal(t, 2, stats.PendingTransactions)
	assert.Equal(t, "16.00", stats.TotalChangeAmount.StringFixed(2))
	assert.Equal(t, "50.00", stats.MonthlyRevenue.StringFixed(2))
	assert.Equal(t, 1, stats.PendingPayouts)
}

func TestReportingService_AdminStats_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	merchants := mocks.NewMockMerchantRepository(ctrl)
	store.EXPECT().Merchants().Return(merchants)
	merchants.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := NewReportingService(store).AdminStats(context.Background())
	assert.True(t, apperror.Is(err, "SYS_001"))
}
