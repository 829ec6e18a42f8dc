package service

import (
	"context"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/shopspring/decimal"
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	store ports.Store
}

// NewReportingService creates a new reporting service.
func NewReportingService(store ports.Store) ports.ReportingService {
	return &reportingService{store: store}
}

// AdminStats aggregates the platform overview shown on the admin dashboard.
// Monthly revenue is the sum of the fees of approved merchants.
func (s *reportingService) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	merchants, err := s.store.Merchants().List(ctx, ports.MerchantListParams{})
	if err != nil {
		return nil, storeErr("list merchants", err)
	}
	customers, err := s.store.Customers().List(ctx)
	if err != nil {
		return nil, storeErr("list customers", err)
	}
	txns, err := s.store.Transactions().List(ctx, ports.TransactionListParams{})
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	pending := domain.PayoutStatusPending
	payouts, err := s.store.Payouts().List(ctx, &pending)
	if err != nil {
		return nil, storeErr("list payout requests", err)
	}

	stats := &domain.AdminStats{
		TotalMerchants:    len(merchants),
		TotalCustomers:    len(customers),
		TotalTransactions: len(txns),
		TotalChangeAmount: decimal.Zero,
		MonthlyRevenue:    decimal.Zero,
		PendingPayouts:    len(payouts),
	}
	for _, m := range merchants {
		switch m.Status {
		case domain.MerchantStatusApproved:
			stats.ActiveMerchants++
			stats.MonthlyRevenue = stats.MonthlyRevenue.Add(m.MonthlyFee)
		case domain.MerchantStatusPending:
			stats.PendingMerchants++
		}
	}
	for _, t := range txns {
		if t.IsPending() {
			stats.PendingTransactions++
		}
		stats.TotalChangeAmount = stats.TotalChangeAmount.Add(t.Change)
	}

	return stats, nil
}
