package service

import (
	"context"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type reconciliationService struct {
	ledger  ports.Ledger
	metrics ports.MetricsRecorder
	log     zerolog.Logger
}

// NewReconciliationService creates the balance-versus-history checker.
func NewReconciliationService(ledger ports.Ledger, metrics ports.MetricsRecorder, log zerolog.Logger) ports.ReconciliationService {
	return &reconciliationService{ledger: ledger, metrics: metrics, log: log}
}

// Reconcile compares every customer's balance with the sum of their deposits.
// Both are read from one snapshot so a deposit committing meanwhile is seen
// by both or neither. Deposits of deleted customers are ignored.
func (s *reconciliationService) Reconcile(ctx context.Context) ([]domain.BalanceMismatch, error) {
	var (
		customers []domain.Customer
		sums      map[uuid.UUID]decimal.Decimal
	)
	err := s.ledger.WithinSnapshot(ctx, func(ctx context.Context, tx ports.Store) error {
		var err error
		if customers, err = tx.Customers().List(ctx); err != nil {
			return storeErr("list customers", err)
		}
		if sums, err = tx.Deposits().SumByCustomer(ctx); err != nil {
			return storeErr("sum deposits", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	mismatches := []domain.BalanceMismatch{}
	for _, c := range customers {
		sum, ok := sums[c.ID]
		if !ok {
			sum = decimal.Zero
		}
		if c.Balance.Equal(sum) {
			continue
		}
		mismatches = append(mismatches, domain.BalanceMismatch{
			CustomerID:  c.ID,
			Balance:     c.Balance,
			DepositSum:  sum,
			Discrepancy: c.Balance.Sub(sum),
		})
		s.log.Error().
			Str("customer_id", c.ID.String()).
			Str("balance", c.Balance.StringFixed(domain.AmountScale)).
			Str("deposit_sum", sum.StringFixed(domain.AmountScale)).
			Msg("balance does not match deposit history")
	}

	s.metrics.Mismatches(len(mismatches))
	s.log.Info().Int("customers", len(customers)).Int("mismatches", len(mismatches)).Msg("reconciliation finished")
	return mismatches, nil
}
