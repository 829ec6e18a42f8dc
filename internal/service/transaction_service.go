package service

import (
	"context"
	"fmt"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransactionServiceImpl implements ports.TransactionService.
type TransactionServiceImpl struct {
	ledger  ports.Ledger
	current ports.CurrentTransactionStore
	events  ports.EventService
	log     zerolog.Logger
}

// NewTransactionService creates a new TransactionServiceImpl.
func NewTransactionService(
	ledger ports.Ledger,
	current ports.CurrentTransactionStore,
	events ports.EventService,
	log zerolog.Logger,
) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		ledger:  ledger,
		current: current,
		events:  events,
		log:     log,
	}
}

// Start records a sale for an approved merchant and makes it the merchant's
// current transaction. A previous current transaction is left pending.
func (s *TransactionServiceImpl) Start(ctx context.Context, merchantID uuid.UUID, amount, paid string) (*domain.Transaction, error) {
	amountDec, err := domain.ParseAmount(amount)
	if err != nil {
		return nil, apperror.ErrInvalidNumber()
	}
	paidDec, err := domain.ParseAmount(paid)
	if err != nil {
		return nil, apperror.ErrInvalidNumber()
	}

	merchant, err := s.ledger.Merchants().GetByID(ctx, merchantID)
	if err != nil {
		return nil, storeErr("get merchant", err)
	}
	if merchant == nil || !merchant.CanOperate() {
		return nil, apperror.ErrMerchantNotApproved()
	}

	txn, err := domain.NewTransaction(merchantID, amountDec, paidDec, nowUTC())
	if err != nil {
		return nil, domainErr(err)
	}

	if err := s.ledger.Transactions().Create(ctx, txn); err != nil {
		return nil, storeErr("create transaction", err)
	}

	previous, err := s.current.Get(ctx, merchantID)
	if err != nil {
		s.log.Warn().Err(err).Str("merchant_id", merchantID.String()).Msg("failed to read current transaction slot")
	}
	if err := s.current.Set(ctx, merchantID, txn.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("set current transaction: %w", err))
	}
	if previous != uuid.Nil {
		s.log.Info().
			Str("merchant_id", merchantID.String()).
			Str("replaced_tx_id", previous.String()).
			Msg("current transaction replaced")
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("merchant_id", merchantID.String()).
		Str("amount", txn.Amount.StringFixed(domain.AmountScale)).
		Str("change", txn.Change.StringFixed(domain.AmountScale)).
		Msg("transaction started")
	s.events.Emit(ctx, domain.EventTransactionStarted, txn)

	return txn, nil
}

// Current returns the merchant's in-flight transaction.
func (s *TransactionServiceImpl) Current(ctx context.Context, merchantID uuid.UUID) (*domain.Transaction, error) {
	txID, err := s.current.Get(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get current transaction: %w", err))
	}
	if txID == uuid.Nil {
		return nil, apperror.ErrNotFound("Current transaction")
	}

	txn, err := s.ledger.Transactions().GetByID(ctx, txID)
	if err != nil {
		return nil, storeErr("get transaction", err)
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("Current transaction")
	}
	return txn, nil
}

// Reset empties the merchant's slot. The transaction itself is untouched.
func (s *TransactionServiceImpl) Reset(ctx context.Context, merchantID uuid.UUID) error {
	if err := s.current.Clear(ctx, merchantID); err != nil {
		return apperror.InternalError(fmt.Errorf("clear current transaction: %w", err))
	}
	s.log.Debug().Str("merchant_id", merchantID.String()).Msg("current transaction reset")
	return nil
}

func (s *TransactionServiceImpl) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, error) {
	txns, err := s.ledger.Transactions().List(ctx, params)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	return txns, nil
}
