package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// DispositionServiceImpl implements ports.DispositionService.
type DispositionServiceImpl struct {
	ledger     ports.Ledger
	current    ports.CurrentTransactionStore
	idempCache ports.IdempotencyCache
	events     ports.EventService
	metrics    ports.MetricsRecorder
	log        zerolog.Logger
}

// NewDispositionService creates a new DispositionServiceImpl.
func NewDispositionService(
	ledger ports.Ledger,
	current ports.CurrentTransactionStore,
	idempCache ports.IdempotencyCache,
	events ports.EventService,
	metrics ports.MetricsRecorder,
	log zerolog.Logger,
) *DispositionServiceImpl {
	return &DispositionServiceImpl{
		ledger:     ledger,
		current:    current,
		idempCache: idempCache,
		events:     events,
		metrics:    metrics,
		log:        log,
	}
}

// Resolve completes the merchant's current transaction with the requested
// disposition. Every write of one disposition commits in a single unit of work.
func (s *DispositionServiceImpl) Resolve(ctx context.Context, req ports.DispositionRequest) (*ports.DispositionResult, error) {
	disposition, err := domain.ParseDisposition(req.Disposition)
	if err != nil {
		return nil, domainErr(err)
	}

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildIdempotencyKey(req.MerchantID, req.IdempotencyKey)
		cached, err := s.idempCache.Get(ctx, idempKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("idempotency check failed, processing request")
		}
		if cached != nil {
			return s.unmarshalCachedResult(cached)
		}
	}

	txID, err := s.current.Get(ctx, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get current transaction: %w", err))
	}
	if txID == uuid.Nil {
		return nil, apperror.ErrNotFound("Current transaction")
	}

	var result *ports.DispositionResult
	err = withTransientRetry(ctx, s.log, "resolve disposition", func() error {
		return s.ledger.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
			res, err := s.apply(ctx, tx, req, disposition, txID)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Post-process: everything below is best-effort.
	if err := s.current.Clear(ctx, req.MerchantID); err != nil {
		s.log.Warn().Err(err).Str("merchant_id", req.MerchantID.String()).Msg("failed to clear current transaction")
	}

	if idempKey != "" {
		respJSON, err := json.Marshal(result)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to marshal disposition result")
		} else if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency response")
		}
	}

	txn := result.Transaction
	s.metrics.Disposition(string(disposition), domain.ToMinorUnits(txn.Change))
	s.events.Emit(ctx, domain.EventChangeDisposed, txn)
	switch {
	case result.Deposit != nil:
		s.events.Emit(ctx, domain.EventDepositCreated, result.Deposit)
	case result.Payout != nil:
		s.events.Emit(ctx, domain.EventPayoutRequested, result.Payout)
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("merchant_id", req.MerchantID.String()).
		Str("disposition", string(disposition)).
		Str("change", txn.Change.StringFixed(domain.AmountScale)).
		Msg("change disposed")

	return result, nil
}

// apply performs one disposition against an open unit of work.
func (s *DispositionServiceImpl) apply(
	ctx context.Context,
	tx ports.Store,
	req ports.DispositionRequest,
	disposition domain.Disposition,
	txID uuid.UUID,
) (*ports.DispositionResult, error) {
	txn, err := tx.Transactions().GetByID(ctx, txID)
	if err != nil {
		return nil, storeErr("get transaction", err)
	}
	if txn == nil || txn.MerchantID != req.MerchantID {
		return nil, apperror.ErrNotFound("Current transaction")
	}
	if !txn.IsPending() {
		return nil, apperror.ErrInvalidState("transaction is already completed")
	}

	merchant, err := tx.Merchants().GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, storeErr("get merchant", err)
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}

	now := nowUTC()
	result := &ports.DispositionResult{Transaction: txn}

	switch disposition {
	case domain.DispositionDeposit:
		customer, err := s.resolveCustomer(ctx, tx, req.Actor, req.Customer)
		if err != nil {
			return nil, err
		}
		deposit := domain.NewChangeDeposit(customer.ID, txn, now)
		if err := tx.Deposits().Create(ctx, deposit); err != nil {
			return nil, storeErr("create deposit", err)
		}
		updated, err := tx.Customers().AddBalance(ctx, customer.ID, txn.Change)
		if err != nil {
			if isNotFound(err) {
				return nil, apperror.ErrNotFound("Customer")
			}
			return nil, storeErr("add balance", err)
		}
		if err := recordAudit(ctx, tx, req.Actor, domain.AuditActionDeposit, "deposit", deposit.ID.String(), map[string]string{
			"customer_id":    customer.ID.String(),
			"transaction_id": txn.ID.String(),
			"amount":         deposit.Amount.StringFixed(domain.AmountScale),
		}); err != nil {
			return nil, storeErr("audit deposit", err)
		}
		customerID := customer.ID
		txn.CustomerID = &customerID
		result.Customer = updated
		result.Deposit = deposit

	case domain.DispositionPayout:
		if !txn.Change.IsPositive() {
			return nil, apperror.Validation("there is no change to pay out")
		}
		payout, err := domain.NewPayoutRequest(req.CCP, req.CardInfo, txn.Change, now)
		if err != nil {
			return nil, domainErr(err)
		}
		merchantID, transactionID := txn.MerchantID, txn.ID
		payout.MerchantID = &merchantID
		payout.TransactionID = &transactionID
		if err := tx.Payouts().Create(ctx, payout); err != nil {
			return nil, storeErr("create payout request", err)
		}
		if err := recordAudit(ctx, tx, req.Actor, domain.AuditActionPayoutRequest, "payout_request", payout.ID.String(), map[string]string{
			"transaction_id": txn.ID.String(),
			"amount":         payout.Amount.StringFixed(domain.AmountScale),
		}); err != nil {
			return nil, storeErr("audit payout request", err)
		}
		payoutID := payout.ID
		txn.PayoutRequestID = &payoutID
		result.Payout = payout
	}

	if err := txn.Complete(disposition, now); err != nil {
		return nil, domainErr(err)
	}
	if err := tx.Transactions().Update(ctx, txn); err != nil {
		if isNotFound(err) {
			// Another request completed it first.
			return nil, apperror.ErrInvalidState("transaction is already completed")
		}
		return nil, storeErr("update transaction", err)
	}

	if err := tx.Merchants().AddCompletion(ctx, merchant.ID, txn.Change, now); err != nil {
		return nil, storeErr("update merchant stats", err)
	}

	if err := recordAudit(ctx, tx, req.Actor, domain.AuditActionDisposition, "transaction", txn.ID.String(), map[string]string{
		"disposition": string(disposition),
		"change":      txn.Change.StringFixed(domain.AmountScale),
	}); err != nil {
		return nil, storeErr("audit disposition", err)
	}

	return result, nil
}

// resolveCustomer finds or registers the deposit's recipient.
func (s *DispositionServiceImpl) resolveCustomer(ctx context.Context, tx ports.Store, actor domain.Actor, ref *ports.CustomerRef) (*domain.Customer, error) {
	if ref == nil {
		return nil, apperror.Validation("customer is required for a deposit")
	}

	if ref.New {
		customer, err := domain.NewCustomer(ref.Name, ref.Email, ref.Phone, nowUTC())
		if err != nil {
			return nil, domainErr(err)
		}
		existing, err := tx.Customers().GetByEmail(ctx, customer.Email)
		if err != nil {
			return nil, storeErr("get customer by email", err)
		}
		if existing != nil {
			return nil, apperror.ErrEmailExists()
		}
		if err := tx.Customers().Create(ctx, customer); err != nil {
			return nil, storeErr("create customer", err)
		}
		if err := recordAudit(ctx, tx, actor, domain.AuditActionCustomerRegister, "customer", customer.ID.String(), nil); err != nil {
			return nil, storeErr("audit customer register", err)
		}
		return customer, nil
	}

	var (
		customer *domain.Customer
		err      error
	)
	switch {
	case ref.ID != nil:
		customer, err = tx.Customers().GetByID(ctx, *ref.ID)
	case ref.Email != "":
		customer, err = tx.Customers().GetByEmail(ctx, domain.NormalizeEmail(ref.Email))
	default:
		return nil, apperror.Validation("customer id or email is required")
	}
	if err != nil {
		return nil, storeErr("get customer", err)
	}
	if customer == nil {
		return nil, apperror.ErrNotFound("Customer")
	}
	return customer, nil
}

func (s *DispositionServiceImpl) unmarshalCachedResult(data []byte) (*ports.DispositionResult, error) {
	var result ports.DispositionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached disposition: %w", err))
	}
	return &result, nil
}
