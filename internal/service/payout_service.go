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

// PayoutServiceImpl implements ports.PayoutService.
type PayoutServiceImpl struct {
	ledger  ports.Ledger
	events  ports.EventService
	metrics ports.MetricsRecorder
	log     zerolog.Logger
}

// NewPayoutService creates a new PayoutServiceImpl.
func NewPayoutService(ledger ports.Ledger, events ports.EventService, metrics ports.MetricsRecorder, log zerolog.Logger) *PayoutServiceImpl {
	return &PayoutServiceImpl{
		ledger:  ledger,
		events:  events,
		metrics: metrics,
		log:     log,
	}
}

// Create files a standalone payout request that is not tied to a sale.
func (s *PayoutServiceImpl) Create(ctx context.Context, actor domain.Actor, req ports.CreatePayoutRequest) (*domain.PayoutRequest, error) {
	if req.Amount == "" {
		return nil, apperror.Validation("amount is required")
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return nil, apperror.ErrInvalidNumber()
	}
	if !amount.IsPositive() {
		return nil, apperror.Validation("amount must be greater than zero")
	}

	payout, err := domain.NewPayoutRequest(req.CCP, req.CardInfo, amount, nowUTC())
	if err != nil {
		return nil, domainErr(err)
	}
	payout.MerchantID = req.MerchantID

	err = s.ledger.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		if err := tx.Payouts().Create(ctx, payout); err != nil {
			return storeErr("create payout request", err)
		}
		if err := recordAudit(ctx, tx, actor, domain.AuditActionPayoutRequest, "payout_request", payout.ID.String(),
			map[string]string{"amount": payout.Amount.StringFixed(domain.AmountScale)}); err != nil {
			return storeErr("audit payout request", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payout_id", payout.ID.String()).
		Str("amount", payout.Amount.StringFixed(domain.AmountScale)).
		Str("actor", actor.ID).
		Msg("payout requested")
	s.events.Emit(ctx, domain.EventPayoutRequested, payout)

	return payout, nil
}

func (s *PayoutServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.PayoutRequest, error) {
	payout, err := s.ledger.Payouts().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get payout request", err)
	}
	if payout == nil {
		return nil, apperror.ErrNotFound("Payout request")
	}
	return payout, nil
}

func (s *PayoutServiceImpl) List(ctx context.Context, status *domain.PayoutStatus) ([]domain.PayoutRequest, error) {
	payouts, err := s.ledger.Payouts().List(ctx, status)
	if err != nil {
		return nil, storeErr("list payout requests", err)
	}
	return payouts, nil
}

// ListPending returns the admin work queue.
func (s *PayoutServiceImpl) ListPending(ctx context.Context) ([]domain.PayoutRequest, error) {
	pending := domain.PayoutStatusPending
	return s.List(ctx, &pending)
}

// UpdateStatus records an admin decision on a payout request.
func (s *PayoutServiceImpl) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status string) (*domain.PayoutRequest, error) {
	next, ok := domain.ParsePayoutStatus(status)
	if !ok {
		return nil, apperror.Validation("status must be one of pending, paid, not_paid")
	}

	var (
		updated *domain.PayoutRequest
		from    domain.PayoutStatus
	)
	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		payout, err := tx.Payouts().GetByID(ctx, id)
		if err != nil {
			return storeErr("get payout request", err)
		}
		if payout == nil {
			return apperror.ErrNotFound("Payout request")
		}

		from = payout.Status
		if err := payout.TransitionTo(next, nowUTC()); err != nil {
			if next == domain.PayoutStatusPending {
				return apperror.ErrInvalidState("payout request cannot return to pending")
			}
			return apperror.ErrInvalidState(fmt.Sprintf("payout request is already %s", next))
		}
		if err := tx.Payouts().UpdateStatus(ctx, payout, from); err != nil {
			switch {
			case isStale(err):
				return apperror.ErrInvalidState(fmt.Sprintf("payout request is no longer %s", from))
			case isNotFound(err):
				return apperror.ErrNotFound("Payout request")
			}
			return storeErr("update payout status", err)
		}
		if err := recordAudit(ctx, tx, actor, domain.AuditActionPayoutStatus, "payout_request", id.String(),
			map[string]string{"from": string(from), "to": string(next)}); err != nil {
			return storeErr("audit payout status", err)
		}
		updated = payout
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PayoutStatus(string(next))
	s.log.Info().
		Str("payout_id", id.String()).
		Str("from", string(from)).
		Str("to", string(next)).
		Str("actor", actor.ID).
		Msg("payout status updated")
	s.events.Emit(ctx, domain.EventPayoutStatusChanged, updated)

	return updated, nil
}
