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

type merchantService struct {
	ledger ports.Ledger
	events ports.EventService
	log    zerolog.Logger
}

// NewMerchantService creates the admin-side onboarding service.
func NewMerchantService(ledger ports.Ledger, events ports.EventService, log zerolog.Logger) ports.MerchantService {
	return &merchantService{ledger: ledger, events: events, log: log}
}

func (s *merchantService) Get(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	merchant, err := s.ledger.Merchants().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get merchant", err)
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}
	return merchant, nil
}

func (s *merchantService) List(ctx context.Context, params ports.MerchantListParams) ([]domain.Merchant, error) {
	merchants, err := s.ledger.Merchants().List(ctx, params)
	if err != nil {
		return nil, storeErr("list merchants", err)
	}
	return merchants, nil
}

func (s *merchantService) Approve(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Merchant, error) {
	return s.transition(ctx, actor, id, domain.MerchantStatusApproved)
}

func (s *merchantService) Reject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Merchant, error) {
	return s.transition(ctx, actor, id, domain.MerchantStatusRejected)
}

func (s *merchantService) Suspend(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Merchant, error) {
	return s.transition(ctx, actor, id, domain.MerchantStatusSuspended)
}

// transition applies one onboarding move and its audit entry atomically.
func (s *merchantService) transition(ctx context.Context, actor domain.Actor, id uuid.UUID, next domain.MerchantStatus) (*domain.Merchant, error) {
	var (
		updated *domain.Merchant
		from    domain.MerchantStatus
	)
	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		merchant, err := tx.Merchants().GetByID(ctx, id)
		if err != nil {
			return storeErr("get merchant", err)
		}
		if merchant == nil {
			return apperror.ErrNotFound("Merchant")
		}

		from = merchant.Status
		if err := merchant.TransitionTo(next, nowUTC()); err != nil {
			return apperror.ErrInvalidState(fmt.Sprintf("cannot move merchant from %s to %s", from, next))
		}
		if err := tx.Merchants().UpdateStatus(ctx, merchant, from); err != nil {
			switch {
			case isStale(err):
				return apperror.ErrInvalidState(fmt.Sprintf("merchant is no longer %s", from))
			case isNotFound(err):
				return apperror.ErrNotFound("Merchant")
			}
			return storeErr("update merchant status", err)
		}
		if err := recordAudit(ctx, tx, actor, domain.AuditActionMerchantStatus, "merchant", id.String(),
			map[string]string{"from": string(from), "to": string(next)}); err != nil {
			return storeErr("audit merchant status", err)
		}
		updated = merchant
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("merchant_id", id.String()).
		Str("from", string(from)).
		Str("to", string(next)).
		Str("actor", actor.ID).
		Msg("merchant status changed")
	s.events.Emit(ctx, domain.EventMerchantStatusChange, map[string]string{
		"merchant_id": id.String(),
		"from":        string(from),
		"to":          string(next),
	})

	return updated, nil
}
