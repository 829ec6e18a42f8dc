package memory

import (
	"context"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/google/uuid"
)

type payoutRepo struct{ v *view }

func (r *payoutRepo) Create(_ context.Context, p *domain.PayoutRequest) error {
	return r.v.write(func(st *state) error {
		st.payouts[p.ID] = *p
		st.payoutOrder = append(st.payoutOrder, p.ID)
		return nil
	})
}

func (r *payoutRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PayoutRequest, error) {
	var out *domain.PayoutRequest
	r.v.read(func(st *state) {
		if p, ok := st.payouts[id]; ok {
			out = &p
		}
	})
	return out, nil
}

func (r *payoutRepo) List(_ context.Context, status *domain.PayoutStatus) ([]domain.PayoutRequest, error) {
	out := []domain.PayoutRequest{}
	r.v.read(func(st *state) {
		for i := len(st.payoutOrder) - 1; i >= 0; i-- {
			p := st.payouts[st.payoutOrder[i]]
			if status != nil && p.Status != *status {
				continue
			}
			out = append(out, p)
		}
	})
	return out, nil
}

func (r *payoutRepo) UpdateStatus(_ context.Context, p *domain.PayoutRequest, from domain.PayoutStatus) error {
	return r.v.write(func(st *state) error {
		existing, ok := st.payouts[p.ID]
		if !ok {
			return ports.ErrRecordNotFound
		}
		if existing.Status != from {
			return ports.ErrStaleStatus
		}
		existing.Status = p.Status
		existing.UpdatedAt = p.UpdatedAt
		st.payouts[p.ID] = existing
		return nil
	})
}
