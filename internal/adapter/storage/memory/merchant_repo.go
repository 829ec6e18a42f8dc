package memory

import (
	"context"
	"strings"
	"time"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type merchantRepo struct{ v *view }

func (r *merchantRepo) Create(_ context.Context, m *domain.Merchant) error {
	return r.v.write(func(st *state) error {
		email := domain.NormalizeEmail(m.Email)
		for _, existing := range st.merchants {
			if existing.Email == email {
				return ports.ErrDuplicateKey
			}
		}
		stored := *m
		stored.Email = email
		st.merchants[m.ID] = stored
		st.merchantOrder = append(st.merchantOrder, m.ID)
		return nil
	})
}

func (r *merchantRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Merchant, error) {
	var out *domain.Merchant
	r.v.read(func(st *state) {
		if m, ok := st.merchants[id]; ok {
			out = &m
		}
	})
	return out, nil
}

func (r *merchantRepo) GetByEmail(_ context.Context, email string) (*domain.Merchant, error) {
	email = domain.NormalizeEmail(email)
	var out *domain.Merchant
	r.v.read(func(st *state) {
		for _, m := range st.merchants {
			if m.Email == email {
				out = &m
				return
			}
		}
	})
	return out, nil
}

func (r *merchantRepo) List(_ context.Context, params ports.MerchantListParams) ([]domain.Merchant, error) {
	search := strings.ToLower(strings.TrimSpace(params.Search))
	var out []domain.Merchant
	r.v.read(func(st *state) {
		out = make([]domain.Merchant, 0, len(st.merchantOrder))
		for _, id := range st.merchantOrder {
			m := st.merchants[id]
			if params.Status != nil && m.Status != *params.Status {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(m.Name), search) &&
				!strings.Contains(m.Email, search) {
				continue
			}
			out = append(out, m)
		}
	})
	return out, nil
}

func (r *merchantRepo) UpdateStatus(_ context.Context, m *domain.Merchant, from domain.MerchantStatus) error {
	return r.v.write(func(st *state) error {
		existing, ok := st.merchants[m.ID]
		if !ok {
			return ports.ErrRecordNotFound
		}
		if existing.Status != from {
			return ports.ErrStaleStatus
		}
		existing.Status = m.Status
		existing.UpdatedAt = m.UpdatedAt
		st.merchants[m.ID] = existing
		return nil
	})
}

func (r *merchantRepo) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.v.write(func(st *state) error {
		existing, ok := st.merchants[id]
		if !ok {
			return ports.ErrRecordNotFound
		}
		existing.LastLogin = &at
		st.merchants[id] = existing
		return nil
	})
}

func (r *merchantRepo) AddCompletion(_ context.Context, id uuid.UUID, change decimal.Decimal, at time.Time) error {
	return r.v.write(func(st *state) error {
		existing, ok := st.merchants[id]
		if !ok {
			return ports.ErrRecordNotFound
		}
		existing.RecordCompletion(change)
		existing.UpdatedAt = at
		st.merchants[id] = existing
		return nil
	})
}
