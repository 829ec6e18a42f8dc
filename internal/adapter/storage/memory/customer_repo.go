package memory

import (
	"context"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type customerRepo struct{ v *view }

func (r *customerRepo) Create(_ context.Context, c *domain.Customer) error {
	return r.v.write(func(st *state) error {
		email := domain.NormalizeEmail(c.Email)
		for _, existing := range st.customers {
			if existing.Email == email {
				return ports.ErrDuplicateKey
			}
		}
		stored := *c
		stored.Email = email
		st.customers[c.ID] = stored
		st.customerOrder = append(st.customerOrder, c.ID)
		return nil
	})
}

func (r *customerRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Customer, error) {
	var out *domain.Customer
	r.v.read(func(st *state) {
		if c, ok := st.customers[id]; ok {
			out = &c
		}
	})
	return out, nil
}

func (r *customerRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	email = domain.NormalizeEmail(email)
	var out *domain.Customer
	r.v.read(func(st *state) {
		for _, c := range st.customers {
			if c.Email == email {
				out = &c
				return
			}
		}
	})
	return out, nil
}

func (r *customerRepo) List(_ context.Context) ([]domain.Customer, error) {
	var out []domain.Customer
	r.v.read(func(st *state) {
		out = make([]domain.Customer, 0, len(st.customerOrder))
		for _, id := range st.customerOrder {
			out = append(out, st.customers[id])
		}
	})
	return out, nil
}

func (r *customerRepo) AddBalance(_ context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Customer, error) {
	var out *domain.Customer
	err := r.v.write(func(st *state) error {
		c, ok := st.customers[id]
		if !ok {
			return ports.ErrRecordNotFound
		}
		c.Balance = c.Balance.Add(amount)
		st.customers[id] = c
		out = &c
		return nil
	})
	return out, err
}

func (r *customerRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.customers[id]; !ok {
			return ports.ErrRecordNotFound
		}
		delete(st.customers, id)
		st.customerOrder = removeID(st.customerOrder, id)
		return nil
	})
}
