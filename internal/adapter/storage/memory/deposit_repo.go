package memory

import (
	"context"

	"change-aggregator/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type depositRepo struct{ v *view }

func (r *depositRepo) Create(_ context.Context, d *domain.Deposit) error {
	return r.v.write(func(st *state) error {
		st.deposits = append(st.deposits, *d)
		return nil
	})
}

func (r *depositRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]domain.Deposit, error) {
	out := []domain.Deposit{}
	r.v.read(func(st *state) {
		for i := len(st.deposits) - 1; i >= 0; i-- {
			if st.deposits[i].CustomerID == customerID {
				out = append(out, st.deposits[i])
			}
		}
	})
	return out, nil
}

func (r *depositRepo) SumByCustomer(_ context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	sums := make(map[uuid.UUID]decimal.Decimal)
	r.v.read(func(st *state) {
		for _, d := range st.deposits {
			sums[d.CustomerID] = sums[d.CustomerID].Add(d.Amount)
		}
	})
	return sums, nil
}
