package memory

import (
	"context"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/google/uuid"
)

type transactionRepo struct{ v *view }

func (r *transactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	return r.v.write(func(st *state) error {
		st.transactions[tx.ID] = *tx
		st.txOrder = append(st.txOrder, tx.ID)
		return nil
	})
}

func (r *transactionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var out *domain.Transaction
	r.v.read(func(st *state) {
		if tx, ok := st.transactions[id]; ok {
			out = &tx
		}
	})
	return out, nil
}

func (r *transactionRepo) Update(_ context.Context, tx *domain.Transaction) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.transactions[tx.ID]; !ok {
			return ports.ErrRecordNotFound
		}
		st.transactions[tx.ID] = *tx
		return nil
	})
}

func (r *transactionRepo) List(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, error) {
	out := []domain.Transaction{}
	r.v.read(func(st *state) {
		for i := len(st.txOrder) - 1; i >= 0; i-- {
			tx := st.transactions[st.txOrder[i]]
			if params.MerchantID != nil && tx.MerchantID != *params.MerchantID {
				continue
			}
			if params.Status != nil && tx.Status != *params.Status {
				continue
			}
			out = append(out, tx)
			if params.Limit > 0 && len(out) == params.Limit {
				return
			}
		}
	})
	return out, nil
}
