package postgres

import (
	"context"

	"change-aggregator/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositRepo implements ports.DepositRepository.
type DepositRepo struct {
	db DBTX
}

// NewDepositRepo creates a new DepositRepo.
func NewDepositRepo(db DBTX) *DepositRepo {
	return &DepositRepo{db: db}
}

// Create appends a deposit. A second deposit for the same transaction
// violates the unique index and yields ports.ErrDuplicateKey.
func (r *DepositRepo) Create(ctx context.Context, d *domain.Deposit) error {
	query := `INSERT INTO deposits (id, customer_id, amount_cents, source, transaction_id, merchant_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		d.ID, d.CustomerID, domain.ToMinorUnits(d.Amount), d.Source,
		d.TransactionID, d.MerchantID, d.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert deposit", err)
	}
	return nil
}

// ListByCustomer returns a customer's deposits newest first.
func (r *DepositRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Deposit, error) {
	query := `SELECT id, customer_id, amount_cents, source, transaction_id, merchant_id, created_at
		FROM deposits WHERE customer_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, wrapErr("list deposits", err)
	}
	defer rows.Close()

	deposits := []domain.Deposit{}
	for rows.Next() {
		var d domain.Deposit
		var amount int64
		if err := rows.Scan(&d.ID, &d.CustomerID, &amount, &d.Source, &d.TransactionID, &d.MerchantID, &d.CreatedAt); err != nil {
			return nil, wrapErr("scan deposit", err)
		}
		d.Amount = domain.FromMinorUnits(amount)
		deposits = append(deposits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate deposits", err)
	}
	return deposits, nil
}

// SumByCustomer totals deposits per customer.
func (r *DepositRepo) SumByCustomer(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `SELECT customer_id, COALESCE(SUM(amount_cents), 0) FROM deposits GROUP BY customer_id`)
	if err != nil {
		return nil, wrapErr("sum deposits", err)
	}
	defer rows.Close()

	sums := make(map[uuid.UUID]decimal.Decimal)
	for rows.Next() {
		var id uuid.UUID
		var total int64
		if err := rows.Scan(&id, &total); err != nil {
			return nil, wrapErr("scan deposit sum", err)
		}
		sums[id] = domain.FromMinorUnits(total)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate deposit sums", err)
	}
	return sums, nil
}
