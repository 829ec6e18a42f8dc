package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, merchant_id, amount_cents, paid_cents, change_cents, status,
	disposition, customer_id, payout_request_id, created_at, completed_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	db DBTX
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(db DBTX) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var amount, paid, change int64
	err := row.Scan(
		&t.ID, &t.MerchantID, &amount, &paid, &change, &t.Status,
		&t.Disposition, &t.CustomerID, &t.PayoutRequestID, &t.CreatedAt, &t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Amount = domain.FromMinorUnits(amount)
	t.Paid = domain.FromMinorUnits(paid)
	t.Change = domain.FromMinorUnits(change)
	return t, nil
}

// Create appends a transaction to the log.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		t.ID, t.MerchantID,
		domain.ToMinorUnits(t.Amount), domain.ToMinorUnits(t.Paid), domain.ToMinorUnits(t.Change),
		t.Status, t.Disposition, t.CustomerID, t.PayoutRequestID, t.CreatedAt, t.CompletedAt,
	)
	if err != nil {
		return wrapErr("insert transaction", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get transaction by id", err)
	}
	return t, nil
}

// Update persists the completion of a transaction. Only pending rows are
// updated, so a concurrent resolution of the same sale loses.
func (r *TransactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	query := `UPDATE transactions
		SET status = $1, disposition = $2, customer_id = $3, payout_request_id = $4, completed_at = $5
		WHERE id = $6 AND status = $7`

	tag, err := r.db.Exec(ctx, query,
		t.Status, t.Disposition, t.CustomerID, t.PayoutRequestID, t.CompletedAt,
		t.ID, domain.TransactionStatusPending,
	)
	if err != nil {
		return wrapErr("update transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}

// List returns transactions newest first with optional filters.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.MerchantID != nil {
		conditions = append(conditions, fmt.Sprintf("merchant_id = $%d", argIdx))
		args = append(args, *params.MerchantID)
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf("SELECT %s FROM transactions %s ORDER BY created_at DESC, id", transactionColumns, where)
	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, params.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list transactions", err)
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, wrapErr("scan transaction", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate transactions", err)
	}
	return transactions, nil
}
