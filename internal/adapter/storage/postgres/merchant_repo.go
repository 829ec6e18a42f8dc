package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const merchantColumns = `id, name, email, phone, address, business_type, business_license, password_hash,
	status, registration_date, last_login, monthly_fee_cents, total_transactions, total_change_cents, updated_at`

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	db DBTX
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(db DBTX) *MerchantRepo {
	return &MerchantRepo{db: db}
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	var fee, change int64
	err := row.Scan(
		&m.ID, &m.Name, &m.Email, &m.Phone, &m.Address, &m.BusinessType, &m.BusinessLicense, &m.PasswordHash,
		&m.Status, &m.RegistrationDate, &m.LastLogin, &fee, &m.TotalTransactions, &change, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.MonthlyFee = domain.FromMinorUnits(fee)
	m.TotalChangeGenerated = domain.FromMinorUnits(change)
	return m, nil
}

// Create inserts a new merchant into the database.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	query := `INSERT INTO merchants (` + merchantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(ctx, query,
		m.ID, m.Name, domain.NormalizeEmail(m.Email), m.Phone, m.Address, m.BusinessType, m.BusinessLicense, m.PasswordHash,
		m.Status, m.RegistrationDate, m.LastLogin, domain.ToMinorUnits(m.MonthlyFee),
		m.TotalTransactions, domain.ToMinorUnits(m.TotalChangeGenerated), m.UpdatedAt,
	)
	if err != nil {
		return wrapErr("insert merchant", err)
	}
	return nil
}

// GetByID fetches a merchant by its UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`

	m, err := scanMerchant(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get merchant by id", err)
	}
	return m, nil
}

// GetByEmail fetches a merchant by email, ignoring case.
func (r *MerchantRepo) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE lower(email) = $1`

	m, err := scanMerchant(r.db.QueryRow(ctx, query, domain.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get merchant by email", err)
	}
	return m, nil
}

// List returns merchants in registration order, optionally filtered.
func (r *MerchantRepo) List(ctx context.Context, params ports.MerchantListParams) ([]domain.Merchant, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if s := strings.TrimSpace(params.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf("(lower(name) LIKE $%d OR lower(email) LIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+strings.ToLower(s)+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf("SELECT %s FROM merchants %s ORDER BY registration_date, id", merchantColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list merchants", err)
	}
	defer rows.Close()

	merchants := []domain.Merchant{}
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, wrapErr("scan merchant", err)
		}
		merchants = append(merchants, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate merchants", err)
	}
	return merchants, nil
}

// UpdateStatus moves the merchant out of from. The status guard makes the
// second of two concurrent transitions affect no row.
func (r *MerchantRepo) UpdateStatus(ctx context.Context, m *domain.Merchant, from domain.MerchantStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE merchants SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		m.Status, m.UpdatedAt, m.ID, from,
	)
	if err != nil {
		return wrapErr("update merchant status", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrStaleStatus
	}
	return nil
}

func (r *MerchantRepo) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE merchants SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return wrapErr("record merchant login", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}

// AddCompletion bumps the counters relative to the stored values.
func (r *MerchantRepo) AddCompletion(ctx context.Context, id uuid.UUID, change decimal.Decimal, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE merchants
		SET total_transactions = total_transactions + 1, total_change_cents = total_change_cents + $1, updated_at = $2
		WHERE id = $3`,
		domain.ToMinorUnits(change), at, id,
	)
	if err != nil {
		return wrapErr("add merchant completion", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}
