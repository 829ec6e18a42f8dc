package postgres

import (
	"context"
	"errors"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const customerColumns = `id, name, email, phone, balance_cents, created_at`

// CustomerRepo implements ports.CustomerRepository.
type CustomerRepo struct {
	db DBTX
}

// NewCustomerRepo creates a new CustomerRepo.
func NewCustomerRepo(db DBTX) *CustomerRepo {
	return &CustomerRepo{db: db}
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	c := &domain.Customer{}
	var balance int64
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &balance, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Balance = domain.FromMinorUnits(balance)
	return c, nil
}

// Create inserts a new customer. A taken email yields ports.ErrDuplicateKey.
func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	query := `INSERT INTO customers (` + customerColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		c.ID, c.Name, domain.NormalizeEmail(c.Email), c.Phone,
		domain.ToMinorUnits(c.Balance), c.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert customer", err)
	}
	return nil
}

// GetByID fetches a customer by its UUID.
func (r *CustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	c, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get customer by id", err)
	}
	return c, nil
}

// GetByEmail fetches a customer by email, ignoring case.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE lower(email) = $1`

	c, err := scanCustomer(r.db.QueryRow(ctx, query, domain.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get customer by email", err)
	}
	return c, nil
}

// List returns every customer in registration order.
func (r *CustomerRepo) List(ctx context.Context) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, wrapErr("list customers", err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, wrapErr("scan customer", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate customers", err)
	}
	return customers, nil
}

// AddBalance increments the balance in a single statement so concurrent
// credits never lose an update.
func (r *CustomerRepo) AddBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Customer, error) {
	query := `UPDATE customers SET balance_cents = balance_cents + $1 WHERE id = $2 RETURNING ` + customerColumns

	c, err := scanCustomer(r.db.QueryRow(ctx, query, domain.ToMinorUnits(amount), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrRecordNotFound
		}
		return nil, wrapErr("add customer balance", err)
	}
	return c, nil
}

// Delete removes a customer. Their deposits are kept.
func (r *CustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete customer", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}
