package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithinTx_Commit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock, prefixCipher{})
	customerID := uuid.New()
	deposit := domain.NewManualDeposit(customerID, decimal.NewFromInt(2), time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO deposits").
		WithArgs(deposit.ID, customerID, int64(200), domain.DepositSourceManual, deposit.TransactionID, deposit.MerchantID, deposit.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("UPDATE customers SET balance_cents").
		WithArgs(int64(200), customerID).
		WillReturnRows(pgxmock.NewRows(customerColumnNames()).
			AddRow(customerID, "Ana", "ana@example.com", "1", int64(200), time.Now().UTC()))
	mock.ExpectCommit()

	err = store.WithinTx(context.Background(), func(ctx context.Context, tx ports.Store) error {
		if err := tx.Deposits().Create(ctx, deposit); err != nil {
			return err
		}
		_, err := tx.Customers().AddBalance(ctx, customerID, deposit.Amount)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_RollbackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock, prefixCipher{})
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = store.WithinTx(context.Background(), func(context.Context, ports.Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_SerializationFailureIsTransient(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock, prefixCipher{})

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: "40001"})
	mock.ExpectRollback()

	err = store.WithinTx(context.Background(), func(context.Context, ports.Store) error { return nil })
	assert.ErrorIs(t, err, ports.ErrTransient)
}

func TestStore_WithinSnapshot_ReadsInOneTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock, prefixCipher{})
	customerID := uuid.New()

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery("SELECT .+ FROM customers ORDER BY created_at").
		WillReturnRows(pgxmock.NewRows(customerColumnNames()).
			AddRow(customerID, "Ana", "ana@example.com", "1", int64(350), time.Now().UTC()))
	mock.ExpectQuery("SELECT customer_id, COALESCE\\(SUM\\(amount_cents\\), 0\\) FROM deposits").
		WillReturnRows(pgxmock.NewRows([]string{"customer_id", "sum"}).AddRow(customerID, int64(350)))
	mock.ExpectCommit()

	err = store.WithinSnapshot(context.Background(), func(ctx context.Context, tx ports.Store) error {
		customers, err := tx.Customers().List(ctx)
		if err != nil {
			return err
		}
		sums, err := tx.Deposits().SumByCustomer(ctx)
		if err != nil {
			return err
		}
		assert.True(t, customers[0].Balance.Equal(sums[customerID]))
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinSnapshot_RollbackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock, prefixCipher{})
	boom := errors.New("boom")

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectRollback()

	err = store.WithinSnapshot(context.Background(), func(context.Context, ports.Store) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWrapErr(t *testing.T) {
	assert.ErrorIs(t, wrapErr("op", &pgconn.PgError{Code: "23505"}), ports.ErrDuplicateKey)
	assert.ErrorIs(t, wrapErr("op", &pgconn.PgError{Code: "40P01"}), ports.ErrTransient)

	plain := errors.New("syntax error")
	err := wrapErr("op", plain)
	assert.ErrorIs(t, err, plain)
	assert.NotErrorIs(t, err, ports.ErrTransient)
}
