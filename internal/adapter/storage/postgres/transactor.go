package postgres

import (
	"context"

	"change-aggregator/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// Store implements ports.Store and ports.UnitOfWork on PostgreSQL.
// The root store queries through the pool; the store handed to WithinTx
// callbacks queries through the open transaction.
type Store struct {
	pool Pool
	db   DBTX
	enc  ports.EncryptionService
}

// NewStore creates a Store. enc protects payout destinations at rest.
func NewStore(pool Pool, enc ports.EncryptionService) *Store {
	return &Store{pool: pool, db: pool, enc: enc}
}

// WithinTx runs fn inside BEGIN/COMMIT. The transaction is rolled back if fn
// fails or the commit does not go through.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, &Store{pool: s.pool, db: dbTx, enc: s.enc}); err != nil {
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return wrapErr("commit tx", err)
	}
	return nil
}

// snapshotTx sees one database snapshot for every statement and refuses writes.
var snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// WithinSnapshot runs fn in a read-only REPEATABLE READ transaction.
func (s *Store) WithinSnapshot(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	dbTx, err := s.pool.BeginTx(ctx, snapshotTx)
	if err != nil {
		return wrapErr("begin snapshot", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, &Store{pool: s.pool, db: dbTx, enc: s.enc}); err != nil {
		return err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return wrapErr("end snapshot", err)
	}
	return nil
}

func (s *Store) Customers() ports.CustomerRepository       { return NewCustomerRepo(s.db) }
func (s *Store) Merchants() ports.MerchantRepository       { return NewMerchantRepo(s.db) }
func (s *Store) Transactions() ports.TransactionRepository { return NewTransactionRepo(s.db) }
func (s *Store) Deposits() ports.DepositRepository         { return NewDepositRepo(s.db) }
func (s *Store) Payouts() ports.PayoutRepository           { return NewPayoutRepo(s.db, s.enc) }
func (s *Store) Audit() ports.AuditRepository              { return NewAuditRepo(s.db) }
