// Package memory is the process-local Ledger Store. State lives in maps guarded
// by one RWMutex and is lost on restart.
package memory

import (
	"context"
	"errors"
	"sync"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/google/uuid"
)

type state struct {
	customers     map[uuid.UUID]domain.Customer
	customerOrder []uuid.UUID
	merchants     map[uuid.UUID]domain.Merchant
	merchantOrder []uuid.UUID
	transactions  map[uuid.UUID]domain.Transaction
	txOrder       []uuid.UUID
	payouts       map[uuid.UUID]domain.PayoutRequest
	payoutOrder   []uuid.UUID
	deposits      []domain.Deposit
	audit         []domain.AuditLog
}

func newState() *state {
	return &state{
		customers:    make(map[uuid.UUID]domain.Customer),
		merchants:    make(map[uuid.UUID]domain.Merchant),
		transactions: make(map[uuid.UUID]domain.Transaction),
		payouts:      make(map[uuid.UUID]domain.PayoutRequest),
	}
}

// clone copies every collection so a failed unit of work can be rolled back.
func (s *state) clone() *state {
	c := &state{
		customers:     make(map[uuid.UUID]domain.Customer, len(s.customers)),
		customerOrder: append([]uuid.UUID(nil), s.customerOrder...),
		merchants:     make(map[uuid.UUID]domain.Merchant, len(s.merchants)),
		merchantOrder: append([]uuid.UUID(nil), s.merchantOrder...),
		transactions:  make(map[uuid.UUID]domain.Transaction, len(s.transactions)),
		txOrder:       append([]uuid.UUID(nil), s.txOrder...),
		payouts:       make(map[uuid.UUID]domain.PayoutRequest, len(s.payouts)),
		payoutOrder:   append([]uuid.UUID(nil), s.payoutOrder...),
		deposits:      append([]domain.Deposit(nil), s.deposits...),
		audit:         append([]domain.AuditLog(nil), s.audit...),
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.merchants {
		c.merchants[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.payouts {
		c.payouts[k] = v
	}
	return c
}

var errReadOnly = errors.New("write through a read-only snapshot")

// Store implements ports.Store and ports.UnitOfWork in memory.
type Store struct {
	mu   sync.RWMutex
	st   *state
	live *view
}

// New creates an empty store.
func New() *Store {
	s := &Store{st: newState()}
	s.live = &view{store: s}
	return s
}

// WithinTx runs fn while holding the write lock. Every read and write made
// through tx observes one consistent state; on error the state is restored.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(ctx, &view{store: s, locked: true}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// WithinSnapshot runs fn under the read lock, so no unit of work can commit
// between its reads. Writes through tx return errReadOnly.
func (s *Store) WithinSnapshot(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &view{store: s, locked: true, readOnly: true})
}

func (s *Store) Customers() ports.CustomerRepository       { return s.live.Customers() }
func (s *Store) Merchants() ports.MerchantRepository       { return s.live.Merchants() }
func (s *Store) Transactions() ports.TransactionRepository { return s.live.Transactions() }
func (s *Store) Deposits() ports.DepositRepository         { return s.live.Deposits() }
func (s *Store) Payouts() ports.PayoutRepository           { return s.live.Payouts() }
func (s *Store) Audit() ports.AuditRepository              { return s.live.Audit() }

// view binds repositories to the store. Inside WithinTx the lock is already
// held, so locked views skip locking.
type view struct {
	store    *Store
	locked   bool
	readOnly bool
}

func (v *view) read(fn func(st *state)) {
	if !v.locked {
		v.store.mu.RLock()
		defer v.store.mu.RUnlock()
	}
	fn(v.store.st)
}

func (v *view) write(fn func(st *state) error) error {
	if v.readOnly {
		return errReadOnly
	}
	if !v.locked {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	return fn(v.store.st)
}

func (v *view) Customers() ports.CustomerRepository       { return &customerRepo{v} }
func (v *view) Merchants() ports.MerchantRepository       { return &merchantRepo{v} }
func (v *view) Transactions() ports.TransactionRepository { return &transactionRepo{v} }
func (v *view) Deposits() ports.DepositRepository         { return &depositRepo{v} }
func (v *view) Payouts() ports.PayoutRepository           { return &payoutRepo{v} }
func (v *view) Audit() ports.AuditRepository              { return &auditRepo{v} }

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, x := range ids {
		if x == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
