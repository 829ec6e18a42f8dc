package service

import (
	"context"
	"sync"
	"testing"

	"change-aggregator/internal/adapter/storage/memory"
	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/internal/core/ports/mocks"
	"change-aggregator/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type dispositionTestDeps struct {
	svc      *DispositionServiceImpl
	txSvc    *TransactionServiceImpl
	store    *memory.Store
	current  *memory.CurrentTransactionStore
	events   *mocks.MockEventService
	metrics  *mocks.MockMetricsRecorder
	merchant *domain.Merchant
	ctrl     *gomock.Controller
}

func setupDispositionService(t *testing.T) *dispositionTestDeps {
	ctrl := gomock.NewController(t)
	d := &dispositionTestDeps{
		store:   memory.New(),
		current: memory.NewCurrentTransactionStore(),
		events:  mocks.NewMockEventService(ctrl),
		metrics: mocks.NewMockMetricsRecorder(ctrl),
		ctrl:    ctrl,
	}
	d.svc = NewDispositionService(d.store, d.current, memory.NewIdempotencyCache(), d.events, d.metrics, newTestLogger())
	d.txSvc = NewTransactionService(d.store, d.current, quietEvents(ctrl), newTestLogger())
	d.merchant = seedMerchant(t, d.store, domain.MerchantStatusApproved)
	return d
}

func (d *dispositionTestDeps) start(t *testing.T, amount, paid string) *domain.Transaction {
	t.Helper()
	txn, err := d.txSvc.Start(context.Background(), d.merchant.ID, amount, paid)
	require.NoError(t, err)
	return txn
}

func (d *dispositionTestDeps) request(disposition string) ports.DispositionRequest {
	return ports.DispositionRequest{
		MerchantID:  d.merchant.ID,
		Disposition: disposition,
		Actor:       domain.Actor{Role: domain.RoleMerchant, ID: d.merchant.ID.String()},
	}
}

func (d *dispositionTestDeps) expectSuccess(disposition string, cents int64) {
	d.metrics.EXPECT().Disposition(disposition, cents)
	d.events.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
}

func TestDispositionService_ReturnAndDonate(t *testing.T) {
	for _, disposition := range []string{"return", "donate"} {
		t.Run(disposition, func(t *testing.T) {
			d := setupDispositionService(t)
			defer d.ctrl.Finish()

			ctx := context.Background()
			txn := d.start(t, "850", "1000")
			d.expectSuccess(disposition, 15000)

			result, err := d.svc.Resolve(ctx, d.request(disposition))
			require.NoError(t, err)
			assert.Equal(t, domain.TransactionStatusCompleted, result.Transaction.Status)
			require.NotNil(t, result.Transaction.Disposition)
			assert.Equal(t, domain.Disposition(disposition), *result.Transaction.Disposition)
			assert.Nil(t, result.Deposit)
			assert.Nil(t, result.Payout)

			stored, _ := d.store.Transactions().GetByID(ctx, txn.ID)
			assert.Equal(t, domain.TransactionStatusCompleted, stored.Status)
			assert.NotNil(t, stored.CompletedAt)

			merchant, _ := d.store.Merchants().GetByID(ctx, d.merchant.ID)
			assert.Equal(t, int64(1), merchant.TotalTransactions)
			assert.Equal(t, "150.00", merchant.TotalChangeGenerated.StringFixed(2))

			slot, _ := d.current.Get(ctx, d.merchant.ID)
			assert.Equal(t, uuid.Nil, slot)
		})
	}
}

func TestDispositionService_Deposit_ExistingCustomer(t *testing.T) {
	d := setupDispositionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	customer := seedCustomer(t, d.store, "saver@mail.dz")
	txn := d.start(t, "850", "1000")

	d.metrics.EXPECT().Disposition("deposit", int64(15000))
	d.events.EXPECT().Emit(gomock.Any(), domain.EventChangeDisposed, gomock.Any())
	d.events.EXPECT().Emit(gomock.Any(), domain.EventDepositCreated, gomock.Any())

	req := d.request("deposit")
	req.Customer = &ports.CustomerRef{Email: "SAVER@mail.dz"}
	result, err := d.svc.Resolve(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "150.00", result.Customer.Balance.StringFixed(2))
	require.NotNil(t, result.Deposit)
	assert.Equal(t, customer.ID, result.Deposit.CustomerID)
	assert.Equal(t, txn.ID, *result.Deposit.TransactionID)
	require.NotNil(t, result.Transaction.CustomerID)
	assert.Equal(t, customer.ID, *result.Transaction.CustomerID)

	// Balance equals the deposit history.
	deposits, err := d.store.Deposits().ListByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	stored, _ := d.store.Customers().GetByID(ctx, customer.ID)
	assert.True(t, stored.Balance.Equal(domain.SumDeposits(deposits)))

	logs, _ := d.store.Audit().List(ctx, 10)
	actions := make([]domain.AuditAction, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.ElementsMatch(t, []domain.AuditAction{domain.AuditActionDeposit, domain.AuditActionDisposition}, actions)
}

func TestDispositionService_Deposit_ByID(t *testing.T) {
	d := setupDispositionService(t)
	defer d.ctrl.Finish()

	customer := seedCustomer(t, d.store, "saver@mail.dz")
	d.start(t, "0.10", "0.30")
	d.expectSuccess("deposit", 20)

	req := d.request("deposit")
	req.Customer = &ports.CustomerRef{ID: &customer.ID}
	result, err := d.svc.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "0.20", result.Customer.Balance.StringFixed(2))
}

func TestDispositionService_Deposit_NewCustomer(t *testing.T) {
	d := setupDispositionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.start(t, "40", "50")
	d.expectSuccess("deposit", 1000)

	req := d.request("deposit")
	req.Customer = &ports.CustomerRef{New: true, Name: "Yacine", Email: "Yacine@Mail.dz", Phone: "0770000000"}
	result, err := d.svc.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "yacine@mail.dz", result.Customer.Email)
	assert.Equal(t, "10.00", result.Customer.Balance.StringFixed(2))

	customers, _ := d.store.Customers().List(ctx)
	assert.Len(t, customers, 1)
}

func TestDispositionService_Deposit_FailuresLeaveTransactionPending(t *testing.T) {
	tests := []struct {
		name string
		ref  *ports.CustomerRef
		code string
	}{
		{"no customer", nil, "VAL_001"},
		{"empty reference", &ports.CustomerRef{}, "VAL_001"},
		{"unknown email", &ports.CustomerRef{Email: "ghost@mail.dz"}, "NF_001"},
		{"new with taken email", &ports.CustomerRef{New: true, Name: "X", Email: "taken@mail.dz", Phone: "1"}, "CON_001"},
		{"new with bad email", &ports.CustomerRef{New: true, Name: "X", Email: "nope", Phone: "1"}, "VAL_001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupDispositionService(t)
			defer d.ctrl.Finish()

			ctx := context.Background()
			taken := seedCustomer(t, d.store, "taken@mail.dz")
			txn := d.start(t, "5", "10")

			req := d.request("deposit")
			req.Customer = tt.ref
			_, err := d.svc.Resolve(ctx, req)
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)

			stored, _ := d.store.Transactions().GetByID(ctx, txn.ID)
			assert.True(t, stored.IsPending())
			slot, _ := d.current.Get(ctx, d.merchant.ID)
			assert.Equal(t, txn.ID, slot)

			customer, _ := d.store.Customers().GetByID(ctx, taken.ID)
			assert.True(t, customer.Balance.IsZero())
			logs, _ := d.store.Audit().List(ctx, 10)
			assert.Empty(t, logs)
		})
	}
}

func TestDispositionService_Payout(t *testing.T) {
	d := setupDispositionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := d.start(t, "850", "1000")
	d.metrics.EXPECT().Disposition("payout", int64(15000))
	d.events.EXPECT().Emit(gomock.Any(), domain.EventChangeDisposed, gomock.Any())
	d.events.EXPECT().Emit(gomock.Any(), domain.EventPayoutRequested, gomock.Any())

	req := d.request("payout")
	req.CCP = "0012345678 90"
	result, err := d.svc.Resolve(ctx, req)
	require.NoError(t, err)

	require.NotNil(t, result.Payout)
	assert.Equal(t, domain.PayoutStatusPending, result.Payout.Status)
	assert.True(t, result.Payout.Amount.Equal(txn.Change))
	assert.Equal(t, txn.ID, *result.Payout.TransactionID)
	assert.Equal(t, d.merchant.ID, *result.Payout.MerchantID)
	assert.Equal(t, result.Payout.ID, *result.Transaction.PayoutRequestID)

	pending := domain.PayoutStatusPending
	payouts, _ := d.store.Payouts().List(ctx, &pending)
	assert.Len(t, payouts, 1)
}

func TestDispositionService_Payout_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		paid   string
		ccp    string
		card   string
	}{
		{"missing destination", "5", "10", "", "  "},
		{"zero change", "10", "10", "0012345678", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupDispositionService(t)
			defer d.ctrl.Finish()

			ctx := context.Background()
			txn := d.start(t, tt.amount, tt.paid)
			req := d.request("payout")
			req.CCP, req.CardInfo = tt.ccp, tt.card

			_, err := d.svc.Resolve(ctx, req)
			assert.Equal(t, apperror.KindValidation, apperror.Kind(err))

			stored, _ := d.store.Transactions().GetByID(ctx, txn.ID)
			assert.True(t, stored.IsPending())
			payouts, _ := d.store.Payouts().List(ctx, nil)
			assert.Empty(t, payouts)
		})
	}
}

func TestDispositionService_InvalidRequests(t *testing.T) {
	d := setupDispositionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	_, err := d.svc.Resolve(ctx, d.request("keep"))
	assert.True(t, apperror.Is(err, "VAL_001"))

	_, err = d.svc.Resolve(ctx, d.request("return"))
	assert.True(t, apperror.Is(err, "NF_001"))
}

func TestDispositionService_AlreadyCompleted(t *testing.T) {
	d := setupDispositionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := d.start(t, "1", "2")
	d.expectSuccess("donate", 100)

	_, err := d.svc.Resolve(ctx, d.request("donate"))
	require.NoError(t, err)

	// Point the slot back at the completed transaction.
	require.NoError(t, d.current.Set(ctx, d.merchant.ID, txn.ID))
	_, err = d.svc.Resolve(ctx, d.request("return"))
	assert.Equal(t, apperror.KindInvalidState, apperror.Kind(err))

	merchant, _ := d.store.Merchants().GetByID(ctx, d.merchant.ID)
	assert.Equal(t, int64(1), merchant.TotalTransactions)
}

func TestDispositionService_IdempotentReplay(t *testing.T) {
	d := setupDispositionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	customer := seedCustomer(t, d.store, "saver@mail.dz")
	d.start(t, "7.50", "10")
	d.expectSuccess("deposit", 250)

	req := d.request("deposit")
	req.Customer = &ports.CustomerRef{ID: &customer.ID}
	req.IdempotencyKey = "retry-1"

	first, err := d.svc.Resolve(ctx, req)
	require.NoError(t, err)
	second, err := d.svc.Resolve(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)
	assert.Equal(t, first.Deposit.ID, second.Deposit.ID)

	stored, _ := d.store.Customers().GetByID(ctx, customer.ID)
	assert.Equal(t, "2.50", stored.Balance.StringFixed(2))
}

// flakyLedger fails the first unit of work with a transient error.
type flakyLedger struct {
	ports.Ledger
	mu       sync.Mutex
	failures int
}

func (l *flakyLedger) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	l.mu.Lock()
	if l.failures > 0 {
		l.failures--
		l.mu.Unlock()
		return ports.ErrTransient
	}
	l.mu.Unlock()
	return l.Ledger.WithinTx(ctx, fn)
}

func TestDispositionService_RetriesTransientFailure(t *testing.T) {
	d := setupDispositionService(t)
	defer d.ctrl.Finish()

	ledger := &flakyLedger{Ledger: d.store, failures: 2}
	svc := NewDispositionService(ledger, d.current, memory.NewIdempotencyCache(), d.events, d.metrics, newTestLogger())

	d.start(t, "1", "3")
	d.expectSuccess("return", 200)

	result, err := svc.Resolve(context.Background(), d.request("return"))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, result.Transaction.Status)
	assert.Zero(t, ledger.failures)
}

func TestDispositionService_ConcurrentResolveCreditsOnce(t *testing.T) {
	d := setupDispositionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	customer := seedCustomer(t, d.store, "saver@mail.dz")
	d.start(t, "5", "10")
	d.expectSuccess("deposit", 500)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := d.request("deposit")
			req.Customer = &ports.CustomerRef{ID: &customer.ID}
			if _, err := d.svc.Resolve(ctx, req); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	stored, _ := d.store.Customers().GetByID(ctx, customer.ID)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(5)))
}
