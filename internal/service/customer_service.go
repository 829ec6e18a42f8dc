package service

import (
	"context"
	"time"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const summaryWindow = 30 * 24 * time.Hour

// CustomerServiceImpl implements ports.CustomerService.
type CustomerServiceImpl struct {
	ledger ports.Ledger
	events ports.EventService
	log    zerolog.Logger
}

// NewCustomerService creates a new CustomerServiceImpl.
func NewCustomerService(ledger ports.Ledger, events ports.EventService, log zerolog.Logger) *CustomerServiceImpl {
	return &CustomerServiceImpl{ledger: ledger, events: events, log: log}
}

// Register creates a zero-balance customer. Emails are unique regardless of case.
func (s *CustomerServiceImpl) Register(ctx context.Context, actor domain.Actor, req ports.RegisterCustomerRequest) (*domain.Customer, error) {
	customer, err := domain.NewCustomer(req.Name, req.Email, req.Phone, nowUTC())
	if err != nil {
		return nil, domainErr(err)
	}

	err = s.ledger.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		existing, err := tx.Customers().GetByEmail(ctx, customer.Email)
		if err != nil {
			return storeErr("get customer by email", err)
		}
		if existing != nil {
			return apperror.ErrEmailExists()
		}
		if err := tx.Customers().Create(ctx, customer); err != nil {
			return storeErr("create customer", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("customer_id", customer.ID.String()).
		Str("actor_role", string(actor.Role)).
		Msg("customer registered")
	return customer, nil
}

func (s *CustomerServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.ledger.Customers().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get customer", err)
	}
	if customer == nil {
		return nil, apperror.ErrNotFound("Customer")
	}
	return customer, nil
}

func (s *CustomerServiceImpl) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	customer, err := s.ledger.Customers().GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, storeErr("get customer by email", err)
	}
	if customer == nil {
		return nil, apperror.ErrNotFound("Customer")
	}
	return customer, nil
}

func (s *CustomerServiceImpl) List(ctx context.Context) ([]domain.Customer, error) {
	customers, err := s.ledger.Customers().List(ctx)
	if err != nil {
		return nil, storeErr("list customers", err)
	}
	return customers, nil
}

// CreditBalance records an admin credit as a manual deposit and increments the
// balance in the same unit of work, so the balance keeps matching the history.
func (s *CustomerServiceImpl) CreditBalance(ctx context.Context, actor domain.Actor, id uuid.UUID, amount string) (*domain.Customer, error) {
	credit, err := domain.ParseAmount(amount)
	if err != nil {
		return nil, apperror.ErrInvalidNumber()
	}
	if !credit.IsPositive() {
		return nil, apperror.Validation("amount must be greater than zero")
	}

	var (
		updated *domain.Customer
		deposit *domain.Deposit
	)
	err = withTransientRetry(ctx, s.log, "credit balance", func() error {
		return s.ledger.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
			customer, err := tx.Customers().GetByID(ctx, id)
			if err != nil {
				return storeErr("get customer", err)
			}
			if customer == nil {
				return apperror.ErrNotFound("Customer")
			}

			deposit = domain.NewManualDeposit(id, credit, nowUTC())
			if err := tx.Deposits().Create(ctx, deposit); err != nil {
				return storeErr("create deposit", err)
			}
			updated, err = tx.Customers().AddBalance(ctx, id, credit)
			if err != nil {
				if isNotFound(err) {
					return apperror.ErrNotFound("Customer")
				}
				return storeErr("add balance", err)
			}
			if err := recordAudit(ctx, tx, actor, domain.AuditActionBalanceCredit, "customer", id.String(),
				map[string]string{"amount": credit.StringFixed(domain.AmountScale), "deposit_id": deposit.ID.String()}); err != nil {
				return storeErr("audit balance credit", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("customer_id", id.String()).
		Str("amount", credit.StringFixed(domain.AmountScale)).
		Str("balance", updated.Balance.StringFixed(domain.AmountScale)).
		Str("actor", actor.ID).
		Msg("balance credited")
	s.events.Emit(ctx, domain.EventDepositCreated, deposit)

	return updated, nil
}

// Delete removes the customer. Their deposits stay in the history.
func (s *CustomerServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		if err := tx.Customers().Delete(ctx, id); err != nil {
			if isNotFound(err) {
				return apperror.ErrNotFound("Customer")
			}
			return storeErr("delete customer", err)
		}
		if err := recordAudit(ctx, tx, actor, domain.AuditActionCustomerDelete, "customer", id.String(), nil); err != nil {
			return storeErr("audit customer delete", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("customer_id", id.String()).Str("actor", actor.ID).Msg("customer deleted")
	return nil
}

// Summary builds the customer dashboard overview.
func (s *CustomerServiceImpl) Summary(ctx context.Context, id uuid.UUID) (*domain.CustomerSummary, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	deposits, err := s.ledger.Deposits().ListByCustomer(ctx, id)
	if err != nil {
		return nil, storeErr("list deposits", err)
	}

	since := nowUTC().Add(-summaryWindow)
	recent := decimal.Zero
	for _, d := range deposits {
		if d.CreatedAt.After(since) {
			recent = recent.Add(d.Amount)
		}
	}

	return &domain.CustomerSummary{
		Customer:     customer,
		TotalSaved:   domain.SumDeposits(deposits),
		SavedLast30d: recent,
		DepositCount: len(deposits),
	}, nil
}

// Deposits returns the customer's deposit history, newest first.
func (s *CustomerServiceImpl) Deposits(ctx context.Context, id uuid.UUID) ([]domain.Deposit, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	deposits, err := s.ledger.Deposits().ListByCustomer(ctx, id)
	if err != nil {
		return nil, storeErr("list deposits", err)
	}
	return deposits, nil
}
