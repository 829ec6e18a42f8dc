package postgres

import (
	"context"
	"fmt"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether the ledger database answers queries.
type HealthCheck struct {
	db DBTX
}

func NewHealthCheck(db DBTX) *HealthCheck {
	return &HealthCheck{db: db}
}

// Ping runs a trivial query bounded by healthTimeout.
func (h *HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	var one int
	if err := h.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

func (h *HealthCheck) Name() string { return "postgresql" }
