package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const pingBudget = 2 * time.Second

// HealthCheck pings the server backing sessions, idempotency and rate limits.
type HealthCheck struct {
	client goredis.Cmdable
}

func NewHealthCheck(client goredis.Cmdable) *HealthCheck {
	return &HealthCheck{client: client}
}

func (*HealthCheck) Name() string { return "redis" }

// Ping keeps the caller's deadline when it is tighter than pingBudget.
func (h *HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingBudget)
	defer cancel()

	pong, err := h.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	if pong != "PONG" {
		return fmt.Errorf("ping redis: unexpected reply %q", pong)
	}
	return nil
}
