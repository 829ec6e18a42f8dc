package ports

import "context"

// HealthChecker is a backing service listed by the health endpoint.
type HealthChecker interface {
	Name() string
	// Ping returns nil when the service answered.
	Ping(ctx context.Context) error
}
