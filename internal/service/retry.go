package service

import (
	"context"
	"errors"
	"time"

	"change-aggregator/internal/core/ports"

	"github.com/rs/zerolog"
)

// transientRetryIntervals are the waits between attempts of a unit of work
// that failed with ports.ErrTransient.
var transientRetryIntervals = []time.Duration{
	25 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
}

// withTransientRetry runs fn and retries it while it fails with a transient
// storage error. Other errors are returned as is.
func withTransientRetry(ctx context.Context, log zerolog.Logger, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= len(transientRetryIntervals); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(transientRetryIntervals[attempt-1]):
			}
		}

		err = fn()
		if err == nil || !errors.Is(err, ports.ErrTransient) {
			return err
		}
		log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("transient storage failure, retrying")
	}
	log.Error().Err(err).Str("op", op).Msg("retry attempts exhausted")
	return err
}
