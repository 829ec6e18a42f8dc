package redis

import (
	"context"
	"fmt"
	"time"

	"change-aggregator/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const connectBackoff = 500 * time.Millisecond

// NewClient builds a client from cfg and pings it, retrying up to
// cfg.ConnectAttempts times so the API can start alongside Redis.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	attempts := max(cfg.ConnectAttempts, 1)
	var err error
	for attempt := 1; ; attempt++ {
		err = client.Ping(ctx).Err()
		if err == nil || attempt >= attempts {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Str("addr", cfg.Addr()).Msg("redis not reachable yet")
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(time.Duration(attempt) * connectBackoff):
			continue
		}
		break
	}
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr(), err)
	}

	log.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("Redis connection established")

	return client, nil
}
