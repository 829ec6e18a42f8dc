package redis

import (
	"context"
	"fmt"
	"time"

	"change-aggregator/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:"

// fixedWindow increments the window counter and, on the first hit, sets its
// expiry in the same atomic step.
var fixedWindow = goredis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RateLimitStore implements ports.RateLimitStore with fixed-window counters
// shared by every API instance.
type RateLimitStore struct {
	client goredis.Scripter
	now    func() time.Time
}

func NewRateLimitStore(client goredis.Scripter) *RateLimitStore {
	return &RateLimitStore{client: client, now: time.Now}
}

// Allow counts one request against key. Each window has its own counter key,
// so the next window starts from zero.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*ports.RateLimitResult, error) {
	secs := max(int64(window/time.Second), 1)
	windowID := s.now().Unix() / secs
	counterKey := fmt.Sprintf("%s%s:%d", rateLimitPrefix, key, windowID)
	ttl := time.Duration(secs)*time.Second + time.Second

	count, err := fixedWindow.Run(ctx, s.client, []string{counterKey}, ttl.Milliseconds()).Int64()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return &ports.RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   (windowID + 1) * secs,
	}, nil
}
