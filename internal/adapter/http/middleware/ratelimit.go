package middleware

import (
	"strconv"
	"time"

	"change-aggregator/internal/adapter/metrics"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/apperror"
	"change-aggregator/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitGroup names a set of routes that share one counter per caller.
type RateLimitGroup string

const (
	GroupLogin            RateLimitGroup = "login"
	GroupSignup           RateLimitGroup = "signup"
	GroupCustomerRegister RateLimitGroup = "customer_register"
	GroupTransactions     RateLimitGroup = "transactions"
	GroupPayouts          RateLimitGroup = "payouts"
)

type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// RateLimitPolicy assigns a rule to each group. Groups without a rule are not limited.
type RateLimitPolicy map[RateLimitGroup]RateLimitRule

// DefaultRateLimitPolicy keeps signups and logins tight and lets a busy till
// start a transaction every half second.
func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{
		GroupLogin:            {Limit: 10, Window: time.Minute},
		GroupSignup:           {Limit: 5, Window: time.Hour},
		GroupCustomerRegister: {Limit: 20, Window: time.Minute},
		GroupTransactions:     {Limit: 120, Window: time.Minute},
		GroupPayouts:          {Limit: 30, Window: time.Minute},
	}
}

// RateLimits binds a store and policy and returns a per-group middleware
// factory. With a nil store every group passes through.
func RateLimits(store ports.RateLimitStore, policy RateLimitPolicy, log zerolog.Logger) func(RateLimitGroup) gin.HandlerFunc {
	return func(group RateLimitGroup) gin.HandlerFunc {
		rule, ok := policy[group]
		if store == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return RateLimiter(store, group, rule, log)
	}
}

// RateLimiter counts each request against the caller's counter for group.
// When the store is unreachable the request is let through.
func RateLimiter(store ports.RateLimitStore, group RateLimitGroup, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := string(group) + ":" + rateLimitIdentity(c)

		res, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", string(group)).Msg("Rate limit store unavailable, request not limited")
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt, 10))

		if res.Allowed {
			c.Next()
			return
		}

		h.Set("Retry-After", strconv.FormatInt(max(res.ResetAt-time.Now().Unix(), 1), 10))
		metrics.RateLimited(string(group))
		response.Error(c, apperror.ErrRateLimitExceeded())
		c.Abort()
	}
}

// rateLimitIdentity is the token subject for authenticated callers and the
// client IP otherwise. The prefixes keep the two namespaces apart.
func rateLimitIdentity(c *gin.Context) string {
	if sub := c.GetString(CtxSubject); sub != "" {
		return "sub:" + sub
	}
	return "ip:" + c.ClientIP()
}
