package middleware

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	limiters sync.Map // map[string]*rate.Limiter
	rejected prometheus.Counter
	skip     map[string]struct{}
}

// NewRateLimiter allows rps requests per second per client with the given burst.
// rejected may be nil. Probe and metrics paths are never limited.
func NewRateLimiter(rps float64, burst int, rejected prometheus.Counter) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		rejected: rejected,
		skip: map[string]struct{}{
			"/health":  {},
			"/healthz": {},
			"/metrics": {},
		},
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := rl.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rps, rl.burst))
	return v.(*rate.Limiter)
}

// Handler rejects requests over the limit with 429 and a Retry-After header.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.rps <= 0 {
			return c.Next()
		}
		if _, ok := rl.skip[c.Path()]; ok {
			return c.Next()
		}

		ip := c.IP()
		if ip == "" {
			ip = "unknown"
		}
		if !rl.limiter("ip:" + ip).Allow() {
			if rl.rejected != nil {
				rl.rejected.Inc()
			}
			c.Set(fiber.HeaderRetryAfter, "1")
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
