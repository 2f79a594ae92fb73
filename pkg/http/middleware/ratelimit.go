package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// KeyLimiter keeps one token bucket per key.
type KeyLimiter struct {
	mu      sync.Mutex
	buckets map[string]*keyBucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

type keyBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewKeyLimiter allows perSecond requests per key with the given burst.
// Buckets idle for longer than ten minutes are dropped on the next sweep.
func NewKeyLimiter(perSecond float64, burst int) *KeyLimiter {
	if burst < 1 {
		burst = 1
	}
	return &KeyLimiter{
		buckets: make(map[string]*keyBucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    10 * time.Minute,
		now:     time.Now,
	}
}

// Allow consumes one token for key.
func (l *KeyLimiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) > 4096 {
			l.sweep(now)
		}
		b = &keyBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

func (l *KeyLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.idle {
			delete(l.buckets, k)
		}
	}
}

// RateLimit rejects requests over the per-client budget with 429.
func RateLimit(l *KeyLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l.Allow(c.RealIP()) {
				return next(c)
			}
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"status":  http.StatusTooManyRequests,
				"message": http.StatusText(http.StatusTooManyRequests),
			})
		}
	}
}
