package gateway

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Cooldown spaces live upstream calls at least interval apart. Callers
// block until their slot; calls are never dropped.
type Cooldown struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewCooldown returns a limiter with burst 1. A non-positive interval disables it.
func NewCooldown(interval time.Duration) *Cooldown {
	if interval <= 0 {
		return &Cooldown{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Cooldown{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Wait blocks until the next live call may be issued.
func (c *Cooldown) Wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

func (c *Cooldown) Interval() time.Duration { return c.interval }
