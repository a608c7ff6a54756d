package tracker

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCooldown is the minimum delay between two calls to the exchange.
// Kraken's public tier tolerates roughly one call every two seconds.
const DefaultCooldown = 2 * time.Second

// Throttle enforces a minimum interval between upstream calls. It is a
// sequential throttling contract, not a concurrency primitive: callers Wait
// before every network call and the first call goes through immediately.
//
// A nil or zero Throttle never blocks, which keeps tests free of wall-clock
// delays.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle returns a throttle with the given minimum interval between
// calls. A non-positive interval disables throttling.
func NewThrottle(minInterval time.Duration) *Throttle {
	if minInterval <= 0 {
		return &Throttle{}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Wait blocks until the next call is allowed or the context is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}
