package crawler

import (
	"context"
	"math/rand/v2"
	"time"
)

// Throttle spaces out requests
type Throttle interface {
	// Wait blocks for base plus a random duration in [0, jitter), or until
	// ctx is done
	Wait(ctx context.Context, base, jitter time.Duration) error
}

// SleepThrottle waits on a timer
type SleepThrottle struct{}

func (SleepThrottle) Wait(ctx context.Context, base, jitter time.Duration) error {
	delay := base
	if jitter > 0 {
		delay += time.Duration(rand.Int64N(int64(jitter)))
	}
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
