package ratelimit

import (
	"context"
	"time"
)

// Pacer spaces out successive requests to a rate-limited host
type Pacer interface {
	// Wait blocks for the prescribed pacing delay
	Wait(ctx context.Context) error
}

// FixedDelay is a pacer that waits a constant interval on every call.
// The upstream media host throttles per-request, so a fixed courtesy
// wait between downloads is all the coordination a single-threaded run
// needs.
type FixedDelay struct {
	delay time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFixedDelay creates a fixed-interval pacer
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{
		delay: delay,
		sleep: sleepFor,
	}
}

// Wait blocks for the fixed delay or until the context is cancelled
func (f *FixedDelay) Wait(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	return f.sleep(ctx, f.delay)
}

func sleepFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
