package ratelimit

import (
	"context"
	"time"
)

// Gate bounds in-flight provider requests and smooths their rate. A caller
// holds a permit for the whole request plus a fixed cool-down, so the
// provider never sees more than the cap concurrently and consecutive
// requests on one permit are spaced by at least the cool-down, success or
// failure alike. Each run owns its own Gate; it is never package-global.
type Gate struct {
	permits  chan struct{}
	coolDown time.Duration
}

// NewGate creates a gate with the given concurrency cap and per-request
// cool-down. Caps below 1 fall back to 1.
func NewGate(capacity int, coolDown time.Duration) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{
		permits:  make(chan struct{}, capacity),
		coolDown: coolDown,
	}
}

// Cap returns the concurrency cap.
func (g *Gate) Cap() int { return cap(g.permits) }

// Acquire blocks until a permit is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.permits <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release waits out the cool-down and then returns the permit. Cancellation
// skips the remaining cool-down so shutdown is not held up.
func (g *Gate) Release(ctx context.Context) {
	if g.coolDown > 0 {
		t := time.NewTimer(g.coolDown)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	<-g.permits
}

// Do runs fn under a permit. The permit is held through the cool-down, so Do
// does not return until the gate would admit a follow-up request.
func (g *Gate) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release(ctx)
	return fn(ctx)
}
