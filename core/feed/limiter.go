package feed

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum spacing between consecutive requests to one
// provider. It is an explicit per-provider object: two providers in the same
// process each own their limiter and never contaminate each other's pacing.
type Limiter struct {
	mu      sync.Mutex
	last    time.Time
	spacing time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter with the given minimum inter-call spacing.
func NewLimiter(spacing time.Duration) *Limiter {
	return &Limiter{
		spacing: spacing,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Wait blocks until the minimum spacing since the last marked request has
// elapsed. The first request never waits.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	last := l.last
	l.mu.Unlock()

	if last.IsZero() {
		return nil
	}
	elapsed := l.now().Sub(last)
	if elapsed >= l.spacing {
		return nil
	}
	return l.sleep(ctx, l.spacing-elapsed)
}

// Mark records the completion time of a request. Retries included, the clock
// restarts when the attempt finishes, not when it starts.
func (l *Limiter) Mark() {
	l.mu.Lock()
	l.last = l.now()
	l.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
