package motion

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Waiter pauses between commands. Wait returns early with the context's
// error when ctx is cancelled.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// ClockWaiter waits on a clock.Clock so tests can substitute a mock.
type ClockWaiter struct {
	Clock clock.Clock
}

// NewWaiter returns a Waiter backed by the wall clock.
func NewWaiter() ClockWaiter {
	return ClockWaiter{Clock: clock.New()}
}

// Wait blocks for d or until ctx is done.
func (w ClockWaiter) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	c := w.Clock
	if c == nil {
		c = clock.New()
	}
	t := c.Timer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
