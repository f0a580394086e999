// Package clock provides context-aware time helpers.
package clock

import (
	"context"
	"time"
)

// SleepWithContext blocks for d, returning the context error early if ctx
// ends first.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
