package ctxtime

import (
	"context"
	"time"
)

// Sleep pauses for d or until ctx is done, whichever happens first. It
// returns ctx.Err() if the sleep was cut short.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
