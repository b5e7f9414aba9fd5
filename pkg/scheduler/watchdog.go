package scheduler

import (
	"context"
	"time"
)

// Watchdog bounds how long a single job dispatch may run. It has no
// registry of its own beyond the one in-flight context it hands back — the
// original's per-job abort-handle map is unnecessary here since Go's
// context.WithTimeout already gives each call its own cancellation tree.
type Watchdog struct {
	defaultTimeout time.Duration
}

func NewWatchdog(defaultTimeout time.Duration) *Watchdog {
	if defaultTimeout <= 0 {
		defaultTimeout = 60 * time.Second
	}
	return &Watchdog{defaultTimeout: defaultTimeout}
}

// Guard runs fn under a deadline of timeout (or the watchdog's default if
// zero), converting a deadline overrun into ErrTimeout the same way
// execute_job's tokio::time::timeout branch does.
func (w *Watchdog) Guard(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		timeout = w.defaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(runCtx) }()

	select {
	case err := <-done:
		return err
	case <-runCtx.Done():
		return ErrTimeout
	}
}
