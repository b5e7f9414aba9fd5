package scheduler

import (
	"context"

	"github.com/cenkalti/backoff/v5"
)

// Retry runs fn with jittered exponential backoff up to maxTries attempts,
// the same shape execute_with_retry gives every job execution in
// execution.rs (there, backon's ExponentialBuilder; here, the equivalent
// cenkalti/backoff/v5 already adopted for ledger submissions elsewhere in
// this module).
func Retry[T any](ctx context.Context, maxTries uint, fn func() (T, error)) (T, error) {
	return backoff.Retry(ctx, fn,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxTries))
}
