package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Job is one scheduled unit of work: a stable id for circuit-breaker and
// idempotency bookkeeping, the seed bytes that make one run's idempotency
// key unique, a timeout, and the work itself.
type Job struct {
	ID       string
	Seeds    []byte
	Timeout  time.Duration
	MaxTries uint
	Run      func(ctx context.Context) ([]byte, error)
}

// Engine wires the breaker, watchdog, and recorder together exactly as
// ExecutionEngine.execute_job does: breaker check, idempotency check,
// watchdog-bounded retrying execution, then record the outcome.
type Engine struct {
	Breaker  *CircuitBreaker
	Watchdog *Watchdog
	Recorder *Recorder
	Clock    clockwork.Clock
	Log      *slog.Logger
}

func NewEngine(breaker *CircuitBreaker, watchdog *Watchdog, recorder *Recorder, clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{Breaker: breaker, Watchdog: watchdog, Recorder: recorder, Clock: clock, Log: slog.Default()}
}

// Execute runs job under every §4.7 safety mechanism and returns its
// payload on success. A skipped-as-already-done run and a circuit-breaker
// rejection both return (nil, nil) and (nil, ErrCircuitBreakerOpen)
// respectively, so callers can distinguish "nothing to do" from "failed."
func (e *Engine) Execute(ctx context.Context, job Job) ([]byte, error) {
	if !e.Breaker.CanExecute(job.ID) {
		return nil, fmt.Errorf("%w: job %s", ErrCircuitBreakerOpen, job.ID)
	}

	done, err := e.Recorder.AlreadyExecuted(ctx, job.ID, job.Seeds)
	if err != nil {
		return nil, err
	}
	if done {
		e.Log.Info("job already executed for this key, skipping", "job_id", job.ID)
		return nil, nil
	}

	maxTries := job.MaxTries
	if maxTries == 0 {
		maxTries = 3
	}

	var payload []byte
	runErr := e.Watchdog.Guard(ctx, job.Timeout, func(runCtx context.Context) error {
		var err error
		payload, err = Retry(runCtx, maxTries, func() ([]byte, error) { return job.Run(runCtx) })
		return err
	})

	if runErr != nil {
		e.Breaker.RecordFailure(job.ID)
		e.Log.Error("job execution failed", "job_id", job.ID, "err", runErr)
		return nil, runErr
	}

	e.Breaker.RecordSuccess(job.ID)
	if _, err := e.Recorder.Complete(ctx, job.ID, job.Seeds, payload, uint64(e.Clock.Now().UnixMilli())); err != nil {
		e.Log.Error("writing execution record failed", "job_id", job.ID, "err", err)
		return payload, err
	}
	return payload, nil
}
