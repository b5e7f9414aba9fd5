package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/stretchr/testify/require"
)

func newTestEngine() (*Engine, *CircuitBreaker, clockwork.FakeClock) {
	programID := solana.NewWallet().PublicKey()
	l := ledger.New(programID)
	clock := clockwork.NewFakeClock()
	breaker := NewCircuitBreaker(clock)
	watchdog := NewWatchdog(time.Second)
	recorder := NewRecorder(programID, l)
	return NewEngine(breaker, watchdog, recorder, clock), breaker, clock
}

func TestEngineExecuteSucceedsAndRecords(t *testing.T) {
	e, _, _ := newTestEngine()
	calls := 0
	job := Job{
		ID:      "job-1",
		Seeds:   []byte("seed"),
		Timeout: time.Second,
		Run: func(ctx context.Context) ([]byte, error) {
			calls++
			return []byte("ok"), nil
		},
	}

	out, err := e.Execute(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, []byte("ok"), out)
	require.Equal(t, 1, calls)

	out, err = e.Execute(context.Background(), job)
	require.NoError(t, err)
	require.Nil(t, out)
	require.Equal(t, 1, calls, "second run should be skipped as already executed")
}

func TestEngineExecuteRetriesThenFails(t *testing.T) {
	e, breaker, _ := newTestEngine()
	sentinel := errors.New("boom")
	job := Job{
		ID:       "job-2",
		Seeds:    []byte("seed"),
		Timeout:  time.Second,
		MaxTries: 2,
		Run: func(ctx context.Context) ([]byte, error) {
			return nil, sentinel
		},
	}

	_, err := e.Execute(context.Background(), job)
	require.Error(t, err)
	require.Equal(t, 1, breaker.entry("job-2").consecutiveFailures)
}

func TestEngineExecuteRejectedWhenBreakerOpen(t *testing.T) {
	e, breaker, _ := newTestEngine()
	for i := 0; i < maxConsecutiveFailures; i++ {
		breaker.RecordFailure("job-3")
	}

	job := Job{
		ID:      "job-3",
		Seeds:   []byte("seed"),
		Timeout: time.Second,
		Run: func(ctx context.Context) ([]byte, error) {
			t.Fatal("job should not run while breaker is open")
			return nil, nil
		},
	}

	_, err := e.Execute(context.Background(), job)
	require.ErrorIs(t, err, ErrCircuitBreakerOpen)
}
