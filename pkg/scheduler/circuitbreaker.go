// Package scheduler implements the activator's job-safety primitives (C7):
// per-job circuit breakers, a dispatch watchdog, idempotent execution
// records, and jittered retry — grounded on doublezero-scheduler's
// safety/circuit_breaker.rs and execution.rs in original_source.
package scheduler

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	maxConsecutiveFailures = 5
	cooldown               = 10 * time.Minute
)

// BreakerStatus is one of a circuit breaker's three states.
type BreakerStatus uint8

const (
	BreakerClosed BreakerStatus = iota
	BreakerOpen
	BreakerHalfOpen
)

type breakerState struct {
	consecutiveFailures int
	status              BreakerStatus
	openUntil           time.Time
}

// CircuitBreaker holds one state machine per job_id: five consecutive
// failures move Closed→Open with a ten-minute cooldown; a failure in
// HalfOpen re-opens; a success in HalfOpen closes (§4.7).
type CircuitBreaker struct {
	mu     sync.Mutex
	states map[string]*breakerState
	clock  clockwork.Clock
}

func NewCircuitBreaker(clock clockwork.Clock) *CircuitBreaker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CircuitBreaker{states: make(map[string]*breakerState), clock: clock}
}

func (b *CircuitBreaker) entry(jobID string) *breakerState {
	s, ok := b.states[jobID]
	if !ok {
		s = &breakerState{}
		b.states[jobID] = s
	}
	return s
}

// CanExecute reports whether jobID's breaker currently allows a run,
// transitioning Open→HalfOpen in place once the cooldown has elapsed.
func (b *CircuitBreaker) CanExecute(jobID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.entry(jobID)
	switch s.status {
	case BreakerClosed, BreakerHalfOpen:
		return true
	case BreakerOpen:
		if !b.clock.Now().Before(s.openUntil) {
			s.status = BreakerHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess clears a job's failure count and closes its breaker.
func (b *CircuitBreaker) RecordSuccess(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.entry(jobID)
	s.consecutiveFailures = 0
	s.status = BreakerClosed
}

// RecordFailure advances a job's failure count, opening the breaker on a
// HalfOpen probe failure or once consecutiveFailures reaches the threshold.
func (b *CircuitBreaker) RecordFailure(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.entry(jobID)
	s.consecutiveFailures++

	if s.status == BreakerHalfOpen {
		s.status = BreakerOpen
		s.openUntil = b.clock.Now().Add(cooldown)
		return
	}
	if s.consecutiveFailures >= maxConsecutiveFailures {
		s.status = BreakerOpen
		s.openUntil = b.clock.Now().Add(cooldown)
	}
}

// Status returns jobID's current breaker state without mutating it.
func (b *CircuitBreaker) Status(jobID string) BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.states[jobID]; ok {
		return s.status
	}
	return BreakerClosed
}

// Reset clears jobID's breaker entirely, for manual operator intervention.
func (b *CircuitBreaker) Reset(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.states, jobID)
}
