package scheduler

import "errors"

var (
	ErrTimeout            = errors.New("scheduler: job timed out")
	ErrCircuitBreakerOpen = errors.New("scheduler: circuit breaker open")
)
