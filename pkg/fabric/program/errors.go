// Package program implements the serviceability state machine (C4): one
// handler per command, each following the same skeleton described in
// SPEC_FULL.md §4.4 — authorize, validate, deserialize referenced accounts,
// apply the state change, write back. Handlers run as ledger.Handler
// closures so every one of them gets the ledger's single-writer
// serialization for free.
package program

import "errors"

// Sentinel errors matching the error taxonomy.
var (
	ErrInvalidAccountType        = errors.New("invalid account type")
	ErrInvalidOwner              = errors.New("invalid owner")
	ErrNotAllowed                = errors.New("not allowed")
	ErrUnauthorized              = errors.New("unauthorized")
	ErrInvalidAccountCode        = errors.New("invalid account code")
	ErrInvalidInterfaceName      = errors.New("invalid interface name")
	ErrInvalidIPAddress          = errors.New("invalid ip address")
	ErrInvalidPublicIP           = errors.New("invalid public ip")
	ErrAccountAlreadyInitialized = errors.New("account already initialized")
	ErrAccountDoesNotExist       = errors.New("account does not exist")
	ErrReferenceCountNotZero     = errors.New("reference count not zero")
	ErrMaxUsersExceeded          = errors.New("max users exceeded")
	ErrSamplesAccountFull        = errors.New("samples account full")
	ErrSamplesBatchTooLarge      = errors.New("samples batch too large")
	ErrAccessPassUnauthorized    = errors.New("access pass unauthorized")
	ErrEpochMismatch             = errors.New("epoch mismatch")
	ErrCircuitBreakerOpen        = errors.New("circuit breaker open")
	ErrTimeout                   = errors.New("timeout")
	ErrFeatureNotEnabled         = errors.New("feature not enabled")
	ErrInvalidStateTransition    = errors.New("invalid state transition")
	ErrCYOANotAllowedOnLoopback  = errors.New("cyoa not allowed on non-physical interface")
	ErrIPNetCouplingViolated     = errors.New("ip_net set without cyoa/dia/tunnel-endpoint")
	ErrPublicIPInDzPrefix        = errors.New("public_ip contained in a dz_prefix")
)
