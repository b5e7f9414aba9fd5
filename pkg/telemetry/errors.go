package telemetry

import "errors"

// Sentinel errors returned by Processor, mirroring the discriminants of
// doublezero-telemetry's own TelemetryError enum.
var (
	ErrAccountAlreadyExists = errors.New("latency samples account already exists")
	ErrAccountDoesNotExist  = errors.New("latency samples account does not exist")
	ErrInvalidAccountType   = errors.New("unexpected account type discriminant")
	ErrUnauthorizedAgent    = errors.New("agent is not authorized to write to this account")
	ErrEpochMismatch        = errors.New("epoch does not match the account's recorded epoch")
	ErrSamplesAccountFull   = errors.New("samples would exceed the account's max capacity")
	ErrSamplesBatchTooLarge = errors.New("sample batch exceeds the max samples per write")
)
