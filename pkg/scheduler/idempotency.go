package scheduler

import (
	"context"
	"crypto/sha256"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/malbeclabs/doublezero-sub004/pkg/pda"
)

// RentPerByte mirrors pkg/fabric/program's rent constant: execution records
// are rent-charged on creation like any other ledger account.
const RentPerByte = 6960

// Recorder is the idempotency/audit trail for scheduled jobs: one
// ExecutionRecord account per (job_id, data_seeds) key, written exactly
// once on successful completion (§4.7).
type Recorder struct {
	ProgramID solana.PublicKey
	Ledger    *ledger.Ledger
}

func NewRecorder(programID solana.PublicKey, l *ledger.Ledger) *Recorder {
	return &Recorder{ProgramID: programID, Ledger: l}
}

// Key derives the idempotency key for one job run: (job_id, sha256(seeds)).
func Key(jobID string, seeds []byte) (jobIDOut string, digest [32]byte) {
	return jobID, sha256.Sum256(seeds)
}

// AlreadyExecuted reports whether an ExecutionRecord already exists for
// (jobID, seeds) — a true result means the run is skipped as a successful
// no-op (§4.7's idempotency-key check run before execution).
func (r *Recorder) AlreadyExecuted(ctx context.Context, jobID string, seeds []byte) (bool, error) {
	_, digest := Key(jobID, seeds)
	pubkey, _, err := pda.ExecutionRecord(r.ProgramID, jobID, digest)
	if err != nil {
		return false, err
	}
	var found bool
	_, err = r.Ledger.Submit(ctx, func(s *ledger.Store) error {
		found = s.Exists(pubkey)
		return nil
	})
	return found, err
}

// Complete writes the ExecutionRecord for (jobID, seeds) once a run
// succeeds, carrying the SHA-256 of the produced payload.
func (r *Recorder) Complete(ctx context.Context, jobID string, seeds, payload []byte, executedAtUnixMs uint64) (string, error) {
	_, digest := Key(jobID, seeds)
	pubkey, bump, err := pda.ExecutionRecord(r.ProgramID, jobID, digest)
	if err != nil {
		return "", err
	}
	rec := &state.ExecutionRecord{
		JobID: jobID, Seeds: seeds, PayloadSHA256: sha256.Sum256(payload),
		ExecutedAtUnixMs: executedAtUnixMs, BumpSeed: bump,
	}
	return r.Ledger.Submit(ctx, func(s *ledger.Store) error {
		data := rec.Encode()
		return s.Create(pubkey, r.ProgramID, data, uint64(len(data))*RentPerByte)
	})
}
