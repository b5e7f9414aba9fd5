package scheduler

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/stretchr/testify/require"
)

func TestRecorderAlreadyExecutedRoundTrip(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	l := ledger.New(programID)
	r := NewRecorder(programID, l)

	ctx := context.Background()
	done, err := r.AlreadyExecuted(ctx, "job-1", []byte("seed-a"))
	require.NoError(t, err)
	require.False(t, done)

	_, err = r.Complete(ctx, "job-1", []byte("seed-a"), []byte("payload"), 1000)
	require.NoError(t, err)

	done, err = r.AlreadyExecuted(ctx, "job-1", []byte("seed-a"))
	require.NoError(t, err)
	require.True(t, done)
}

func TestRecorderDistinguishesSeeds(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	l := ledger.New(programID)
	r := NewRecorder(programID, l)

	ctx := context.Background()
	_, err := r.Complete(ctx, "job-1", []byte("seed-a"), []byte("payload"), 1000)
	require.NoError(t, err)

	done, err := r.AlreadyExecuted(ctx, "job-1", []byte("seed-b"))
	require.NoError(t, err)
	require.False(t, done)
}
