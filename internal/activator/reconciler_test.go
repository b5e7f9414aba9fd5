package activator

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/program"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/malbeclabs/doublezero-sub004/pkg/pda"
	"github.com/stretchr/testify/require"
)

// bootstrap seeds a fresh ledger's GlobalState/GlobalConfig singletons the
// way the real program's Initialize instruction would, returning a Program
// plus the foundation/activator keys reconciler tests sign with.
func bootstrap(t *testing.T) (*program.Program, solana.PublicKey, solana.PublicKey) {
	t.Helper()
	programID := solana.NewWallet().PublicKey()
	foundation := solana.NewWallet().PublicKey()
	activator := solana.NewWallet().PublicKey()
	l := ledger.New(programID)
	p := program.New(programID, l)

	gsPubkey, gsBump, err := pda.Singleton(programID, pda.KindGlobalState)
	require.NoError(t, err)
	gcPubkey, gcBump, err := pda.Singleton(programID, pda.KindGlobalConfig)
	require.NoError(t, err)

	_, err = l.Submit(context.Background(), func(s *ledger.Store) error {
		gs := &state.GlobalState{
			FoundationAllowlist: [][32]byte{[32]byte(foundation)},
			ActivatorAuthority:  [32]byte(activator),
			BumpSeed:            gsBump,
		}
		if err := s.Create(gsPubkey, programID, gs.Encode(), 0); err != nil {
			return err
		}
		gc := &state.GlobalConfig{
			LocalASN:                65000,
			RemoteASN:               65001,
			DeviceTunnelBlock:       cidr(10, 0, 0, 0, 16),
			UserTunnelBlock:         cidr(10, 1, 0, 0, 16),
			MulticastGroupBlock:     cidr(239, 0, 0, 0, 24),
			MulticastPublisherBlock: cidr(239, 1, 0, 0, 24),
			BumpSeed:                gcBump,
		}
		return s.Create(gcPubkey, programID, gc.Encode(), 0)
	})
	require.NoError(t, err)

	return p, foundation, activator
}

func cidr(a, b, c, d byte, prefix byte) [5]byte {
	return [5]byte{a, b, c, d, prefix}
}

func TestReconcileSimplePendingActivatesLocation(t *testing.T) {
	p, foundation, activator := bootstrap(t)
	_, err := p.CreateLocation(context.Background(), foundation, program.CreateLocationArgs{
		Code: "lax", Name: "Los Angeles", Country: "US",
	})
	require.NoError(t, err)

	locPubkey, _, err := pda.Indexed(p.ID, pda.KindLocation, 1)
	require.NoError(t, err)

	r := NewReconciler(p, activator)
	acc := snapshotOne(t, p, locPubkey)
	require.NoError(t, r.Reconcile(context.Background(), locPubkey, acc))

	acc = snapshotOne(t, p, locPubkey)
	loc := &state.Location{}
	require.NoError(t, loc.Decode(acc.Data))
	require.Equal(t, state.StatusActivated, loc.Status)
}

func TestReconcileSimplePendingIgnoresAlreadyActivated(t *testing.T) {
	p, foundation, activator := bootstrap(t)
	_, err := p.CreateLocation(context.Background(), foundation, program.CreateLocationArgs{
		Code: "lax", Name: "Los Angeles", Country: "US",
	})
	require.NoError(t, err)
	locPubkey, _, err := pda.Indexed(p.ID, pda.KindLocation, 1)
	require.NoError(t, err)

	r := NewReconciler(p, activator)
	ctx := context.Background()
	require.NoError(t, r.Reconcile(ctx, locPubkey, snapshotOne(t, p, locPubkey)))
	// Reconciling an already-Activated Location is the lost-race case: it is
	// skipped without an Activate attempt and must not surface as an error.
	require.NoError(t, r.Reconcile(ctx, locPubkey, snapshotOne(t, p, locPubkey)))
}

func snapshotOne(t *testing.T, p *program.Program, pubkey solana.PublicKey) ledger.Account {
	t.Helper()
	snap := p.Ledger.Snapshot()
	acc, ok := snap[pubkey]
	require.True(t, ok, "expected account %s to exist", pubkey)
	return acc
}
