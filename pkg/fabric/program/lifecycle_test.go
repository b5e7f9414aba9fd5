package program

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/malbeclabs/doublezero-sub004/pkg/pda"
	"github.com/stretchr/testify/require"
)

// bootstrapLifecycle seeds a fresh ledger's GlobalState and GlobalConfig
// singletons (CreateExchange reads the latter) the way
// the real program's Initialize instruction would, returning a Program plus
// the foundation/activator keys lifecycle tests sign with.
func bootstrapLifecycle(t *testing.T) (*Program, solana.PublicKey, solana.PublicKey) {
	t.Helper()
	programID := solana.NewWallet().PublicKey()
	foundation := solana.NewWallet().PublicKey()
	activator := solana.NewWallet().PublicKey()
	l := ledger.New(programID)
	p := New(programID, l)

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
		gc := &state.GlobalConfig{BumpSeed: gcBump}
		return s.Create(gcPubkey, programID, gc.Encode(), 0)
	})
	require.NoError(t, err)

	return p, foundation, activator
}

// seedDevice writes a Device account directly (bypassing CreateDevice, whose
// owner is always whoever signs the create call) so Suspend/Resume's
// foundation-or-owner check can be exercised against an owner distinct from
// the foundation allowlist.
func seedDevice(t *testing.T, p *Program, owner solana.PublicKey, status state.Status) solana.PublicKey {
	t.Helper()
	pubkey := solana.NewWallet().PublicKey()
	dev := &state.Device{
		Owner:  pk(owner),
		Code:   "dev1",
		Status: status,
	}
	_, err := p.Ledger.Submit(context.Background(), func(s *ledger.Store) error {
		return s.Create(pubkey, p.ID, dev.Encode(), 0)
	})
	require.NoError(t, err)
	return pubkey
}

func TestSuspendResumeDevice(t *testing.T) {
	p, foundation, _ := bootstrapLifecycle(t)
	ctx := context.Background()
	owner := solana.NewWallet().PublicKey()

	// Not yet activated: Suspend must reject the Pending→Suspended jump.
	pending := seedDevice(t, p, owner, state.StatusPending)
	_, err := p.SuspendDevice(ctx, foundation, pending)
	require.Error(t, err)

	pubkey := seedDevice(t, p, owner, state.StatusActivated)

	// Unrelated signer is neither foundation nor owner.
	_, err = p.SuspendDevice(ctx, solana.NewWallet().PublicKey(), pubkey)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Owner may suspend their own device.
	_, err = p.SuspendDevice(ctx, owner, pubkey)
	require.NoError(t, err)

	dev := &state.Device{}
	snap := p.Ledger.Snapshot()[pubkey]
	require.NoError(t, dev.Decode(snap.Data))
	require.Equal(t, state.StatusSuspended, dev.Status)

	// Foundation may resume it even though it isn't the owner.
	_, err = p.ResumeDevice(ctx, foundation, pubkey)
	require.NoError(t, err)
	snap = p.Ledger.Snapshot()[pubkey]
	require.NoError(t, dev.Decode(snap.Data))
	require.Equal(t, state.StatusActivated, dev.Status)

	// Resume only valid from Suspended.
	_, err = p.ResumeDevice(ctx, foundation, pubkey)
	require.Error(t, err)
}

func TestSuspendResumeLocation(t *testing.T) {
	p, foundation, activator := bootstrapLifecycle(t)
	ctx := context.Background()

	_, err := p.CreateLocation(ctx, foundation, CreateLocationArgs{Code: "lax", Name: "Los Angeles", Country: "US"})
	require.NoError(t, err)
	pubkey, _, err := pda.Indexed(p.ID, pda.KindLocation, 1)
	require.NoError(t, err)
	_, err = p.ActivateLocation(ctx, activator, pubkey)
	require.NoError(t, err)

	_, err = p.SuspendLocation(ctx, solana.NewWallet().PublicKey(), pubkey)
	require.ErrorIs(t, err, ErrUnauthorized)

	// CreateLocation assigns the signer (foundation) as owner, so foundation
	// can suspend both as foundation and as owner.
	_, err = p.SuspendLocation(ctx, foundation, pubkey)
	require.NoError(t, err)

	snap := p.Ledger.Snapshot()[pubkey]
	loc := &state.Location{}
	require.NoError(t, loc.Decode(snap.Data))
	require.Equal(t, state.StatusSuspended, loc.Status)

	_, err = p.ResumeLocation(ctx, foundation, pubkey)
	require.NoError(t, err)
	snap = p.Ledger.Snapshot()[pubkey]
	require.NoError(t, loc.Decode(snap.Data))
	require.Equal(t, state.StatusActivated, loc.Status)
}

func TestSuspendResumeExchange(t *testing.T) {
	p, foundation, activator := bootstrapLifecycle(t)
	ctx := context.Background()

	_, err := p.CreateExchange(ctx, foundation, CreateExchangeArgs{Code: "ny", Name: "New York"})
	require.NoError(t, err)
	pubkey, _, err := pda.Indexed(p.ID, pda.KindExchange, 1)
	require.NoError(t, err)
	_, err = p.ActivateExchange(ctx, activator, pubkey)
	require.NoError(t, err)

	_, err = p.SuspendExchange(ctx, foundation, pubkey)
	require.NoError(t, err)
	snap := p.Ledger.Snapshot()[pubkey]
	ex := &state.Exchange{}
	require.NoError(t, ex.Decode(snap.Data))
	require.Equal(t, state.StatusSuspended, ex.Status)

	_, err = p.ResumeExchange(ctx, solana.NewWallet().PublicKey(), pubkey)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = p.ResumeExchange(ctx, foundation, pubkey)
	require.NoError(t, err)
	snap = p.Ledger.Snapshot()[pubkey]
	require.NoError(t, ex.Decode(snap.Data))
	require.Equal(t, state.StatusActivated, ex.Status)
}

func TestSuspendResumeContributor(t *testing.T) {
	p, foundation, activator := bootstrapLifecycle(t)
	ctx := context.Background()

	opsManager := solana.NewWallet().PublicKey()
	_, err := p.CreateContributor(ctx, foundation, CreateContributorArgs{Code: "c1", OpsManager: opsManager})
	require.NoError(t, err)
	pubkey, _, err := pda.Indexed(p.ID, pda.KindContributor, 1)
	require.NoError(t, err)
	_, err = p.ActivateContributor(ctx, activator, pubkey)
	require.NoError(t, err)

	_, err = p.SuspendContributor(ctx, foundation, pubkey)
	require.NoError(t, err)
	snap := p.Ledger.Snapshot()[pubkey]
	c := &state.Contributor{}
	require.NoError(t, c.Decode(snap.Data))
	require.Equal(t, state.StatusSuspended, c.Status)

	_, err = p.ResumeContributor(ctx, foundation, pubkey)
	require.NoError(t, err)
	snap = p.Ledger.Snapshot()[pubkey]
	require.NoError(t, c.Decode(snap.Data))
	require.Equal(t, state.StatusActivated, c.Status)
}

// seedLink writes a Link account directly, bypassing CreateLink's device/
// interface prerequisites, to isolate the Suspend/Resume authorization and
// state-transition checks.
func seedLink(t *testing.T, p *Program, owner solana.PublicKey, status state.LinkStatus) solana.PublicKey {
	t.Helper()
	pubkey := solana.NewWallet().PublicKey()
	link := &state.Link{Owner: pk(owner), Code: "link1", Status: status}
	_, err := p.Ledger.Submit(context.Background(), func(s *ledger.Store) error {
		return s.Create(pubkey, p.ID, link.Encode(), 0)
	})
	require.NoError(t, err)
	return pubkey
}

func TestSuspendResumeLink(t *testing.T) {
	p, foundation, _ := bootstrapLifecycle(t)
	ctx := context.Background()
	owner := solana.NewWallet().PublicKey()

	pending := seedLink(t, p, owner, state.LinkStatusPending)
	_, err := p.SuspendLink(ctx, foundation, pending)
	require.Error(t, err)

	pubkey := seedLink(t, p, owner, state.LinkStatusActivated)

	_, err = p.SuspendLink(ctx, solana.NewWallet().PublicKey(), pubkey)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = p.SuspendLink(ctx, owner, pubkey)
	require.NoError(t, err)

	link := &state.Link{}
	snap := p.Ledger.Snapshot()[pubkey]
	require.NoError(t, link.Decode(snap.Data))
	require.Equal(t, state.LinkStatusSuspended, link.Status)

	_, err = p.ResumeLink(ctx, foundation, pubkey)
	require.NoError(t, err)
	snap = p.Ledger.Snapshot()[pubkey]
	require.NoError(t, link.Decode(snap.Data))
	require.Equal(t, state.LinkStatusActivated, link.Status)

	_, err = p.ResumeLink(ctx, foundation, pubkey)
	require.Error(t, err)
}

// seedMulticastGroup writes a MulticastGroup account directly, bypassing
// CreateMulticastGroup's resource-extension allocation, to isolate the
// Suspend/Resume checks.
func seedMulticastGroup(t *testing.T, p *Program, owner solana.PublicKey, status state.MulticastGroupStatus) solana.PublicKey {
	t.Helper()
	pubkey := solana.NewWallet().PublicKey()
	mg := &state.MulticastGroup{Owner: pk(owner), Code: "mg1", Status: status}
	_, err := p.Ledger.Submit(context.Background(), func(s *ledger.Store) error {
		return s.Create(pubkey, p.ID, mg.Encode(), 0)
	})
	require.NoError(t, err)
	return pubkey
}

func TestSuspendResumeMulticastGroup(t *testing.T) {
	p, foundation, _ := bootstrapLifecycle(t)
	ctx := context.Background()
	owner := solana.NewWallet().PublicKey()

	pending := seedMulticastGroup(t, p, owner, state.MulticastGroupStatusPending)
	_, err := p.SuspendMulticastGroup(ctx, foundation, pending)
	require.Error(t, err)

	pubkey := seedMulticastGroup(t, p, owner, state.MulticastGroupStatusActivated)

	_, err = p.SuspendMulticastGroup(ctx, solana.NewWallet().PublicKey(), pubkey)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = p.SuspendMulticastGroup(ctx, owner, pubkey)
	require.NoError(t, err)

	mg := &state.MulticastGroup{}
	snap := p.Ledger.Snapshot()[pubkey]
	require.NoError(t, mg.Decode(snap.Data))
	require.Equal(t, state.MulticastGroupStatusSuspended, mg.Status)

	_, err = p.ResumeMulticastGroup(ctx, foundation, pubkey)
	require.NoError(t, err)
	snap = p.Ledger.Snapshot()[pubkey]
	require.NoError(t, mg.Decode(snap.Data))
	require.Equal(t, state.MulticastGroupStatusActivated, mg.Status)

	_, err = p.ResumeMulticastGroup(ctx, foundation, pubkey)
	require.Error(t, err)
}
