package activator

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/program"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/malbeclabs/doublezero-sub004/pkg/pda"
)

// UserMonitor is §4.6's second cooperating loop, grounded on
// user_monitor.rs's process_user_monitor_thread: on its own timer, separate
// from the observer, it never touches the allocator mirrors — it only reads
// the ledger snapshot and issues DeleteUser for anything whose AccessPass
// has gone stale (I10).
type UserMonitor struct {
	Prog         *program.Program
	Ledger       *ledger.Ledger
	Signer       solana.PublicKey
	CurrentEpoch func(ctx context.Context) (uint64, error)
	Interval     time.Duration
	Log          *slog.Logger
}

func NewUserMonitor(prog *program.Program, l *ledger.Ledger, signer solana.PublicKey, currentEpoch func(ctx context.Context) (uint64, error), interval time.Duration) *UserMonitor {
	return &UserMonitor{
		Prog:         prog,
		Ledger:       l,
		Signer:       signer,
		CurrentEpoch: currentEpoch,
		Interval:     interval,
		Log:          slog.Default(),
	}
}

// Run loops every Interval until ctx is canceled, sweeping for and
// disconnecting users whose AccessPass epoch has lapsed.
func (m *UserMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.sweep(ctx); err != nil {
				m.Log.Error("user monitor sweep failed", "err", err)
			}
		}
	}
}

func (m *UserMonitor) sweep(ctx context.Context) error {
	epoch, err := m.CurrentEpoch(ctx)
	if err != nil {
		return err
	}
	snapshot := m.Ledger.Snapshot()

	for pubkey, acc := range snapshot {
		at, err := state.PeekAccountType(acc.Data)
		if err != nil || at != state.UserType {
			continue
		}
		user := &state.User{}
		if err := user.Decode(acc.Data); err != nil {
			m.Log.Error("decode user failed", "account", pubkey, "err", err)
			continue
		}
		if user.Status != state.UserStatusActivated {
			continue
		}

		apPubkey, _, err := pda.AccessPass(m.Prog.ID, user.ClientIP, solana.PublicKeyFromBytes(user.Owner[:]))
		if err != nil {
			m.Log.Error("derive access pass pda failed", "user", pubkey, "err", err)
			continue
		}
		apAcc, ok := snapshot[apPubkey]
		if !ok {
			continue
		}
		ap := &state.AccessPass{}
		if err := ap.Decode(apAcc.Data); err != nil {
			m.Log.Error("decode access pass failed", "account", apPubkey, "err", err)
			continue
		}

		if ap.LastAccessEpoch < epoch {
			if _, err := m.Prog.DeleteUser(ctx, m.Signer, pubkey); err != nil {
				m.Log.Error("delete stale user failed", "user", pubkey, "err", err)
			}
		}
	}
	return nil
}
