package activator

import (
	"context"
	"log/slog"

	"github.com/alitto/pond/v2"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
)

// Observer is §4.6's observer task: one subscription to the ledger's update
// stream, fanning touched accounts out to a bounded worker pool that runs
// the Reconciler. Concurrency lives entirely in the pool — Reconcile itself
// never shares mutable state across calls, since every allocation it makes
// happens inside the matching program.Program call under the ledger's own
// single-writer lock.
type Observer struct {
	ledger *ledger.Ledger
	recon  *Reconciler
	pool   pond.Pool
	log    *slog.Logger
}

func NewObserver(l *ledger.Ledger, recon *Reconciler, concurrency int) *Observer {
	return &Observer{
		ledger: l,
		recon:  recon,
		pool:   pond.NewPool(concurrency),
		log:    slog.Default(),
	}
}

// Run subscribes and dispatches until ctx is canceled, then drains the
// worker pool before returning.
func (o *Observer) Run(ctx context.Context) {
	updates, unsubscribe := o.ledger.Subscribe("activator", 256)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			o.pool.StopAndWait()
			return
		case u, ok := <-updates:
			if !ok {
				o.pool.StopAndWait()
				return
			}
			for pubkey, acc := range u.Accounts {
				pubkey, acc := pubkey, acc
				o.pool.Submit(func() {
					if err := o.recon.Reconcile(ctx, pubkey, acc); err != nil {
						o.log.Error("reconcile failed", "account", pubkey, "err", err)
					}
				})
			}
		}
	}
}
