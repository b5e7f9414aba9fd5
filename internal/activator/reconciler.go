package activator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/program"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
)

// Reconciler is the per-kind handler set §4.6 describes: one call per
// touched account, dispatched by discriminant, driving Pending/Deleting
// transitions forward. It holds no allocator state of its own — every
// allocation happens inside the matching program.Program call, under the
// ledger's single-writer guarantee, so there is nothing here to roll back
// on a failed submission (per §4.6's partial-failure note, the ledger
// remains the authority and the next observation corrects course).
type Reconciler struct {
	Prog   *program.Program
	Signer solana.PublicKey
	Log    *slog.Logger
}

func NewReconciler(prog *program.Program, signer solana.PublicKey) *Reconciler {
	return &Reconciler{Prog: prog, Signer: signer, Log: slog.Default()}
}

// Reconcile dispatches one touched account to its handler. Every submission
// is retried with exponential backoff up to a fixed bound (§4.6); a
// duplicate Activate on an already-Activated entity comes back as an
// ErrInvalidStateTransition, which the reconciler treats as a benign race
// loss rather than an error worth logging.
func (r *Reconciler) Reconcile(ctx context.Context, pubkey solana.PublicKey, acc ledger.Account) error {
	at, err := state.PeekAccountType(acc.Data)
	if err != nil {
		return err
	}
	switch at {
	case state.LocationType, state.ExchangeType, state.ContributorType:
		return r.reconcileSimplePending(ctx, pubkey, acc, at)
	case state.DeviceType:
		return r.reconcileDevice(ctx, pubkey, acc)
	case state.LinkType:
		return r.reconcileLink(ctx, pubkey, acc)
	case state.MulticastGroupType:
		return r.reconcileMulticastGroup(ctx, pubkey, acc)
	default:
		return nil
	}
}

func (r *Reconciler) submit(ctx context.Context, fn func() (string, error)) error {
	_, err := backoff.Retry(ctx, fn,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(5))
	if err != nil && errors.Is(err, errRaceLost) {
		return nil
	}
	return err
}

// errRaceLost marks an Activate/Reject attempt that failed only because
// another observer (or a retry of this same one) already moved the entity
// past Pending — §5's "duplicate Activate ... reconciler treats as
// success."
var errRaceLost = errors.New("activator: lost the race to another observer")

func wrapRaceLoss(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, program.ErrInvalidStateTransition) {
		return errRaceLost
	}
	return err
}

// reconcileSimplePending auto-activates any of the three no-dependency
// entity types once Pending — they carry no physical resource to allocate,
// so there is nothing for the reconciler to do but confirm.
func (r *Reconciler) reconcileSimplePending(ctx context.Context, pubkey solana.PublicKey, acc ledger.Account, at state.AccountType) error {
	status, err := statusOf(acc.Data, at)
	if err != nil || status != state.StatusPending {
		return err
	}
	return r.submit(ctx, func() (string, error) {
		switch at {
		case state.LocationType:
			s, err := r.Prog.ActivateLocation(ctx, r.Signer, pubkey)
			return s, wrapRaceLoss(err)
		case state.ExchangeType:
			s, err := r.Prog.ActivateExchange(ctx, r.Signer, pubkey)
			return s, wrapRaceLoss(err)
		default:
			s, err := r.Prog.ActivateContributor(ctx, r.Signer, pubkey)
			return s, wrapRaceLoss(err)
		}
	})
}

func statusOf(data []byte, at state.AccountType) (state.Status, error) {
	switch at {
	case state.LocationType:
		acc := &state.Location{}
		if err := acc.Decode(data); err != nil {
			return 0, err
		}
		return acc.Status, nil
	case state.ExchangeType:
		acc := &state.Exchange{}
		if err := acc.Decode(data); err != nil {
			return 0, err
		}
		return acc.Status, nil
	case state.ContributorType:
		acc := &state.Contributor{}
		if err := acc.Decode(data); err != nil {
			return 0, err
		}
		return acc.Status, nil
	default:
		return 0, nil
	}
}

// reconcileDevice activates the Device itself once Pending, then walks its
// embedded interfaces applying §4.6's per-interface-kind rules.
func (r *Reconciler) reconcileDevice(ctx context.Context, pubkey solana.PublicKey, acc ledger.Account) error {
	dev := &state.Device{}
	if err := dev.Decode(acc.Data); err != nil {
		return err
	}
	if dev.Status == state.StatusPending {
		if err := r.submit(ctx, func() (string, error) {
			s, err := r.Prog.ActivateDevice(ctx, r.Signer, pubkey)
			return s, wrapRaceLoss(err)
		}); err != nil {
			return err
		}
	}

	for i := range dev.Interfaces {
		if err := r.reconcileInterface(ctx, pubkey, dev, &dev.Interfaces[i]); err != nil {
			r.Log.Error("interface reconcile failed", "device", pubkey, "interface", dev.Interfaces[i].Name, "err", err)
		}
	}
	return nil
}

// reconcileInterface implements §4.6's "Device interface.Pending(...)" and
// "Device interface.Deleting" rules. Loopback gets its two allocations and
// Activates; Pending Physical interfaces are left unchanged (no Unlink or
// other command is issued for them); Deleting
// interfaces of either kind are released and removed.
func (r *Reconciler) reconcileInterface(ctx context.Context, devicePubKey solana.PublicKey, dev *state.Device, iface *state.Interface) error {
	switch iface.Status {
	case state.StatusPending:
		switch iface.InterfaceType {
		case state.InterfaceTypeLoopback:
			return r.submit(ctx, func() (string, error) {
				s, err := r.Prog.ActivateLoopbackInterface(ctx, r.Signer, devicePubKey, iface.Name, dzPrefixIndexFor(dev, iface))
				if err != nil && !errors.Is(err, program.ErrInvalidStateTransition) {
					if _, rejErr := r.Prog.RejectInterface(ctx, r.Signer, devicePubKey, iface.Name); rejErr != nil {
						r.Log.Error("reject interface failed", "device", devicePubKey, "interface", iface.Name, "err", rejErr)
					}
				}
				return s, wrapRaceLoss(err)
			})
		case state.InterfaceTypePhysical:
			return nil
		}
	case state.StatusDeleting:
		return r.submit(ctx, func() (string, error) {
			s, err := r.Prog.RemoveLoopbackInterface(ctx, r.Signer, devicePubKey, iface.Name, dzPrefixIndexFor(dev, iface))
			return s, wrapRaceLoss(err)
		})
	}
	return nil
}

// dzPrefixIndexFor picks which of the device's dz_prefixes backs this
// interface's loopback block; absent a per-interface scope field, index 0
// is the device's sole reserved loopback prefix.
func dzPrefixIndexFor(dev *state.Device, iface *state.Interface) int {
	if len(dev.DzPrefixes) == 0 {
		return -1
	}
	return 0
}

// reconcileLink allocates tunnel_net/tunnel_id and activates a Pending Link
// that was created off the on-chain-allocation feature flag.
func (r *Reconciler) reconcileLink(ctx context.Context, pubkey solana.PublicKey, acc ledger.Account) error {
	link := &state.Link{}
	if err := link.Decode(acc.Data); err != nil {
		return err
	}
	if link.Status != state.LinkStatusPending {
		return nil
	}
	return r.submit(ctx, func() (string, error) {
		s, err := r.Prog.CompleteLinkAllocation(ctx, r.Signer, pubkey)
		return s, wrapRaceLoss(err)
	})
}

// reconcileMulticastGroup activates a Pending MulticastGroup (its address
// was already allocated at CreateMulticastGroup time) and closes a Deleting
// one once CloseMulticastGroup's own reference check clears.
func (r *Reconciler) reconcileMulticastGroup(ctx context.Context, pubkey solana.PublicKey, acc ledger.Account) error {
	mg := &state.MulticastGroup{}
	if err := mg.Decode(acc.Data); err != nil {
		return err
	}
	switch mg.Status {
	case state.MulticastGroupStatusPending:
		return r.submit(ctx, func() (string, error) {
			s, err := r.Prog.ActivateMulticastGroup(ctx, r.Signer, pubkey)
			return s, wrapRaceLoss(err)
		})
	case state.MulticastGroupStatusDeleting:
		if mg.PublisherCount != 0 || mg.SubscriberCount != 0 {
			return nil
		}
		return r.submit(ctx, func() (string, error) {
			s, err := r.Prog.CloseMulticastGroup(ctx, r.Signer, pubkey, r.Signer)
			return s, wrapRaceLoss(err)
		})
	}
	return nil
}
