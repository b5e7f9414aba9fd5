package program

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/validate"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/malbeclabs/doublezero-sub004/pkg/pda"
)

type CreateMulticastGroupArgs struct {
	Code         string
	TenantPubKey solana.PublicKey
	MaxBandwidth uint64
}

// CreateMulticastGroup allocates one address out of GlobalConfig's
// multicast_group_block via the MulticastGroupBlock resource extension
// (§3, I8) and writes the new singleton MulticastGroup account.
func (p *Program) CreateMulticastGroup(ctx context.Context, signer solana.PublicKey, args CreateMulticastGroupArgs) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		if err := requireFoundation(gs, signer); err != nil {
			return err
		}
		gcPubkey, _, err := p.globalConfigPDA()
		if err != nil {
			return err
		}
		gc, err := loadGlobalConfig(s, gcPubkey)
		if err != nil {
			return err
		}

		code, err := validate.Code(args.Code)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAccountCode, err)
		}

		index := gs.NextAccountIndex()
		pubkey, bump, err := pda.Indexed(p.ID, pda.KindMulticastGroup, index.Low)
		if err != nil {
			return err
		}
		if s.Exists(pubkey) {
			return fmt.Errorf("%w: multicast group %s", ErrAccountAlreadyInitialized, pubkey)
		}

		ip, err := allocateSingleIP(s, p.ID, signer, pda.KindMulticastGroupBlock,
			state.ResourceExtensionMulticastGroupBlock, gc.MulticastGroupBlock)
		if err != nil {
			return err
		}

		mg := &state.MulticastGroup{
			Owner: pk(signer), Index: index, BumpSeed: bump,
			TenantPubKey: pk(args.TenantPubKey), MulticastIP: ip,
			MaxBandwidth: args.MaxBandwidth, Code: code,
			Status: state.MulticastGroupStatusPending,
		}
		if err := saveNew(s, p.ID, pubkey, mg); err != nil {
			return err
		}
		return saveExisting(s, gsPubkey, gs, signer)
	})
}

func loadMulticastGroup(s *ledger.Store, pubkey solana.PublicKey) (*state.MulticastGroup, error) {
	acc, err := s.Get(pubkey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
	}
	mg := &state.MulticastGroup{}
	if err := decodeInto(acc.Data, mg); err != nil {
		return nil, err
	}
	return mg, nil
}

// ActivateMulticastGroup drives Pending→Activated; only the activator
// authority.
func (p *Program) ActivateMulticastGroup(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		if err := requireActivator(gs, signer); err != nil {
			return err
		}
		mg, err := loadMulticastGroup(s, pubkey)
		if err != nil {
			return err
		}
		if mg.Status != state.MulticastGroupStatusPending {
			return fmt.Errorf("%w: Activate from %s", ErrInvalidStateTransition, mg.Status)
		}
		mg.Status = state.MulticastGroupStatusActivated
		return saveExisting(s, pubkey, mg, signer)
	})
}

// SuspendMulticastGroup drives Activated→Suspended; foundation or the
// group's own owner key may call this.
func (p *Program) SuspendMulticastGroup(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		mg, err := loadMulticastGroup(s, pubkey)
		if err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, mg.Owner); err != nil {
			return err
		}
		if mg.Status != state.MulticastGroupStatusActivated {
			return fmt.Errorf("%w: Suspend from %s", ErrInvalidStateTransition, mg.Status)
		}
		mg.Status = state.MulticastGroupStatusSuspended
		return saveExisting(s, pubkey, mg, signer)
	})
}

// ResumeMulticastGroup drives Suspended→Activated; foundation or the
// group's own owner key may call this.
func (p *Program) ResumeMulticastGroup(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		mg, err := loadMulticastGroup(s, pubkey)
		if err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, mg.Owner); err != nil {
			return err
		}
		if mg.Status != state.MulticastGroupStatusSuspended {
			return fmt.Errorf("%w: Resume from %s", ErrInvalidStateTransition, mg.Status)
		}
		mg.Status = state.MulticastGroupStatusActivated
		return saveExisting(s, pubkey, mg, signer)
	})
}

// DeleteMulticastGroup drives an Activated/Suspended MulticastGroup to
// Deleting; only the owner or foundation may request deletion, mirroring
// DeleteLink. I2 still applies through PublisherCount/SubscriberCount: the
// activator refuses to finish the close while either is nonzero.
func (p *Program) DeleteMulticastGroup(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		mg, err := loadMulticastGroup(s, pubkey)
		if err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, mg.Owner); err != nil {
			return err
		}
		if mg.Status != state.MulticastGroupStatusActivated && mg.Status != state.MulticastGroupStatusSuspended {
			return fmt.Errorf("%w: Delete from %s", ErrInvalidStateTransition, mg.Status)
		}
		mg.Status = state.MulticastGroupStatusDeleting
		return saveExisting(s, pubkey, mg, signer)
	})
}

// CloseMulticastGroup releases the group's multicast IP back to
// MulticastGroupBlock and closes the account; activator-only, and only once
// Deleting with no remaining publishers/subscribers.
func (p *Program) CloseMulticastGroup(ctx context.Context, signer, pubkey, receiver solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		if err := requireActivator(gs, signer); err != nil {
			return err
		}
		gcPubkey, _, err := p.globalConfigPDA()
		if err != nil {
			return err
		}
		gc, err := loadGlobalConfig(s, gcPubkey)
		if err != nil {
			return err
		}
		mg, err := loadMulticastGroup(s, pubkey)
		if err != nil {
			return err
		}
		if mg.Status != state.MulticastGroupStatusDeleting {
			return fmt.Errorf("%w: Close from %s", ErrInvalidStateTransition, mg.Status)
		}
		if mg.PublisherCount != 0 || mg.SubscriberCount != 0 {
			return fmt.Errorf("%w: %s has %d publishers, %d subscribers", ErrReferenceCountNotZero, pubkey, mg.PublisherCount, mg.SubscriberCount)
		}
		if err := releaseSingleIP(s, p.ID, signer, pda.KindMulticastGroupBlock,
			state.ResourceExtensionMulticastGroupBlock, gc.MulticastGroupBlock, mg.MulticastIP); err != nil {
			return err
		}
		return s.Close(pubkey, receiver)
	})
}

// SubscribeUser adds userPubKey as a subscriber of the multicast group. This
// mutation (like UnsubscribeUser and DeleteUser) is allowed to the user's
// owner, the foundation, or the sentinel authority (sentinel enforces
// network-wide subscription policy without needing per-user foundation
// sign-off).
func (p *Program) SubscribeUser(ctx context.Context, signer, groupPubKey, userPubKey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		user, err := loadUser(s, userPubKey)
		if err != nil {
			return err
		}
		if err := requireSentinelFoundationOrOwner(gs, signer, user.Owner); err != nil {
			return err
		}
		mg, err := loadMulticastGroup(s, groupPubKey)
		if err != nil {
			return err
		}

		groupKey := pk(groupPubKey)
		for _, k := range user.Subscribers {
			if k == groupKey {
				return fmt.Errorf("%w: already subscribed", ErrNotAllowed)
			}
		}
		user.Subscribers = append(user.Subscribers, groupKey)
		mg.SubscriberCount++
		if err := saveExisting(s, userPubKey, user, signer); err != nil {
			return err
		}
		return saveExisting(s, groupPubKey, mg, signer)
	})
}

// UnsubscribeUser removes userPubKey from the multicast group's subscriber
// set, same authorization rule as SubscribeUser.
func (p *Program) UnsubscribeUser(ctx context.Context, signer, groupPubKey, userPubKey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		user, err := loadUser(s, userPubKey)
		if err != nil {
			return err
		}
		if err := requireSentinelFoundationOrOwner(gs, signer, user.Owner); err != nil {
			return err
		}
		mg, err := loadMulticastGroup(s, groupPubKey)
		if err != nil {
			return err
		}

		groupKey := pk(groupPubKey)
		out := user.Subscribers[:0:0]
		removed := false
		for _, k := range user.Subscribers {
			if k == groupKey {
				removed = true
				continue
			}
			out = append(out, k)
		}
		if !removed {
			return fmt.Errorf("%w: not subscribed", ErrNotAllowed)
		}
		user.Subscribers = out
		if mg.SubscriberCount > 0 {
			mg.SubscriberCount--
		}
		if err := saveExisting(s, userPubKey, user, signer); err != nil {
			return err
		}
		return saveExisting(s, groupPubKey, mg, signer)
	})
}
