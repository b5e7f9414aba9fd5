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

type CreateLinkArgs struct {
	Code              string
	SideAPubKey       solana.PublicKey
	SideZPubKey       solana.PublicKey
	SideAIfaceName    string
	SideZIfaceName    string
	LinkType          state.LinkLinkType
	Bandwidth         uint64
	MTU               uint32
	DelayNs           uint64
	JitterNs          uint64
	ContributorPubKey solana.PublicKey
}

// CreateLink creates the Link account. Per §4.4's edge case, when the
// on-chain resource-allocation feature flag is set, tunnel_net (2 IPs from
// DeviceTunnelBlock) and tunnel_id (1 ID from LinkIds) are allocated here and
// the Link starts Activated; otherwise they're left zero and the Link starts
// Pending, for the activator to allocate off-chain and Activate explicitly.
func (p *Program) CreateLink(ctx context.Context, signer solana.PublicKey, args CreateLinkArgs) (string, error) {
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

		code, err := validate.Code(args.Code)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAccountCode, err)
		}

		sideA, err := loadDevice(s, args.SideAPubKey)
		if err != nil {
			return err
		}
		sideZ, err := loadDevice(s, args.SideZPubKey)
		if err != nil {
			return err
		}
		if sideA.FindInterface(args.SideAIfaceName) == nil {
			return fmt.Errorf("%w: side A interface %s not found", ErrAccountDoesNotExist, args.SideAIfaceName)
		}
		if sideZ.FindInterface(args.SideZIfaceName) == nil {
			return fmt.Errorf("%w: side Z interface %s not found", ErrAccountDoesNotExist, args.SideZIfaceName)
		}

		index := gs.NextAccountIndex()
		pubkey, bump, err := pda.Indexed(p.ID, pda.KindLink, index.Low)
		if err != nil {
			return err
		}
		if s.Exists(pubkey) {
			return fmt.Errorf("%w: link %s", ErrAccountAlreadyInitialized, pubkey)
		}

		link := &state.Link{
			Owner: pk(signer), Index: index, BumpSeed: bump,
			SideAPubKey: pk(args.SideAPubKey), SideZPubKey: pk(args.SideZPubKey),
			SideAIfaceName: args.SideAIfaceName, SideZIfaceName: args.SideZIfaceName,
			LinkType: args.LinkType, Bandwidth: args.Bandwidth, MTU: args.MTU,
			DelayNs: args.DelayNs, JitterNs: args.JitterNs, Code: code,
			ContributorPubKey: pk(args.ContributorPubKey),
			Status:            state.LinkStatusPending,
		}

		if gs.HasFeature(state.FeatureOnChainResourceAllocation) {
			tunnelNet, err := allocateTunnelBlock(s, p.ID, signer)
			if err != nil {
				return err
			}
			tunnelID, err := allocateLinkID(s, p.ID, signer)
			if err != nil {
				return err
			}
			link.TunnelNet = tunnelNet
			link.TunnelID = tunnelID
			link.Status = state.LinkStatusActivated
		}

		if err := saveNew(s, p.ID, pubkey, link); err != nil {
			return err
		}
		sideA.ReferenceCount++
		sideZ.ReferenceCount++
		if err := saveExisting(s, args.SideAPubKey, sideA, signer); err != nil {
			return err
		}
		if err := saveExisting(s, args.SideZPubKey, sideZ, signer); err != nil {
			return err
		}
		return saveExisting(s, gsPubkey, gs, signer)
	})
}

func loadDevice(s *ledger.Store, pubkey solana.PublicKey) (*state.Device, error) {
	acc, err := s.Get(pubkey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
	}
	dev := &state.Device{}
	if err := decodeInto(acc.Data, dev); err != nil {
		return nil, err
	}
	return dev, nil
}

func loadLink(s *ledger.Store, pubkey solana.PublicKey) (*state.Link, error) {
	acc, err := s.Get(pubkey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
	}
	link := &state.Link{}
	if err := decodeInto(acc.Data, link); err != nil {
		return nil, err
	}
	return link, nil
}

// CompleteLinkAllocation is the activator's off-chain-allocation path: it
// allocates tunnel_net/tunnel_id the same way CreateLink's on-chain branch
// does and activates the Link in the same Submit, so a concurrent Delete
// can never observe a Link that's Activated without holding the tunnel
// resources it claims to hold.
func (p *Program) CompleteLinkAllocation(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
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
		link, err := loadLink(s, pubkey)
		if err != nil {
			return err
		}
		if link.Status != state.LinkStatusPending {
			return fmt.Errorf("%w: Activate from %s", ErrInvalidStateTransition, link.Status)
		}
		tunnelNet, err := allocateTunnelBlock(s, p.ID, signer)
		if err != nil {
			return err
		}
		tunnelID, err := allocateLinkID(s, p.ID, signer)
		if err != nil {
			return err
		}
		link.TunnelNet = tunnelNet
		link.TunnelID = tunnelID
		link.Status = state.LinkStatusActivated
		return saveExisting(s, pubkey, link, signer)
	})
}

// ActivateLink transitions a Pending Link to Activated, setting the
// off-chain-allocated tunnel_net/tunnel_id the activator computed (the
// on-chain-allocation path instead activates inline in CreateLink).
func (p *Program) ActivateLink(ctx context.Context, signer, pubkey solana.PublicKey, tunnelNet [5]byte, tunnelID uint16) (string, error) {
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
		link, err := loadLink(s, pubkey)
		if err != nil {
			return err
		}
		if link.Status != state.LinkStatusPending {
			return fmt.Errorf("%w: Activate from %s", ErrInvalidStateTransition, link.Status)
		}
		link.TunnelNet = tunnelNet
		link.TunnelID = tunnelID
		link.Status = state.LinkStatusActivated
		return saveExisting(s, pubkey, link, signer)
	})
}

// SuspendLink drives Activated→Suspended; foundation or the link's own
// owner key may call this.
func (p *Program) SuspendLink(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		link, err := loadLink(s, pubkey)
		if err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, link.Owner); err != nil {
			return err
		}
		if link.Status != state.LinkStatusActivated {
			return fmt.Errorf("%w: Suspend from %s", ErrInvalidStateTransition, link.Status)
		}
		link.Status = state.LinkStatusSuspended
		return saveExisting(s, pubkey, link, signer)
	})
}

// ResumeLink drives Suspended→Activated; foundation or the link's own
// owner key may call this.
func (p *Program) ResumeLink(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		link, err := loadLink(s, pubkey)
		if err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, link.Owner); err != nil {
			return err
		}
		if link.Status != state.LinkStatusSuspended {
			return fmt.Errorf("%w: Resume from %s", ErrInvalidStateTransition, link.Status)
		}
		link.Status = state.LinkStatusActivated
		return saveExisting(s, pubkey, link, signer)
	})
}

// DeleteLink drives an Activated/Suspended Link to Deleting and frees its
// on-chain tunnel allocation, if it holds one.
func (p *Program) DeleteLink(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		link, err := loadLink(s, pubkey)
		if err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, link.Owner); err != nil {
			return err
		}
		if link.Status != state.LinkStatusActivated && link.Status != state.LinkStatusSuspended {
			return fmt.Errorf("%w: Delete from %s", ErrInvalidStateTransition, link.Status)
		}
		if gs.HasFeature(state.FeatureOnChainResourceAllocation) && link.TunnelNet != [5]byte{} {
			if err := releaseTunnelBlock(s, p.ID, signer, link.TunnelNet); err != nil {
				return err
			}
			if err := releaseLinkID(s, p.ID, signer, link.TunnelID); err != nil {
				return err
			}
		}
		link.Status = state.LinkStatusDeleting
		return saveExisting(s, pubkey, link, signer)
	})
}
