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

type CreateLocationArgs struct {
	Code            string
	Name            string
	Country         string
	Lat, Lng        float64
	LocID           uint32
}

// CreateLocation is §4.4's Create handler specialized to Location: the
// signer must be on the foundation allowlist and becomes the new entity's
// owner and payer, PDA derived from GlobalState.account_index+1.
func (p *Program) CreateLocation(ctx context.Context, signer solana.PublicKey, args CreateLocationArgs) (string, error) {
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

		index := gs.NextAccountIndex()
		pubkey, bump, err := pda.Indexed(p.ID, pda.KindLocation, index.Low)
		if err != nil {
			return err
		}
		if s.Exists(pubkey) {
			return fmt.Errorf("%w: location %s", ErrAccountAlreadyInitialized, pubkey)
		}

		loc := &state.Location{
			Owner: pk(signer), Index: index, BumpSeed: bump,
			Code: code, Name: args.Name, Country: args.Country,
			Lat: args.Lat, Lng: args.Lng, LocID: args.LocID,
			Status: state.StatusPending,
		}
		if err := saveNew(s, p.ID, pubkey, loc); err != nil {
			return err
		}
		return saveExisting(s, gsPubkey, gs, signer)
	})
}

type CreateExchangeArgs struct {
	Code     string
	Name     string
	Lat, Lng float64
}

// CreateExchange assigns bgp_community by fetching GlobalConfig's
// next_bgp_community, using it, then incrementing — the "reserved" create
// arg from the original CLI is intentionally not accepted here (§4.4 edge
// case: "the provided reserved field on the create args is ignored").
func (p *Program) CreateExchange(ctx context.Context, signer solana.PublicKey, args CreateExchangeArgs) (string, error) {
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
		pubkey, bump, err := pda.Indexed(p.ID, pda.KindExchange, index.Low)
		if err != nil {
			return err
		}
		if s.Exists(pubkey) {
			return fmt.Errorf("%w: exchange %s", ErrAccountAlreadyInitialized, pubkey)
		}

		ex := &state.Exchange{
			Owner: pk(signer), Index: index, BumpSeed: bump,
			Code: code, Name: args.Name, Lat: args.Lat, Lng: args.Lng,
			BGPCommunity: gc.NextBGPCommunityValue(),
			Status:       state.StatusPending,
		}
		if err := saveNew(s, p.ID, pubkey, ex); err != nil {
			return err
		}
		if err := saveExisting(s, gsPubkey, gs, signer); err != nil {
			return err
		}
		return saveExisting(s, gcPubkey, gc, signer)
	})
}

type CreateContributorArgs struct {
	Code       string
	OpsManager solana.PublicKey
}

func (p *Program) CreateContributor(ctx context.Context, signer solana.PublicKey, args CreateContributorArgs) (string, error) {
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

		index := gs.NextAccountIndex()
		pubkey, bump, err := pda.Indexed(p.ID, pda.KindContributor, index.Low)
		if err != nil {
			return err
		}
		if s.Exists(pubkey) {
			return fmt.Errorf("%w: contributor %s", ErrAccountAlreadyInitialized, pubkey)
		}

		c := &state.Contributor{
			Owner: pk(signer), OpsManager: pk(args.OpsManager),
			Index: index, BumpSeed: bump, Code: code,
			Status: state.StatusPending,
		}
		if err := saveNew(s, p.ID, pubkey, c); err != nil {
			return err
		}
		return saveExisting(s, gsPubkey, gs, signer)
	})
}

// ActivateLocation drives Pending→Activated; only the activator authority
// may do this (authorization matrix).
func (p *Program) ActivateLocation(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
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
		acc, err := s.Get(pubkey)
		if err != nil {
			return err
		}
		loc := &state.Location{}
		if err := decodeInto(acc.Data, loc); err != nil {
			return err
		}
		loc.Status, err = applyLifecycle(loc.Status, ActionActivate)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, loc, signer)
	})
}

// ActivateExchange drives Pending→Activated; only the activator authority.
func (p *Program) ActivateExchange(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
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
		acc, err := s.Get(pubkey)
		if err != nil {
			return err
		}
		ex := &state.Exchange{}
		if err := decodeInto(acc.Data, ex); err != nil {
			return err
		}
		ex.Status, err = applyLifecycle(ex.Status, ActionActivate)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, ex, signer)
	})
}

// ActivateContributor drives Pending→Activated; only the activator authority.
func (p *Program) ActivateContributor(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
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
		acc, err := s.Get(pubkey)
		if err != nil {
			return err
		}
		c := &state.Contributor{}
		if err := decodeInto(acc.Data, c); err != nil {
			return err
		}
		c.Status, err = applyLifecycle(c.Status, ActionActivate)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, c, signer)
	})
}

// SuspendLocation drives Activated→Suspended; foundation or the location's
// own owner key may call this.
func (p *Program) SuspendLocation(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		acc, err := s.Get(pubkey)
		if err != nil {
			return err
		}
		loc := &state.Location{}
		if err := decodeInto(acc.Data, loc); err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, loc.Owner); err != nil {
			return err
		}
		loc.Status, err = applyLifecycle(loc.Status, ActionSuspend)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, loc, signer)
	})
}

// ResumeLocation drives Suspended→Activated; foundation or the location's
// own owner key may call this.
func (p *Program) ResumeLocation(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		acc, err := s.Get(pubkey)
		if err != nil {
			return err
		}
		loc := &state.Location{}
		if err := decodeInto(acc.Data, loc); err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, loc.Owner); err != nil {
			return err
		}
		loc.Status, err = applyLifecycle(loc.Status, ActionResume)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, loc, signer)
	})
}

// SuspendExchange drives Activated→Suspended; foundation or the exchange's
// own owner key may call this.
func (p *Program) SuspendExchange(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		acc, err := s.Get(pubkey)
		if err != nil {
			return err
		}
		ex := &state.Exchange{}
		if err := decodeInto(acc.Data, ex); err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, ex.Owner); err != nil {
			return err
		}
		ex.Status, err = applyLifecycle(ex.Status, ActionSuspend)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, ex, signer)
	})
}

// ResumeExchange drives Suspended→Activated; foundation or the exchange's
// own owner key may call this.
func (p *Program) ResumeExchange(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		acc, err := s.Get(pubkey)
		if err != nil {
			return err
		}
		ex := &state.Exchange{}
		if err := decodeInto(acc.Data, ex); err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, ex.Owner); err != nil {
			return err
		}
		ex.Status, err = applyLifecycle(ex.Status, ActionResume)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, ex, signer)
	})
}

// SuspendContributor drives Activated→Suspended; foundation or the
// contributor's own owner key may call this.
func (p *Program) SuspendContributor(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		acc, err := s.Get(pubkey)
		if err != nil {
			return err
		}
		c := &state.Contributor{}
		if err := decodeInto(acc.Data, c); err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, c.Owner); err != nil {
			return err
		}
		c.Status, err = applyLifecycle(c.Status, ActionSuspend)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, c, signer)
	})
}

// ResumeContributor drives Suspended→Activated; foundation or the
// contributor's own owner key may call this.
func (p *Program) ResumeContributor(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		acc, err := s.Get(pubkey)
		if err != nil {
			return err
		}
		c := &state.Contributor{}
		if err := decodeInto(acc.Data, c); err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, c.Owner); err != nil {
			return err
		}
		c.Status, err = applyLifecycle(c.Status, ActionResume)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, c, signer)
	})
}

// CloseAccount implements §4.4's close_account: sweep lamports, zero data,
// reassign to the system program. Only valid once reference_count == 0.
func (p *Program) CloseAccount(ctx context.Context, signer, pubkey, receiver solana.PublicKey) (string, error) {
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
		acc, err := s.Get(pubkey)
		if err != nil {
			return err
		}
		refCount, err := referenceCountOf(acc.Data)
		if err != nil {
			return err
		}
		if refCount != 0 {
			return fmt.Errorf("%w: %s has %d references", ErrReferenceCountNotZero, pubkey, refCount)
		}
		return s.Close(pubkey, receiver)
	})
}
