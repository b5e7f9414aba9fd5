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

type CreateTenantArgs struct {
	Code           string
	Administrators []solana.PublicKey
	TokenAccount   solana.PublicKey
	MetroRouting   bool
	RouteLiveness  bool
}

// CreateTenant creates a Tenant keyed by its code, allocating a VRF ID from
// the VrfIds resource extension.
func (p *Program) CreateTenant(ctx context.Context, signer solana.PublicKey, args CreateTenantArgs) (string, error) {
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

		pubkey, bump, err := pda.Tenant(p.ID, code)
		if err != nil {
			return err
		}
		if s.Exists(pubkey) {
			return fmt.Errorf("%w: tenant %s", ErrAccountAlreadyInitialized, pubkey)
		}

		vrfID, err := allocateVrfID(s, p.ID, signer)
		if err != nil {
			return err
		}

		admins := make([][32]byte, len(args.Administrators))
		for i, k := range args.Administrators {
			admins[i] = pk(k)
		}

		t := &state.Tenant{
			Owner: pk(signer), BumpSeed: bump, Code: code, VrfID: vrfID,
			Administrators: admins, TokenAccount: pk(args.TokenAccount),
			MetroRouting: args.MetroRouting, RouteLiveness: args.RouteLiveness,
			PaymentStatus: state.TenantPaymentStatusDelinquent,
		}
		return saveNew(s, p.ID, pubkey, t)
	})
}

func loadTenant(s *ledger.Store, pubkey solana.PublicKey) (*state.Tenant, error) {
	acc, err := s.Get(pubkey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
	}
	t := &state.Tenant{}
	if err := decodeInto(acc.Data, t); err != nil {
		return nil, err
	}
	return t, nil
}

// SetTenantPaymentStatus lets the foundation mark a tenant paid/delinquent.
func (p *Program) SetTenantPaymentStatus(ctx context.Context, signer, pubkey solana.PublicKey, status state.TenantPaymentStatus) (string, error) {
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
		t, err := loadTenant(s, pubkey)
		if err != nil {
			return err
		}
		t.PaymentStatus = status
		return saveExisting(s, pubkey, t, signer)
	})
}

// CloseTenant releases the tenant's VRF ID and closes the account. Only
// valid once reference_count == 0.
func (p *Program) CloseTenant(ctx context.Context, signer, pubkey, receiver solana.PublicKey) (string, error) {
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
		t, err := loadTenant(s, pubkey)
		if err != nil {
			return err
		}
		if t.ReferenceCount != 0 {
			return fmt.Errorf("%w: tenant %s", ErrReferenceCountNotZero, pubkey)
		}
		if err := releaseVrfID(s, p.ID, signer, t.VrfID); err != nil {
			return err
		}
		return s.Close(pubkey, receiver)
	})
}
