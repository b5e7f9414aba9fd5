package program

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/malbeclabs/doublezero-sub004/pkg/pda"
)

type GetOrCreateAccessPassArgs struct {
	Kind              state.AccessPassKind
	ValidatorPubKey   solana.PublicKey
	ClientIP          [4]byte
	UserPayer         solana.PublicKey
	LastAccessEpoch   uint64
	Flags             state.AccessPassFlags
	MgroupPubAllowlist []solana.PublicKey
	MgroupSubAllowlist []solana.PublicKey
	TenantAllowlist    []solana.PublicKey
}

// GetOrCreateAccessPass implements §4.4's "access-pass auto-create" edge
// case: ErrAccountDoesNotExist on the (client_ip, user_payer) PDA is treated
// as first-time init instead of a hard failure, matching the teacher CLI's
// idempotent access-pass-set flow. An existing pass has its liveness window
// and allowlists refreshed in place rather than rejected.
func (p *Program) GetOrCreateAccessPass(ctx context.Context, signer solana.PublicKey, args GetOrCreateAccessPassArgs) (string, error) {
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

		pubkey, bump, err := pda.AccessPass(p.ID, args.ClientIP, args.UserPayer)
		if err != nil {
			return err
		}

		pubAllow := toKeySlice(args.MgroupPubAllowlist)
		subAllow := toKeySlice(args.MgroupSubAllowlist)
		tenantAllow := toKeySlice(args.TenantAllowlist)

		if s.Exists(pubkey) {
			ap, err := loadAccessPass(s, pubkey)
			if err != nil {
				return err
			}
			ap.LastAccessEpoch = args.LastAccessEpoch
			ap.Flags = args.Flags
			ap.MgroupPubAllowlist = pubAllow
			ap.MgroupSubAllowlist = subAllow
			ap.TenantAllowlist = tenantAllow
			return saveExisting(s, pubkey, ap, signer)
		}

		ap := &state.AccessPass{
			Kind: args.Kind, ValidatorPubKey: pk(args.ValidatorPubKey),
			ClientIP: args.ClientIP, UserPayer: pk(args.UserPayer),
			LastAccessEpoch: args.LastAccessEpoch, Flags: args.Flags,
			MgroupPubAllowlist: pubAllow, MgroupSubAllowlist: subAllow,
			TenantAllowlist: tenantAllow, Status: state.StatusActivated,
			BumpSeed: bump,
		}
		return saveNew(s, p.ID, pubkey, ap)
	})
}

func toKeySlice(pubkeys []solana.PublicKey) [][32]byte {
	out := make([][32]byte, len(pubkeys))
	for i, k := range pubkeys {
		out[i] = pk(k)
	}
	return out
}

func loadAccessPass(s *ledger.Store, pubkey solana.PublicKey) (*state.AccessPass, error) {
	acc, err := s.Get(pubkey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
	}
	ap := &state.AccessPass{}
	if err := decodeInto(acc.Data, ap); err != nil {
		return nil, err
	}
	return ap, nil
}

// RefreshAccessPassEpoch bumps an AccessPass's last_access_epoch, the
// write path the sentinel authority uses to keep a user connected (I10).
func (p *Program) RefreshAccessPassEpoch(ctx context.Context, signer, pubkey solana.PublicKey, epoch uint64) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		if pk(signer) != gs.SentinelAuthority && !gs.IsFoundation(pk(signer)) {
			return fmt.Errorf("%w: signer %s is not sentinel or foundation", ErrUnauthorized, signer)
		}
		ap, err := loadAccessPass(s, pubkey)
		if err != nil {
			return err
		}
		ap.LastAccessEpoch = epoch
		return saveExisting(s, pubkey, ap, signer)
	})
}
