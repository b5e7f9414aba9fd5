package program

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/malbeclabs/doublezero-sub004/pkg/pda"
)

type CreateUserArgs struct {
	UserType        state.UserUserType
	TenantPubKey    solana.PublicKey
	DevicePubKey    solana.PublicKey
	CyoaType        state.CyoaType
	ClientIP        [4]byte
	UserPayer       solana.PublicKey
	ValidatorPubKey solana.PublicKey
	CurrentEpoch    uint64
}

// CreateUser implements §4.4's Create handler for User, gated by the
// AccessPass checks in I9/I10: the (client_ip, user_payer) AccessPass must
// exist, be live at CurrentEpoch, and accept ClientIP (dynamic passes lock
// onto the first IP observed here). New users key off the v2 PDA
// derivation, (client_ip, user_type); legacy v1 index-keyed users are not
// created by new handlers, only read by ones that still need to address
// them (§9 "Dual PDA derivation").
func (p *Program) CreateUser(ctx context.Context, signer solana.PublicKey, args CreateUserArgs) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}

		apPubkey, _, err := pda.AccessPass(p.ID, args.ClientIP, args.UserPayer)
		if err != nil {
			return err
		}
		apAcc, err := s.Get(apPubkey)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAccessPassUnauthorized, err)
		}
		ap := &state.AccessPass{}
		if err := decodeInto(apAcc.Data, ap); err != nil {
			return err
		}
		if !ap.IsLive(args.CurrentEpoch) {
			return fmt.Errorf("%w: access pass epoch expired", ErrEpochMismatch)
		}
		if !ap.CheckClientIP(args.ClientIP) {
			return fmt.Errorf("%w: client_ip does not match access pass", ErrAccessPassUnauthorized)
		}

		dev, err := loadDevice(s, args.DevicePubKey)
		if err != nil {
			return err
		}
		if dev.UsersCount >= dev.MaxUsers {
			return fmt.Errorf("%w: device %s at max_users", ErrMaxUsersExceeded, args.DevicePubKey)
		}

		pubkey, bump, err := pda.UserV2(p.ID, args.ClientIP, uint8(args.UserType))
		if err != nil {
			return err
		}
		if s.Exists(pubkey) {
			return fmt.Errorf("%w: user %s", ErrAccountAlreadyInitialized, pubkey)
		}

		user := &state.User{
			Owner: pk(signer), BumpSeed: bump, UserType: args.UserType,
			TenantPubKey: pk(args.TenantPubKey), DevicePubKey: pk(args.DevicePubKey),
			CyoaType: args.CyoaType, ClientIP: args.ClientIP,
			ValidatorPubKey: pk(args.ValidatorPubKey),
			Status:          state.UserStatusPending,
		}
		if err := saveNew(s, p.ID, pubkey, user); err != nil {
			return err
		}

		ap.ConnectionCount++
		if err := saveExisting(s, apPubkey, ap, signer); err != nil {
			return err
		}
		dev.UsersCount++
		dev.ReferenceCount++
		return saveExisting(s, args.DevicePubKey, dev, signer)
	})
}

func loadUser(s *ledger.Store, pubkey solana.PublicKey) (*state.User, error) {
	acc, err := s.Get(pubkey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
	}
	user := &state.User{}
	if err := decodeInto(acc.Data, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ActivateUser drives Pending→Activated with the activator-assigned
// dz_ip/tunnel_id/tunnel_net.
func (p *Program) ActivateUser(ctx context.Context, signer, pubkey solana.PublicKey, dzIP [4]byte, tunnelID uint16, tunnelNet [5]byte) (string, error) {
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
		user, err := loadUser(s, pubkey)
		if err != nil {
			return err
		}
		if user.Status != state.UserStatusPending {
			return fmt.Errorf("%w: Activate from %s", ErrInvalidStateTransition, user.Status)
		}
		user.DzIP = dzIP
		user.TunnelID = tunnelID
		user.TunnelNet = tunnelNet
		user.Status = state.UserStatusActivated
		return saveExisting(s, pubkey, user, signer)
	})
}

// DeleteUser drives an Activated/Suspended user to Deleted and releases its
// device slot. Authorized for the owner, foundation, or the sentinel
// authority — the latter covers I10's epoch-liveness sweep, where the
// sentinel disconnects a user whose AccessPass has gone stale without the
// owner's involvement.
func (p *Program) DeleteUser(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		user, err := loadUser(s, pubkey)
		if err != nil {
			return err
		}
		if err := requireSentinelFoundationOrOwner(gs, signer, user.Owner); err != nil {
			return err
		}
		if user.Status != state.UserStatusActivated && user.Status != state.UserStatusSuspended {
			return fmt.Errorf("%w: Delete from %s", ErrInvalidStateTransition, user.Status)
		}
		user.Status = state.UserStatusDeleted
		if err := saveExisting(s, pubkey, user, signer); err != nil {
			return err
		}

		dev, err := loadDevice(s, solana.PublicKeyFromBytes(user.DevicePubKey[:]))
		if err != nil {
			return err
		}
		if dev.UsersCount > 0 {
			dev.UsersCount--
		}
		return saveExisting(s, solana.PublicKeyFromBytes(user.DevicePubKey[:]), dev, signer)
	})
}
