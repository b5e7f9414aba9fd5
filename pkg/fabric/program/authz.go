package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
)

func pk(p solana.PublicKey) [32]byte { return [32]byte(p) }

// requireFoundation allows only the foundation allowlist (the Create handlers
// for Location, Exchange, Contributor, Link, MulticastGroup and Tenant,
// GetOrCreateAccessPass, SetTenantPaymentStatus and CloseTenant).
func requireFoundation(gs *state.GlobalState, signer solana.PublicKey) error {
	if !gs.IsFoundation(pk(signer)) {
		return fmt.Errorf("%w: signer %s is not in the foundation allowlist", ErrUnauthorized, signer)
	}
	return nil
}

// requireFoundationOrOwner covers Create/Update/Delete/Suspend of
// Location/Exchange/Contributor/Device: foundation allowlist OR the
// entity's own owner key.
func requireFoundationOrOwner(gs *state.GlobalState, signer solana.PublicKey, owner [32]byte) error {
	if gs.IsFoundation(pk(signer)) || pk(signer) == owner {
		return nil
	}
	return fmt.Errorf("%w: signer %s is neither foundation nor owner", ErrUnauthorized, signer)
}

// requireActivator covers Activate/Reject/CloseAccount: only the single
// activator_authority key.
func requireActivator(gs *state.GlobalState, signer solana.PublicKey) error {
	if pk(signer) != gs.ActivatorAuthority {
		return fmt.Errorf("%w: signer %s is not the activator authority", ErrUnauthorized, signer)
	}
	return nil
}

// requireSentinelFoundationOrOwner covers "subscribe user to multicast":
// user owner OR foundation OR sentinel_authority.
func requireSentinelFoundationOrOwner(gs *state.GlobalState, signer solana.PublicKey, owner [32]byte) error {
	if pk(signer) == owner || gs.IsFoundation(pk(signer)) || pk(signer) == gs.SentinelAuthority {
		return nil
	}
	return fmt.Errorf("%w: signer %s is not owner, foundation, or sentinel", ErrUnauthorized, signer)
}

// requireHealthSetter covers "Set health": foundation OR the device
// allowlist's health-oracle role.
func requireHealthSetter(gs *state.GlobalState, signer solana.PublicKey) error {
	if gs.IsFoundation(pk(signer)) {
		return nil
	}
	for _, k := range gs.DeviceAllowlist {
		if k == pk(signer) {
			return nil
		}
	}
	return fmt.Errorf("%w: signer %s is not foundation or a health oracle", ErrUnauthorized, signer)
}
