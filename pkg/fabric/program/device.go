package program

import (
	"context"
	"fmt"
	"net"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/validate"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/malbeclabs/doublezero-sub004/pkg/pda"
)

type CreateDeviceArgs struct {
	ContributorPubKey solana.PublicKey
	LocationPubKey    solana.PublicKey
	ExchangePubKey    solana.PublicKey
	DeviceKind        state.DeviceKind
	Code              string
	PublicIP          [4]byte
	DzPrefixes        [][5]byte
	MgmtVrf           string
	MaxUsers          uint16
	MaxUnicastUsers   uint16
	MaxMulticastUsers uint16
}

// checkIPDisjointness enforces I6: public_ip must not fall inside any of
// dz_prefixes.
func checkIPDisjointness(publicIP [4]byte, dzPrefixes [][5]byte) error {
	ip := net.IP(publicIP[:])
	for _, p := range dzPrefixes {
		_, cidr, err := net.ParseCIDR(validate.CIDRToString(p))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPublicIPInDzPrefix, err)
		}
		if cidr.Contains(ip) {
			return fmt.Errorf("%w: %s is contained in %s", ErrPublicIPInDzPrefix, ip, cidr)
		}
	}
	return nil
}

// CreateDevice is §4.4's Create handler specialized to Device: owner is
// foundation or the named contributor's owner (checked against the loaded
// Contributor account), and I6 is enforced before the account is written.
func (p *Program) CreateDevice(ctx context.Context, signer solana.PublicKey, args CreateDeviceArgs) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}

		contribAcc, err := s.Get(args.ContributorPubKey)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
		}
		contrib := &state.Contributor{}
		if err := decodeInto(contribAcc.Data, contrib); err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, contrib.Owner); err != nil {
			return err
		}

		code, err := validate.Code(args.Code)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAccountCode, err)
		}
		if err := checkIPDisjointness(args.PublicIP, args.DzPrefixes); err != nil {
			return err
		}

		index := gs.NextAccountIndex()
		pubkey, bump, err := pda.Indexed(p.ID, pda.KindDevice, index.Low)
		if err != nil {
			return err
		}
		if s.Exists(pubkey) {
			return fmt.Errorf("%w: device %s", ErrAccountAlreadyInitialized, pubkey)
		}

		dev := &state.Device{
			Owner: pk(signer), Index: index, BumpSeed: bump,
			ContributorPubKey: pk(args.ContributorPubKey),
			LocationPubKey:    pk(args.LocationPubKey),
			ExchangePubKey:    pk(args.ExchangePubKey),
			DeviceKind:        args.DeviceKind,
			Code:              code,
			PublicIP:          args.PublicIP,
			DzPrefixes:        args.DzPrefixes,
			MgmtVrf:           args.MgmtVrf,
			Status:            state.StatusPending,
			MaxUsers:          args.MaxUsers,
			MaxUnicastUsers:   args.MaxUnicastUsers,
			MaxMulticastUsers: args.MaxMulticastUsers,
		}
		if err := saveNew(s, p.ID, pubkey, dev); err != nil {
			return err
		}

		locAcc, err := s.Get(args.LocationPubKey)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
		}
		loc := &state.Location{}
		if err := decodeInto(locAcc.Data, loc); err != nil {
			return err
		}
		exAcc, err := s.Get(args.ExchangePubKey)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
		}
		ex := &state.Exchange{}
		if err := decodeInto(exAcc.Data, ex); err != nil {
			return err
		}

		contrib.ReferenceCount++
		loc.ReferenceCount++
		ex.ReferenceCount++
		if err := saveExisting(s, args.ContributorPubKey, contrib, signer); err != nil {
			return err
		}
		if err := saveExisting(s, args.LocationPubKey, loc, signer); err != nil {
			return err
		}
		if err := saveExisting(s, args.ExchangePubKey, ex, signer); err != nil {
			return err
		}
		return saveExisting(s, gsPubkey, gs, signer)
	})
}

type CreateInterfaceArgs struct {
	Name               string
	LoopbackType       state.LoopbackType
	VlanID             uint16
	IPNet              [5]byte
	CYOA               state.InterfaceCYOA
	DIA                state.InterfaceDIA
	Bandwidth          uint64
	CIR                uint64
	MTU                uint16
	RoutingMode        state.RoutingMode
	UserTunnelEndpoint bool
}

// validateInterfaceCoupling enforces I5 (canonicalizing the name via
// validate.InterfaceName) and I7 (ip_net / CYOA / DIA / tunnel-endpoint coupling),
// returning the canonical name and inferred InterfaceType.
func validateInterfaceCoupling(name string, ipNet [5]byte, cyoa state.InterfaceCYOA, dia state.InterfaceDIA, tunnelEndpoint bool) (string, state.InterfaceType, error) {
	canonical, err := validate.InterfaceName(name)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrInvalidInterfaceName, err)
	}

	ifaceType := state.InterfaceTypePhysical
	if len(canonical) >= 8 && canonical[:8] == "Loopback" {
		ifaceType = state.InterfaceTypeLoopback
	}

	ipNetSet := ipNet != [5]byte{}
	couplingRequired := cyoa != state.InterfaceCYOANone || dia != state.InterfaceDIANone || tunnelEndpoint
	if ipNetSet != couplingRequired {
		return "", 0, fmt.Errorf("%w: name=%s", ErrIPNetCouplingViolated, canonical)
	}
	if cyoa != state.InterfaceCYOANone && ifaceType != state.InterfaceTypePhysical {
		return "", 0, fmt.Errorf("%w: name=%s", ErrCYOANotAllowedOnLoopback, canonical)
	}
	return canonical, ifaceType, nil
}

// CreateInterface adds a new embedded Interface to a Device, enforcing I5
// and I7. New interfaces start Pending regardless of type; Loopback
// interfaces are driven to Activated by the activator (§5 "Interface state
// machines"), Physical interfaces require an explicit Link to activate.
func (p *Program) CreateInterface(ctx context.Context, signer, devicePubKey solana.PublicKey, args CreateInterfaceArgs) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}

		acc, err := s.Get(devicePubKey)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
		}
		dev := &state.Device{}
		if err := decodeInto(acc.Data, dev); err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, dev.Owner); err != nil {
			return err
		}
		if dev.FindInterface(args.Name) != nil {
			return fmt.Errorf("%w: interface %s already exists on device", ErrNotAllowed, args.Name)
		}

		name, ifaceType, err := validateInterfaceCoupling(args.Name, args.IPNet, args.CYOA, args.DIA, args.UserTunnelEndpoint)
		if err != nil {
			return err
		}

		dev.Interfaces = append(dev.Interfaces, state.Interface{
			Name: name, InterfaceType: ifaceType, LoopbackType: args.LoopbackType,
			VlanID: args.VlanID, IPNet: args.IPNet, Status: state.StatusPending,
			CYOA: args.CYOA, DIA: args.DIA, Bandwidth: args.Bandwidth, CIR: args.CIR,
			MTU: args.MTU, RoutingMode: args.RoutingMode, UserTunnelEndpoint: args.UserTunnelEndpoint,
		})
		return saveExisting(s, devicePubKey, dev, signer)
	})
}

// UpdateInterface mutates an existing interface in place, re-checking I5/I7
// against the merged result the same way CreateInterface does.
func (p *Program) UpdateInterface(ctx context.Context, signer, devicePubKey solana.PublicKey, name string, args CreateInterfaceArgs) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}

		acc, err := s.Get(devicePubKey)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
		}
		dev := &state.Device{}
		if err := decodeInto(acc.Data, dev); err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, dev.Owner); err != nil {
			return err
		}

		iface := dev.FindInterface(name)
		if iface == nil {
			return fmt.Errorf("%w: interface %s not found", ErrAccountDoesNotExist, name)
		}
		canonical, ifaceType, err := validateInterfaceCoupling(args.Name, args.IPNet, args.CYOA, args.DIA, args.UserTunnelEndpoint)
		if err != nil {
			return err
		}

		iface.Name = canonical
		iface.InterfaceType = ifaceType
		iface.LoopbackType = args.LoopbackType
		iface.VlanID = args.VlanID
		iface.IPNet = args.IPNet
		iface.CYOA = args.CYOA
		iface.DIA = args.DIA
		iface.Bandwidth = args.Bandwidth
		iface.CIR = args.CIR
		iface.MTU = args.MTU
		iface.RoutingMode = args.RoutingMode
		iface.UserTunnelEndpoint = args.UserTunnelEndpoint
		return saveExisting(s, devicePubKey, dev, signer)
	})
}

// ActivateDevice drives Pending→Activated; only the activator authority.
func (p *Program) ActivateDevice(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
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
		dev := &state.Device{}
		if err := decodeInto(acc.Data, dev); err != nil {
			return err
		}
		dev.Status, err = applyLifecycle(dev.Status, ActionActivate)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, dev, signer)
	})
}

// SuspendDevice drives Activated→Suspended; foundation or the device's own
// owner key may call this.
func (p *Program) SuspendDevice(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
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
		dev := &state.Device{}
		if err := decodeInto(acc.Data, dev); err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, dev.Owner); err != nil {
			return err
		}
		dev.Status, err = applyLifecycle(dev.Status, ActionSuspend)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, dev, signer)
	})
}

// ResumeDevice drives Suspended→Activated; foundation or the device's own
// owner key may call this.
func (p *Program) ResumeDevice(ctx context.Context, signer, pubkey solana.PublicKey) (string, error) {
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
		dev := &state.Device{}
		if err := decodeInto(acc.Data, dev); err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, dev.Owner); err != nil {
			return err
		}
		dev.Status, err = applyLifecycle(dev.Status, ActionResume)
		if err != nil {
			return err
		}
		return saveExisting(s, pubkey, dev, signer)
	})
}

// ActivateInterface drives one embedded Interface from Pending to Activated.
// Used by the activator after it finishes the interface's off-chain
// provisioning (loopback IP / segment-routing ID allocation for Loopback
// interfaces; link-bring-up confirmation for Physical ones).
func (p *Program) ActivateInterface(ctx context.Context, signer, devicePubKey solana.PublicKey, name string) (string, error) {
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
		dev, err := loadDevice(s, devicePubKey)
		if err != nil {
			return err
		}
		iface := dev.FindInterface(name)
		if iface == nil {
			return fmt.Errorf("%w: interface %s not found", ErrAccountDoesNotExist, name)
		}
		iface.Status, err = applyLifecycle(iface.Status, ActionActivate)
		if err != nil {
			return err
		}
		return saveExisting(s, devicePubKey, dev, signer)
	})
}

// RejectInterface drives one embedded Interface from Pending to Rejected,
// used when the activator cannot satisfy its resource requirements (e.g. the
// device-scoped loopback-IP block is exhausted).
func (p *Program) RejectInterface(ctx context.Context, signer, devicePubKey solana.PublicKey, name string) (string, error) {
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
		dev, err := loadDevice(s, devicePubKey)
		if err != nil {
			return err
		}
		iface := dev.FindInterface(name)
		if iface == nil {
			return fmt.Errorf("%w: interface %s not found", ErrAccountDoesNotExist, name)
		}
		iface.Status, err = applyLifecycle(iface.Status, ActionReject)
		if err != nil {
			return err
		}
		return saveExisting(s, devicePubKey, dev, signer)
	})
}

// DeleteInterface marks an embedded Interface Deleting; the caller is the
// device owner or foundation (mirrors DeleteLink's authorization).
func (p *Program) DeleteInterface(ctx context.Context, signer, devicePubKey solana.PublicKey, name string) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		dev, err := loadDevice(s, devicePubKey)
		if err != nil {
			return err
		}
		if err := requireFoundationOrOwner(gs, signer, dev.Owner); err != nil {
			return err
		}
		iface := dev.FindInterface(name)
		if iface == nil {
			return fmt.Errorf("%w: interface %s not found", ErrAccountDoesNotExist, name)
		}
		iface.Status, err = applyLifecycle(iface.Status, ActionDelete)
		if err != nil {
			return err
		}
		return saveExisting(s, devicePubKey, dev, signer)
	})
}

// ActivateLoopbackInterface is ActivateInterface specialized to Loopback
// interfaces that need a device-scoped loopback IP and segment-routing node
// index allocated before they can go live — the on-chain counterpart of
// iface_mgr.rs's handle_pending_loopback, which does the same two
// allocations before calling activate().
func (p *Program) ActivateLoopbackInterface(ctx context.Context, signer, devicePubKey solana.PublicKey, name string, dzPrefixIndex int) (string, error) {
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
		dev, err := loadDevice(s, devicePubKey)
		if err != nil {
			return err
		}
		iface := dev.FindInterface(name)
		if iface == nil {
			return fmt.Errorf("%w: interface %s not found", ErrAccountDoesNotExist, name)
		}
		if dzPrefixIndex < 0 || dzPrefixIndex >= len(dev.DzPrefixes) {
			return fmt.Errorf("%w: device %s has no dz_prefix at index %d", ErrNotAllowed, devicePubKey, dzPrefixIndex)
		}

		ip, err := allocateDeviceLoopbackIP(s, p.ID, signer, devicePubKey, dev.DzPrefixes[dzPrefixIndex])
		if err != nil {
			return err
		}
		segIdx, err := allocateSegmentRoutingID(s, p.ID, signer, devicePubKey)
		if err != nil {
			return err
		}

		iface.IPNet = [5]byte{ip[0], ip[1], ip[2], ip[3], 32}
		iface.NodeSegmentIdx = segIdx
		iface.Status, err = applyLifecycle(iface.Status, ActionActivate)
		if err != nil {
			return err
		}
		return saveExisting(s, devicePubKey, dev, signer)
	})
}

// RemoveLoopbackInterface releases a Deleting Loopback interface's device-
// scoped loopback IP and segment-routing ID, then removes it from the
// Device's interface list — the on-chain counterpart of iface_mgr.rs's
// handle_deleting_interface.
func (p *Program) RemoveLoopbackInterface(ctx context.Context, signer, devicePubKey solana.PublicKey, name string, dzPrefixIndex int) (string, error) {
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
		dev, err := loadDevice(s, devicePubKey)
		if err != nil {
			return err
		}
		iface := dev.FindInterface(name)
		if iface == nil {
			return fmt.Errorf("%w: interface %s not found", ErrAccountDoesNotExist, name)
		}
		if iface.Status != state.StatusDeleting {
			return fmt.Errorf("%w: Remove from %s", ErrInvalidStateTransition, iface.Status)
		}
		if dzPrefixIndex < 0 || dzPrefixIndex >= len(dev.DzPrefixes) {
			return fmt.Errorf("%w: device %s has no dz_prefix at index %d", ErrNotAllowed, devicePubKey, dzPrefixIndex)
		}

		ip := [4]byte{iface.IPNet[0], iface.IPNet[1], iface.IPNet[2], iface.IPNet[3]}
		if err := releaseDeviceLoopbackIP(s, p.ID, signer, devicePubKey, dev.DzPrefixes[dzPrefixIndex], ip); err != nil {
			return err
		}
		if err := releaseSegmentRoutingID(s, p.ID, signer, devicePubKey, iface.NodeSegmentIdx); err != nil {
			return err
		}

		kept := dev.Interfaces[:0]
		for _, f := range dev.Interfaces {
			if f.Name != name {
				kept = append(kept, f)
			}
		}
		dev.Interfaces = kept
		return saveExisting(s, devicePubKey, dev, signer)
	})
}

// RemoveInterface deletes a Deleting Interface from the Device's interface
// list entirely, the embedded-struct analogue of CloseAccount — used by the
// activator once it has released the interface's off-chain allocation.
func (p *Program) RemoveInterface(ctx context.Context, signer, devicePubKey solana.PublicKey, name string) (string, error) {
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
		dev, err := loadDevice(s, devicePubKey)
		if err != nil {
			return err
		}
		iface := dev.FindInterface(name)
		if iface == nil {
			return fmt.Errorf("%w: interface %s not found", ErrAccountDoesNotExist, name)
		}
		if iface.Status != state.StatusDeleting {
			return fmt.Errorf("%w: Remove from %s", ErrInvalidStateTransition, iface.Status)
		}
		kept := dev.Interfaces[:0]
		for _, f := range dev.Interfaces {
			if f.Name != name {
				kept = append(kept, f)
			}
		}
		dev.Interfaces = kept
		return saveExisting(s, devicePubKey, dev, signer)
	})
}

// SetDeviceHealth implements the health-oracle write path: foundation or a
// key on the device allowlist may update DeviceHealth (not the lifecycle
// Status, which only the activator drives).
func (p *Program) SetDeviceHealth(ctx context.Context, signer, pubkey solana.PublicKey, health state.DeviceHealth) (string, error) {
	return p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		gsPubkey, _, err := p.globalStatePDA()
		if err != nil {
			return err
		}
		gs, err := loadGlobalState(s, gsPubkey)
		if err != nil {
			return err
		}
		if err := requireHealthSetter(gs, signer); err != nil {
			return err
		}
		acc, err := s.Get(pubkey)
		if err != nil {
			return err
		}
		dev := &state.Device{}
		if err := decodeInto(acc.Data, dev); err != nil {
			return err
		}
		dev.Health = health
		return saveExisting(s, pubkey, dev, signer)
	})
}
