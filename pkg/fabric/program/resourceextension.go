package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/alloc"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/validate"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/malbeclabs/doublezero-sub004/pkg/pda"
)

// loadOrCreateExtension fetches the singleton ResourceExtension backing
// pdaKind, creating it with an empty bitmap on first use. This is the
// on-chain half of I8: the bitmap here is the single source of truth the
// activator's in-memory mirror is rebuilt from at boot.
func loadOrCreateExtension(s *ledger.Store, programID, payer solana.PublicKey, pdaKind string, kind state.ResourceExtensionKind, base [5]byte, idMin, idMax uint64, totalUnits uint32) (solana.PublicKey, *state.ResourceExtension, error) {
	pubkey, bump, err := pda.Singleton(programID, pdaKind)
	if err != nil {
		return pubkey, nil, err
	}
	if s.Exists(pubkey) {
		acc, err := s.Get(pubkey)
		if err != nil {
			return pubkey, nil, err
		}
		re := &state.ResourceExtension{}
		if err := decodeInto(acc.Data, re); err != nil {
			return pubkey, nil, err
		}
		return pubkey, re, nil
	}
	re := &state.ResourceExtension{
		Kind: kind, CIDRBase: base, IDMin: idMin, IDMax: idMax,
		TotalUnits: totalUnits, Bitmap: make([]byte, (totalUnits+7)/8), BumpSeed: bump,
	}
	if err := saveNew(s, programID, pubkey, re); err != nil {
		return pubkey, nil, err
	}
	return pubkey, re, nil
}

// cidrAllocator rebuilds an IPBlockAllocator mirror from a CIDR-backed
// ResourceExtension's persisted bitmap (I8: rebuilt from the ledger, never
// trusted as already-correct in memory).
func cidrAllocator(re *state.ResourceExtension) (*alloc.IPBlockAllocator, error) {
	base, err := alloc.ParseCIDR(validate.CIDRToString(re.CIDRBase))
	if err != nil {
		return nil, err
	}
	a := alloc.NewIPBlockAllocator(base)
	a.LoadBitmap(re.Bitmap)
	return a, nil
}

// allocateTunnelBlock allocates a /31 (2 IPs) from the DeviceTunnelBlock
// singleton for on-chain Link activation (§4.4 edge case, P4).
func allocateTunnelBlock(s *ledger.Store, programID, payer solana.PublicKey) ([5]byte, error) {
	pubkey, re, err := loadOrCreateExtension(s, programID, payer, pda.KindDeviceTunnelBlock,
		state.ResourceExtensionDeviceTunnelBlock, tunnelBlockBase, 0, 0, tunnelBlockTotalIPs)
	if err != nil {
		return [5]byte{}, err
	}
	a, err := cidrAllocator(re)
	if err != nil {
		return [5]byte{}, err
	}
	block, ok := a.NextAvailableBlock(0, 2)
	if !ok {
		return [5]byte{}, fmt.Errorf("%w: DeviceTunnelBlock exhausted", ErrNotAllowed)
	}
	a.AssignBlock(block)
	re.Bitmap = a.Bitmap()
	return saveExtensionReturning(s, pubkey, re, payer, cidrToNetworkV4(block))
}

// releaseTunnelBlock frees a previously-allocated /31 back to DeviceTunnelBlock.
func releaseTunnelBlock(s *ledger.Store, programID, payer solana.PublicKey, net [5]byte) error {
	pubkey, re, err := loadOrCreateExtension(s, programID, payer, pda.KindDeviceTunnelBlock,
		state.ResourceExtensionDeviceTunnelBlock, tunnelBlockBase, 0, 0, tunnelBlockTotalIPs)
	if err != nil {
		return err
	}
	a, err := cidrAllocator(re)
	if err != nil {
		return err
	}
	block, err := alloc.ParseCIDR(validate.CIDRToString(net))
	if err != nil {
		return err
	}
	a.UnassignBlock(block)
	re.Bitmap = a.Bitmap()
	_, err = saveExtensionReturning(s, pubkey, re, payer, [5]byte{})
	return err
}

func saveExtensionReturning(s *ledger.Store, pubkey solana.PublicKey, re *state.ResourceExtension, payer solana.PublicKey, ret [5]byte) ([5]byte, error) {
	if err := saveExisting(s, pubkey, re, payer); err != nil {
		return [5]byte{}, err
	}
	return ret, nil
}

func cidrToNetworkV4(c alloc.CIDR) [5]byte {
	b, err := validate.CIDR(c.String())
	if err != nil {
		return [5]byte{}
	}
	return b
}

// idBitmapAllocator rebuilds an IDAllocator mirror over [re.IDMin, re.IDMax)
// from the persisted bitmap, one bit per id offset from IDMin.
func idBitmapAllocator(re *state.ResourceExtension) *alloc.IDAllocator {
	a := alloc.NewIDAllocator(uint32(re.IDMin), uint32(re.IDMax))
	for i := uint32(0); i < re.TotalUnits; i++ {
		if re.Bitmap[i/8]&(1<<(i%8)) != 0 {
			_ = a.Assign(uint32(re.IDMin) + i)
		}
	}
	return a
}

func idBitmapFromAllocator(re *state.ResourceExtension, a *alloc.IDAllocator) {
	for i := uint32(0); i < re.TotalUnits; i++ {
		if a.IsAssigned(uint32(re.IDMin) + i) {
			re.Bitmap[i/8] |= 1 << (i % 8)
		} else {
			re.Bitmap[i/8] &^= 1 << (i % 8)
		}
	}
}

// allocateID allocates one ID from the named ID-range-backed singleton
// extension, seeding its range from [min, max) on first use.
func allocateID(s *ledger.Store, programID, payer solana.PublicKey, pdaKind string, kind state.ResourceExtensionKind, min, max uint64) (uint32, error) {
	pubkey, re, err := loadOrCreateExtension(s, programID, payer, pdaKind, kind, [5]byte{}, min, max, uint32(max-min))
	if err != nil {
		return 0, err
	}
	a := idBitmapAllocator(re)
	id, ok := a.NextAvailable()
	if !ok {
		return 0, fmt.Errorf("%w: %s exhausted", ErrNotAllowed, pdaKind)
	}
	idBitmapFromAllocator(re, a)
	if err := saveExisting(s, pubkey, re, payer); err != nil {
		return 0, err
	}
	return id, nil
}

// releaseID frees a previously-allocated ID back to the named
// ID-range-backed singleton extension.
func releaseID(s *ledger.Store, programID, payer solana.PublicKey, pdaKind string, kind state.ResourceExtensionKind, min, max uint64, id uint32) error {
	pubkey, re, err := loadOrCreateExtension(s, programID, payer, pdaKind, kind, [5]byte{}, min, max, uint32(max-min))
	if err != nil {
		return err
	}
	a := idBitmapAllocator(re)
	a.Unassign(id)
	idBitmapFromAllocator(re, a)
	return saveExisting(s, pubkey, re, payer)
}

// allocateLinkID allocates one tunnel_id from the LinkIds singleton.
func allocateLinkID(s *ledger.Store, programID, payer solana.PublicKey) (uint16, error) {
	id, err := allocateID(s, programID, payer, pda.KindLinkIds, state.ResourceExtensionLinkIds, linkIDMin, linkIDMax)
	if err != nil {
		return 0, err
	}
	return uint16(id), nil
}

// releaseLinkID frees a previously-allocated tunnel_id back to LinkIds.
func releaseLinkID(s *ledger.Store, programID, payer solana.PublicKey, id uint16) error {
	return releaseID(s, programID, payer, pda.KindLinkIds, state.ResourceExtensionLinkIds, linkIDMin, linkIDMax, uint32(id))
}

// allocateVrfID allocates one VRF ID from the VrfIds singleton.
func allocateVrfID(s *ledger.Store, programID, payer solana.PublicKey) (uint16, error) {
	id, err := allocateID(s, programID, payer, pda.KindVrfIds, state.ResourceExtensionVrfIds, vrfIDMin, vrfIDMax)
	if err != nil {
		return 0, err
	}
	return uint16(id), nil
}

// releaseVrfID frees a previously-allocated VRF ID back to VrfIds.
func releaseVrfID(s *ledger.Store, programID, payer solana.PublicKey, id uint16) error {
	return releaseID(s, programID, payer, pda.KindVrfIds, state.ResourceExtensionVrfIds, vrfIDMin, vrfIDMax, uint32(id))
}

// allocateSingleIP allocates one /32 address from the named CIDR-backed
// singleton extension, seeding it from base on first use.
func allocateSingleIP(s *ledger.Store, programID, payer solana.PublicKey, pdaKind string, kind state.ResourceExtensionKind, base [5]byte) ([4]byte, error) {
	totalIPs := uint32(1)
	if base[4] <= 32 {
		totalIPs = 1 << (32 - base[4])
	}
	pubkey, re, err := loadOrCreateExtension(s, programID, payer, pdaKind, kind, base, 0, 0, totalIPs)
	if err != nil {
		return [4]byte{}, err
	}
	a, err := cidrAllocator(re)
	if err != nil {
		return [4]byte{}, err
	}
	block, ok := a.NextAvailableBlock(0, 1)
	if !ok {
		return [4]byte{}, fmt.Errorf("%w: %s exhausted", ErrNotAllowed, pdaKind)
	}
	a.AssignBlock(block)
	re.Bitmap = a.Bitmap()
	if err := saveExisting(s, pubkey, re, payer); err != nil {
		return [4]byte{}, err
	}
	return block.IP, nil
}

// releaseSingleIP frees a previously-allocated /32 back to the named
// CIDR-backed singleton extension.
func releaseSingleIP(s *ledger.Store, programID, payer solana.PublicKey, pdaKind string, kind state.ResourceExtensionKind, base [5]byte, ip [4]byte) error {
	totalIPs := uint32(1)
	if base[4] <= 32 {
		totalIPs = 1 << (32 - base[4])
	}
	pubkey, re, err := loadOrCreateExtension(s, programID, payer, pdaKind, kind, base, 0, 0, totalIPs)
	if err != nil {
		return err
	}
	a, err := cidrAllocator(re)
	if err != nil {
		return err
	}
	a.UnassignBlock(alloc.CIDR{IP: ip, Prefix: 32})
	re.Bitmap = a.Bitmap()
	return saveExisting(s, pubkey, re, payer)
}

// loadOrCreateDeviceExtension is loadOrCreateExtension's device-scoped
// counterpart: the PDA is keyed by (device, scopeIndex) rather than being a
// process-wide singleton, per DzPrefixBlock/TunnelIds's IsDeviceScoped rule.
func loadOrCreateDeviceExtension(s *ledger.Store, programID, payer solana.PublicKey, pdaKind string, kind state.ResourceExtensionKind, device solana.PublicKey, scopeIndex uint64, base [5]byte, idMin, idMax uint64, totalUnits uint32) (solana.PublicKey, *state.ResourceExtension, error) {
	pubkey, bump, err := pda.DeviceScoped(programID, pdaKind, device, scopeIndex)
	if err != nil {
		return pubkey, nil, err
	}
	if s.Exists(pubkey) {
		acc, err := s.Get(pubkey)
		if err != nil {
			return pubkey, nil, err
		}
		re := &state.ResourceExtension{}
		if err := decodeInto(acc.Data, re); err != nil {
			return pubkey, nil, err
		}
		return pubkey, re, nil
	}
	re := &state.ResourceExtension{
		Kind: kind, DevicePubKey: pk(device), ScopeIndex: scopeIndex,
		CIDRBase: base, IDMin: idMin, IDMax: idMax,
		TotalUnits: totalUnits, Bitmap: make([]byte, (totalUnits+7)/8), BumpSeed: bump,
	}
	if kind == state.ResourceExtensionDzPrefixBlock {
		// §4.3: the first two IPs of a DzPrefixBlock are reserved at
		// construction for the device's loopback100 unicast/multicast
		// tunnel endpoints, so the block's own allocator never hands them
		// out to a Loopback interface.
		a, err := cidrAllocator(re)
		if err != nil {
			return pubkey, nil, err
		}
		a.AssignBlock(alloc.CIDR{IP: a.Base().IP, Prefix: 31})
		re.Bitmap = a.Bitmap()
	}
	if err := saveNew(s, programID, pubkey, re); err != nil {
		return pubkey, nil, err
	}
	return pubkey, re, nil
}

// allocateDeviceLoopbackIP carves one /32 out of a device's reserved
// dz_prefix block for a Loopback interface, via the device-scoped
// DzPrefixBlock extension.
func allocateDeviceLoopbackIP(s *ledger.Store, programID, payer, device solana.PublicKey, dzPrefix [5]byte) ([4]byte, error) {
	totalIPs := uint32(1)
	if dzPrefix[4] <= 32 {
		totalIPs = 1 << (32 - dzPrefix[4])
	}
	pubkey, re, err := loadOrCreateDeviceExtension(s, programID, payer, pda.KindDzPrefixBlock,
		state.ResourceExtensionDzPrefixBlock, device, 0, dzPrefix, 0, 0, totalIPs)
	if err != nil {
		return [4]byte{}, err
	}
	a, err := cidrAllocator(re)
	if err != nil {
		return [4]byte{}, err
	}
	block, ok := a.NextAvailableBlock(0, 1)
	if !ok {
		return [4]byte{}, fmt.Errorf("%w: device %s loopback block exhausted", ErrNotAllowed, device)
	}
	a.AssignBlock(block)
	re.Bitmap = a.Bitmap()
	if err := saveExisting(s, pubkey, re, payer); err != nil {
		return [4]byte{}, err
	}
	return block.IP, nil
}

// releaseDeviceLoopbackIP frees a previously-allocated loopback /32 back to
// the device's DzPrefixBlock extension.
func releaseDeviceLoopbackIP(s *ledger.Store, programID, payer, device solana.PublicKey, dzPrefix [5]byte, ip [4]byte) error {
	totalIPs := uint32(1)
	if dzPrefix[4] <= 32 {
		totalIPs = 1 << (32 - dzPrefix[4])
	}
	pubkey, re, err := loadOrCreateDeviceExtension(s, programID, payer, pda.KindDzPrefixBlock,
		state.ResourceExtensionDzPrefixBlock, device, 0, dzPrefix, 0, 0, totalIPs)
	if err != nil {
		return err
	}
	a, err := cidrAllocator(re)
	if err != nil {
		return err
	}
	a.UnassignBlock(alloc.CIDR{IP: ip, Prefix: 32})
	re.Bitmap = a.Bitmap()
	return saveExisting(s, pubkey, re, payer)
}

// allocateSegmentRoutingID allocates one segment-routing node index for a
// device's Loopback interface, via the device-scoped TunnelIds extension
// (the same "generic ID range" layout LinkIds/VrfIds use, just keyed per
// device rather than process-wide).
func allocateSegmentRoutingID(s *ledger.Store, programID, payer, device solana.PublicKey) (uint16, error) {
	pubkey, re, err := loadOrCreateDeviceExtension(s, programID, payer, pda.KindTunnelIds,
		state.ResourceExtensionTunnelIds, device, 0, [5]byte{}, segRoutingIDMin, segRoutingIDMax, uint32(segRoutingIDMax-segRoutingIDMin))
	if err != nil {
		return 0, err
	}
	a := idBitmapAllocator(re)
	id, ok := a.NextAvailable()
	if !ok {
		return 0, fmt.Errorf("%w: device %s segment-routing ids exhausted", ErrNotAllowed, device)
	}
	idBitmapFromAllocator(re, a)
	if err := saveExisting(s, pubkey, re, payer); err != nil {
		return 0, err
	}
	return uint16(id), nil
}

// releaseSegmentRoutingID frees a previously-allocated segment-routing node
// index back to the device's TunnelIds extension.
func releaseSegmentRoutingID(s *ledger.Store, programID, payer, device solana.PublicKey, id uint16) error {
	pubkey, re, err := loadOrCreateDeviceExtension(s, programID, payer, pda.KindTunnelIds,
		state.ResourceExtensionTunnelIds, device, 0, [5]byte{}, segRoutingIDMin, segRoutingIDMax, uint32(segRoutingIDMax-segRoutingIDMin))
	if err != nil {
		return err
	}
	a := idBitmapAllocator(re)
	a.Unassign(uint32(id))
	idBitmapFromAllocator(re, a)
	return saveExisting(s, pubkey, re, payer)
}

const (
	linkIDMin = 1
	linkIDMax = 1 << 16

	vrfIDMin = 1
	vrfIDMax = 1 << 12

	segRoutingIDMin = 1
	segRoutingIDMax = 1 << 10

	tunnelBlockTotalIPs = 1 << 16
)

var tunnelBlockBase = mustCIDRBase("100.64.0.0/16")

func mustCIDRBase(s string) [5]byte {
	b, err := validate.CIDR(s)
	if err != nil {
		panic(err)
	}
	return b
}
