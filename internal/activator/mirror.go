// Package activator implements the off-chain reconciliation loop (C6): it
// observes the ledger's update stream and drives Pending→Activated
// transitions by allocating physical-layer resources the same way the
// on-chain program does for its own on-chain allocation path, grounded on
// activator/src/process/{iface_mgr,multicastgroup}.rs and
// activator/src/user_monitor.rs in original_source.
package activator

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/alloc"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/validate"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
)

// deviceScope keys a device-scoped ResourceExtension (DzPrefixBlock,
// TunnelIds): one allocator universe per (device, scope index) pair, per
// §4.1's device-scoped PDA derivation.
type deviceScope struct {
	Device solana.PublicKey
	Index  uint64
}

// Mirrors holds the activator's in-memory allocator copies, one per
// ResourceExtension account found in the ledger. I8 requires these to be
// rebuilt from the ledger at boot rather than trusted across restarts, so
// there is deliberately no persistent store backing this struct.
type Mirrors struct {
	MulticastGroupIPs     *alloc.IPBlockAllocator
	MulticastPublisherIPs *alloc.IPBlockAllocator
	LinkIDs               *alloc.IDAllocator
	VrfIDs                *alloc.IDAllocator
	SegmentRoutingIDs     map[deviceScope]*alloc.IDAllocator
	LoopbackIPs           map[deviceScope]*alloc.IPBlockAllocator
}

// RebuildMirrors scans every account in the ledger snapshot, decodes the
// ResourceExtension accounts it finds, and rebuilds the matching mirror
// allocator from each one's persisted bitmap. Device-scoped kinds accumulate
// into per-(device, index) maps; the rest are process-wide singletons.
func RebuildMirrors(snapshot map[solana.PublicKey]ledger.Account) (*Mirrors, error) {
	m := &Mirrors{
		SegmentRoutingIDs: make(map[deviceScope]*alloc.IDAllocator),
		LoopbackIPs:       make(map[deviceScope]*alloc.IPBlockAllocator),
	}
	for _, acc := range snapshot {
		at, err := state.PeekAccountType(acc.Data)
		if err != nil || at != state.ResourceExtensionType {
			continue
		}
		re := &state.ResourceExtension{}
		if err := re.Decode(acc.Data); err != nil {
			return nil, fmt.Errorf("decoding resource extension: %w", err)
		}

		if re.Kind.IsDeviceScoped() {
			scope := deviceScope{Device: solana.PublicKeyFromBytes(re.DevicePubKey[:]), Index: re.ScopeIndex}
			if re.Kind.IsCIDRBacked() {
				a, err := cidrMirror(re)
				if err != nil {
					return nil, err
				}
				m.LoopbackIPs[scope] = a
			} else {
				m.SegmentRoutingIDs[scope] = idMirror(re)
			}
			continue
		}

		switch re.Kind {
		case state.ResourceExtensionMulticastGroupBlock:
			a, err := cidrMirror(re)
			if err != nil {
				return nil, err
			}
			m.MulticastGroupIPs = a
		case state.ResourceExtensionMulticastPublisherBlock:
			a, err := cidrMirror(re)
			if err != nil {
				return nil, err
			}
			m.MulticastPublisherIPs = a
		case state.ResourceExtensionLinkIds:
			m.LinkIDs = idMirror(re)
		case state.ResourceExtensionVrfIds:
			m.VrfIDs = idMirror(re)
		}
	}
	return m, nil
}

func cidrMirror(re *state.ResourceExtension) (*alloc.IPBlockAllocator, error) {
	base, err := alloc.ParseCIDR(validate.CIDRToString(re.CIDRBase))
	if err != nil {
		return nil, err
	}
	a := alloc.NewIPBlockAllocator(base)
	a.LoadBitmap(re.Bitmap)
	return a, nil
}

func idMirror(re *state.ResourceExtension) *alloc.IDAllocator {
	a := alloc.NewIDAllocator(uint32(re.IDMin), uint32(re.IDMax))
	for i := uint32(0); i < re.TotalUnits; i++ {
		if re.Bitmap[i/8]&(1<<(i%8)) != 0 {
			_ = a.Assign(uint32(re.IDMin) + i)
		}
	}
	return a
}
