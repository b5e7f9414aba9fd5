package state

import "github.com/malbeclabs/doublezero-sub004/pkg/codec"

// ResourceExtensionKind identifies which allocator universe a
// ResourceExtension account backs (§3).
type ResourceExtensionKind uint8

const (
	ResourceExtensionDeviceTunnelBlock ResourceExtensionKind = iota
	ResourceExtensionUserTunnelBlock
	ResourceExtensionMulticastGroupBlock
	ResourceExtensionMulticastPublisherBlock
	ResourceExtensionDzPrefixBlock
	ResourceExtensionTunnelIds
	ResourceExtensionLinkIds
	ResourceExtensionSegmentRoutingIds
	ResourceExtensionVrfIds
)

// IsDeviceScoped reports whether this kind is keyed by (device, index), per
// §4.1's PDA derivation rules.
func (k ResourceExtensionKind) IsDeviceScoped() bool {
	return k == ResourceExtensionDzPrefixBlock || k == ResourceExtensionTunnelIds
}

// IsCIDRBacked reports whether the extension uses CIDRBase (bit-vector IP
// allocator) as opposed to an integer ID range (monotonic ID allocator).
func (k ResourceExtensionKind) IsCIDRBacked() bool {
	switch k {
	case ResourceExtensionDeviceTunnelBlock, ResourceExtensionUserTunnelBlock,
		ResourceExtensionMulticastGroupBlock, ResourceExtensionMulticastPublisherBlock,
		ResourceExtensionDzPrefixBlock:
		return true
	default:
		return false
	}
}

// ResourceExtension is the on-chain bitmap-backed allocator account (§9
// "In-place mutation of variable-length data"). The bitmap's length is fixed
// at construction from TotalUnits and never resized in place; depending on
// Kind, either CIDRBase (a CIDR v4 block) or IDMin/IDMax (an integer ID
// range) is in use.
type ResourceExtension struct {
	Kind ResourceExtensionKind

	// Device-scoped kinds only (DzPrefixBlock, TunnelIds): owning device and
	// per-device scope index.
	DevicePubKey [32]byte
	ScopeIndex   uint64

	CIDRBase  [5]byte
	IDMin     uint64
	IDMax     uint64
	TotalUnits uint32
	Bitmap     []byte
	BumpSeed   uint8
}

func (e *ResourceExtension) Discriminant() AccountType { return ResourceExtensionType }

func (e *ResourceExtension) Size() int {
	return 1 + 1 + 32 + 8 + 5 + 8 + 8 + 4 + codec.VarBytesSize(e.Bitmap) + 1
}

func (e *ResourceExtension) Encode() []byte {
	w := codec.NewWriter(e.Size())
	w.WriteU8(uint8(ResourceExtensionType))
	w.WriteU8(uint8(e.Kind))
	w.WritePubkey(e.DevicePubKey)
	w.WriteU64(e.ScopeIndex)
	w.WriteNetworkV4(e.CIDRBase)
	w.WriteU64(e.IDMin)
	w.WriteU64(e.IDMax)
	w.WriteU32(e.TotalUnits)
	w.WriteVarBytes(e.Bitmap)
	w.WriteU8(e.BumpSeed)
	return w.Bytes()
}

func (e *ResourceExtension) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(ResourceExtensionType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	e.Kind = ResourceExtensionKind(r.ReadU8())
	e.DevicePubKey = r.ReadPubkey()
	e.ScopeIndex = r.ReadU64()
	e.CIDRBase = r.ReadNetworkV4()
	e.IDMin = r.ReadU64()
	e.IDMax = r.ReadU64()
	e.TotalUnits = r.ReadU32()
	e.Bitmap = r.ReadVarBytes()
	e.BumpSeed = r.ReadU8()
	return nil
}
