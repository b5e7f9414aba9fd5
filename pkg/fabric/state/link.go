package state

import "github.com/malbeclabs/doublezero-sub004/pkg/codec"

type LinkLinkType uint8

const (
	LinkLinkTypeWAN LinkLinkType = 1
	LinkLinkTypeDZX LinkLinkType = 127
)

type LinkStatus uint8

const (
	LinkStatusPending LinkStatus = iota
	LinkStatusActivated
	LinkStatusSuspended
	LinkStatusDeleting
	LinkStatusRejected
	LinkStatusRequested
	LinkStatusHardDrained
	LinkStatusSoftDrained
	LinkStatusProvisioning
)

func (s LinkStatus) IsHardDrained() bool { return s == LinkStatusHardDrained }

type LinkHealth uint8

const (
	LinkHealthPending LinkHealth = iota
	LinkHealthReadyForService
	LinkHealthImpaired
)

type LinkDesiredStatus uint8

const (
	LinkDesiredStatusPending LinkDesiredStatus = iota
	LinkDesiredStatusActivated
	LinkDesiredStatusHardDrained
	LinkDesiredStatusSoftDrained
)

// Link joins two device interfaces (side A and side Z) over a GRE tunnel,
// grounded on the Link struct in the teacher's serviceability state.go.
type Link struct {
	Owner             [32]byte
	Index             codec.Uint128
	BumpSeed          uint8
	SideAPubKey       [32]byte
	SideZPubKey       [32]byte
	LinkType          LinkLinkType
	Bandwidth         uint64
	MTU               uint32
	DelayNs           uint64
	JitterNs          uint64
	TunnelID          uint16
	TunnelNet         [5]byte
	Status            LinkStatus
	Code              string
	ContributorPubKey [32]byte
	SideAIfaceName    string
	SideZIfaceName    string
	DelayOverrideNs   uint64
	Health            LinkHealth
	DesiredStatus     LinkDesiredStatus
}

func (l *Link) Discriminant() AccountType { return LinkType }

func (l *Link) Size() int {
	return 1 + 32 + 16 + 1 + 32 + 32 + 1 + 8 + 4 + 8 + 8 + 2 + 5 + 1 +
		codec.StringSize(l.Code) + 32 +
		codec.StringSize(l.SideAIfaceName) + codec.StringSize(l.SideZIfaceName) +
		8 + 1 + 1
}

func (l *Link) Encode() []byte {
	w := codec.NewWriter(l.Size())
	w.WriteU8(uint8(LinkType))
	w.WritePubkey(l.Owner)
	w.WriteU128(l.Index)
	w.WriteU8(l.BumpSeed)
	w.WritePubkey(l.SideAPubKey)
	w.WritePubkey(l.SideZPubKey)
	w.WriteU8(uint8(l.LinkType))
	w.WriteU64(l.Bandwidth)
	w.WriteU32(l.MTU)
	w.WriteU64(l.DelayNs)
	w.WriteU64(l.JitterNs)
	w.WriteU16(l.TunnelID)
	w.WriteNetworkV4(l.TunnelNet)
	w.WriteU8(uint8(l.Status))
	w.WriteString(l.Code)

	w.WritePubkey(l.ContributorPubKey)
	w.WriteString(l.SideAIfaceName)
	w.WriteString(l.SideZIfaceName)
	w.WriteU64(l.DelayOverrideNs)
	w.WriteU8(uint8(l.Health))
	w.WriteU8(uint8(l.DesiredStatus))
	return w.Bytes()
}

func (l *Link) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(LinkType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	l.Owner = r.ReadPubkey()
	l.Index = r.ReadU128()
	l.BumpSeed = r.ReadU8()
	l.SideAPubKey = r.ReadPubkey()
	l.SideZPubKey = r.ReadPubkey()
	l.LinkType = LinkLinkType(r.ReadU8())
	l.Bandwidth = r.ReadU64()
	l.MTU = r.ReadU32()
	l.DelayNs = r.ReadU64()
	l.JitterNs = r.ReadU64()
	l.TunnelID = r.ReadU16()
	l.TunnelNet = r.ReadNetworkV4()
	l.Status = LinkStatus(r.ReadU8())
	l.Code = r.ReadString()
	l.ContributorPubKey = r.ReadPubkey()
	l.SideAIfaceName = r.ReadString()
	l.SideZIfaceName = r.ReadString()
	l.DelayOverrideNs = r.ReadU64()
	l.Health = LinkHealth(r.ReadU8())
	l.DesiredStatus = LinkDesiredStatus(r.ReadU8())
	return nil
}
