package state

import "github.com/malbeclabs/doublezero-sub004/pkg/codec"

type MulticastGroupStatus uint8

const (
	MulticastGroupStatusPending MulticastGroupStatus = iota
	MulticastGroupStatusActivated
	MulticastGroupStatusSuspended
	MulticastGroupStatusDeleting
)

// MulticastGroup owns one multicast IP carved from GlobalConfig's
// multicast_group_block and tracks publisher/subscriber counts.
type MulticastGroup struct {
	Owner           [32]byte
	Index           codec.Uint128
	BumpSeed        uint8
	TenantPubKey    [32]byte
	MulticastIP     [4]byte
	MaxBandwidth    uint64
	Status          MulticastGroupStatus
	Code            string
	PublisherCount  uint32
	SubscriberCount uint32
}

func (m *MulticastGroup) Discriminant() AccountType { return MulticastGroupType }

func (m *MulticastGroup) Size() int {
	return 1 + 32 + 16 + 1 + 32 + 4 + 8 + 1 + codec.StringSize(m.Code) + 4 + 4
}

func (m *MulticastGroup) Encode() []byte {
	w := codec.NewWriter(m.Size())
	w.WriteU8(uint8(MulticastGroupType))
	w.WritePubkey(m.Owner)
	w.WriteU128(m.Index)
	w.WriteU8(m.BumpSeed)
	w.WritePubkey(m.TenantPubKey)
	w.WriteIPv4(m.MulticastIP)
	w.WriteU64(m.MaxBandwidth)
	w.WriteU8(uint8(m.Status))
	w.WriteString(m.Code)
	w.WriteU32(m.PublisherCount)
	w.WriteU32(m.SubscriberCount)
	return w.Bytes()
}

func (m *MulticastGroup) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(MulticastGroupType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	m.Owner = r.ReadPubkey()
	m.Index = r.ReadU128()
	m.BumpSeed = r.ReadU8()
	m.TenantPubKey = r.ReadPubkey()
	m.MulticastIP = r.ReadIPv4()
	m.MaxBandwidth = r.ReadU64()
	m.Status = MulticastGroupStatus(r.ReadU8())
	m.Code = r.ReadString()
	m.PublisherCount = r.ReadU32()
	m.SubscriberCount = r.ReadU32()
	return nil
}
