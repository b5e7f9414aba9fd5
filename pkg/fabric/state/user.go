package state

import "github.com/malbeclabs/doublezero-sub004/pkg/codec"

type UserUserType uint8

const (
	UserTypeIBRL UserUserType = iota
	UserTypeIBRLWithAllocatedIP
	UserTypeEdgeFiltering
	UserTypeMulticast
)

type CyoaType uint8

const (
	CyoaTypeGREOverDIA CyoaType = iota + 1
	CyoaTypeGREOverFabric
	CyoaTypeGREOverPrivatePeering
	CyoaTypeGREOverPublicPeering
	CyoaTypeGREOverCable
)

type UserStatus uint8

const (
	UserStatusPending UserStatus = iota
	UserStatusActivated
	UserStatusSuspended
	UserStatusDeleted
	UserStatusRejected
	UserStatusPendingBan
	UserStatusBanned
	UserStatusUpdating
)

// User is addressed by PDA v1 (index-keyed, legacy) or v2
// (client_ip, user_type)-keyed; §4.1 and §9 require implementing both, so
// the wire layout below is shared between the two derivations.
type User struct {
	Owner           [32]byte
	Index           codec.Uint128
	BumpSeed        uint8
	UserType        UserUserType
	TenantPubKey    [32]byte
	DevicePubKey    [32]byte
	CyoaType        CyoaType
	ClientIP        [4]byte
	DzIP            [4]byte
	TunnelID        uint16
	TunnelNet       [5]byte
	Status          UserStatus
	Publishers      [][32]byte
	Subscribers     [][32]byte
	ValidatorPubKey [32]byte
	// TunnelEndpoint is the device-side GRE endpoint IP; all-zero means use
	// the device's public_ip for backwards compatibility.
	TunnelEndpoint [4]byte
}

func (u *User) Discriminant() AccountType { return UserType }

func (u *User) Size() int {
	return 1 + 32 + 16 + 1 + 1 + 32 + 32 + 1 + 4 + 4 + 2 + 5 + 1 +
		codec.PubkeySliceSize(u.Publishers) + codec.PubkeySliceSize(u.Subscribers) +
		32 + 4
}

func (u *User) Encode() []byte {
	w := codec.NewWriter(u.Size())
	w.WriteU8(uint8(UserType))
	w.WritePubkey(u.Owner)
	w.WriteU128(u.Index)
	w.WriteU8(u.BumpSeed)
	w.WriteU8(uint8(u.UserType))
	w.WritePubkey(u.TenantPubKey)
	w.WritePubkey(u.DevicePubKey)
	w.WriteU8(uint8(u.CyoaType))
	w.WriteIPv4(u.ClientIP)
	w.WriteIPv4(u.DzIP)
	w.WriteU16(u.TunnelID)
	w.WriteNetworkV4(u.TunnelNet)
	w.WriteU8(uint8(u.Status))
	w.WritePubkeySlice(u.Publishers)
	w.WritePubkeySlice(u.Subscribers)
	w.WritePubkey(u.ValidatorPubKey)
	w.WriteIPv4(u.TunnelEndpoint)
	return w.Bytes()
}

func (u *User) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(UserType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	u.Owner = r.ReadPubkey()
	u.Index = r.ReadU128()
	u.BumpSeed = r.ReadU8()
	u.UserType = UserUserType(r.ReadU8())
	u.TenantPubKey = r.ReadPubkey()
	u.DevicePubKey = r.ReadPubkey()
	u.CyoaType = CyoaType(r.ReadU8())
	u.ClientIP = r.ReadIPv4()
	u.DzIP = r.ReadIPv4()
	u.TunnelID = r.ReadU16()
	u.TunnelNet = r.ReadNetworkV4()
	u.Status = UserStatus(r.ReadU8())
	u.Publishers = r.ReadPubkeySlice()
	u.Subscribers = r.ReadPubkeySlice()
	u.ValidatorPubKey = r.ReadPubkey()
	u.TunnelEndpoint = r.ReadIPv4()
	return nil
}
