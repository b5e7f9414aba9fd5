package state

import "github.com/malbeclabs/doublezero-sub004/pkg/codec"

type AccessPassKind uint8

const (
	AccessPassKindPrepaid AccessPassKind = iota
	AccessPassKindSolanaValidator
)

// AccessPassFlags is a bitfield; see invariant I9.
type AccessPassFlags uint8

const (
	AccessPassFlagAllowMultipleIP AccessPassFlags = 1 << iota
	AccessPassFlagDynamicIP
)

func (f AccessPassFlags) AllowMultipleIP() bool { return f&AccessPassFlagAllowMultipleIP != 0 }
func (f AccessPassFlags) DynamicIP() bool       { return f&AccessPassFlagDynamicIP != 0 }

// AccessPass is keyed by (client_ip, user_payer) and binds a user to an
// epoch liveness window and to multicast/tenant allowlists (§3, I9, I10).
type AccessPass struct {
	Kind              AccessPassKind
	ValidatorPubKey   [32]byte // only meaningful when Kind == AccessPassKindSolanaValidator
	ClientIP          [4]byte
	UserPayer         [32]byte
	LastAccessEpoch   uint64
	ConnectionCount   uint32
	Status            Status
	Flags             AccessPassFlags
	MgroupPubAllowlist [][32]byte
	MgroupSubAllowlist [][32]byte
	TenantAllowlist    [][32]byte
	BumpSeed           uint8
}

func (a *AccessPass) Discriminant() AccountType { return AccessPassType }

func (a *AccessPass) Size() int {
	return 1 + 1 + 32 + 4 + 32 + 8 + 4 + 1 + 1 +
		codec.PubkeySliceSize(a.MgroupPubAllowlist) +
		codec.PubkeySliceSize(a.MgroupSubAllowlist) +
		codec.PubkeySliceSize(a.TenantAllowlist) + 1
}

func (a *AccessPass) Encode() []byte {
	w := codec.NewWriter(a.Size())
	w.WriteU8(uint8(AccessPassType))
	w.WriteU8(uint8(a.Kind))
	w.WritePubkey(a.ValidatorPubKey)
	w.WriteIPv4(a.ClientIP)
	w.WritePubkey(a.UserPayer)
	w.WriteU64(a.LastAccessEpoch)
	w.WriteU32(a.ConnectionCount)
	w.WriteU8(uint8(a.Status))
	w.WriteU8(uint8(a.Flags))
	w.WritePubkeySlice(a.MgroupPubAllowlist)
	w.WritePubkeySlice(a.MgroupSubAllowlist)
	w.WritePubkeySlice(a.TenantAllowlist)
	w.WriteU8(a.BumpSeed)
	return w.Bytes()
}

func (a *AccessPass) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(AccessPassType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	a.Kind = AccessPassKind(r.ReadU8())
	a.ValidatorPubKey = r.ReadPubkey()
	a.ClientIP = r.ReadIPv4()
	a.UserPayer = r.ReadPubkey()
	a.LastAccessEpoch = r.ReadU64()
	a.ConnectionCount = r.ReadU32()
	a.Status = Status(r.ReadU8())
	a.Flags = AccessPassFlags(r.ReadU8())
	a.MgroupPubAllowlist = r.ReadPubkeySlice()
	a.MgroupSubAllowlist = r.ReadPubkeySlice()
	a.TenantAllowlist = r.ReadPubkeySlice()
	a.BumpSeed = r.ReadU8()
	return nil
}

// IsLive reports whether the pass grants access at currentEpoch, per I10.
func (a *AccessPass) IsLive(currentEpoch uint64) bool {
	return a.LastAccessEpoch >= currentEpoch
}

// CheckClientIP enforces I9: a non-multi-IP pass must match exactly, and a
// dynamic pass locks onto the first IP it observes.
func (a *AccessPass) CheckClientIP(clientIP [4]byte) bool {
	if a.Flags.AllowMultipleIP() {
		return true
	}
	if a.Flags.DynamicIP() && a.ClientIP == ([4]byte{}) {
		a.ClientIP = clientIP
		return true
	}
	return a.ClientIP == clientIP
}
