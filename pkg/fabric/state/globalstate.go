package state

import (
	"github.com/malbeclabs/doublezero-sub004/pkg/codec"
)

// GlobalState is the singleton account owning the monotonic account index
// allocator and the three authorization allowlists (§3).
type GlobalState struct {
	AccountIndex             codec.Uint128
	FoundationAllowlist      [][32]byte
	DeviceAllowlist          [][32]byte
	UserAllowlist            [][32]byte
	ActivatorAuthority       [32]byte
	SentinelAuthority        [32]byte
	ContributorAirdropLamports uint64
	UserAirdropLamports      uint64
	FeatureFlags             uint64
	BumpSeed                 uint8
}

func (g *GlobalState) Discriminant() AccountType { return GlobalStateType }

func (g *GlobalState) Size() int {
	return 1 + 16 +
		codec.PubkeySliceSize(g.FoundationAllowlist) +
		codec.PubkeySliceSize(g.DeviceAllowlist) +
		codec.PubkeySliceSize(g.UserAllowlist) +
		32 + 32 + 8 + 8 + 8 + 1
}

func (g *GlobalState) Encode() []byte {
	w := codec.NewWriter(g.Size())
	w.WriteU8(uint8(GlobalStateType))
	w.WriteU128(g.AccountIndex)
	w.WritePubkeySlice(g.FoundationAllowlist)
	w.WritePubkeySlice(g.DeviceAllowlist)
	w.WritePubkeySlice(g.UserAllowlist)
	w.WritePubkey(g.ActivatorAuthority)
	w.WritePubkey(g.SentinelAuthority)
	w.WriteU64(g.ContributorAirdropLamports)
	w.WriteU64(g.UserAirdropLamports)
	w.WriteU64(g.FeatureFlags)
	w.WriteU8(g.BumpSeed)
	return w.Bytes()
}

func (g *GlobalState) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(GlobalStateType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	g.AccountIndex = r.ReadU128()
	g.FoundationAllowlist = r.ReadPubkeySlice()
	g.DeviceAllowlist = r.ReadPubkeySlice()
	g.UserAllowlist = r.ReadPubkeySlice()
	g.ActivatorAuthority = r.ReadPubkey()
	g.SentinelAuthority = r.ReadPubkey()
	g.ContributorAirdropLamports = r.ReadU64()
	g.UserAirdropLamports = r.ReadU64()
	g.FeatureFlags = r.ReadU64()
	g.BumpSeed = r.ReadU8()
	return nil
}

func containsKey(set [][32]byte, key [32]byte) bool {
	for _, k := range set {
		if k == key {
			return true
		}
	}
	return false
}

// AddFoundation inserts key into the foundation allowlist if absent.
func (g *GlobalState) AddFoundation(key [32]byte) {
	if !containsKey(g.FoundationAllowlist, key) {
		g.FoundationAllowlist = append(g.FoundationAllowlist, key)
	}
}

// RemoveFoundation removes key from the foundation allowlist, if present.
func (g *GlobalState) RemoveFoundation(key [32]byte) {
	g.FoundationAllowlist = removeKey(g.FoundationAllowlist, key)
}

func (g *GlobalState) AddDevice(key [32]byte) {
	if !containsKey(g.DeviceAllowlist, key) {
		g.DeviceAllowlist = append(g.DeviceAllowlist, key)
	}
}

func (g *GlobalState) RemoveDevice(key [32]byte) {
	g.DeviceAllowlist = removeKey(g.DeviceAllowlist, key)
}

func (g *GlobalState) AddUser(key [32]byte) {
	if !containsKey(g.UserAllowlist, key) {
		g.UserAllowlist = append(g.UserAllowlist, key)
	}
}

func (g *GlobalState) RemoveUser(key [32]byte) {
	g.UserAllowlist = removeKey(g.UserAllowlist, key)
}

func removeKey(set [][32]byte, key [32]byte) [][32]byte {
	out := set[:0:0]
	for _, k := range set {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}

// IsFoundation reports whether key is in the foundation allowlist.
func (g *GlobalState) IsFoundation(key [32]byte) bool { return containsKey(g.FoundationAllowlist, key) }

// NextAccountIndex returns the index to use for the next created entity and
// advances the allocator, matching "index = GlobalState.account_index + 1 at
// creation" (§4.1).
func (g *GlobalState) NextAccountIndex() codec.Uint128 {
	g.AccountIndex = g.AccountIndex.Add1()
	return g.AccountIndex
}

// Feature flag bits, ordered low-to-high.
const (
	FeatureOnChainResourceAllocation uint64 = 1 << iota
)

func (g *GlobalState) HasFeature(bit uint64) bool { return g.FeatureFlags&bit != 0 }

func (g *GlobalState) SetFeature(bit uint64, on bool) {
	if on {
		g.FeatureFlags |= bit
	} else {
		g.FeatureFlags &^= bit
	}
}
