// Package state defines the typed account codec (C2) and the entity data
// model (§3) of the serviceability and resource-extension programs. Every
// account begins with a single-byte discriminant (AccountType); Decode always
// checks it first, per invariant I1, and DecodeAny dispatches on it without
// ever silently accepting an unknown value, per the "polymorphic accounts"
// design note.
package state

import (
	"fmt"

	"github.com/malbeclabs/doublezero-sub004/pkg/codec"
)

// AccountType is the one-byte discriminant every account begins with. Values
// are pinned to the teacher SDK's wire numbering so the codec round-trips
// with any existing reader built against the same program.
type AccountType uint8

const (
	GlobalStateType AccountType = iota + 1
	GlobalConfigType
	LocationType
	ExchangeType
	DeviceType
	LinkType
	UserType
	MulticastGroupType
	ProgramConfigType
	ContributorType
	AccessPassType
	ResourceExtensionType
	TenantType
	ExecutionRecordType
)

func (t AccountType) String() string {
	switch t {
	case GlobalStateType:
		return "GlobalState"
	case GlobalConfigType:
		return "GlobalConfig"
	case LocationType:
		return "Location"
	case ExchangeType:
		return "Exchange"
	case DeviceType:
		return "Device"
	case LinkType:
		return "Link"
	case UserType:
		return "User"
	case MulticastGroupType:
		return "MulticastGroup"
	case ProgramConfigType:
		return "ProgramConfig"
	case ContributorType:
		return "Contributor"
	case AccessPassType:
		return "AccessPass"
	case ResourceExtensionType:
		return "ResourceExtension"
	case TenantType:
		return "Tenant"
	case ExecutionRecordType:
		return "ExecutionRecord"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Account is implemented by every entity in the data model: it knows its own
// exact on-disk size and how to encode/decode itself.
type Account interface {
	Discriminant() AccountType
	Size() int
	Encode() []byte
	Decode(data []byte) error
}

// PeekAccountType reads byte 0 without decoding, used by the ledger
// substrate to dispatch and by handlers verifying a referenced account's
// kind before casting it.
func PeekAccountType(data []byte) (AccountType, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty account data", codec.ErrInvalidAccountType)
	}
	return AccountType(data[0]), nil
}
