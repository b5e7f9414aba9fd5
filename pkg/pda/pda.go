// Package pda derives deterministic program addresses for every account kind
// owned by the serviceability and telemetry programs. A PDA is the pair
// (address, bump) produced by hashing the seed list against the off-curve
// constraint; this package only builds the seed lists, since
// solana.FindProgramAddress already implements the hashing and bump search.
package pda

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Seed prefix shared by every account derived by the fabric programs.
const SeedPrefix = "doublezero"

// Kind tags, one per account discriminant that owns a PDA derivation.
const (
	KindGlobalState             = "globalstate"
	KindGlobalConfig            = "config"
	KindProgramConfig           = "programconfig"
	KindLocation                = "location"
	KindExchange                = "exchange"
	KindContributor             = "contributor"
	KindDevice                  = "device"
	KindLink                    = "link"
	KindMulticastGroup          = "multicastgroup"
	KindTenant                  = "tenant"
	KindUserV1                  = "user"
	KindUserV2                  = "user2"
	KindAccessPass              = "accesspass"
	KindDeviceTunnelBlock       = "devicetunnelblock"
	KindUserTunnelBlock         = "usertunnelblock"
	KindMulticastGroupBlock     = "multicastgroupblock"
	KindMulticastPublisherBlock = "multicastpublisherblock"
	KindLinkIds                 = "linkids"
	KindSegmentRoutingIds       = "segmentroutingids"
	KindVrfIds                  = "vrfids"
	KindDzPrefixBlock           = "dzprefixblock"
	KindTunnelIds               = "tunnelids"
	KindExecutionRecord         = "executionrecord"
)

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func le128(v [16]byte) []byte {
	out := make([]byte, 16)
	copy(out, v[:])
	return out
}

// u128LE encodes an account index the way GlobalState.account_index+1 is
// encoded on the wire: a 16-byte little-endian unsigned integer.
func u128LE(index uint64) [16]byte {
	var out [16]byte
	binary.LittleEndian.PutUint64(out[:8], index)
	return out
}

// Singleton derives the PDA for a singleton account kind: (prefix, kind).
func Singleton(programID solana.PublicKey, kind string) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{[]byte(SeedPrefix), []byte(kind)}
	return solana.FindProgramAddress(seeds, programID)
}

// Indexed derives the PDA for an index-allocated entity: (prefix, kind, index u128 LE).
func Indexed(programID solana.PublicKey, kind string, index uint64) (solana.PublicKey, uint8, error) {
	idx := u128LE(index)
	seeds := [][]byte{[]byte(SeedPrefix), []byte(kind), le128(idx)}
	return solana.FindProgramAddress(seeds, programID)
}

// UserV2 derives the PDA for a v2 User account: (prefix, kind, client_ip, user_type).
func UserV2(programID solana.PublicKey, clientIP [4]byte, userType uint8) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(SeedPrefix),
		[]byte(KindUserV2),
		clientIP[:],
		{userType},
	}
	return solana.FindProgramAddress(seeds, programID)
}

// AccessPass derives the PDA for an AccessPass account: (prefix, kind, client_ip, user_payer).
func AccessPass(programID solana.PublicKey, clientIP [4]byte, userPayer solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(SeedPrefix),
		[]byte(KindAccessPass),
		clientIP[:],
		userPayer[:],
	}
	return solana.FindProgramAddress(seeds, programID)
}

// DeviceScoped derives the PDA for a resource extension scoped to a device,
// e.g. DzPrefixBlock(device, i) or TunnelIds(device, i): (prefix, kind, device, i u64 LE).
func DeviceScoped(programID solana.PublicKey, kind string, device solana.PublicKey, index uint64) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(SeedPrefix),
		[]byte(kind),
		device[:],
		le64(index),
	}
	return solana.FindProgramAddress(seeds, programID)
}

// ExecutionRecord derives the PDA for a scheduled job's idempotency record:
// (prefix, kind, job_id, sha256(data_seeds)) — the scheduler's per-
// (job_id, data_seeds) key (§4.7).
func ExecutionRecord(programID solana.PublicKey, jobID string, seedsDigest [32]byte) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(SeedPrefix),
		[]byte(KindExecutionRecord),
		[]byte(jobID),
		seedsDigest[:],
	}
	return solana.FindProgramAddress(seeds, programID)
}

// Tenant derives the PDA for a tenant account keyed by its code.
func Tenant(programID solana.PublicKey, code string) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{[]byte(SeedPrefix), []byte(KindTenant), []byte(code)}
	return solana.FindProgramAddress(seeds, programID)
}
