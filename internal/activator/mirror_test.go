package activator

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/alloc"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/validate"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/stretchr/testify/require"
)

func mustCIDR(t *testing.T, s string) [5]byte {
	t.Helper()
	b, err := validate.CIDR(s)
	require.NoError(t, err)
	return b
}

func TestRebuildMirrorsSingletons(t *testing.T) {
	base := mustCIDR(t, "239.0.0.0/24")
	a := alloc.NewIPBlockAllocator(mustParse(t, "239.0.0.0/24"))
	block, ok := a.NextAvailableBlock(0, 1)
	require.True(t, ok)
	a.AssignBlock(block)

	re := &state.ResourceExtension{
		Kind:       state.ResourceExtensionMulticastGroupBlock,
		CIDRBase:   base,
		TotalUnits: 256,
		Bitmap:     a.Bitmap(),
	}
	pubkey := solana.NewWallet().PublicKey()
	snap := map[solana.PublicKey]ledger.Account{
		pubkey: {Data: re.Encode()},
	}

	m, err := RebuildMirrors(snap)
	require.NoError(t, err)
	require.NotNil(t, m.MulticastGroupIPs)
	require.Equal(t, 1, m.MulticastGroupIPs.AssignedCount())
}

func TestRebuildMirrorsDeviceScoped(t *testing.T) {
	device := solana.NewWallet().PublicKey()
	idAlloc := alloc.NewIDAllocator(1, 100)
	require.NoError(t, idAlloc.Assign(5))

	re := &state.ResourceExtension{
		Kind:         state.ResourceExtensionTunnelIds,
		DevicePubKey: pk(device),
		ScopeIndex:   0,
		IDMin:        1,
		IDMax:        100,
		TotalUnits:   99,
		Bitmap:       make([]byte, 13),
	}
	re.Bitmap[4/8] |= 1 << (4 % 8)

	pubkey := solana.NewWallet().PublicKey()
	snap := map[solana.PublicKey]ledger.Account{
		pubkey: {Data: re.Encode()},
	}

	m, err := RebuildMirrors(snap)
	require.NoError(t, err)
	got, ok := m.SegmentRoutingIDs[deviceScope{Device: device, Index: 0}]
	require.True(t, ok)
	require.True(t, got.IsAssigned(5))
}

func mustParse(t *testing.T, s string) alloc.CIDR {
	t.Helper()
	c, err := alloc.ParseCIDR(s)
	require.NoError(t, err)
	return c
}

func pk(k solana.PublicKey) [32]byte {
	var out [32]byte
	copy(out[:], k[:])
	return out
}
