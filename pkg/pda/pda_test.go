package pda

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestSingletonDeterministic(t *testing.T) {
	programID := solana.NewWallet().PublicKey()

	addr1, bump1, err := Singleton(programID, KindGlobalState)
	require.NoError(t, err)

	addr2, bump2, err := Singleton(programID, KindGlobalState)
	require.NoError(t, err)

	require.Equal(t, addr1, addr2)
	require.Equal(t, bump1, bump2)
}

func TestSingletonDistinctKinds(t *testing.T) {
	programID := solana.NewWallet().PublicKey()

	a, _, err := Singleton(programID, KindDeviceTunnelBlock)
	require.NoError(t, err)
	b, _, err := Singleton(programID, KindUserTunnelBlock)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestIndexedVariesByIndex(t *testing.T) {
	programID := solana.NewWallet().PublicKey()

	a, _, err := Indexed(programID, KindDevice, 1)
	require.NoError(t, err)
	b, _, err := Indexed(programID, KindDevice, 2)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestUserV2VariesByIPAndType(t *testing.T) {
	programID := solana.NewWallet().PublicKey()

	a, _, err := UserV2(programID, [4]byte{10, 0, 0, 1}, 0)
	require.NoError(t, err)
	b, _, err := UserV2(programID, [4]byte{10, 0, 0, 1}, 1)
	require.NoError(t, err)
	c, _, err := UserV2(programID, [4]byte{10, 0, 0, 2}, 0)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.NotEqual(t, a, c)
}

func TestAccessPassKeyedByIPAndPayer(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	payer1 := solana.NewWallet().PublicKey()
	payer2 := solana.NewWallet().PublicKey()

	a, _, err := AccessPass(programID, [4]byte{10, 0, 0, 1}, payer1)
	require.NoError(t, err)
	b, _, err := AccessPass(programID, [4]byte{10, 0, 0, 1}, payer2)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestDeviceScopedVariesByDeviceAndIndex(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	device1 := solana.NewWallet().PublicKey()
	device2 := solana.NewWallet().PublicKey()

	a, _, err := DeviceScoped(programID, KindDzPrefixBlock, device1, 0)
	require.NoError(t, err)
	b, _, err := DeviceScoped(programID, KindDzPrefixBlock, device1, 1)
	require.NoError(t, err)
	c, _, err := DeviceScoped(programID, KindDzPrefixBlock, device2, 0)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.NotEqual(t, a, c)
}

func TestTenantKeyedByCode(t *testing.T) {
	programID := solana.NewWallet().PublicKey()

	a, _, err := Tenant(programID, "acme")
	require.NoError(t, err)
	b, _, err := Tenant(programID, "globex")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}
