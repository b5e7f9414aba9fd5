package telemetry

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestSDK_Telemetry_DeriveInternetLatencySamplesPDA(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	originLocationPK := solana.NewWallet().PublicKey()
	targetLocationPK := solana.NewWallet().PublicKey()
	epoch := uint64(100)

	pda1, bump1, err := DeriveInternetLatencySamplesPDA(programID, "ripe-atlas", originLocationPK, targetLocationPK, epoch)
	require.NoError(t, err)
	require.False(t, pda1.IsZero(), "PDA should not be zero")
	require.LessOrEqual(t, int(bump1), 255, "invalid bump seed")

	pda2, _, err := DeriveInternetLatencySamplesPDA(programID, "ripe-atlas", targetLocationPK, originLocationPK, epoch)
	require.NoError(t, err)
	require.NotEqual(t, pda1, pda2, "PDA should differ if location order changes")
}

func TestSDK_Telemetry_DeriveInternetLatencySamplesPDA_VariesWithProviderAndEpoch(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	originLocationPK := solana.NewWallet().PublicKey()
	targetLocationPK := solana.NewWallet().PublicKey()

	pda1, _, err := DeriveInternetLatencySamplesPDA(programID, "ripe-atlas", originLocationPK, targetLocationPK, 100)
	require.NoError(t, err)

	pda2, _, err := DeriveInternetLatencySamplesPDA(programID, "ripe-atlas", originLocationPK, targetLocationPK, 101)
	require.NoError(t, err)
	require.NotEqual(t, pda1, pda2, "PDAs should differ for different epochs")

	pda3, _, err := DeriveInternetLatencySamplesPDA(programID, "other-provider", originLocationPK, targetLocationPK, 100)
	require.NoError(t, err)
	require.NotEqual(t, pda1, pda3, "PDAs should differ for different data providers")
}

func TestSDK_Telemetry_DeriveThirdPartyLatencySamplesPDA(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	locationAPK := solana.NewWallet().PublicKey()
	locationZPK := solana.NewWallet().PublicKey()
	epoch := uint64(200)

	pda1, bump1, err := DeriveThirdPartyLatencySamplesPDA(programID, "ripe-atlas", locationAPK, locationZPK, epoch)
	require.NoError(t, err)
	require.False(t, pda1.IsZero(), "PDA should not be zero")
	require.LessOrEqual(t, int(bump1), 255, "invalid bump seed")

	pda2, _, err := DeriveThirdPartyLatencySamplesPDA(programID, "ripe-atlas", locationZPK, locationAPK, epoch)
	require.NoError(t, err)
	require.NotEqual(t, pda1, pda2, "PDA should differ if location order changes")

	pda3, _, err := DeriveThirdPartyLatencySamplesPDA(programID, "ripe-atlas", locationAPK, locationZPK, epoch+1)
	require.NoError(t, err)
	require.NotEqual(t, pda1, pda3, "PDAs should differ for different epochs")
}

func TestSDK_Telemetry_DeriveThirdPartyAndInternetPDAsDoNotCollide(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	locA := solana.NewWallet().PublicKey()
	locZ := solana.NewWallet().PublicKey()
	epoch := uint64(300)

	internetPDA, _, err := DeriveInternetLatencySamplesPDA(programID, "ripe-atlas", locA, locZ, epoch)
	require.NoError(t, err)

	thirdPartyPDA, _, err := DeriveThirdPartyLatencySamplesPDA(programID, "ripe-atlas", locA, locZ, epoch)
	require.NoError(t, err)

	require.NotEqual(t, internetPDA, thirdPartyPDA, "distinct account kinds must not share an address space")
}
