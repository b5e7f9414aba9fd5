package telemetry

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// DeriveInternetLatencySamplesPDA derives the PDA for an internet latency
// samples account, keyed by data provider and the two observed locations.
func DeriveInternetLatencySamplesPDA(
	programID solana.PublicKey,
	dataProviderName string,
	originLocationPK solana.PublicKey,
	targetLocationPK solana.PublicKey,
	epoch uint64,
) (solana.PublicKey, uint8, error) {
	epochBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(epochBytes, epoch)

	seeds := [][]byte{
		[]byte(TelemetrySeedPrefix),
		[]byte(InternetLatencySamplesSeed),
		[]byte(dataProviderName),
		originLocationPK[:],
		targetLocationPK[:],
		epochBytes,
	}

	return solana.FindProgramAddress(seeds, programID)
}

// DeriveThirdPartyLatencySamplesPDA derives the PDA for a third-party
// latency samples account, keyed by data provider and the two Location
// accounts whose pair it measures.
func DeriveThirdPartyLatencySamplesPDA(
	programID solana.PublicKey,
	dataProviderName string,
	locationAPK solana.PublicKey,
	locationZPK solana.PublicKey,
	epoch uint64,
) (solana.PublicKey, uint8, error) {
	epochBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(epochBytes, epoch)

	seeds := [][]byte{
		[]byte(TelemetrySeedPrefix),
		[]byte(ThirdPartyLatencySamplesSeed),
		[]byte(dataProviderName),
		locationAPK[:],
		locationZPK[:],
		epochBytes,
	}

	return solana.FindProgramAddress(seeds, programID)
}
