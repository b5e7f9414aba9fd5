package telemetry_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/telemetry"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/require"
)

func TestSDK_Telemetry_WriteThirdPartyLatencySamples_HappyPath(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	agentPK := solana.NewWallet().PublicKey()
	locationAPK := solana.NewWallet().PublicKey()
	locationZPK := solana.NewWallet().PublicKey()
	timestamp := uint64(1_600_000_000)
	samples := []uint32{1, 2, 3, 4}

	config := telemetry.WriteThirdPartyLatencySamplesInstructionConfig{
		AgentPK:                    agentPK,
		LocationAPK:                locationAPK,
		LocationZPK:                locationZPK,
		DataProviderName:           "ripe-atlas",
		Epoch:                      123,
		StartTimestampMicroseconds: timestamp,
		Samples:                    samples,
	}

	ix, err := telemetry.BuildWriteThirdPartyLatencySamplesInstruction(programID, config)
	require.NoError(t, err)
	require.NotNil(t, ix)

	require.Equal(t, programID, ix.ProgramID())
	accounts := ix.Accounts()
	require.Len(t, accounts, 6)

	require.Equal(t, agentPK, accounts[3].PublicKey)
	require.True(t, accounts[3].IsSigner)
	require.False(t, accounts[3].IsWritable)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, uint8(telemetry.WriteThirdPartyLatencySamplesInstructionIndex), data[0])
}

func TestSDK_Telemetry_WriteThirdPartyLatencySamples_EmptyBatchIsValid(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	config := telemetry.WriteThirdPartyLatencySamplesInstructionConfig{
		AgentPK:          solana.NewWallet().PublicKey(),
		LocationAPK:      solana.NewWallet().PublicKey(),
		LocationZPK:      solana.NewWallet().PublicKey(),
		DataProviderName: "ripe-atlas",
		Epoch:            123,
		Samples:          nil,
	}

	ix, err := telemetry.BuildWriteThirdPartyLatencySamplesInstruction(programID, config)
	require.NoError(t, err)
	require.NotNil(t, ix)
}

func TestSDK_Telemetry_WriteThirdPartyLatencySamples_MissingFields(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	base := telemetry.WriteThirdPartyLatencySamplesInstructionConfig{
		AgentPK:          solana.NewWallet().PublicKey(),
		LocationAPK:      solana.NewWallet().PublicKey(),
		LocationZPK:      solana.NewWallet().PublicKey(),
		DataProviderName: "ripe-atlas",
		Epoch:            123,
		Samples:          []uint32{10, 20},
	}

	tests := []struct {
		name        string
		mutate      func(*telemetry.WriteThirdPartyLatencySamplesInstructionConfig)
		expectError string
	}{
		{
			name:        "missing_agent_pk",
			mutate:      func(c *telemetry.WriteThirdPartyLatencySamplesInstructionConfig) { c.AgentPK = solana.PublicKey{} },
			expectError: "agent public key is required",
		},
		{
			name:        "missing_location_a_pk",
			mutate:      func(c *telemetry.WriteThirdPartyLatencySamplesInstructionConfig) { c.LocationAPK = solana.PublicKey{} },
			expectError: "location A public key is required",
		},
		{
			name:        "missing_location_z_pk",
			mutate:      func(c *telemetry.WriteThirdPartyLatencySamplesInstructionConfig) { c.LocationZPK = solana.PublicKey{} },
			expectError: "location Z public key is required",
		},
		{
			name:        "missing_epoch",
			mutate:      func(c *telemetry.WriteThirdPartyLatencySamplesInstructionConfig) { c.Epoch = 0 },
			expectError: "epoch is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := base
			tt.mutate(&config)

			ix, err := telemetry.BuildWriteThirdPartyLatencySamplesInstruction(programID, config)
			require.ErrorContains(t, err, tt.expectError)
			require.Nil(t, ix)
		})
	}
}

func TestSDK_Telemetry_WriteThirdPartyLatencySamples_BorshEncoding(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	timestamp := uint64(1_650_000_000)
	samples := []uint32{100, 200, 300}

	config := telemetry.WriteThirdPartyLatencySamplesInstructionConfig{
		AgentPK:                    solana.NewWallet().PublicKey(),
		LocationAPK:                solana.NewWallet().PublicKey(),
		LocationZPK:                solana.NewWallet().PublicKey(),
		DataProviderName:           "ripe-atlas",
		Epoch:                      555,
		StartTimestampMicroseconds: timestamp,
		Samples:                    samples,
	}

	ix, err := telemetry.BuildWriteThirdPartyLatencySamplesInstruction(programID, config)
	require.NoError(t, err)

	var decoded struct {
		Discriminator              uint8
		StartTimestampMicroseconds uint64
		Samples                    []uint32
	}

	data, err := ix.Data()
	require.NoError(t, err)
	require.NoError(t, borsh.Deserialize(&decoded, data))

	require.Equal(t, uint8(telemetry.WriteThirdPartyLatencySamplesInstructionIndex), decoded.Discriminator)
	require.Equal(t, timestamp, decoded.StartTimestampMicroseconds)
	require.Equal(t, samples, decoded.Samples)
}
