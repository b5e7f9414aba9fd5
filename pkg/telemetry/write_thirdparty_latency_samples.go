package telemetry

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

type WriteThirdPartyLatencySamplesInstructionConfig struct {
	AgentPK                 solana.PublicKey
	LocationAPK             solana.PublicKey
	LocationZPK             solana.PublicKey
	ServiceabilityProgramID solana.PublicKey
	DataProviderName        string
	Epoch                   uint64
	StartTimestampMicroseconds uint64
	Samples                 []uint32
}

func (c *WriteThirdPartyLatencySamplesInstructionConfig) Validate() error {
	if c.AgentPK.IsZero() {
		return fmt.Errorf("agent public key is required")
	}
	if c.LocationAPK.IsZero() {
		return fmt.Errorf("location A public key is required")
	}
	if c.LocationZPK.IsZero() {
		return fmt.Errorf("location Z public key is required")
	}
	if c.DataProviderName == "" {
		return fmt.Errorf("data provider name is required")
	}
	if c.Epoch == 0 {
		return fmt.Errorf("epoch is required")
	}
	return nil
}

// Builds the instruction for writing third-party latency samples. An empty
// Samples batch is still a valid, no-op write: the program only bumps
// NextSampleIndex and latches StartTimestampMicroseconds when len(Samples) > 0.
func BuildWriteThirdPartyLatencySamplesInstruction(
	programID solana.PublicKey,
	config WriteThirdPartyLatencySamplesInstructionConfig,
) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	data, err := borsh.Serialize(struct {
		Discriminator              uint8
		StartTimestampMicroseconds uint64
		Samples                    []uint32
	}{
		Discriminator:              uint8(WriteThirdPartyLatencySamplesInstructionIndex),
		StartTimestampMicroseconds: config.StartTimestampMicroseconds,
		Samples:                    config.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize args: %w", err)
	}

	pda, _, err := DeriveThirdPartyLatencySamplesPDA(
		programID,
		config.DataProviderName,
		config.LocationAPK,
		config.LocationZPK,
		config.Epoch,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive PDA: %w", err)
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: pda, IsSigner: false, IsWritable: true},
		{PublicKey: config.LocationAPK, IsSigner: false, IsWritable: false},
		{PublicKey: config.LocationZPK, IsSigner: false, IsWritable: false},
		{PublicKey: config.AgentPK, IsSigner: true, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: config.ServiceabilityProgramID, IsSigner: false, IsWritable: false},
	}

	return &solana.GenericInstruction{
		ProgID:        programID,
		AccountValues: accounts,
		DataBytes:     data,
	}, nil
}
