package telemetry

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

type InitializeThirdPartyLatencySamplesInstructionConfig struct {
	AgentPK                 solana.PublicKey
	LocationAPK             solana.PublicKey
	LocationZPK             solana.PublicKey
	ServiceabilityProgramID solana.PublicKey
	DataProviderName        string
	Epoch                   uint64
}

func (c *InitializeThirdPartyLatencySamplesInstructionConfig) Validate() error {
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

// Builds the instruction for initializing a third-party latency samples
// account. Unlike device and internet latency samples, the account is
// allocated at MaxThirdPartyLatencySamplesPerAccount up front and never
// realloc'd.
func BuildInitializeThirdPartyLatencySamplesInstruction(
	programID solana.PublicKey,
	config InitializeThirdPartyLatencySamplesInstructionConfig,
) (solana.Instruction, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	data, err := borsh.Serialize(struct {
		Discriminator    uint8
		DataProviderName string
		Epoch            uint64
	}{
		Discriminator:    uint8(InitializeThirdPartyLatencySamplesInstructionIndex),
		DataProviderName: config.DataProviderName,
		Epoch:            config.Epoch,
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
		{PublicKey: config.AgentPK, IsSigner: true, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: config.ServiceabilityProgramID, IsSigner: false, IsWritable: false},
	}

	return &solana.GenericInstruction{
		ProgID:        programID,
		AccountValues: accounts,
		DataBytes:     data,
	}, nil
}
