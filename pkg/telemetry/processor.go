package telemetry

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
)

// RentPerByte mirrors the rate pkg/fabric/program charges for account rent;
// the telemetry program is a separate on-chain program but this repo has no
// sysvar to derive a real one from, so the two share a configured constant.
const RentPerByte = 6960

// Processor applies the account-mutation effects of the instructions built
// in this package directly against a ledger, standing in for the validator
// that would otherwise run the on-chain telemetry program's handlers.
type Processor struct {
	ProgramID solana.PublicKey
	Ledger    *ledger.Ledger
}

func NewProcessor(programID solana.PublicKey, l *ledger.Ledger) *Processor {
	return &Processor{ProgramID: programID, Ledger: l}
}

// InitializeDeviceLatencySamples creates the CreateWithSeed account a pair of
// devices' RTT samples are appended to, keyed by the reporting agent.
func (p *Processor) InitializeDeviceLatencySamples(ctx context.Context, config InitializeDeviceLatencySamplesInstructionConfig) (solana.PublicKey, error) {
	if err := config.Validate(); err != nil {
		return solana.PublicKey{}, err
	}
	addr, _, err := DeriveDeviceLatencySamplesAddress(config.AgentPK, p.ProgramID, config.OriginDevicePK, config.TargetDevicePK, config.LinkPK, config.Epoch)
	if err != nil {
		return solana.PublicKey{}, err
	}

	samples := &DeviceLatencySamples{
		DeviceLatencySamplesHeader: DeviceLatencySamplesHeader{
			AccountType:                  AccountTypeDeviceLatencySamples,
			Epoch:                        config.Epoch,
			OriginDeviceAgentPK:          config.AgentPK,
			OriginDevicePK:               config.OriginDevicePK,
			TargetDevicePK:               config.TargetDevicePK,
			LinkPK:                       config.LinkPK,
			SamplingIntervalMicroseconds: config.SamplingIntervalMicroseconds,
		},
	}
	var buf bytes.Buffer
	if err := samples.Serialize(&buf); err != nil {
		return solana.PublicKey{}, err
	}

	_, err = p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		if s.Exists(addr) {
			return fmt.Errorf("%w: %s", ErrAccountAlreadyExists, addr)
		}
		return s.Create(addr, p.ProgramID, buf.Bytes(), uint64(buf.Len())*RentPerByte)
	})
	return addr, err
}

// WriteDeviceLatencySamples appends config.Samples to an already-initialized
// device latency samples account, rejecting writes from any agent other than
// the one that initialized it (the address is derived from the agent key, so
// another agent's write finds no account: ErrAccountDoesNotExist) and writes that would
// overflow the account's fixed capacity (§ SamplesAccountFull). An empty
// batch is a valid no-op.
func (p *Processor) WriteDeviceLatencySamples(ctx context.Context, config WriteDeviceLatencySamplesInstructionConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	addr, _, err := DeriveDeviceLatencySamplesAddress(config.AgentPK, p.ProgramID, config.OriginDevicePK, config.TargetDevicePK, config.LinkPK, config.Epoch)
	if err != nil {
		return err
	}
	if len(config.Samples) == 0 {
		return nil
	}
	if len(config.Samples) > MaxSamplesPerBatch {
		return ErrSamplesBatchTooLarge
	}

	_, err = p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		acc, err := s.Get(addr)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
		}
		samples := &DeviceLatencySamples{}
		if err := samples.Deserialize(acc.Data); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAccountType, err)
		}
		if samples.AccountType != AccountTypeDeviceLatencySamples {
			return ErrInvalidAccountType
		}
		if !samples.OriginDeviceAgentPK.Equals(config.AgentPK) {
			return ErrUnauthorizedAgent
		}
		if samples.Epoch != config.Epoch {
			return ErrEpochMismatch
		}
		if len(samples.Samples)+len(config.Samples) > MaxDeviceLatencySamplesPerAccount {
			return ErrSamplesAccountFull
		}

		if samples.StartTimestampMicroseconds == 0 {
			samples.StartTimestampMicroseconds = config.StartTimestampMicroseconds
		}
		samples.Samples = append(samples.Samples, config.Samples...)
		samples.NextSampleIndex = uint32(len(samples.Samples))

		var buf bytes.Buffer
		if err := samples.Serialize(&buf); err != nil {
			return err
		}
		if err := s.Resize(addr, buf.Len(), config.AgentPK, RentPerByte); err != nil {
			return err
		}
		return s.Put(addr, buf.Bytes())
	})
	return err
}

// InitializeInternetLatencySamples creates the PDA a data provider's oracle
// agent reports origin/target location RTTs to for a given epoch.
func (p *Processor) InitializeInternetLatencySamples(ctx context.Context, config InitializeInternetLatencySamplesInstructionConfig) (solana.PublicKey, error) {
	if err := config.Validate(); err != nil {
		return solana.PublicKey{}, err
	}
	addr, bump, err := DeriveInternetLatencySamplesPDA(p.ProgramID, config.DataProviderName, config.OriginLocationPK, config.TargetLocationPK, config.Epoch)
	if err != nil {
		return solana.PublicKey{}, err
	}

	samples := &InternetLatencySamples{
		InternetLatencySamplesHeader: InternetLatencySamplesHeader{
			AccountType:                  AccountTypeInternetLatencySamples,
			BumpSeed:                     bump,
			Epoch:                        config.Epoch,
			DataProviderName:             config.DataProviderName,
			OracleAgentPK:                config.OracleAgentPK,
			OriginLocationPK:             config.OriginLocationPK,
			TargetLocationPK:             config.TargetLocationPK,
			SamplingIntervalMicroseconds: config.SamplingIntervalMicroseconds,
		},
	}
	var buf bytes.Buffer
	if err := samples.Serialize(&buf); err != nil {
		return solana.PublicKey{}, err
	}

	_, err = p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		if s.Exists(addr) {
			return fmt.Errorf("%w: %s", ErrAccountAlreadyExists, addr)
		}
		return s.Create(addr, p.ProgramID, buf.Bytes(), uint64(buf.Len())*RentPerByte)
	})
	return addr, err
}

// WriteInternetLatencySamples appends samples reported by signerPK, which
// must match the account's OracleAgentPK.
func (p *Processor) WriteInternetLatencySamples(ctx context.Context, signerPK solana.PublicKey, config WriteInternetLatencySamplesInstructionConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	addr, _, err := DeriveInternetLatencySamplesPDA(p.ProgramID, config.DataProviderName, config.OriginLocationPK, config.TargetLocationPK, config.Epoch)
	if err != nil {
		return err
	}
	if len(config.Samples) == 0 {
		return nil
	}
	if len(config.Samples) > MaxSamplesPerBatch {
		return ErrSamplesBatchTooLarge
	}

	_, err = p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		acc, err := s.Get(addr)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
		}
		samples := &InternetLatencySamples{}
		if err := samples.Deserialize(acc.Data); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAccountType, err)
		}
		if samples.AccountType != AccountTypeInternetLatencySamples {
			return ErrInvalidAccountType
		}
		if !samples.OracleAgentPK.Equals(signerPK) {
			return ErrUnauthorizedAgent
		}
		if samples.Epoch != config.Epoch {
			return ErrEpochMismatch
		}
		if len(samples.Samples)+len(config.Samples) > MaxInternetLatencySamplesPerAccount {
			return ErrSamplesAccountFull
		}

		if samples.StartTimestampMicroseconds == 0 {
			samples.StartTimestampMicroseconds = config.StartTimestampMicroseconds
		}
		samples.Samples = append(samples.Samples, config.Samples...)
		samples.NextSampleIndex = uint32(len(samples.Samples))

		var buf bytes.Buffer
		if err := samples.Serialize(&buf); err != nil {
			return err
		}
		if err := s.Resize(addr, buf.Len(), signerPK, RentPerByte); err != nil {
			return err
		}
		return s.Put(addr, buf.Bytes())
	})
	return err
}

// InitializeThirdPartyLatencySamples creates the PDA a third-party data
// provider's agent reports location-to-location RTTs to. The account is
// created with the header only; it is not preallocated to
// MaxThirdPartyLatencySamplesPerAccount samples.
func (p *Processor) InitializeThirdPartyLatencySamples(ctx context.Context, config InitializeThirdPartyLatencySamplesInstructionConfig) (solana.PublicKey, error) {
	if err := config.Validate(); err != nil {
		return solana.PublicKey{}, err
	}
	addr, bump, err := DeriveThirdPartyLatencySamplesPDA(p.ProgramID, config.DataProviderName, config.LocationAPK, config.LocationZPK, config.Epoch)
	if err != nil {
		return solana.PublicKey{}, err
	}

	samples := &ThirdPartyLatencySamples{
		ThirdPartyLatencySamplesHeader: ThirdPartyLatencySamplesHeader{
			AccountType:      AccountTypeThirdPartyLatencySamples,
			BumpSeed:         bump,
			Epoch:            config.Epoch,
			DataProviderName: config.DataProviderName,
			AgentPK:          config.AgentPK,
			LocationAPK:      config.LocationAPK,
			LocationZPK:      config.LocationZPK,
		},
		Samples: make([]uint32, 0, MaxThirdPartyLatencySamplesPerAccount),
	}
	var buf bytes.Buffer
	if err := samples.Serialize(&buf); err != nil {
		return solana.PublicKey{}, err
	}

	_, err = p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		if s.Exists(addr) {
			return fmt.Errorf("%w: %s", ErrAccountAlreadyExists, addr)
		}
		return s.Create(addr, p.ProgramID, buf.Bytes(), uint64(buf.Len())*RentPerByte)
	})
	return addr, err
}

// WriteThirdPartyLatencySamples appends samples reported by config.AgentPK,
// which must match the account's AgentPK. Unlike the device and internet
// writes, it stores the grown account with Put instead of Store.Resize, so no
// rent is charged for the added bytes; samples beyond
// MaxThirdPartyLatencySamplesPerAccount are rejected outright.
func (p *Processor) WriteThirdPartyLatencySamples(ctx context.Context, config WriteThirdPartyLatencySamplesInstructionConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	addr, _, err := DeriveThirdPartyLatencySamplesPDA(p.ProgramID, config.DataProviderName, config.LocationAPK, config.LocationZPK, config.Epoch)
	if err != nil {
		return err
	}
	if len(config.Samples) == 0 {
		return nil
	}
	if len(config.Samples) > MaxSamplesPerBatch {
		return ErrSamplesBatchTooLarge
	}

	_, err = p.Ledger.Submit(ctx, func(s *ledger.Store) error {
		acc, err := s.Get(addr)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAccountDoesNotExist, err)
		}
		samples := &ThirdPartyLatencySamples{}
		if err := samples.Deserialize(acc.Data); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAccountType, err)
		}
		if samples.AccountType != AccountTypeThirdPartyLatencySamples {
			return ErrInvalidAccountType
		}
		if !samples.AgentPK.Equals(config.AgentPK) {
			return ErrUnauthorizedAgent
		}
		if samples.Epoch != config.Epoch {
			return ErrEpochMismatch
		}
		if len(samples.Samples)+len(config.Samples) > MaxThirdPartyLatencySamplesPerAccount {
			return ErrSamplesAccountFull
		}

		if samples.StartTimestampMicroseconds == 0 {
			samples.StartTimestampMicroseconds = config.StartTimestampMicroseconds
		}
		samples.Samples = append(samples.Samples, config.Samples...)
		samples.NextSampleIndex = uint32(len(samples.Samples))

		var buf bytes.Buffer
		if err := samples.Serialize(&buf); err != nil {
			return err
		}
		return s.Put(addr, buf.Bytes())
	})
	return err
}
