package telemetry

import (
	"fmt"
	"io"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

type AccountType uint8

const (
	AccountTypeDeviceLatencySamples AccountType = iota + 1
	AccountTypeInternetLatencySamples
	AccountTypeThirdPartyLatencySamples

	// AccountTypeDeviceLatencySamplesV0 tags accounts written before the
	// header was split out as DeviceLatencySamplesHeader. ToV1 converts a
	// decoded V0 value; Processor does not call it and rejects V0 accounts
	// with ErrInvalidAccountType.
	AccountTypeDeviceLatencySamplesV0 AccountType = 0
)

// DeviceLatencySamplesHeader is the fixed-size portion of a device latency
// samples account. It is encoded ahead of the variable-length Samples slice
// so NextSampleIndex can be read without decoding the whole account.
type DeviceLatencySamplesHeader struct {
	// Used to distinguish this account type during deserialization
	AccountType AccountType // 1

	// Required for recreating the PDA (seed authority)
	BumpSeed uint8 // 1

	// Epoch number in which samples were collected
	Epoch uint64 // 8

	// Agent authorized to write RTT samples (must match signer)
	OriginDeviceAgentPK solana.PublicKey // 32

	// Device initiating sampling
	OriginDevicePK solana.PublicKey // 32

	// Destination device in RTT path
	TargetDevicePK solana.PublicKey // 32

	// Cached location of origin device for query/UI optimization
	OriginDeviceLocationPK solana.PublicKey // 32

	// Cached location of target device
	TargetDeviceLocationPK solana.PublicKey // 32

	// Link over which the RTT samples were taken
	LinkPK solana.PublicKey // 32

	// Sampling interval configured by the agent (in microseconds)
	SamplingIntervalMicroseconds uint64 // 8

	// Timestamp of the first written sample (us since UNIX epoch).
	// Set on the first write, remains unchanged after.
	StartTimestampMicroseconds uint64 // 8

	// Tracks how many samples have been appended.
	NextSampleIndex uint32 // 4

	// Reserved for future use.
	Unused [128]uint8 // 128
}

// DeviceLatencySamples is the decoded form of a device latency samples
// account: a fixed header plus the RTT samples appended so far, one
// microsecond-resolution value per entry.
type DeviceLatencySamples struct {
	DeviceLatencySamplesHeader
	Samples []uint32
}

func (d *DeviceLatencySamples) Serialize(w io.Writer) error {
	enc := bin.NewBorshEncoder(w)
	if err := enc.Encode(d.DeviceLatencySamplesHeader); err != nil {
		return err
	}
	for _, sample := range d.Samples {
		if err := enc.Encode(sample); err != nil {
			return err
		}
	}
	return nil
}

func (d *DeviceLatencySamples) Deserialize(data []byte) error {
	dec := bin.NewBorshDecoder(data)
	if err := dec.Decode(&d.DeviceLatencySamplesHeader); err != nil {
		return err
	}
	if d.NextSampleIndex > MaxDeviceLatencySamplesPerAccount {
		return fmt.Errorf("next sample index %d exceeds max allowed samples %d", d.NextSampleIndex, MaxDeviceLatencySamplesPerAccount)
	}
	d.Samples = make([]uint32, d.NextSampleIndex)
	for i := range d.Samples {
		if err := dec.Decode(&d.Samples[i]); err != nil {
			return err
		}
	}
	return nil
}

// InternetLatencySamplesHeader is the fixed-size portion of an internet
// latency samples account: RTT observations collected by a third-party data
// provider's agent between two locations rather than two devices.
type InternetLatencySamplesHeader struct {
	AccountType AccountType // 1
	BumpSeed    uint8       // 1
	Epoch       uint64      // 8

	// Name of the data provider supplying these samples, e.g. "ripe-atlas".
	DataProviderName string

	// Agent authorized to write samples for this data provider (must match signer)
	OracleAgentPK solana.PublicKey // 32

	OriginLocationPK solana.PublicKey // 32
	TargetLocationPK solana.PublicKey // 32

	StartTimestampMicroseconds   uint64 // 8
	SamplingIntervalMicroseconds uint64 // 8

	NextSampleIndex uint32 // 4

	Unused [128]uint8 // 128
}

type InternetLatencySamples struct {
	InternetLatencySamplesHeader
	Samples []uint32
}

func (d *InternetLatencySamples) Serialize(w io.Writer) error {
	enc := bin.NewBorshEncoder(w)
	if err := enc.Encode(d.InternetLatencySamplesHeader); err != nil {
		return err
	}
	for _, sample := range d.Samples {
		if err := enc.Encode(sample); err != nil {
			return err
		}
	}
	return nil
}

func (d *InternetLatencySamples) Deserialize(data []byte) error {
	dec := bin.NewBorshDecoder(data)
	if err := dec.Decode(&d.InternetLatencySamplesHeader); err != nil {
		return err
	}
	if d.NextSampleIndex > MaxInternetLatencySamplesPerAccount {
		return fmt.Errorf("next sample index %d exceeds max allowed samples %d", d.NextSampleIndex, MaxInternetLatencySamplesPerAccount)
	}
	d.Samples = make([]uint32, d.NextSampleIndex)
	for i := range d.Samples {
		if err := dec.Decode(&d.Samples[i]); err != nil {
			return err
		}
	}
	return nil
}

// ThirdPartyLatencySamplesHeader is the fixed-size portion of a third-party
// latency samples account: like InternetLatencySamplesHeader but keyed by
// the two Location account pubkeys directly and capped at
// MaxThirdPartyLatencySamplesPerAccount samples.
type ThirdPartyLatencySamplesHeader struct {
	AccountType AccountType // 1
	BumpSeed    uint8       // 1
	Epoch       uint64      // 8

	DataProviderName string

	AgentPK solana.PublicKey // 32

	LocationAPK solana.PublicKey // 32
	LocationZPK solana.PublicKey // 32

	StartTimestampMicroseconds uint64 // 8

	NextSampleIndex uint32 // 4
}

type ThirdPartyLatencySamples struct {
	ThirdPartyLatencySamplesHeader
	Samples []uint32
}

func (d *ThirdPartyLatencySamples) Serialize(w io.Writer) error {
	enc := bin.NewBorshEncoder(w)
	if err := enc.Encode(d.ThirdPartyLatencySamplesHeader); err != nil {
		return err
	}
	for _, sample := range d.Samples {
		if err := enc.Encode(sample); err != nil {
			return err
		}
	}
	return nil
}

func (d *ThirdPartyLatencySamples) Deserialize(data []byte) error {
	dec := bin.NewBorshDecoder(data)
	if err := dec.Decode(&d.ThirdPartyLatencySamplesHeader); err != nil {
		return err
	}
	if d.NextSampleIndex > MaxThirdPartyLatencySamplesPerAccount {
		return fmt.Errorf("next sample index %d exceeds max allowed samples %d", d.NextSampleIndex, MaxThirdPartyLatencySamplesPerAccount)
	}
	d.Samples = make([]uint32, d.NextSampleIndex)
	for i := range d.Samples {
		if err := dec.Decode(&d.Samples[i]); err != nil {
			return err
		}
	}
	return nil
}
