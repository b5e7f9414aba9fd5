package telemetry

// Represents the type of telemetry instruction
type TelemetryInstructionType uint8

const (
	// Represents the initialize device latency samples instruction
	InitializeDeviceLatencySamplesInstructionIndex TelemetryInstructionType = 0
	// Represents the write device latency samples instruction
	WriteDeviceLatencySamplesInstructionIndex TelemetryInstructionType = 1
	// Represents the initialize internet latency samples instruction
	InitializeInternetLatencySamplesInstructionIndex TelemetryInstructionType = 2
	// Represents the write internet latency samples instruction
	WriteInternetLatencySamplesInstructionIndex TelemetryInstructionType = 3
	// Represents the initialize third-party latency samples instruction
	InitializeThirdPartyLatencySamplesInstructionIndex TelemetryInstructionType = 4
	// Represents the write third-party latency samples instruction
	WriteThirdPartyLatencySamplesInstructionIndex TelemetryInstructionType = 5

	// InstructionErrorAccountDoesNotExist is the error code that the telemetry program returns
	// when the given PDA does not exist.
	InstructionErrorAccountDoesNotExist = 1011

	// MaxSamplesPerBatch is the maximum number of samples that can be written in a single batch.
	//
	// Messages transmitted to Solana validators must not exceed the IPv6 MTU size to ensure fast
	// and reliable network transmission of cluster info over UDP. Solana's networking stack uses a
	// conservative MTU size of 1280 bytes which, after accounting for headers, leaves 1232 bytes
	// for packet data like serialized transactions.
	// https://docs.anza.xyz/proposals/versioned-transactions#problem
	MaxSamplesPerBatch = 245 // 980 bytes

	// MaxDeviceLatencySamplesPerAccount is the maximum number of samples that can be written to a single device latency samples account.
	// This provides space for just over 12 samples per minute, or 1 sample every 5 seconds.
	MaxDeviceLatencySamplesPerAccount = 35_000

	// MaxInternetLatencySamplesPerAccount is the maximum number of samples that can be written to an internet latency samples account.
	// This provides space for just over 1 sample per minute.
	MaxInternetLatencySamplesPerAccount = 3000

	// MaxThirdPartyLatencySamplesPerAccount is the maximum number of samples that can be
	// written to a third-party latency samples account. Processor creates the account with
	// its header only and grows it on each write without Store.Resize.
	MaxThirdPartyLatencySamplesPerAccount = 3000
)

// Telemetry Program IDs
const (
	// TELEMETRY_PROGRAM_ID_TESTNET is the telemetry program ID for testnet
	TELEMETRY_PROGRAM_ID_TESTNET = "3KogTMmVxc5eUHtjZnwm136H5P8tvPwVu4ufbGPvM7p1"
	// TELEMETRY_PROGRAM_ID_DEVNET is the telemetry program ID for devnet
	TELEMETRY_PROGRAM_ID_DEVNET = "C9xqH76NSm11pBS6maNnY163tWHT8Govww47uyEmSnoG"
)

// PDA seeds for the internet/third-party latency samples accounts. Device
// latency samples use a distinct CreateWithSeed-derived address instead; see
// account.go.
const (
	TelemetrySeedPrefix         = "telemetry"
	InternetLatencySamplesSeed  = "internet-latency-samples"
	ThirdPartyLatencySamplesSeed = "thirdparty-latency-samples"
)
