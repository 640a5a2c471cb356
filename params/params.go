// Package params holds the bit-exact protocol constants consumed by the
// sync/selector/dust subsystems, in the style of the teacher's
// params/protocol_params.go grouped const block.
package params

const (
	// DustAllowanceValue is the minimum amount a Single output must carry
	// to not be counted as dust at its address.
	DustAllowanceValue uint64 = 1_000_000

	// DustDivisor converts a dust-allowance balance into the number of
	// dust outputs it permits: allowed = dustAllowanceBalance / DustDivisor.
	DustDivisor uint64 = 100_000

	// MaxAllowedDustOutputs bounds the allowance-derived dust count
	// regardless of how large the allowance balance is.
	MaxAllowedDustOutputs uint64 = 100

	// SyncChunkSize bounds in-flight per-address RPCs during reconciliation.
	SyncChunkSize = 500

	// InputOutputCountMax is the ledger-defined cardinality cap on a
	// transaction's combined inputs and outputs for software signers.
	InputOutputCountMax = 127

	// HardwareSignerMaxInputsPlusOutputs is the combined inputs+outputs
	// cap a hardware-wallet signing call can display/approve.
	HardwareSignerMaxInputsPlusOutputs = 17

	// DefaultGapLimit is the number of consecutive unused addresses the
	// Address Scanner probes before concluding a space is exhausted, for
	// both software and hardware signers.
	DefaultGapLimit = 10

	// IncrementalGapLimit is used for single-address incremental syncs.
	IncrementalGapLimit = 1

	// ConsolidationThreshold is the unspent-Single-output count at a
	// single address above which those outputs are worth sweeping
	// together ahead of a large input selection (SPEC_FULL.md supplement 2).
	ConsolidationThreshold = 2
)
