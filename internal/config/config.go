// Package config holds the engine's tunable policy constants (§4.8, §9
// "Fixed thresholds"). Every field defaults to the spec's normative value;
// engine.Option functions override individual fields before Open runs.
package config

import (
	"amethyst/internal/common"
	"amethyst/internal/metrics"
)

// Config collects every policy knob the engine consults. The zero value is
// not meaningful on its own — always start from Default().
type Config struct {
	// MemtableFlushBytes is the byte-accounting threshold that triggers a
	// synchronous flush from inside put/del (§4.5).
	MemtableFlushBytes uint64

	// CompactionTriggerSSTCount is the live-SST count at or above which a
	// flush enqueues a compaction request (§4.5).
	CompactionTriggerSSTCount int

	// CompactionMergeWidth is the number of newest SSTs one merge attempt
	// selects (§4.5).
	CompactionMergeWidth int

	// SparseIndexStride is the sparse-index record interval (§3, §9).
	SparseIndexStride uint32

	// BloomKHashes is the fixed number of Bloom hash functions (§4.1).
	BloomKHashes uint32

	// BloomBitsPerEntry is the Bloom sidecar's bits-per-entry factor (§4.1).
	BloomBitsPerEntry uint32

	// Logf receives diagnostic messages the engine and compaction worker
	// emit; defaults to common.Logf, overridable for silent tests.
	Logf func(format string, args ...interface{})

	// Metrics is the registry every mutating operation records against;
	// defaults to a fresh, privately-registered Registry (§4.7).
	Metrics *metrics.Registry
}

// Default returns the spec's normative configuration (§9 "Fixed
// thresholds"). Tests rely on these exact values for parity.
func Default() Config {
	return Config{
		MemtableFlushBytes:        1 << 20,
		CompactionTriggerSSTCount: 8,
		CompactionMergeWidth:      4,
		SparseIndexStride:         16,
		BloomKHashes:              7,
		BloomBitsPerEntry:         10,
		Logf:                      common.Logf,
		Metrics:                   metrics.New(),
	}
}
