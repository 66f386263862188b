package engine

import (
	"amethyst/internal/config"
	"amethyst/internal/metrics"
)

// Option generalizes the teacher's functional-option pattern (db.Option)
// over config.Config (§4.8).
type Option func(*config.Config)

// WithMemtableFlushBytes overrides the synchronous-flush byte threshold.
func WithMemtableFlushBytes(n uint64) Option {
	return func(c *config.Config) { c.MemtableFlushBytes = n }
}

// WithCompactionTriggerSSTCount overrides the live-SST count that enqueues
// a compaction request.
func WithCompactionTriggerSSTCount(n int) Option {
	return func(c *config.Config) { c.CompactionTriggerSSTCount = n }
}

// WithCompactionMergeWidth overrides the number of newest SSTs one merge
// attempt selects.
func WithCompactionMergeWidth(n int) Option {
	return func(c *config.Config) { c.CompactionMergeWidth = n }
}

// WithSparseIndexStride overrides the sparse-index record interval.
func WithSparseIndexStride(n uint32) Option {
	return func(c *config.Config) { c.SparseIndexStride = n }
}

// WithBloomKHashes overrides the number of Bloom hash functions.
func WithBloomKHashes(n uint32) Option {
	return func(c *config.Config) { c.BloomKHashes = n }
}

// WithBloomBitsPerEntry overrides the Bloom sidecar's bits-per-entry factor.
func WithBloomBitsPerEntry(n uint32) Option {
	return func(c *config.Config) { c.BloomBitsPerEntry = n }
}

// WithLogf overrides the diagnostic logger, e.g. to silence it in tests.
func WithLogf(fn func(format string, args ...interface{})) Option {
	return func(c *config.Config) { c.Logf = fn }
}

// WithMetricsRegistry overrides the Prometheus registry mutations record
// against, letting an embedding caller supply one it also exposes on its
// own /metrics endpoint.
func WithMetricsRegistry(r *metrics.Registry) Option {
	return func(c *config.Config) { c.Metrics = r }
}
