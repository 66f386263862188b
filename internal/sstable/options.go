package sstable

import "amethyst/internal/filter"

// Options customizes write_atomic's Bloom sidecar policy and Open's sparse
// index granularity, defaulting to the format's normative constants (§4.1,
// §4.8 SparseIndexStride/BloomKHashes/BloomBitsPerEntry). A single data
// directory is expected to use one set of values consistently: the sidecar
// itself stores its own (k, m), so a differing BloomKHashes/BloomBitsPerEntry
// across opens only affects filters built afterward, never ones already on
// disk.
type Options struct {
	IndexStride       uint32
	BloomKHashes      uint32
	BloomBitsPerEntry uint32
}

func defaultOptions() Options {
	return Options{
		IndexStride:       IndexStride,
		BloomKHashes:      filter.KHashes,
		BloomBitsPerEntry: filter.BitsPerEntry,
	}
}

// Option overrides one field of Options.
type Option func(*Options)

// WithIndexStride overrides the sparse index's record interval.
func WithIndexStride(n uint32) Option {
	return func(o *Options) { o.IndexStride = n }
}

// WithBloomKHashes overrides the number of Bloom hash functions used when
// building a new sidecar.
func WithBloomKHashes(n uint32) Option {
	return func(o *Options) { o.BloomKHashes = n }
}

// WithBloomBitsPerEntry overrides the Bloom sidecar's bits-per-entry factor
// used when building a new sidecar.
func WithBloomBitsPerEntry(n uint32) Option {
	return func(o *Options) { o.BloomBitsPerEntry = n }
}

func apply(opts []Option) Options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
