// Package filter implements the per-SST Bloom filter and its on-disk
// sidecar format (§3, §4.1, §6).
package filter

// Filter provides fast negative lookups for keys in an SST.
// A Bloom filter can definitively say a key is NOT present, but can only
// say a key MIGHT be present (false positives possible, false negatives not).
type Filter interface {
	// Add inserts key into the filter.
	Add(key []byte)

	// MayContain returns true if the key might be in the set.
	// Returns false only if the key is definitely NOT in the set.
	MayContain(key []byte) bool
}
