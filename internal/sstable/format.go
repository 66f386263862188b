// Package sstable implements the immutable, sorted, on-disk record file
// (§3, §4.2, §4.3, §6): records in ascending key order, a footer carrying a
// magic number and an FNV-1a/32 checksum over the record region, and an
// in-memory sparse index rebuilt on open.
package sstable

// Tombstone is the sentinel vsize value (2^32-1) that marks a deletion on
// disk (§3). A live value's length must therefore be at most 2^32-2.
const Tombstone uint32 = 0xFFFFFFFF

// FooterMagic is the fixed 8-byte magic "HELIOSST" (§3, §6), normative.
const FooterMagic uint64 = 0x48454C494F535354

// FooterSize is the fixed 12-byte footer: u64 magic + u32 checksum.
const FooterSize = 12

// IndexStride is the sparse index stride: every 16th record is indexed
// (§3, §9 "Fixed thresholds").
const IndexStride = 16

// recordHeaderSize is the fixed ksize+vsize prefix of every record.
const recordHeaderSize = 8
