// Package memtable implements the in-memory sorted buffer of recent
// mutations (§3, §4.5): an ordered mapping from key to optional value,
// absent meaning tombstone, with a running byte-accounting charge used to
// decide when to flush.
package memtable

import "amethyst/internal/common"

// entryCharge is the fixed per-entry bookkeeping charge added to
// |key|+|value| when accounting for memtable bytes (§3).
const entryCharge = 16

// Entry is the value half of a memtable lookup: Tombstone true means the
// key is known to be deleted; otherwise Value holds the live bytes.
type Entry struct {
	Value     []byte
	Tombstone bool
}

// Memtable is the ordered key/mutation buffer the engine mutates under its
// exclusive lock and flushes into a new SST once it grows past the
// configured byte threshold.
type Memtable interface {
	Put(key, value []byte)
	Delete(key []byte)
	Get(key []byte) (Entry, bool)
	Bytes() uint64
	Len() int
	// Iterator returns entries in ascending key order, suitable for
	// write_atomic at flush time.
	Iterator() common.KVIterator
}
