package memtable

import (
	"sort"

	"amethyst/internal/common"
)

// mapMemtable is the baseline Go map-backed implementation. Ordering is
// reconstructed on demand at Iterator time rather than maintained
// incrementally, since flush is the only caller that needs sorted order.
type mapMemtable struct {
	items map[string]Entry
	bytes uint64
}

var _ Memtable = (*mapMemtable)(nil)

// New returns an empty memtable.
func New() Memtable {
	return &mapMemtable{items: make(map[string]Entry)}
}

// Put records or overwrites key's value. If key already had an entry, its
// charge is subtracted before the new charge is added (§3).
func (m *mapMemtable) Put(key, value []byte) {
	m.subtractExisting(key)
	m.items[string(key)] = Entry{Value: append([]byte(nil), value...)}
	m.bytes += uint64(len(key)) + uint64(len(value)) + entryCharge
}

// Delete installs a tombstone for key, replacing any prior entry.
func (m *mapMemtable) Delete(key []byte) {
	m.subtractExisting(key)
	m.items[string(key)] = Entry{Tombstone: true}
	m.bytes += uint64(len(key)) + entryCharge
}

func (m *mapMemtable) subtractExisting(key []byte) {
	old, ok := m.items[string(key)]
	if !ok {
		return
	}
	m.bytes -= uint64(len(key)) + uint64(len(old.Value)) + entryCharge
}

// Get returns the current entry for key, if any.
func (m *mapMemtable) Get(key []byte) (Entry, bool) {
	e, ok := m.items[string(key)]
	return e, ok
}

// Bytes returns the running byte-accounting charge over live entries.
func (m *mapMemtable) Bytes() uint64 {
	return m.bytes
}

// Len returns the number of distinct keys held (live values and tombstones
// both count).
func (m *mapMemtable) Len() int {
	return len(m.items)
}

// Iterator returns a snapshot of the current entries in ascending key
// order, already sorted for write_atomic (§4.5 "already sorted because the
// memtable is an ordered map").
func (m *mapMemtable) Iterator() common.KVIterator {
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]*common.KV, 0, len(keys))
	for _, k := range keys {
		e := m.items[k]
		kvs = append(kvs, &common.KV{
			Key:       []byte(k),
			Value:     e.Value,
			Tombstone: e.Tombstone,
		})
	}
	return common.NewSliceIterator(kvs)
}
