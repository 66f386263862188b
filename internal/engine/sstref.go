package engine

import (
	"sync"

	"amethyst/internal/sstable"
)

// sstRef is a reference-counted handle on one SST reader (§9 "Concurrency
// re-architecture"). Get snapshots the stack and releases the engine lock
// before probing (§5), so a compaction install can retire a reader out of
// the live stack while a Get is still holding it. acquire/release let Get
// keep a reader's file descriptor open across that window; retire drops the
// stack's own reference and closes the file only once every acquired
// reference has been released.
type sstRef struct {
	sst *sstable.SST

	mu      sync.Mutex
	refs    int
	retired bool
}

// newSSTRef wraps sst with one reference, owned by whatever stack slice
// holds the sstRef.
func newSSTRef(sst *sstable.SST) *sstRef {
	return &sstRef{sst: sst, refs: 1}
}

// acquire adds a reader-side reference. Callers must hold e.mu (any mode)
// when calling this on entries from e.stack, so it cannot race retire.
func (r *sstRef) acquire() {
	r.mu.Lock()
	r.refs++
	r.mu.Unlock()
}

// release drops a reader-side reference taken by acquire, closing the
// underlying file if the reader has since been retired and this was the
// last outstanding reference.
func (r *sstRef) release() {
	r.mu.Lock()
	r.refs--
	closeNow := r.refs == 0 && r.retired
	r.mu.Unlock()
	if closeNow {
		r.sst.Close()
	}
}

// retire drops the stack's own reference and marks the reader retired,
// closing it immediately if no Get is currently holding it.
func (r *sstRef) retire() {
	r.mu.Lock()
	r.refs--
	r.retired = true
	closeNow := r.refs == 0
	r.mu.Unlock()
	if closeNow {
		r.sst.Close()
	}
}
