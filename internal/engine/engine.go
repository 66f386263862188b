// Package engine ties the memtable, write-ahead log, manifest, and SST
// stack together into the single storage engine the rest of HeliosDB
// drives (§3, §4.5): open/put/del/get/flush/compact/close.
package engine

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"amethyst/internal/common"
	"amethyst/internal/config"
	"amethyst/internal/herrors"
	"amethyst/internal/manifest"
	"amethyst/internal/memtable"
	"amethyst/internal/sstable"
	"amethyst/internal/wal"
)

// Engine is the embeddable storage handle. A single sync.RWMutex guards the
// memtable, the SST stack, the WAL handle, and the next-SST-id counter
// (§5); a separate mutex/condvar pair coordinates the background
// compaction worker without ever guarding storage state itself.
type Engine struct {
	mu sync.RWMutex

	dataDir string
	paths   *common.PathManager
	cfg     config.Config

	memtable  memtable.Memtable
	wal       wal.WAL
	manifest  *manifest.Manifest
	stack     []*sstRef // newest first
	nextSSTID uint64
	closed    bool

	compactMu   sync.Mutex
	compactCond *sync.Cond
	compactReq  bool
	stop        bool
	workerDone  chan struct{}
}

// Open creates dataDir if absent, loads the manifest and SST stack,
// reconciles any invalid entries, constructs the WAL, replays it into a
// fresh memtable, and starts the background compaction worker (§4.5
// "Construction").
func Open(dataDir string, opts ...Option) (*Engine, error) {
	cfg := config.Default()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	paths := common.NewPathManager(dataDir)

	m, err := manifest.Load(dataDir)
	if err != nil {
		return nil, err
	}
	if err := m.Reconcile(func(name string) bool {
		return sstable.IsValid(filepath.Join(dataDir, name))
	}); err != nil {
		return nil, err
	}

	e := &Engine{
		dataDir:   dataDir,
		paths:     paths,
		cfg:       cfg,
		manifest:  m,
		nextSSTID: m.NextSSTID(),
	}
	if err := e.reloadStackLocked(); err != nil {
		return nil, err
	}

	e.memtable = memtable.New()
	w, err := wal.Open(paths.WALPath())
	if err != nil {
		e.retireStackLocked()
		return nil, err
	}
	e.wal = w
	if err := w.Replay(wal.ReplayHooks{
		ApplyPut:    e.memtable.Put,
		ApplyDelete: e.memtable.Delete,
	}); err != nil {
		w.Close()
		e.retireStackLocked()
		return nil, err
	}

	e.compactCond = sync.NewCond(&e.compactMu)
	e.workerDone = make(chan struct{})
	e.cfg.Metrics.SetMemtableBytes(e.memtable.Bytes())
	e.cfg.Metrics.SetSSTCount(len(e.stack))
	go e.compactionWorker()

	return e, nil
}

// Put appends a PUT record to the WAL, then upserts the key in the
// memtable, flushing synchronously if the byte threshold is crossed
// (§4.5).
func (e *Engine) Put(key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return herrors.ErrEngineClosed
	}
	if err := e.wal.AppendPut(key, value); err != nil {
		return err
	}
	e.memtable.Put(key, value)
	e.cfg.Metrics.RecordPut()
	e.cfg.Metrics.SetMemtableBytes(e.memtable.Bytes())

	if e.memtable.Bytes() >= e.cfg.MemtableFlushBytes {
		return e.flushLocked()
	}
	return nil
}

// Del appends a DELETE record unconditionally — even if the key is absent
// from the memtable, because an older SST may still hold it (§4.5).
func (e *Engine) Del(key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return herrors.ErrEngineClosed
	}
	if err := e.wal.AppendDelete(key); err != nil {
		return err
	}
	e.memtable.Delete(key)
	e.cfg.Metrics.RecordDelete()
	e.cfg.Metrics.SetMemtableBytes(e.memtable.Bytes())

	if e.memtable.Bytes() >= e.cfg.MemtableFlushBytes {
		return e.flushLocked()
	}
	return nil
}

// Get resolves key by consulting the memtable first (authoritative when
// present), then probing the SST stack newest-first. The shared lock is
// held only long enough to consult the memtable and snapshot the stack
// pointer; SST probes run unlocked against immutable file state (§4.5,
// §5).
func (e *Engine) Get(key []byte) ([]byte, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, herrors.ErrEngineClosed
	}
	if entry, ok := e.memtable.Get(key); ok {
		e.mu.RUnlock()
		if entry.Tombstone {
			e.cfg.Metrics.RecordGet(false)
			return nil, herrors.ErrKeyNotFound
		}
		e.cfg.Metrics.RecordGet(true)
		return entry.Value, nil
	}
	stack := e.stack
	for _, ref := range stack {
		ref.acquire()
	}
	e.mu.RUnlock()
	defer func() {
		for _, ref := range stack {
			ref.release()
		}
	}()

	for _, ref := range stack {
		res := ref.sst.Get(key)
		switch res.Status {
		case sstable.Found:
			e.cfg.Metrics.RecordGet(true)
			return res.Value, nil
		case sstable.Deleted:
			e.cfg.Metrics.RecordGet(false)
			return nil, herrors.ErrKeyNotFound
		}
	}
	e.cfg.Metrics.RecordGet(false)
	return nil, herrors.ErrKeyNotFound
}

// Flush is the exclusive-lock wrapper around the internal flush routine
// (§4.5).
func (e *Engine) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return herrors.ErrEngineClosed
	}
	return e.flushLocked()
}

// flushLocked assumes the caller holds the exclusive lock. It is a no-op
// when the memtable is empty; otherwise it allocates the next SST id,
// write_atomics the sorted memtable contents, appends to the manifest,
// installs a new reader at the front of the stack, clears the memtable,
// and resets the WAL (§4.5).
func (e *Engine) flushLocked() error {
	if e.memtable.Len() == 0 {
		return nil
	}
	start := time.Now()

	id := e.nextSSTID
	e.nextSSTID++
	name := common.SSTFileName(id)
	path := e.paths.SSTPath(id)

	result, err := sstable.WriteAtomic(path, e.memtable.Iterator(), e.sstWriteOpts()...)
	if err != nil {
		return err
	}
	if err := e.manifest.Append(name); err != nil {
		return err
	}
	sst, ok := sstable.Open(path, e.sstReadOpts()...)
	if !ok {
		return herrors.WrapCorruptSST(path)
	}
	e.stack = append([]*sstRef{newSSTRef(sst)}, e.stack...)

	e.memtable = memtable.New()
	if err := e.wal.Reset(); err != nil {
		return err
	}

	common.LogDuration(e.cfg.Logf, start, "heliosdb: flushed %d entries to %s", result.EntryCount, name)
	e.cfg.Metrics.RecordFlush(time.Since(start).Seconds())
	e.cfg.Metrics.SetMemtableBytes(0)
	e.cfg.Metrics.SetSSTCount(len(e.stack))

	if len(e.stack) >= e.cfg.CompactionTriggerSSTCount {
		e.requestCompaction()
	}
	return nil
}

// Compact enqueues a compaction request and returns immediately (§4.5).
func (e *Engine) Compact() error {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return herrors.ErrEngineClosed
	}
	e.requestCompaction()
	return nil
}

func (e *Engine) requestCompaction() {
	e.compactMu.Lock()
	e.compactReq = true
	e.compactCond.Signal()
	e.compactMu.Unlock()
}

// Close is cooperative shutdown: it signals and joins the compaction
// worker, then releases the WAL and every SST file handle (§4.5, §5).
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.compactMu.Lock()
	e.stop = true
	e.compactCond.Signal()
	e.compactMu.Unlock()
	<-e.workerDone

	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if walErr := e.wal.Close(); walErr != nil {
		err = walErr
	}
	e.retireStackLocked()
	return err
}

// sstWriteOpts translates the engine's configured Bloom policy into the
// sstable.Option values write_atomic needs (§4.8 BloomKHashes,
// BloomBitsPerEntry).
func (e *Engine) sstWriteOpts() []sstable.Option {
	return []sstable.Option{
		sstable.WithBloomKHashes(e.cfg.BloomKHashes),
		sstable.WithBloomBitsPerEntry(e.cfg.BloomBitsPerEntry),
	}
}

// sstReadOpts translates the engine's configured sparse index stride into
// the sstable.Option Open needs (§4.8 SparseIndexStride).
func (e *Engine) sstReadOpts() []sstable.Option {
	return []sstable.Option{sstable.WithIndexStride(e.cfg.SparseIndexStride)}
}

// retireStackLocked retires every reader currently in the stack (§9
// "Concurrency re-architecture"): each one's file descriptor closes once
// every Get that had already acquired it releases, never eagerly. Used at
// Open's error paths (nothing has acquired anything yet, so this closes
// immediately) and at Close.
func (e *Engine) retireStackLocked() {
	for _, ref := range e.stack {
		ref.retire()
	}
	e.stack = nil
}

// reloadStackLocked assumes the caller holds the exclusive lock and that no
// other goroutine can yet observe e (Open, before the stack is first
// populated): it builds the stack fresh from the manifest's current entry
// list, newest-first (§4.5 "Open-time reconciliation"). It must not be used
// to splice a live stack at runtime — a concurrent Get may be holding any
// of the existing readers, so runtime installs retire and replace entries
// individually instead (see runCompactionAttempt).
func (e *Engine) reloadStackLocked() error {
	entries := e.manifest.Entries()
	stack := make([]*sstRef, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		path := filepath.Join(e.dataDir, entries[i])
		sst, ok := sstable.Open(path, e.sstReadOpts()...)
		if !ok {
			continue
		}
		stack = append(stack, newSSTRef(sst))
	}
	e.stack = stack
	return nil
}

// compactionWorker waits on the condition variable until either shutdown
// is signaled or a compaction has been requested, running one merge
// attempt per wake-up (§4.5 "Compaction worker loop").
func (e *Engine) compactionWorker() {
	defer close(e.workerDone)
	for {
		e.compactMu.Lock()
		for !e.compactReq && !e.stop {
			e.compactCond.Wait()
		}
		if e.stop {
			e.compactMu.Unlock()
			return
		}
		e.compactReq = false
		e.compactMu.Unlock()

		e.runCompactionAttempt()
	}
}

// runCompactionAttempt implements one merge attempt (§4.5 "One merge
// attempt", steps 1-5).
func (e *Engine) runCompactionAttempt() {
	width := e.cfg.CompactionMergeWidth

	e.mu.Lock()
	entries := append([]string(nil), e.manifest.Entries()...)
	if len(entries) < width {
		e.mu.Unlock()
		return
	}
	selected := append([]string(nil), entries[len(entries)-width:]...)
	e.mu.Unlock()

	start := time.Now()
	merged, err := e.scanForMerge(selected)
	if err != nil {
		e.cfg.Logf("heliosdb: compaction scan failed: %v\n", err)
		e.cfg.Metrics.RecordCompactionAborted()
		return
	}

	e.mu.Lock()
	id := e.nextSSTID
	e.nextSSTID++
	e.mu.Unlock()

	path := e.paths.SSTPath(id)
	if _, err := sstable.WriteAtomic(path, common.NewSliceIterator(merged), e.sstWriteOpts()...); err != nil {
		e.cfg.Logf("heliosdb: compaction write_atomic failed: %v\n", err)
		e.cfg.Metrics.RecordCompactionAborted()
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.manifest.Entries()
	if !sameTail(current, selected) {
		os.Remove(path)
		os.Remove(common.BloomPath(path))
		e.cfg.Logf("heliosdb: compaction install race detected, aborting\n")
		e.cfg.Metrics.RecordCompactionAborted()
		if len(current) >= e.cfg.CompactionTriggerSSTCount {
			e.requestCompaction()
		}
		return
	}

	newEntries := append(append([]string(nil), current[:len(current)-width]...), common.SSTFileName(id))
	if err := e.manifest.Replace(newEntries); err != nil {
		e.cfg.Logf("heliosdb: compaction manifest replace failed: %v\n", err)
		e.cfg.Metrics.RecordCompactionAborted()
		return
	}

	for _, name := range selected {
		p := filepath.Join(e.dataDir, name)
		os.Remove(p)
		os.Remove(common.BloomPath(p))
	}

	// Install: the merged entries are always the front `width` readers of
	// the newest-first stack (sameTail just confirmed the manifest tail,
	// and the manifest and stack are always kept in lockstep, so they
	// still line up). Open a reader for the new SST, retire exactly the
	// merged-away inputs, and keep every surviving reader object as-is —
	// no close+reopen of readers a concurrent Get may still be holding
	// (§5, §9 "Concurrency re-architecture").
	newSST, ok := sstable.Open(path, e.sstReadOpts()...)
	if !ok {
		e.cfg.Logf("heliosdb: compaction open of merged SST failed\n")
		e.cfg.Metrics.RecordCompactionAborted()
		return
	}
	retired := e.stack[:width]
	survivors := e.stack[width:]
	e.stack = append([]*sstRef{newSSTRef(newSST)}, survivors...)
	for _, ref := range retired {
		ref.retire()
	}

	e.cfg.Metrics.RecordCompaction(time.Since(start).Seconds())
	e.cfg.Metrics.SetSSTCount(len(e.stack))
	common.LogDuration(e.cfg.Logf, start, "heliosdb: compacted %d SSTs into %s", width, common.SSTFileName(id))

	if len(e.manifest.Entries()) >= e.cfg.CompactionTriggerSSTCount {
		e.requestCompaction()
	}
}

// scanForMerge scans the selected SSTs (oldest to newest, as they already
// appear in the manifest's tail) and keeps the newest occurrence of every
// key, tombstones included (§4.5 step 3, §9 "Compaction does NOT drop
// tombstones").
func (e *Engine) scanForMerge(selected []string) ([]*common.KV, error) {
	merged := make(map[string]*common.KV)
	for _, name := range selected {
		path := filepath.Join(e.dataDir, name)
		sst, ok := sstable.Open(path, e.sstReadOpts()...)
		if !ok {
			return nil, herrors.WrapCorruptSST(path)
		}
		kvs, err := sst.Scan()
		sst.Close()
		if err != nil {
			return nil, err
		}
		for _, kv := range kvs {
			merged[string(kv.Key)] = kv
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*common.KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, merged[k])
	}
	return out, nil
}

// sameTail reports whether entries' last len(tail) elements equal tail, in
// order (§4.5 step 5 "if the current manifest's last 4 entries do not
// still match the selected set, abort").
func sameTail(entries, tail []string) bool {
	if len(entries) < len(tail) {
		return false
	}
	start := len(entries) - len(tail)
	for i, name := range tail {
		if entries[start+i] != name {
			return false
		}
	}
	return true
}
