package engine

// Stats is a point-in-time snapshot of engine state, exposed read-only for
// the CLI/inspect tool and tests (§6). Taking a snapshot adds no new
// invariants beyond what Put/Get/Flush/Compact already establish.
type Stats struct {
	MemtableBytes uint64
	MemtableLen   int
	SSTCount      int
	NextSSTID     uint64
}

// Stats returns a snapshot of the current engine state.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		MemtableBytes: e.memtable.Bytes(),
		MemtableLen:   e.memtable.Len(),
		SSTCount:      len(e.stack),
		NextSSTID:     e.nextSSTID,
	}
}
