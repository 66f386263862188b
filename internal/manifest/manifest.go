// Package manifest implements the authoritative list of live SST filenames
// for a data directory (§3, §4.5, §6): a flat text file, one filename per
// line, oldest to newest, atomically rewritten on every change.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// Manifest holds the in-memory ordered entry list and the two file paths
// ("manifest.txt" and its transient ".tmp" rewrite target) backing it.
type Manifest struct {
	path    string
	tmpPath string
	entries []string
	nextID  uint64
}

// Load reads manifest.txt from dataDir, or starts an empty manifest if the
// file does not yet exist. nextID is computed from the raw, unreconciled
// entry list before any filtering, per §4.4 "Open-time reconciliation":
// "compute next_sst_id as max existing id + 1" happens before invalid
// entries are dropped.
func Load(dataDir string) (*Manifest, error) {
	path := filepath.Join(dataDir, "manifest.txt")
	entries, err := readEntries(path)
	if err != nil {
		return nil, err
	}

	var maxID uint64
	var haveAny bool
	for _, name := range entries {
		if id, ok := parseSSTID(name); ok {
			haveAny = true
			if id > maxID {
				maxID = id
			}
		}
	}

	nextID := uint64(0)
	if haveAny {
		nextID = maxID + 1
	}

	return &Manifest{
		path:    path,
		tmpPath: path + ".tmp",
		entries: entries,
		nextID:  nextID,
	}, nil
}

func readEntries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	return entries, sc.Err()
}

// Entries returns the current ordered list of SST filenames, oldest to
// newest. Callers must treat it as read-only.
func (m *Manifest) Entries() []string {
	return m.entries
}

// NextSSTID returns the next SST id to allocate, computed at Load time.
func (m *Manifest) NextSSTID() uint64 {
	return m.nextID
}

// Reconcile drops any entry for which isValid(filename) is false and, if
// that changed the list, atomically rewrites the manifest (§4.4).
func (m *Manifest) Reconcile(isValid func(filename string) bool) error {
	filtered := make([]string, 0, len(m.entries))
	changed := false
	for _, name := range m.entries {
		if isValid(name) {
			filtered = append(filtered, name)
		} else {
			changed = true
		}
	}
	m.entries = filtered
	if !changed {
		return nil
	}
	return m.rewrite()
}

// Append adds filename as the newest entry and atomically rewrites the
// manifest (§4.5 flush step).
func (m *Manifest) Append(filename string) error {
	next := append(append([]string(nil), m.entries...), filename)
	if err := m.writeEntries(next); err != nil {
		return err
	}
	m.entries = next
	return nil
}

// Replace installs a brand-new ordered entry list — used by compaction
// install (§4.5 step 5: "all entries except the last N, plus the new
// merged filename") — and atomically rewrites the manifest.
func (m *Manifest) Replace(entries []string) error {
	if err := m.writeEntries(entries); err != nil {
		return err
	}
	m.entries = entries
	return nil
}

func (m *Manifest) rewrite() error {
	return m.writeEntries(m.entries)
}

// writeEntries implements the atomic rewrite dance: write manifest.txt.tmp
// with one LF-terminated filename per line, flush, fsync, rename over
// manifest.txt, then fsync the renamed file too (§4.5 "Manifest atomic
// rewrite").
func (m *Manifest) writeEntries(entries []string) error {
	f, err := os.OpenFile(m.tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(f)
	for _, name := range entries {
		if _, err := bw.WriteString(name); err != nil {
			f.Close()
			return err
		}
		if _, err := bw.WriteString("\n"); err != nil {
			f.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(m.tmpPath, m.path); err != nil {
		return err
	}

	final, err := os.Open(m.path)
	if err != nil {
		return err
	}
	defer final.Close()
	return final.Sync()
}

// parseSSTID extracts the numeric id from a filename shaped like
// "sst_NNNNNN.dat".
func parseSSTID(name string) (uint64, bool) {
	var id uint64
	n, err := fmt.Sscanf(name, "sst_%06d.dat", &id)
	if err != nil || n != 1 {
		return 0, false
	}
	return id, true
}
