// Package inspect implements the dump logic shared by the heliosdb REPL's
// "inspect" command and the standalone heliosdb-inspect binary (§4.9):
// given a WAL, SST, or manifest file, print its structure to stdout.
package inspect

import (
	"fmt"
	"path/filepath"

	"amethyst/internal/manifest"
	"amethyst/internal/sstable"
	"amethyst/internal/wal"
)

// Dispatch inspects path, choosing a dumper by file name: "manifest.txt"
// gets the manifest dumper, "wal.log" gets the WAL dumper, anything else is
// treated as an SST.
func Dispatch(path string) error {
	switch filepath.Base(path) {
	case "manifest.txt":
		return Manifest(path)
	case "wal.log":
		return WAL(path)
	default:
		return SST(path)
	}
}

// WAL prints every clean record in a write-ahead log, in replay order.
func WAL(path string) error {
	fmt.Printf("WAL: %s\n\n", path)

	var puts, deletes int
	w, err := wal.Open(path)
	if err != nil {
		return fmt.Errorf("open wal: %w", err)
	}
	defer w.Close()

	err = w.Replay(wal.ReplayHooks{
		ApplyPut: func(key, value []byte) {
			puts++
			fmt.Printf("PUT    key=%q value=%q\n", key, value)
		},
		ApplyDelete: func(key []byte) {
			deletes++
			fmt.Printf("DELETE key=%q\n", key)
		},
	})
	if err != nil {
		return err
	}

	fmt.Printf("\ntotal: %d put(s), %d delete(s)\n", puts, deletes)
	return nil
}

// SST prints an SST's entry count, smallest and largest key, and every
// entry in key order. The sparse index itself is not printed.
func SST(path string) error {
	fmt.Printf("SST: %s\n\n", path)

	if !sstable.IsValid(path) {
		return fmt.Errorf("%s fails is_valid (bad magic or checksum)", path)
	}

	sst, ok := sstable.Open(path)
	if !ok {
		return fmt.Errorf("failed to open %s", path)
	}
	defer sst.Close()

	fmt.Printf("entries:      %d\n", sst.EntryCount)
	fmt.Printf("smallest key: %q\n", sst.SmallestKey)
	fmt.Printf("largest key:  %q\n", sst.LargestKey)
	fmt.Println()

	kvs, err := sst.Scan()
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	for _, kv := range kvs {
		if kv.Tombstone {
			fmt.Printf("TOMBSTONE key=%q\n", kv.Key)
		} else {
			fmt.Printf("VALUE     key=%q value=%q\n", kv.Key, kv.Value)
		}
	}
	return nil
}

// Manifest prints the live SST filename list in order, oldest to newest.
func Manifest(path string) error {
	fmt.Printf("manifest: %s\n\n", path)

	m, err := manifest.Load(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	for i, name := range m.Entries() {
		fmt.Printf("%d: %s\n", i, name)
	}
	fmt.Printf("\nnext_sst_id: %d\n", m.NextSSTID())
	return nil
}
