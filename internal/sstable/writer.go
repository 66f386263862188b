package sstable

import (
	"bufio"
	"io"
	"os"

	"amethyst/internal/common"
	"amethyst/internal/filter"
)

// WriteResult summarizes a successful write_atomic call.
type WriteResult struct {
	EntryCount  uint64
	SmallestKey []byte
	LargestKey  []byte
}

// WriteAtomic writes a new SST at path from a sequence of KVs, which MUST
// already be sorted by key ascending with each key appearing at most once
// (§4.2). Steps, in order, per §4.2:
//
//  1. open <path>.tmp for truncating binary write
//  2. stream records, maintaining a running FNV-1a/32 over every byte written
//  3. write the 12-byte footer
//  4. flush, fsync the tmp file, rename tmp -> path, fsync path
//  5. build and save a Bloom sidecar sized to the entry count, populated
//     from every key (tombstones included), via the same tmp+rename+fsync
//     dance
//
// The Bloom sidecar install happens after the data file's rename — losing
// it loses acceleration, never data.
func WriteAtomic(path string, entries common.KVIterator, opts ...Option) (*WriteResult, error) {
	o := apply(opts)
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	bw := bufio.NewWriter(f)
	hasher := common.NewFNV1a32Writer()

	var result WriteResult
	var keys [][]byte

	for {
		kv, err := entries.Next()
		if err != nil {
			f.Close()
			return nil, err
		}
		if kv == nil {
			break
		}

		if result.EntryCount == 0 {
			result.SmallestKey = append([]byte(nil), kv.Key...)
		}
		result.LargestKey = append([]byte(nil), kv.Key...)

		vsize := Tombstone
		if !kv.Tombstone {
			vsize = uint32(len(kv.Value))
		}

		if err := writeRecord(bw, hasher, kv.Key, kv.Value, vsize); err != nil {
			f.Close()
			return nil, err
		}

		keys = append(keys, kv.Key)
		result.EntryCount++
	}

	if err := writeFooter(bw, hasher.Sum32()); err != nil {
		f.Close()
		return nil, err
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}
	final, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	if err := final.Sync(); err != nil {
		final.Close()
		return nil, err
	}
	if err := final.Close(); err != nil {
		return nil, err
	}

	bf := filter.NewWithParams(uint32(result.EntryCount), o.BloomKHashes, o.BloomBitsPerEntry)
	for _, k := range keys {
		bf.Add(k)
	}
	if err := filter.Save(path, bf); err != nil {
		return nil, err
	}

	return &result, nil
}

// writeRecord writes one `u32 ksize | u32 vsize | key | value` record,
// feeding every byte into both the destination writer and the running
// checksum.
func writeRecord(w *bufio.Writer, hasher *common.FNV1a32Writer, key, value []byte, vsize uint32) error {
	mw := io.MultiWriter(w, hasher)
	if _, err := common.WriteUint32(mw, uint32(len(key))); err != nil {
		return err
	}
	if _, err := common.WriteUint32(mw, vsize); err != nil {
		return err
	}
	if _, err := common.WriteBytes(mw, key); err != nil {
		return err
	}
	if vsize != Tombstone {
		if _, err := common.WriteBytes(mw, value); err != nil {
			return err
		}
	}
	return nil
}

// writeFooter writes the 12-byte footer. It is not hashed into the record
// checksum: the checksum covers only the record region that precedes it.
func writeFooter(w *bufio.Writer, checksum uint32) error {
	if _, err := common.WriteUint64(w, FooterMagic); err != nil {
		return err
	}
	_, err := common.WriteUint32(w, checksum)
	return err
}
