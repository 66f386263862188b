package sstable

import (
	"bytes"
	"io"
	"os"
	"sort"

	"amethyst/internal/common"
	"amethyst/internal/filter"
)

// indexEntry is one sparse-index slot: the first key of some record and that
// record's byte offset, recorded every IndexStride records (§3 "Sparse
// index").
type indexEntry struct {
	key    []byte
	offset int64
}

// SST is a read-only handle on one immutable on-disk record file. It holds a
// read-only file descriptor for positional reads, an in-memory sparse index
// rebuilt at open time, and the Bloom sidecar if one loaded successfully
// (§4.3). All of it is immutable for the handle's lifetime, so concurrent
// Get calls need no locking of their own.
type SST struct {
	path       string
	file       *os.File
	recordsEnd int64
	index      []indexEntry
	bloom      filter.Filter // nil if the sidecar is missing or unusable

	EntryCount  uint64
	SmallestKey []byte
	LargestKey  []byte
}

// Path returns the backing file path.
func (s *SST) Path() string {
	return s.path
}

// Open validates path (is_valid) and, if valid, opens it for positional
// reads, loads the Bloom sidecar, and rebuilds the sparse index by walking
// every record from offset 0 (§4.3). It returns (nil, false) for any
// invalid or unreadable file — callers are expected to drop such entries
// rather than treat them as a hard error (§4.4 "open-time reconciliation").
func Open(path string, opts ...Option) (*SST, bool) {
	o := apply(opts)
	if !IsValid(path) {
		return nil, false
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, false
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, false
	}
	recordsEnd := info.Size() - FooterSize

	sst := &SST{
		path:       path,
		file:       file,
		recordsEnd: recordsEnd,
		bloom:      nil,
	}
	if bf, ok := filter.Load(path); ok {
		sst.bloom = bf
	}

	if err := sst.buildIndex(o.IndexStride); err != nil {
		file.Close()
		return nil, false
	}
	return sst, true
}

// buildIndex walks records from offset 0 to recordsEnd using only positional
// reads (no shared file cursor), pushing (key, offset) into the sparse
// index every stride records (§3, §4.3, §4.8 SparseIndexStride).
func (s *SST) buildIndex(stride uint32) error {
	var offset int64
	var count uint64

	for offset < s.recordsEnd {
		key, _, _, recLen, err := s.readRecordAt(offset)
		if err != nil {
			return err
		}

		if count%uint64(stride) == 0 {
			s.index = append(s.index, indexEntry{key: key, offset: offset})
		}
		if count == 0 {
			s.SmallestKey = key
		}
		s.LargestKey = key

		offset += recLen
		count++
	}

	s.EntryCount = count
	return nil
}

// readRecordAt reads one record starting at offset, returning its key,
// value (nil for a tombstone), the raw vsize field, and the record's total
// byte length.
func (s *SST) readRecordAt(offset int64) (key, value []byte, vsize uint32, recLen int64, err error) {
	var header [recordHeaderSize]byte
	if _, err = s.file.ReadAt(header[:], offset); err != nil {
		return nil, nil, 0, 0, err
	}
	ksize, err := common.ReadUint32(bytes.NewReader(header[0:4]))
	if err != nil {
		return nil, nil, 0, 0, err
	}
	vsize, err = common.ReadUint32(bytes.NewReader(header[4:8]))
	if err != nil {
		return nil, nil, 0, 0, err
	}

	key = make([]byte, ksize)
	if _, err = s.file.ReadAt(key, offset+recordHeaderSize); err != nil {
		return nil, nil, 0, 0, err
	}

	recLen = recordHeaderSize + int64(ksize)
	if vsize != Tombstone {
		value = make([]byte, vsize)
		if _, err = s.file.ReadAt(value, offset+recordHeaderSize+int64(ksize)); err != nil {
			return nil, nil, 0, 0, err
		}
		recLen += int64(vsize)
	}

	return key, value, vsize, recLen, nil
}

// Get implements the single-SST probe contract (§4.3): a Bloom
// fast-negative short-circuits to NotPresent; otherwise the sparse index is
// binary-searched for the greatest indexed key <= target, and records are
// scanned forward from there.
func (s *SST) Get(key []byte) LookupResult {
	if s.bloom != nil && !s.bloom.MayContain(key) {
		return LookupResult{Status: NotPresent}
	}
	if len(s.index) == 0 {
		return LookupResult{Status: NotPresent}
	}

	i := sort.Search(len(s.index), func(i int) bool {
		return bytes.Compare(s.index[i].key, key) > 0
	})
	if i == 0 {
		i = 1
	}
	offset := s.index[i-1].offset

	for offset < s.recordsEnd {
		rkey, rvalue, vsize, recLen, err := s.readRecordAt(offset)
		if err != nil {
			return LookupResult{Status: NotPresent}
		}
		cmp := bytes.Compare(rkey, key)
		if cmp == 0 {
			if vsize == Tombstone {
				return LookupResult{Status: Deleted}
			}
			return LookupResult{Status: Found, Value: rvalue}
		}
		if cmp > 0 {
			return LookupResult{Status: NotPresent}
		}
		offset += recLen
	}
	return LookupResult{Status: NotPresent}
}

// Close releases the underlying file descriptor.
func (s *SST) Close() error {
	return s.file.Close()
}

// Scan reads every record from offset 0 to recordsEnd in ascending key
// order, re-parsing the file record-by-record rather than consulting the
// sparse index (§9 "Full-file scan during merge"). Used by compaction's
// merge step, which needs every key, not just a probed subset.
func (s *SST) Scan() ([]*common.KV, error) {
	kvs := make([]*common.KV, 0, s.EntryCount)
	var offset int64
	for offset < s.recordsEnd {
		key, value, vsize, recLen, err := s.readRecordAt(offset)
		if err != nil {
			return nil, err
		}
		kvs = append(kvs, &common.KV{Key: key, Value: value, Tombstone: vsize == Tombstone})
		offset += recLen
	}
	return kvs, nil
}

// IsValid implements is_valid(P) (§4.3): the file must be at least
// FooterSize bytes, carry the correct footer magic, and its footer checksum
// must equal a freshly recomputed FNV-1a/32 over the record region. The
// hash is streamed rather than buffered.
func IsValid(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.Size() < FooterSize {
		return false
	}

	var footer [FooterSize]byte
	if _, err := file.ReadAt(footer[:], info.Size()-FooterSize); err != nil {
		return false
	}
	magic, err := common.ReadUint64(bytes.NewReader(footer[0:8]))
	if err != nil || magic != FooterMagic {
		return false
	}
	wantChecksum, err := common.ReadUint32(bytes.NewReader(footer[8:12]))
	if err != nil {
		return false
	}

	if _, err := file.Seek(0, 0); err != nil {
		return false
	}
	hasher := common.NewFNV1a32Writer()
	if _, err := io.Copy(hasher, io.LimitReader(file, info.Size()-FooterSize)); err != nil {
		return false
	}

	return hasher.Sum32() == wantChecksum
}
