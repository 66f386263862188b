package sstable

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"amethyst/internal/common"
)

func kvs(pairs ...[2]string) []*common.KV {
	out := make([]*common.KV, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, &common.KV{Key: []byte(p[0]), Value: []byte(p[1])})
	}
	return out
}

func TestWriteAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")

	entries := kvs([2]string{"a", "1"}, [2]string{"b", "2"}, [2]string{"c", "3"})
	result, err := WriteAtomic(path, common.NewSliceIterator(entries))
	require.NoError(t, err)
	require.Equal(t, uint64(3), result.EntryCount)
	require.Equal(t, []byte("a"), result.SmallestKey)
	require.Equal(t, []byte("c"), result.LargestKey)

	require.FileExists(t, path)
	require.NoFileExists(t, path+".tmp")
	require.True(t, IsValid(path))
}

func TestWriteAtomicWithTombstone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")

	entries := []*common.KV{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Tombstone: true},
	}
	_, err := WriteAtomic(path, common.NewSliceIterator(entries))
	require.NoError(t, err)

	sst, ok := Open(path)
	require.True(t, ok)
	defer sst.Close()

	require.Equal(t, LookupResult{Status: Found, Value: []byte("1")}, sst.Get([]byte("a")))
	require.Equal(t, LookupResult{Status: Deleted}, sst.Get([]byte("b")))
}

func TestWriteAtomicProducesBloomSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")

	_, err := WriteAtomic(path, common.NewSliceIterator(kvs([2]string{"a", "1"})))
	require.NoError(t, err)
	require.FileExists(t, common.BloomPath(path))
}

func TestIsValidDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")

	_, err := WriteAtomic(path, common.NewSliceIterator(kvs([2]string{"a", "1"})))
	require.NoError(t, err)
	require.True(t, IsValid(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[0] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.False(t, IsValid(path))
}

func TestIsValidRejectsTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o644))
	require.False(t, IsValid(path))
}

func TestWriteAtomicHonorsBloomParamOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")

	_, err := WriteAtomic(path, common.NewSliceIterator(kvs([2]string{"a", "1"})),
		WithBloomKHashes(3), WithBloomBitsPerEntry(20))
	require.NoError(t, err)

	// Sidecar layout: magic u32 | m u32 | k u32 | nbytes u32 | data.
	data, err := os.ReadFile(common.BloomPath(path))
	require.NoError(t, err)
	m := binary.LittleEndian.Uint32(data[4:8])
	k := binary.LittleEndian.Uint32(data[8:12])
	require.Equal(t, uint32(20), m) // bitsPerEntry * 1 entry
	require.Equal(t, uint32(3), k)
}

func TestOpenHonorsIndexStrideOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")

	var entries []*common.KV
	for i := 0; i < 20; i++ {
		entries = append(entries, &common.KV{
			Key:   []byte(fmt.Sprintf("key-%02d", i)),
			Value: []byte("v"),
		})
	}
	_, err := WriteAtomic(path, common.NewSliceIterator(entries))
	require.NoError(t, err)

	sst, ok := Open(path, WithIndexStride(5))
	require.True(t, ok)
	defer sst.Close()
	require.Equal(t, 4, len(sst.index)) // ceil(20/5)
}

func TestWriteAtomicManyEntriesSparseIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")

	var entries []*common.KV
	for i := 0; i < 100; i++ {
		entries = append(entries, &common.KV{
			Key:   []byte(fmt.Sprintf("key-%03d", i)),
			Value: []byte(fmt.Sprintf("val-%03d", i)),
		})
	}
	result, err := WriteAtomic(path, common.NewSliceIterator(entries))
	require.NoError(t, err)
	require.Equal(t, uint64(100), result.EntryCount)

	sst, ok := Open(path)
	require.True(t, ok)
	defer sst.Close()

	require.Equal(t, 7, len(sst.index)) // ceil(100/16)

	for i := 0; i < 100; i++ {
		res := sst.Get([]byte(fmt.Sprintf("key-%03d", i)))
		require.Equal(t, Found, res.Status)
		require.Equal(t, []byte(fmt.Sprintf("val-%03d", i)), res.Value)
	}

	require.Equal(t, LookupResult{Status: NotPresent}, sst.Get([]byte("key-999")))
	require.Equal(t, LookupResult{Status: NotPresent}, sst.Get([]byte("aaa")))
}
