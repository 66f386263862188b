package sstable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"amethyst/internal/common"
)

func TestOpenMissingFileReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	_, ok := Open(filepath.Join(dir, "does-not-exist.dat"))
	require.False(t, ok)
}

func TestOpenWithoutBloomSidecarStillWorks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")

	_, err := WriteAtomic(path, common.NewSliceIterator(kvs([2]string{"a", "1"}, [2]string{"b", "2"})))
	require.NoError(t, err)
	require.NoError(t, os.Remove(common.BloomPath(path)))

	sst, ok := Open(path)
	require.True(t, ok)
	defer sst.Close()

	res := sst.Get([]byte("a"))
	require.Equal(t, Found, res.Status)
	require.Equal(t, []byte("1"), res.Value)
}

func TestGetBeforeSmallestKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")
	_, err := WriteAtomic(path, common.NewSliceIterator(kvs([2]string{"m", "1"})))
	require.NoError(t, err)

	sst, ok := Open(path)
	require.True(t, ok)
	defer sst.Close()

	require.Equal(t, LookupResult{Status: NotPresent}, sst.Get([]byte("a")))
}

func TestGetAfterLargestKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")
	_, err := WriteAtomic(path, common.NewSliceIterator(kvs([2]string{"m", "1"})))
	require.NoError(t, err)

	sst, ok := Open(path)
	require.True(t, ok)
	defer sst.Close()

	require.Equal(t, LookupResult{Status: NotPresent}, sst.Get([]byte("z")))
}

func TestSmallestAndLargestKeyTracked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")
	_, err := WriteAtomic(path, common.NewSliceIterator(kvs(
		[2]string{"b", "1"}, [2]string{"m", "2"}, [2]string{"z", "3"},
	)))
	require.NoError(t, err)

	sst, ok := Open(path)
	require.True(t, ok)
	defer sst.Close()

	require.Equal(t, []byte("b"), sst.SmallestKey)
	require.Equal(t, []byte("z"), sst.LargestKey)
	require.Equal(t, uint64(3), sst.EntryCount)
}

func TestOpenRejectsCorruptFooterChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sst_000001.dat")
	_, err := WriteAtomic(path, common.NewSliceIterator(kvs([2]string{"a", "1"})))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF // corrupt the footer checksum byte
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, ok := Open(path)
	require.False(t, ok)
}
