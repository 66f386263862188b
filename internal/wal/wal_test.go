package wal_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"amethyst/internal/wal"
)

type replayed struct {
	puts [][2]string
	dels []string
}

func (r *replayed) hooks() wal.ReplayHooks {
	return wal.ReplayHooks{
		ApplyPut:    func(k, v []byte) { r.puts = append(r.puts, [2]string{string(k), string(v)}) },
		ApplyDelete: func(k []byte) { r.dels = append(r.dels, string(k)) },
	}
}

func TestAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	log, err := wal.Open(path)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.AppendPut([]byte("a"), []byte("1")))
	require.NoError(t, log.AppendDelete([]byte("b")))
	require.NoError(t, log.AppendPut([]byte("c"), []byte("3")))

	var r replayed
	require.NoError(t, log.Replay(r.hooks()))

	require.Equal(t, [][2]string{{"a", "1"}, {"c", "3"}}, r.puts)
	require.Equal(t, []string{"b"}, r.dels)
}

func TestReplayPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	log, err := wal.Open(path)
	require.NoError(t, err)
	require.NoError(t, log.AppendPut([]byte("k1"), []byte("v1")))
	require.NoError(t, log.Close())

	log, err = wal.Open(path)
	require.NoError(t, err)
	defer log.Close()
	require.NoError(t, log.AppendPut([]byte("k2"), []byte("v2")))

	var r replayed
	require.NoError(t, log.Replay(r.hooks()))
	require.Equal(t, [][2]string{{"k1", "v1"}, {"k2", "v2"}}, r.puts)
}

func TestReplayStopsAtTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	log, err := wal.Open(path)
	require.NoError(t, err)
	require.NoError(t, log.AppendPut([]byte("a"), []byte("1")))
	require.NoError(t, log.AppendPut([]byte("b"), []byte("2")))
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	truncated := data[:len(data)-3]
	require.NoError(t, os.WriteFile(path, truncated, 0o644))

	log, err = wal.Open(path)
	require.NoError(t, err)
	defer log.Close()

	var r replayed
	require.NoError(t, log.Replay(r.hooks()))
	require.Equal(t, [][2]string{{"a", "1"}}, r.puts)
}

func TestReplayStopsAtBadChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	log, err := wal.Open(path)
	require.NoError(t, err)
	require.NoError(t, log.AppendPut([]byte("a"), []byte("1")))
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// flip the last byte (the value region) to break the checksum
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	log, err = wal.Open(path)
	require.NoError(t, err)
	defer log.Close()

	var r replayed
	require.NoError(t, log.Replay(r.hooks()))
	require.Empty(t, r.puts)
}

func TestResetTruncatesLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	log, err := wal.Open(path)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.AppendPut([]byte("a"), []byte("1")))
	require.NoError(t, log.Reset())

	var r replayed
	require.NoError(t, log.Replay(r.hooks()))
	require.Empty(t, r.puts)
	require.Empty(t, r.dels)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func TestReplayIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	log, err := wal.Open(path)
	require.NoError(t, err)
	defer log.Close()
	require.NoError(t, log.AppendPut([]byte("a"), []byte("1")))
	require.NoError(t, log.AppendDelete([]byte("a")))

	var r1, r2 replayed
	require.NoError(t, log.Replay(r1.hooks()))
	require.NoError(t, log.Replay(r2.hooks()))
	require.Equal(t, r1, r2)
}
