package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFNV1a32KnownVectors(t *testing.T) {
	// FNV-1a/32 of the empty string is the offset basis.
	require.Equal(t, fnv32Offset, FNV1a32(nil))
	require.NotEqual(t, FNV1a32([]byte("a")), FNV1a32([]byte("b")))
}

func TestFNV1a32WriterMatchesOneShot(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	want := FNV1a32(data)

	w := NewFNV1a32Writer()
	_, _ = w.Write(data[:10])
	_, _ = w.Write(data[10:])
	require.Equal(t, want, w.Sum32())
}

func TestFNV1a64SeedChangesOutput(t *testing.T) {
	key := []byte("some-key")
	h1 := FNV1a64(0xA5A5A5A5A5A5A5A5, key)
	h2 := FNV1a64(0x5A5A5A5A5A5A5A5A, key)
	require.NotEqual(t, h1, h2)
}

func TestAvalanche64Deterministic(t *testing.T) {
	require.Equal(t, Avalanche64(42), Avalanche64(42))
	require.NotEqual(t, Avalanche64(42), Avalanche64(43))
}
