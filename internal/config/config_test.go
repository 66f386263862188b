package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"amethyst/internal/config"
)

func TestDefaultMatchesFixedThresholds(t *testing.T) {
	c := config.Default()
	require.Equal(t, uint64(1<<20), c.MemtableFlushBytes)
	require.Equal(t, 8, c.CompactionTriggerSSTCount)
	require.Equal(t, 4, c.CompactionMergeWidth)
	require.Equal(t, uint32(16), c.SparseIndexStride)
	require.Equal(t, uint32(7), c.BloomKHashes)
	require.Equal(t, uint32(10), c.BloomBitsPerEntry)
	require.NotNil(t, c.Logf)
	require.NotNil(t, c.Metrics)
}

func TestDefaultReturnsIndependentRegistries(t *testing.T) {
	a := config.Default()
	b := config.Default()
	a.Metrics.RecordPut()
	require.NotSame(t, a.Metrics, b.Metrics)
}
