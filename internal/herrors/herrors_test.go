package herrors_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"amethyst/internal/herrors"
)

func TestWrapCorruptSSTPreservesSentinel(t *testing.T) {
	err := herrors.WrapCorruptSST("/data/sst_000001.dat")
	require.True(t, errors.Is(err, herrors.ErrCorruptSST))
	require.Contains(t, err.Error(), "sst_000001.dat")
}

func TestSentinelsAreDistinct(t *testing.T) {
	require.False(t, errors.Is(herrors.ErrKeyNotFound, herrors.ErrEngineClosed))
}
