package metrics_test

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"amethyst/internal/metrics"
)

func counterValue(t *testing.T, c interface {
	Write(*dto.Metric) error
}) float64 {
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordPutIncrementsCounter(t *testing.T) {
	reg := metrics.New()
	reg.RecordPut()
	reg.RecordPut()
	require.Equal(t, float64(2), counterValue(t, reg.PutTotal))
}

func TestRecordGetSplitsHitMiss(t *testing.T) {
	reg := metrics.New()
	reg.RecordGet(true)
	reg.RecordGet(false)
	require.Equal(t, float64(2), counterValue(t, reg.GetTotal))
	require.Equal(t, float64(1), counterValue(t, reg.GetHitTotal))
	require.Equal(t, float64(1), counterValue(t, reg.GetMissTotal))
}

func TestNilRegistryMethodsAreNoop(t *testing.T) {
	var reg *metrics.Registry
	require.NotPanics(t, func() {
		reg.RecordPut()
		reg.RecordDelete()
		reg.RecordGet(true)
		reg.RecordFlush(0.1)
		reg.RecordCompaction(0.2)
		reg.RecordCompactionAborted()
		reg.SetMemtableBytes(100)
		reg.SetSSTCount(3)
	})
}

func TestGathererReturnsRegisteredMetrics(t *testing.T) {
	reg := metrics.New()
	reg.RecordPut()

	families, err := reg.Gatherer().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
