// Package metrics wraps a private Prometheus registry with the counters,
// gauges, and histograms HeliosDB exposes (§4.7). All methods tolerate a
// nil *Registry receiver, so engines built without metrics wiring pay no
// cost and calling code never needs a nil check of its own.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every HeliosDB metric, registered against a private
// *prometheus.Registry so embedding callers can choose whether and how to
// expose it — HeliosDB itself owns no HTTP listener (§1, §4.7).
type Registry struct {
	reg *prometheus.Registry

	PutTotal     prometheus.Counter
	DeleteTotal  prometheus.Counter
	GetTotal     prometheus.Counter
	GetHitTotal  prometheus.Counter
	GetMissTotal prometheus.Counter

	FlushTotal             prometheus.Counter
	CompactionTotal        prometheus.Counter
	CompactionAbortedTotal prometheus.Counter

	MemtableBytes prometheus.Gauge
	SSTCount      prometheus.Gauge

	FlushDurationSeconds      prometheus.Histogram
	CompactionDurationSeconds prometheus.Histogram
}

// New creates a fresh, privately-registered Registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,

		PutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heliosdb_put_total",
			Help: "Total number of put operations.",
		}),
		DeleteTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heliosdb_delete_total",
			Help: "Total number of del operations.",
		}),
		GetTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heliosdb_get_total",
			Help: "Total number of get operations.",
		}),
		GetHitTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heliosdb_get_hit_total",
			Help: "Total number of get operations that resolved to a live value.",
		}),
		GetMissTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heliosdb_get_miss_total",
			Help: "Total number of get operations that found no live value.",
		}),
		FlushTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heliosdb_flush_total",
			Help: "Total number of memtable flushes to a new SST.",
		}),
		CompactionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heliosdb_compaction_total",
			Help: "Total number of compaction attempts that installed successfully.",
		}),
		CompactionAbortedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heliosdb_compaction_aborted_total",
			Help: "Total number of compaction attempts aborted by a concurrent flush race or an I/O failure.",
		}),
		MemtableBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heliosdb_memtable_bytes",
			Help: "Current memtable byte-accounting charge.",
		}),
		SSTCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heliosdb_sst_count",
			Help: "Current number of live SSTs in the manifest.",
		}),
		FlushDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "heliosdb_flush_duration_seconds",
			Help:    "Duration of memtable flushes.",
			Buckets: prometheus.DefBuckets,
		}),
		CompactionDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "heliosdb_compaction_duration_seconds",
			Help:    "Duration of successful compaction attempts.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.PutTotal, m.DeleteTotal, m.GetTotal, m.GetHitTotal, m.GetMissTotal,
		m.FlushTotal, m.CompactionTotal, m.CompactionAbortedTotal,
		m.MemtableBytes, m.SSTCount,
		m.FlushDurationSeconds, m.CompactionDurationSeconds,
	)
	return m
}

// Gatherer exposes the underlying registry for embedding callers that want
// to serve it on their own /metrics endpoint.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return nil
	}
	return r.reg
}

// RecordPut records one put operation.
func (r *Registry) RecordPut() {
	if r == nil {
		return
	}
	r.PutTotal.Inc()
}

// RecordDelete records one del operation.
func (r *Registry) RecordDelete() {
	if r == nil {
		return
	}
	r.DeleteTotal.Inc()
}

// RecordGet records one get operation, hit or miss.
func (r *Registry) RecordGet(hit bool) {
	if r == nil {
		return
	}
	r.GetTotal.Inc()
	if hit {
		r.GetHitTotal.Inc()
	} else {
		r.GetMissTotal.Inc()
	}
}

// RecordFlush records one completed flush and its duration.
func (r *Registry) RecordFlush(seconds float64) {
	if r == nil {
		return
	}
	r.FlushTotal.Inc()
	r.FlushDurationSeconds.Observe(seconds)
}

// RecordCompaction records one installed compaction and its duration.
func (r *Registry) RecordCompaction(seconds float64) {
	if r == nil {
		return
	}
	r.CompactionTotal.Inc()
	r.CompactionDurationSeconds.Observe(seconds)
}

// RecordCompactionAborted records one aborted compaction attempt.
func (r *Registry) RecordCompactionAborted() {
	if r == nil {
		return
	}
	r.CompactionAbortedTotal.Inc()
}

// SetMemtableBytes updates the memtable byte-accounting gauge.
func (r *Registry) SetMemtableBytes(n uint64) {
	if r == nil {
		return
	}
	r.MemtableBytes.Set(float64(n))
}

// SetSSTCount updates the live SST count gauge.
func (r *Registry) SetSSTCount(n int) {
	if r == nil {
		return
	}
	r.SSTCount.Set(float64(n))
}
