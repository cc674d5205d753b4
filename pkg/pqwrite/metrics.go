package pqwrite

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments a [Writer]. A single Metrics value may be shared by
// several writers.
type Metrics struct {
	rowGroupsWritten prometheus.Counter
	pagesWritten     prometheus.Counter
	bytesWritten     prometheus.Counter
	chunkEncodeTime  prometheus.Histogram
}

// NewMetrics creates a set of unregistered writer metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		rowGroupsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parquetbridge_row_groups_written_total",
			Help: "Total number of row groups written to parquet files",
		}),
		pagesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parquetbridge_pages_written_total",
			Help: "Total number of pages written to parquet files",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parquetbridge_bytes_written_total",
			Help: "Total number of bytes written to finished parquet files",
		}),
		chunkEncodeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:                            "parquetbridge_chunk_encode_seconds",
			Help:                            "Time taken to encode and write one partition chunk in seconds",
			Buckets:                         prometheus.DefBuckets,
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}),
	}
}

// Register registers metrics with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, collector := range m.collectors() {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// Unregister unregisters metrics from the given registerer.
func (m *Metrics) Unregister(reg prometheus.Registerer) {
	for _, collector := range m.collectors() {
		reg.Unregister(collector)
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rowGroupsWritten,
		m.pagesWritten,
		m.bytesWritten,
		m.chunkEncodeTime,
	}
}

func (m *Metrics) observeRowGroup() {
	if m != nil {
		m.rowGroupsWritten.Inc()
	}
}

func (m *Metrics) observePage() {
	if m != nil {
		m.pagesWritten.Inc()
	}
}

func (m *Metrics) observeBytes(n int64) {
	if m != nil {
		m.bytesWritten.Add(float64(n))
	}
}

func (m *Metrics) observeChunkEncodeTime(seconds float64) {
	if m != nil {
		m.chunkEncodeTime.Observe(seconds)
	}
}
