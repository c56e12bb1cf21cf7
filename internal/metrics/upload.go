package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UploadMetrics counts upload outcomes and decoded payload sizes.
type UploadMetrics struct {
	results *prometheus.CounterVec
	sizes   prometheus.Histogram
}

// NewUploadMetrics registers upload collectors on reg.
func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upload",
		Name:      "requests_total",
		Help:      "Upload requests by result (ok, bad_request, error).",
	}, []string{"result"})
	sizes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upload",
		Name:      "object_bytes",
		Help:      "Size of decoded objects written to the store.",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 10), // 1 KiB .. 256 MiB
	})
	reg.MustRegister(results, sizes)
	return &UploadMetrics{results: results, sizes: sizes}
}

// ObserveUpload records one finished upload request. size is only recorded
// for successful uploads.
func (u *UploadMetrics) ObserveUpload(result string, size int) {
	u.results.WithLabelValues(result).Inc()
	if result == "ok" {
		u.sizes.Observe(float64(size))
	}
}

// StorageMetrics holds collectors for object store operations.
type StorageMetrics struct {
	bytes   *prometheus.CounterVec
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewStorageMetrics registers storage collectors on reg.
func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	bytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "bytes_total",
		Help:      "Total bytes written by successful storage operations.",
	}, []string{"op"})
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "ops_total",
		Help:      "Total number of storage operations by result.",
	}, []string{"op", "result"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "op_duration_seconds",
		Help:      "Histogram of storage operation durations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	reg.MustRegister(bytes, ops, latency)
	return &StorageMetrics{bytes: bytes, ops: ops, latency: latency}
}

// Observe implements storage.Observer.
func (s *StorageMetrics) Observe(op string, n int64, err error, dur time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	} else if n > 0 {
		s.bytes.WithLabelValues(op).Add(float64(n))
	}
	s.ops.WithLabelValues(op, result).Inc()
	s.latency.WithLabelValues(op).Observe(dur.Seconds())
}
