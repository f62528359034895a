package metrics

import (
	"time"

	"github.com/koustreak/timefs/internal/vfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// vfsMetrics is the Prometheus implementation of vfs.Metrics.
type vfsMetrics struct {
	listingLookups   *prometheus.CounterVec
	probes           *prometheus.CounterVec
	downloads        *prometheus.CounterVec
	downloadBytes    *prometheus.CounterVec
	downloadDuration *prometheus.HistogramVec
}

// NewVFSMetrics registers backend metrics with the process registry. It
// returns nil when metrics are disabled.
func NewVFSMetrics() vfs.Metrics {
	if !IsEnabled() {
		return nil
	}
	return NewVFSMetricsWith(GetRegistry())
}

// NewVFSMetricsWith registers backend metrics with reg.
func NewVFSMetricsWith(reg prometheus.Registerer) vfs.Metrics {
	return &vfsMetrics{
		listingLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timefs_listing_lookups_total",
				Help: "Directory listing requests by cache outcome",
			},
			[]string{"root", "result"},
		),
		probes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timefs_probes_total",
				Help: "Reachability probes of remote roots",
			},
			[]string{"root", "status"},
		),
		downloads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timefs_downloads_total",
				Help: "Remote files mirrored into the local cache",
			},
			[]string{"root", "status"},
		),
		downloadBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timefs_download_bytes_total",
				Help: "Bytes transferred by downloads, including failed ones",
			},
			[]string{"root"},
		),
		downloadDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "timefs_download_duration_seconds",
				Help: "Duration of downloads in seconds",
				Buckets: []float64{
					0.01, // 10ms
					0.05,
					0.1,
					0.5,
					1,
					5,
					10,
					30,
					60,
					300, // 5m
				},
			},
			[]string{"root"},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *vfsMetrics) ListingLookup(root string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.listingLookups.WithLabelValues(root, result).Inc()
}

func (m *vfsMetrics) ProbeCompleted(root string, err error) {
	m.probes.WithLabelValues(root, status(err)).Inc()
}

func (m *vfsMetrics) DownloadCompleted(root string, bytes int64, elapsed time.Duration, err error) {
	m.downloads.WithLabelValues(root, status(err)).Inc()
	m.downloadBytes.WithLabelValues(root).Add(float64(bytes))
	m.downloadDuration.WithLabelValues(root).Observe(elapsed.Seconds())
}
