// Package metrics collects counters for a rewrite run.
//
// Metrics live on a private Prometheus registry so that several runs (or
// tests) in one process never collide. A batch tool has nothing to scrape, so
// the registry is dumped once at the end of a run with WriteTextfile, in the
// format read by the node exporter's textfile collector.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all counters of a run.
type Metrics struct {
	registry *prometheus.Registry

	FilesProcessed   prometheus.Counter
	LinesProcessed   prometheus.Counter
	URLsRewritten    prometheus.Counter
	URLsSkipped      prometheus.Counter
	CacheHits        prometheus.Counter
	Downloads        prometheus.Counter
	DownloadBytes    prometheus.Counter
	DownloadFailures *prometheus.CounterVec
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkcache_files_processed_total",
			Help: "Total number of input files rewritten",
		}),
		LinesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkcache_lines_processed_total",
			Help: "Total number of lines passed through the line processor",
		}),
		URLsRewritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkcache_urls_rewritten_total",
			Help: "Total number of URL values replaced by cache references",
		}),
		URLsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkcache_urls_skipped_total",
			Help: "Total number of matched URL values left untouched because of their field name",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkcache_cache_hits_total",
			Help: "Total number of URLs whose cache file already existed",
		}),
		Downloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkcache_downloads_total",
			Help: "Total number of completed downloads",
		}),
		DownloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkcache_download_bytes_total",
			Help: "Total number of bytes written to the cache",
		}),
		DownloadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkcache_download_failures_total",
			Help: "Total number of failed downloads by reason",
		}, []string{"reason"}),
	}
	reg.MustRegister(
		m.FilesProcessed,
		m.LinesProcessed,
		m.URLsRewritten,
		m.URLsSkipped,
		m.CacheHits,
		m.Downloads,
		m.DownloadBytes,
		m.DownloadFailures,
	)
	return m
}

// Registry returns the registry the counters are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) FileProcessed() {
	if m != nil {
		m.FilesProcessed.Inc()
	}
}

func (m *Metrics) LineProcessed() {
	if m != nil {
		m.LinesProcessed.Inc()
	}
}

func (m *Metrics) URLRewritten() {
	if m != nil {
		m.URLsRewritten.Inc()
	}
}

func (m *Metrics) URLSkipped() {
	if m != nil {
		m.URLsSkipped.Inc()
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// Downloaded records a completed download of n bytes.
func (m *Metrics) Downloaded(n int64) {
	if m != nil {
		m.Downloads.Inc()
		m.DownloadBytes.Add(float64(n))
	}
}

// DownloadFailed records a failed download. reason is one of "network",
// "status" or "write".
func (m *Metrics) DownloadFailed(reason string) {
	if m != nil {
		m.DownloadFailures.WithLabelValues(reason).Inc()
	}
}

// WriteTextfile writes the current values to path in the Prometheus text
// exposition format. The file is written atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// Snapshot is a point-in-time copy of the counters, for summaries.
type Snapshot struct {
	Files     int64
	Lines     int64
	Rewritten int64
	Skipped   int64
	CacheHits int64
	Downloads int64
	Bytes     int64
}

// Snapshot reads the current counter values. A nil Metrics reads as zero.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Files:     counterValue(m.FilesProcessed),
		Lines:     counterValue(m.LinesProcessed),
		Rewritten: counterValue(m.URLsRewritten),
		Skipped:   counterValue(m.URLsSkipped),
		CacheHits: counterValue(m.CacheHits),
		Downloads: counterValue(m.Downloads),
		Bytes:     counterValue(m.DownloadBytes),
	}
}

func counterValue(c prometheus.Counter) int64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return int64(pb.GetCounter().GetValue())
}
