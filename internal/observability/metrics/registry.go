// Package metrics provides centralized Prometheus metrics for the watcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Crawl metrics track listing page polling
var (
	// EntriesScrapedTotal counts entries extracted from listing pages by tag
	EntriesScrapedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_entries_scraped_total",
			Help: "Total number of entries extracted from listing pages",
		},
		[]string{"tag"},
	)

	// EntriesDiscoveredTotal counts entries seen for the first time by tag
	EntriesDiscoveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_entries_discovered_total",
			Help: "Total number of newly discovered entries",
		},
		[]string{"tag"},
	)

	// EntriesExpiredTotal counts entries pruned by the expiry window by tag
	EntriesExpiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_entries_expired_total",
			Help: "Total number of entries removed after the expiry window",
		},
		[]string{"tag"},
	)

	// TrackedEntries is the size of each stored state after the last cycle
	TrackedEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "watcher_tracked_entries",
			Help: "Number of entries in the stored state of each source",
		},
		[]string{"tag"},
	)

	// SourceFetchDuration measures fetch+parse time per source kind
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "watcher_source_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse a listing page",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"kind"},
	)

	// SourceFetchErrors counts failed source tasks by kind and reason
	SourceFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_source_fetch_errors_total",
			Help: "Total number of listing page fetch or parse failures",
		},
		[]string{"kind", "reason"},
	)

	// ParseSkippedTotal counts rows skipped by a parser by kind
	ParseSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_parse_skipped_total",
			Help: "Total number of listing rows skipped during parsing",
		},
		[]string{"kind"},
	)

	// StateWriteErrors counts failed state file writes by tag
	StateWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_state_write_errors_total",
			Help: "Total number of failed state file writes",
		},
		[]string{"tag"},
	)
)

// Download metrics track the image cascade
var (
	// ImagesDownloadedTotal counts image downloads by result
	ImagesDownloadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_images_downloaded_total",
			Help: "Total number of image download attempts",
		},
		[]string{"result"}, // result: written, empty, failed
	)

	// ImageBytesTotal counts bytes written to disk
	ImageBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watcher_image_bytes_total",
			Help: "Total number of image bytes written to disk",
		},
	)

	// GalleriesMatchedTotal counts entries that matched a download rule
	GalleriesMatchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watcher_galleries_matched_total",
			Help: "Total number of newly discovered entries matching a download rule",
		},
	)
)

// Notification metrics track new-entry alerts
var (
	// NotificationsTotal counts webhook deliveries by channel and result
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_notifications_total",
			Help: "Total number of new-entry notifications sent",
		},
		[]string{"channel", "result"}, // result: sent, failed, rate_limited
	)
)
