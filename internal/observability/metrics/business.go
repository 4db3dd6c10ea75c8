package metrics

import (
	"time"
)

// RecordSourceFetch records a successful fetch+parse of one listing page.
func RecordSourceFetch(kind string, duration time.Duration, skipped int) {
	SourceFetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if skipped > 0 {
		ParseSkippedTotal.WithLabelValues(kind).Add(float64(skipped))
	}
}

// RecordSourceFetchError records a failed source task.
// Reason should be a short stable token such as "fetch_failed" or "parse_failed".
func RecordSourceFetchError(kind, reason string) {
	SourceFetchErrors.WithLabelValues(kind, reason).Inc()
}

// RecordMerge records the outcome of merging one source's state.
func RecordMerge(tag string, scraped, discovered, expired, tracked int) {
	EntriesScrapedTotal.WithLabelValues(tag).Add(float64(scraped))
	EntriesDiscoveredTotal.WithLabelValues(tag).Add(float64(discovered))
	EntriesExpiredTotal.WithLabelValues(tag).Add(float64(expired))
	TrackedEntries.WithLabelValues(tag).Set(float64(tracked))
}

// RecordStateWriteError records a state file that could not be written.
func RecordStateWriteError(tag string) {
	StateWriteErrors.WithLabelValues(tag).Inc()
}

// RecordGalleryMatched records an entry that matched a download rule.
func RecordGalleryMatched() {
	GalleriesMatchedTotal.Inc()
}

// RecordImageWritten records an image written to disk.
func RecordImageWritten(size int) {
	ImagesDownloadedTotal.WithLabelValues("written").Inc()
	ImageBytesTotal.Add(float64(size))
}

// RecordImageEmpty records a download that returned no bytes.
func RecordImageEmpty() {
	ImagesDownloadedTotal.WithLabelValues("empty").Inc()
}

// RecordImageFailed records a download or write failure.
func RecordImageFailed() {
	ImagesDownloadedTotal.WithLabelValues("failed").Inc()
}

// RecordNotification records one notification attempt.
func RecordNotification(channel, result string) {
	NotificationsTotal.WithLabelValues(channel, result).Inc()
}
