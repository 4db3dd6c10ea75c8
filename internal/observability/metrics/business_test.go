package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordMerge(t *testing.T) {
	before := testutil.ToFloat64(EntriesDiscoveredTotal.WithLabelValues("test_merge"))

	RecordMerge("test_merge", 10, 3, 2, 41)

	assert.Equal(t, before+3, testutil.ToFloat64(EntriesDiscoveredTotal.WithLabelValues("test_merge")))
	assert.Equal(t, float64(41), testutil.ToFloat64(TrackedEntries.WithLabelValues("test_merge")))
}

func TestRecordSourceFetch_Skipped(t *testing.T) {
	before := testutil.ToFloat64(ParseSkippedTotal.WithLabelValues("test_kind"))

	RecordSourceFetch("test_kind", 150*time.Millisecond, 2)
	RecordSourceFetch("test_kind", 150*time.Millisecond, 0)

	assert.Equal(t, before+2, testutil.ToFloat64(ParseSkippedTotal.WithLabelValues("test_kind")))
}

func TestRecordImageResults(t *testing.T) {
	written := testutil.ToFloat64(ImagesDownloadedTotal.WithLabelValues("written"))
	empty := testutil.ToFloat64(ImagesDownloadedTotal.WithLabelValues("empty"))
	bytes := testutil.ToFloat64(ImageBytesTotal)

	RecordImageWritten(512)
	RecordImageEmpty()

	assert.Equal(t, written+1, testutil.ToFloat64(ImagesDownloadedTotal.WithLabelValues("written")))
	assert.Equal(t, empty+1, testutil.ToFloat64(ImagesDownloadedTotal.WithLabelValues("empty")))
	assert.Equal(t, bytes+512, testutil.ToFloat64(ImageBytesTotal))
}

func TestRecordNotification(t *testing.T) {
	before := testutil.ToFloat64(NotificationsTotal.WithLabelValues("test_channel", "sent"))

	RecordNotification("test_channel", "sent")

	assert.Equal(t, before+1, testutil.ToFloat64(NotificationsTotal.WithLabelValues("test_channel", "sent")))
}
