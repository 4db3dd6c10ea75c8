package entity

import "time"

// SourceTag identifies the bucket an Entry belongs to after scraping.
// Several source kinds may share one tag (mp and mp_low both produce "mp").
type SourceTag string

// Known source tags. Entries carrying any other tag are dropped by the orchestrator.
const (
	TagDC SourceTag = "dc"
	TagFM SourceTag = "fm"
	TagMP SourceTag = "mp"
)

// KnownTags lists the buckets the cycle partitions scraped entries into.
var KnownTags = []SourceTag{TagDC, TagFM, TagMP}

// IsKnown reports whether the tag is one of KnownTags.
func (t SourceTag) IsKnown() bool {
	for _, k := range KnownTags {
		if t == k {
			return true
		}
	}
	return false
}

// Entry is one discovered post on a board listing page.
//
// Link is the identity key: two entries are the same post if and only if their
// links are equal. ObservedAt is the Unix time (seconds) of the polling cycle in
// which the entry was last seen on a listing page, not the post's creation time.
//
// The JSON keys follow the historical state file layout so files written by
// earlier versions keep loading. Unknown keys are ignored and missing keys
// decode to zero values.
type Entry struct {
	ObservedAt  int64     `json:"timestamp"`
	Title       string    `json:"title"`
	DisplayDate string    `json:"datetime"`
	Link        string    `json:"link"`
	Images      string    `json:"images"`
	SourceTag   SourceTag `json:"more"`
	IsNew       bool      `json:"new"`
}

// ObservedTime returns ObservedAt as a time.Time.
func (e Entry) ObservedTime() time.Time {
	return time.Unix(e.ObservedAt, 0)
}

// Age returns how long ago the entry was last observed relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.ObservedTime())
}

// NewEntry builds a freshly scraped entry observed at the given cycle time.
func NewEntry(tag SourceTag, title, displayDate, link string, observedAt time.Time) Entry {
	return Entry{
		ObservedAt:  observedAt.Unix(),
		Title:       title,
		DisplayDate: displayDate,
		Link:        link,
		SourceTag:   tag,
		IsNew:       true,
	}
}
