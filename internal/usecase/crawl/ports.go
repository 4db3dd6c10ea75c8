package crawl

import (
	"context"
	"time"

	"board-watcher/internal/domain/entity"
)

// PageFetcher downloads listing pages. FetchTextAsBot is used for kinds whose
// UsesBotFetch is true.
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
	FetchTextAsBot(ctx context.Context, url string) (string, error)
}

// ParseContext carries what a parser needs besides the HTML.
type ParseContext struct {
	// PageURL is the configured listing URL, used to resolve relative links.
	PageURL string
	// Now is the cycle time. It becomes every entry's ObservedAt.
	Now time.Time
	// ExcludedNicknames filters posts by author on boards that expose one.
	ExcludedNicknames []string
}

// ParseResult is what a parser extracted from one listing page.
type ParseResult struct {
	Entries []entity.Entry
	// SkippedLinks holds the raw hrefs of rows that could not be parsed.
	SkippedLinks []string
}

// Parser turns one listing page into entries.
type Parser interface {
	Parse(html string, pc ParseContext) (ParseResult, error)
}

// ParserResolver returns the parser registered for a source kind.
type ParserResolver interface {
	ParserFor(kind entity.SourceKind) (Parser, bool)
}

// Downloader runs the download cascade over newly discovered entries.
// It never fails; per-image problems are logged and counted.
type Downloader interface {
	Run(ctx context.Context, entries []entity.Entry, rules []entity.DownloadRule) DownloadStats
}

// DownloadStats summarizes one cascade pass.
type DownloadStats struct {
	Matched int
	Written int
	Failed  int
}

// NewEntryNotifier is told about newly discovered entries. Failures are the
// notifier's problem and never affect the cycle.
type NewEntryNotifier interface {
	NotifyNewEntries(ctx context.Context, tag entity.SourceTag, entries []entity.Entry)
}
