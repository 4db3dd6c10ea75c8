package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"board-watcher/internal/domain/entity"
	"board-watcher/internal/observability/logging"
	"board-watcher/internal/observability/metrics"
	"board-watcher/internal/observability/tracing"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultStagger spaces out task start times: task i waits i*DefaultStagger.
const DefaultStagger = 500 * time.Millisecond

// ReasonLabeler maps a fetch error to a metrics label. It lets the transport
// layer classify its own errors without this package importing it.
type ReasonLabeler func(err error) string

// Orchestrator fetches every configured source concurrently and partitions the
// scraped entries by source tag.
type Orchestrator struct {
	Fetcher PageFetcher
	Parsers ParserResolver
	Stagger time.Duration
	Reason  ReasonLabeler
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator creates an Orchestrator with the default stagger.
func NewOrchestrator(fetcher PageFetcher, parsers ParserResolver) *Orchestrator {
	return &Orchestrator{
		Fetcher: fetcher,
		Parsers: parsers,
		Stagger: DefaultStagger,
	}
}

// FetchAll runs one task per source and waits for all of them.
//
// Task i sleeps i*Stagger before fetching so a cycle never opens every
// connection at once. A failing task (fetch error, parse error, unknown kind)
// is logged and contributes nothing; it never cancels its siblings. Every
// entry carries now as ObservedAt.
//
// The result maps each known tag to its entries in source order. Tags without
// entries are absent. Entries with an unknown tag are logged and dropped.
func (o *Orchestrator) FetchAll(ctx context.Context, sources []entity.SourceConfig, excludedNicknames []string, now time.Time) map[entity.SourceTag][]entity.Entry {
	logger := logging.FromContext(ctx)

	results := make([][]entity.Entry, len(sources))
	var g errgroup.Group

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := o.wait(ctx, time.Duration(i)*o.Stagger); err != nil {
				return nil
			}
			results[i] = o.fetchSource(ctx, src, excludedNicknames, now)
			return nil
		})
	}
	_ = g.Wait() // tasks never fail

	buckets := make(map[entity.SourceTag][]entity.Entry, len(entity.KnownTags))
	for i, entries := range results {
		for _, e := range entries {
			if !e.SourceTag.IsKnown() {
				logger.Warn("dropping entry with unknown tag",
					slog.String("tag", string(e.SourceTag)),
					slog.String("source_url", sources[i].URL),
					slog.String("link", e.Link))
				continue
			}
			buckets[e.SourceTag] = append(buckets[e.SourceTag], e)
		}
	}
	return buckets
}

func (o *Orchestrator) fetchSource(ctx context.Context, src entity.SourceConfig, excluded []string, now time.Time) []entity.Entry {
	ctx, span := tracing.StartSpan(ctx, "crawl.fetch_source")
	defer span.End()
	span.SetAttributes(
		attribute.String("source.kind", string(src.Kind)),
		attribute.String("source.url", src.URL),
	)

	logger := logging.FromContext(ctx).With(
		slog.String("kind", string(src.Kind)),
		slog.String("source_url", src.URL))
	start := time.Now()

	parser, ok := o.Parsers.ParserFor(src.Kind)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrNoParser, src.Kind)
		tracing.RecordError(span, err)
		logger.Warn("skipping source", slog.Any("error", err))
		metrics.RecordSourceFetchError(string(src.Kind), "unknown_kind")
		return nil
	}

	var (
		page string
		err  error
	)
	if src.Kind.UsesBotFetch() {
		page, err = o.Fetcher.FetchTextAsBot(ctx, src.URL)
	} else {
		page, err = o.Fetcher.FetchText(ctx, src.URL)
	}
	if err != nil {
		tracing.RecordError(span, err)
		logger.Warn("failed to fetch listing page", slog.Any("error", err))
		metrics.RecordSourceFetchError(string(src.Kind), o.reason(err))
		return nil
	}

	res, err := parser.Parse(page, ParseContext{
		PageURL:           src.URL,
		Now:               now,
		ExcludedNicknames: excluded,
	})
	if err != nil {
		tracing.RecordError(span, err)
		logger.Warn("failed to parse listing page", slog.Any("error", err))
		metrics.RecordSourceFetchError(string(src.Kind), "parse_failed")
		return nil
	}

	for _, link := range res.SkippedLinks {
		logger.Debug("skipped unparseable row", slog.String("link", link))
	}

	duration := time.Since(start)
	metrics.RecordSourceFetch(string(src.Kind), duration, len(res.SkippedLinks))
	span.SetAttributes(attribute.Int("entries", len(res.Entries)))
	logger.Info("source fetched",
		slog.Int("entries", len(res.Entries)),
		slog.Int("skipped", len(res.SkippedLinks)),
		slog.Duration("duration", duration))

	return res.Entries
}

func (o *Orchestrator) reason(err error) string {
	if o.Reason != nil {
		if r := o.Reason(err); r != "" {
			return r
		}
	}
	return "fetch_failed"
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) error {
	if o.sleep != nil {
		return o.sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
