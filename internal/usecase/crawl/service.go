package crawl

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"board-watcher/internal/domain/entity"
	"board-watcher/internal/observability/logging"
	"board-watcher/internal/observability/metrics"
	"board-watcher/internal/observability/tracing"
	"board-watcher/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// SourceFetcher fetches all sources of a cycle. *Orchestrator implements it.
type SourceFetcher interface {
	FetchAll(ctx context.Context, sources []entity.SourceConfig, excludedNicknames []string, now time.Time) map[entity.SourceTag][]entity.Entry
}

// Service runs polling cycles.
type Service struct {
	Fetcher    SourceFetcher
	Store      repository.EntryStore
	Downloader Downloader       // optional
	Notifier   NewEntryNotifier // optional

	// ImageSource is the tag whose newly discovered entries go to the
	// download cascade and the notifier.
	ImageSource entity.SourceTag

	// FetchTimeout bounds the fetch phase of a cycle. Zero means no bound.
	// Persisting and downloading are never cut short by it.
	FetchTimeout time.Duration

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// NewService creates a Service with the default image source (dc).
func NewService(fetcher SourceFetcher, store repository.EntryStore, downloader Downloader, notifier NewEntryNotifier) *Service {
	return &Service{
		Fetcher:     fetcher,
		Store:       store,
		Downloader:  downloader,
		Notifier:    notifier,
		ImageSource: entity.TagDC,
	}
}

// CycleStats summarizes one cycle.
type CycleStats struct {
	Sources      int
	Scraped      int
	Tracked      int
	New          int
	Expired      int
	SaveFailures int
	Downloads    DownloadStats
	Duration     time.Duration
}

// RunCycle performs one poll-merge-persist-download pass over the watch list.
//
// Per target, in order: load the stored state (missing or unreadable means
// empty), classify it against the current time, merge the fresh bucket into
// it and save it back. A failure on one target is logged and the cycle moves
// on. Newly discovered entries of ImageSource are then handed to the notifier
// and the download cascade.
//
// Once a target's state is saved its new entries are known for good, so the
// hand-off to the notifier and the cascade ignores cancellation of ctx.
//
// Only a nil watch list or a canceled context produce an error.
func (s *Service) RunCycle(ctx context.Context, wl *entity.WatchList) (*CycleStats, error) {
	if wl == nil {
		return nil, ErrNilSnapshot
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "crawl.cycle")
	defer span.End()

	logger := logging.FromContext(ctx)
	start := time.Now()
	stats := &CycleStats{Sources: len(wl.Sources)}

	buckets := s.fetchAll(ctx, wl)
	for _, entries := range buckets {
		stats.Scraped += len(entries)
	}

	var discovered []entity.Entry
	for _, target := range wl.Targets {
		found := s.syncTarget(ctx, target, buckets, stats)
		if target.Kind.Tag() == s.ImageSource {
			discovered = appendUnique(discovered, found)
		}
	}

	if len(discovered) > 0 {
		handoff := context.WithoutCancel(ctx)
		if s.Notifier != nil {
			s.Notifier.NotifyNewEntries(handoff, s.ImageSource, discovered)
		}
		if s.Downloader != nil {
			stats.Downloads = s.Downloader.Run(handoff, discovered, wl.RulesFor(s.ImageSource))
		}
	}

	stats.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("cycle.scraped", stats.Scraped),
		attribute.Int("cycle.new", stats.New),
	)
	logger.Info("cycle completed",
		slog.Int("sources", stats.Sources),
		slog.Int("scraped", stats.Scraped),
		slog.Int("tracked", stats.Tracked),
		slog.Int("new", stats.New),
		slog.Int("expired", stats.Expired),
		slog.Int("save_failures", stats.SaveFailures),
		slog.Int("galleries_matched", stats.Downloads.Matched),
		slog.Int("images_written", stats.Downloads.Written),
		slog.Int("images_failed", stats.Downloads.Failed),
		slog.Duration("duration", stats.Duration))

	if err := ctx.Err(); err != nil {
		tracing.RecordError(span, err)
		return stats, err
	}
	return stats, nil
}

func (s *Service) fetchAll(ctx context.Context, wl *entity.WatchList) map[entity.SourceTag][]entity.Entry {
	if s.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.FetchTimeout)
		defer cancel()
	}
	return s.Fetcher.FetchAll(ctx, wl.Sources, wl.ExcludedNicknames, s.now())
}

// syncTarget merges one bucket into its state file and returns the newly
// discovered entries.
func (s *Service) syncTarget(ctx context.Context, target entity.PersistenceTarget, buckets map[entity.SourceTag][]entity.Entry, stats *CycleStats) []entity.Entry {
	logger := logging.FromContext(ctx).With(
		slog.String("target", string(target.Kind)),
		slog.String("path", target.Path))

	switch {
	case !target.Kind.Valid():
		logger.Warn("skipping target with unknown kind")
		return nil
	case target.Kind == entity.KindMPLow:
		// mp_low entries live in the mp bucket and are saved by the mp target.
		logger.Debug("skipping mp_low target")
		return nil
	}

	tag := target.Kind.Tag()
	fresh := buckets[tag]

	stored, err := s.Store.Load(ctx, target.Path)
	switch {
	case errors.Is(err, repository.ErrStateNotFound):
		logger.Info("no stored state, starting empty")
	case err != nil:
		logger.Warn("failed to load stored state, starting empty", slog.Any("error", err))
	}

	classified := Classify(stored, s.now())
	expired := len(stored) - len(classified)

	merged, discovered := Merge(fresh, classified)

	if err := s.Store.Save(ctx, target.Path, merged); err != nil {
		stats.SaveFailures++
		metrics.RecordStateWriteError(string(tag))
		logger.Error("failed to save state", slog.Any("error", err))
	}

	stats.Tracked += len(merged)
	stats.New += len(discovered)
	stats.Expired += expired
	metrics.RecordMerge(string(tag), len(fresh), len(discovered), expired, len(merged))

	logger.Info("target merged",
		slog.Int("fresh", len(fresh)),
		slog.Int("stored", len(stored)),
		slog.Int("expired", expired),
		slog.Int("new", len(discovered)),
		slog.Int("tracked", len(merged)))

	return discovered
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func appendUnique(dst, src []entity.Entry) []entity.Entry {
	seen := make(map[string]struct{}, len(dst))
	for _, e := range dst {
		seen[e.Link] = struct{}{}
	}
	for _, e := range src {
		if _, ok := seen[e.Link]; ok {
			continue
		}
		seen[e.Link] = struct{}{}
		dst = append(dst, e)
	}
	return dst
}
