package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"board-watcher/internal/domain/entity"
	"board-watcher/internal/observability/logging"
	"board-watcher/internal/observability/metrics"
	"board-watcher/internal/observability/tracing"
	"board-watcher/internal/usecase/crawl"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// Renderer returns the HTML of a detail page, executing scripts if it can.
type Renderer interface {
	RenderHTML(ctx context.Context, url string) (string, error)
}

// ImageExtractor finds downloadable images on a rendered detail page.
type ImageExtractor interface {
	ExtractImages(page, pageURL string) []string
}

// ExtractorResolver returns the image extractor for a source tag.
type ExtractorResolver interface {
	ImageExtractorFor(tag entity.SourceTag) (ImageExtractor, bool)
}

// ByteFetcher downloads a binary resource with a Referer header.
type ByteFetcher interface {
	FetchBytes(ctx context.Context, url, referrer string) ([]byte, error)
}

// Config tunes the cascade.
type Config struct {
	// Rate is the image requests per second across the whole cascade.
	Rate float64
	// Burst is the limiter burst size.
	Burst int
}

// DefaultConfig returns 4 requests per second with a burst of 4.
func DefaultConfig() Config {
	return Config{Rate: 4, Burst: 4}
}

// Cascade downloads gallery images for matched entries.
type Cascade struct {
	renderer   Renderer
	extractors ExtractorResolver
	fetcher    ByteFetcher
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewCascade creates a Cascade. A non-positive rate disables limiting.
// logger is used when the context passed to Run carries no logger.
func NewCascade(renderer Renderer, extractors ExtractorResolver, fetcher ByteFetcher, cfg Config, logger *slog.Logger) *Cascade {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Limit(cfg.Rate)
	if cfg.Rate <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Cascade{
		renderer:   renderer,
		extractors: extractors,
		fetcher:    fetcher,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

// MatchRule returns the first rule whose title substring occurs in the
// entry's title.
func MatchRule(rules []entity.DownloadRule, e entity.Entry) (entity.DownloadRule, bool) {
	for _, r := range rules {
		if r.Matches(e) {
			return r, true
		}
	}
	return entity.DownloadRule{}, false
}

// Run processes entries in order. It never returns an error: a failure on one
// gallery or image is logged and counted, and the cascade moves on. A canceled
// context stops it early.
func (c *Cascade) Run(ctx context.Context, entries []entity.Entry, rules []entity.DownloadRule) crawl.DownloadStats {
	var stats crawl.DownloadStats

	for _, e := range entries {
		if ctx.Err() != nil {
			logging.FromContextOr(ctx, c.logger).Warn("download cascade interrupted", slog.Any("error", ctx.Err()))
			return stats
		}

		rule, ok := MatchRule(rules, e)
		if !ok {
			continue
		}
		stats.Matched++
		metrics.RecordGalleryMatched()

		written, failed := c.downloadGallery(ctx, e, rule)
		stats.Written += written
		stats.Failed += failed
	}

	return stats
}

func (c *Cascade) downloadGallery(ctx context.Context, e entity.Entry, rule entity.DownloadRule) (written, failed int) {
	ctx, span := tracing.StartSpan(ctx, "download.gallery")
	defer span.End()
	span.SetAttributes(attribute.String("entry.link", e.Link))

	logger := logging.FromContextOr(ctx, c.logger).With(slog.String("link", e.Link), slog.String("title", e.Title))

	extractor, ok := c.extractors.ImageExtractorFor(e.SourceTag)
	if !ok {
		logger.Warn("skipping gallery", slog.Any("error", fmt.Errorf("%w: %s", ErrNoExtractor, e.SourceTag)))
		return 0, 0
	}

	page, err := c.renderer.RenderHTML(ctx, e.Link)
	if err != nil {
		tracing.RecordError(span, err)
		logger.Warn("failed to render detail page", slog.Any("error", err))
		return 0, 1
	}

	refs := BuildReferences(extractor.ExtractImages(page, e.Link), e, rule)
	logger.Info("gallery matched",
		slog.String("destination", filepath.Join(rule.DestinationRoot, SanitizeTitle(e.Title))),
		slog.Int("images", len(refs)))

	for _, ref := range refs {
		if err := c.limiter.Wait(ctx); err != nil {
			return written, failed
		}
		if err := c.downloadImage(ctx, ref); err != nil {
			failed++
			if errors.Is(err, ErrEmptyBody) {
				metrics.RecordImageEmpty()
			} else {
				metrics.RecordImageFailed()
			}
			logger.Warn("image download failed",
				slog.String("image", ref.SourceLink),
				slog.String("file", ref.FileName),
				slog.Any("error", err))
			continue
		}
		written++
	}

	return written, failed
}

func (c *Cascade) downloadImage(ctx context.Context, ref entity.ImageReference) error {
	data, err := c.fetcher.FetchBytes(ctx, ref.SourceLink, ref.Referrer)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrEmptyBody
	}

	dir := filepath.Join(ref.DestinationRoot, ref.DestinationSubpath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ref.FileName), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	metrics.RecordImageWritten(len(data))
	return nil
}

// BuildReferences numbers links 1.jpg, 2.jpg, ... in the given order.
func BuildReferences(links []string, e entity.Entry, rule entity.DownloadRule) []entity.ImageReference {
	if len(links) == 0 {
		return nil
	}
	subpath := SanitizeTitle(e.Title)
	referrer := referrerFor(e.Link)

	refs := make([]entity.ImageReference, 0, len(links))
	for i, link := range links {
		refs = append(refs, entity.ImageReference{
			SourceLink:         link,
			Referrer:           referrer,
			FileName:           fmt.Sprintf("%d.jpg", i+1),
			DestinationRoot:    rule.DestinationRoot,
			DestinationSubpath: subpath,
		})
	}
	return refs
}

// referrerFor returns scheme://host of the detail page.
func referrerFor(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
