// Package browser renders detail pages in a headless Chrome so galleries that
// lazy-load their images are fully populated before extraction.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"board-watcher/internal/observability/logging"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// scrollScript scrolls in 100px steps until the viewport reaches the bottom,
// which triggers the board's lazy image loader.
const scrollScript = `(async () => {
	const delay = ms => new Promise(res => setTimeout(res, ms));
	while ((window.innerHeight + window.scrollY) < document.body.scrollHeight) {
		window.scrollBy(0, 100);
		await delay(100);
	}
	return true;
})()`

// PageRenderer is the plain-HTTP renderer used when the browser fails.
type PageRenderer interface {
	RenderHTML(ctx context.Context, url string) (string, error)
}

// Config controls the headless session.
type Config struct {
	// ExecPath points at the Chrome/Chromium binary. Empty means chromedp's lookup.
	ExecPath string
	// Settle is how long to wait after scrolling for images to load.
	Settle time.Duration
	// Timeout bounds one whole render.
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns a 5s settle delay and a 90s render timeout.
func DefaultConfig() Config {
	return Config{
		Settle:  5 * time.Second,
		Timeout: 90 * time.Second,
	}
}

// Renderer starts a fresh browser per call. Calls are rare (one per matched
// gallery) so there is no pooling.
type Renderer struct {
	config   Config
	fallback PageRenderer
	logger   *slog.Logger
}

// NewRenderer creates a Renderer. fallback may be nil.
func NewRenderer(config Config, fallback PageRenderer, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Renderer{config: config, fallback: fallback, logger: logger}
}

// RenderHTML navigates to url, scrolls to the bottom, waits Settle and returns
// the inner HTML of <body>. On browser failure it uses the fallback renderer
// when one is configured.
func (r *Renderer) RenderHTML(ctx context.Context, url string) (string, error) {
	html, err := r.render(ctx, url)
	if err == nil {
		return html, nil
	}
	if r.fallback == nil || ctx.Err() != nil {
		return "", err
	}

	logging.FromContextOr(ctx, r.logger).Warn("browser render failed, using plain fetch",
		slog.String("url", url),
		slog.Any("error", err))
	return r.fallback.RenderHTML(ctx, url)
}

func (r *Renderer) render(ctx context.Context, url string) (string, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if r.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.config.ExecPath))
	}
	if r.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.config.UserAgent))
	}

	runCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(runCtx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var (
		scrolled bool
		html     string
	)
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(scrollScript, &scrolled, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.Sleep(r.config.Settle),
		chromedp.InnerHTML("body", &html, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("browser render timed out after %v: %w", r.config.Timeout, err)
		}
		return "", fmt.Errorf("browser render %s: %w", url, err)
	}

	return html, nil
}
