// Package fetcher provides the process-wide HTTP client shared by every fetch
// task of a polling cycle: listing pages, detail pages and gallery images.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"board-watcher/internal/resilience/circuitbreaker"

	"github.com/sony/gobreaker"
)

// Client fetches board pages and images.
//
// Features:
//   - Browser-like or bot identity per request mode
//   - Per-host circuit breakers (an open breaker is a skip, never a retry)
//   - Size limiting to prevent memory exhaustion
//   - Redirect validation
//
// Thread safety: Client is safe for concurrent use.
type Client struct {
	client   *http.Client
	breakers *circuitbreaker.Registry // page hosts
	images   *circuitbreaker.Registry // image hosts
	config   Config
}

// NewClient creates a Client with the given configuration.
func NewClient(config Config) *Client {
	c := &Client{
		config:   config,
		breakers: circuitbreaker.NewRegistry(circuitbreaker.BoardFetchConfig),
		images:   circuitbreaker.NewRegistry(circuitbreaker.ImageFetchConfig),
	}

	c.client = &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= c.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), c.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}

	return c
}

// FetchText downloads a page with the browser identity and returns its body as text.
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, c.breakers, rawURL, c.config.MaxBodySize, func(h http.Header) {
		h.Set("User-Agent", c.config.UserAgent)
		h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchTextAsBot downloads a page with the bot identity. Some boards serve
// crawler user agents a lighter page without the anti-scraping interstitial.
// BotAuthorization is sent when configured.
func (c *Client) FetchTextAsBot(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, c.breakers, rawURL, c.config.MaxBodySize, func(h http.Header) {
		h.Set("User-Agent", c.config.BotUserAgent)
		if c.config.BotAuthorization != "" {
			h.Set("Authorization", c.config.BotAuthorization)
		}
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchBytes downloads a binary resource. Image hosts reject hot-linked
// requests, so referrer is sent as the Referer header when non-empty.
// A zero-length body is returned as-is; deciding what that means is up to
// the caller.
func (c *Client) FetchBytes(ctx context.Context, rawURL, referrer string) ([]byte, error) {
	return c.get(ctx, c.images, rawURL, c.config.MaxImageSize, func(h http.Header) {
		h.Set("User-Agent", c.config.UserAgent)
		if referrer != "" {
			h.Set("Referer", referrer)
		}
	})
}

// RenderHTML fetches a detail page without executing scripts. It is the
// fallback renderer when no headless browser is configured.
func (c *Client) RenderHTML(ctx context.Context, rawURL string) (string, error) {
	return c.FetchText(ctx, rawURL)
}

// OpenCircuits lists hosts currently skipped by their breaker. Image hosts
// carry an "image:" prefix.
func (c *Client) OpenCircuits() []string {
	open := c.breakers.OpenCircuits()
	for _, host := range c.images.OpenCircuits() {
		open = append(open, "image:"+host)
	}
	return open
}

func (c *Client) get(ctx context.Context, breakers *circuitbreaker.Registry, rawURL string, limit int64, decorate func(http.Header)) ([]byte, error) {
	if err := validateURL(rawURL, c.config.DenyPrivateIPs); err != nil {
		return nil, err
	}

	result, err := breakers.For(hostKey(rawURL)).Execute(func() (interface{}, error) {
		return c.doGet(ctx, rawURL, limit, decorate)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, hostKey(rawURL))
		}
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Client) doGet(ctx context.Context, rawURL string, limit int64, decorate func(http.Header)) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	decorate(req.Header)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: request exceeded %v", ErrTimeout, c.config.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: response exceeds limit %d bytes", ErrBodyTooLarge, limit)
	}

	return body, nil
}
