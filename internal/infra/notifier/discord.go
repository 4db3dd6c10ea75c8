package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"board-watcher/internal/domain/entity"
	"board-watcher/internal/observability/logging"
	"board-watcher/internal/observability/metrics"

	"github.com/google/uuid"
)

// DiscordConfig configures the Discord webhook channel.
type DiscordConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// DiscordNotifier posts new entries to a Discord webhook, up to ten embeds per
// message.
type DiscordNotifier struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewDiscordNotifier creates a notifier limited to 0.5 messages per second
// with a burst of 3, below Discord's per-webhook limit.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &DiscordNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(0.5, 3),
	}
}

type DiscordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	URL         string             `json:"url"`
	Color       int                `json:"color"`
	Footer      DiscordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp"`
}

type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

type DiscordErrorResponse struct {
	Message    string  `json:"message"`
	Code       int     `json:"code"`
	RetryAfter float64 `json:"retry_after"` // seconds
}

const (
	maxEmbedsPerMessage = 10
	maxTitleLength      = 256
	truncationSuffix    = "..."

	discordBlueColor = 5793266
	discordChannel   = "discord"
)

func buildEmbed(tag entity.SourceTag, e entity.Entry) DiscordEmbed {
	return DiscordEmbed{
		Title:       truncate(e.Title, maxTitleLength, truncationSuffix),
		Description: e.DisplayDate,
		URL:         e.Link,
		Color:       discordBlueColor,
		Footer:      DiscordEmbedFooter{Text: string(tag)},
		Timestamp:   e.ObservedTime().UTC().Format(time.RFC3339),
	}
}

// buildPayloads splits entries into messages of at most ten embeds.
func buildPayloads(tag entity.SourceTag, entries []entity.Entry) []DiscordWebhookPayload {
	var payloads []DiscordWebhookPayload
	for start := 0; start < len(entries); start += maxEmbedsPerMessage {
		end := start + maxEmbedsPerMessage
		if end > len(entries) {
			end = len(entries)
		}
		embeds := make([]DiscordEmbed, 0, end-start)
		for _, e := range entries[start:end] {
			embeds = append(embeds, buildEmbed(tag, e))
		}
		payloads = append(payloads, DiscordWebhookPayload{Embeds: embeds})
	}
	return payloads
}

// NotifyNewEntries posts one message per ten entries. A rate limited answer
// drops the remaining messages of this call; other failures only drop the
// failed message.
func (d *DiscordNotifier) NotifyNewEntries(ctx context.Context, tag entity.SourceTag, entries []entity.Entry) {
	if len(entries) == 0 {
		return
	}
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	logger := logging.FromContext(ctx).With(
		slog.String("request_id", requestID),
		slog.String("tag", string(tag)))

	payloads := buildPayloads(tag, entries)
	for i, payload := range payloads {
		if err := d.rateLimiter.Wait(ctx); err != nil {
			logger.Warn("discord notification aborted", slog.Any("error", err))
			return
		}

		err := d.send(ctx, payload)
		var rateLimitErr *RateLimitError
		switch {
		case err == nil:
			metrics.RecordNotification(discordChannel, "sent")
			logger.Info("discord notification sent",
				slog.Int("embeds", len(payload.Embeds)),
				slog.Int("message", i+1),
				slog.Int("messages", len(payloads)))
		case errors.As(err, &rateLimitErr):
			metrics.RecordNotification(discordChannel, "rate_limited")
			logger.Warn("discord rate limit hit, dropping remaining messages",
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("dropped", len(payloads)-i))
			return
		default:
			metrics.RecordNotification(discordChannel, "failed")
			logger.Error("discord notification failed",
				slog.Int("message", i+1),
				slog.Any("error", err))
		}
	}
}

func (d *DiscordNotifier) send(ctx context.Context, payload DiscordWebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := requestIDFrom(ctx); id != "" {
		req.Header.Set(requestIDHeader, id)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    "Discord rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API client error: %s", string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API server error: %s", string(body)),
		}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// extractRetryAfter prefers the JSON body, then the Retry-After header, then 5s.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var discordErr DiscordErrorResponse
	if err := json.Unmarshal(body, &discordErr); err == nil && discordErr.RetryAfter > 0 {
		return time.Duration(discordErr.RetryAfter * float64(time.Second))
	}
	if h := resp.Header.Get("Retry-After"); h != "" {
		if seconds, err := strconv.Atoi(h); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 5 * time.Second
}
