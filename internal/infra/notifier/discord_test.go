package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"board-watcher/internal/domain/entity"

	"github.com/google/uuid"
)

type webhookRecorder struct {
	mu       sync.Mutex
	payloads []DiscordWebhookPayload
}

func (r *webhookRecorder) record(t *testing.T, req *http.Request) {
	t.Helper()
	var p DiscordWebhookPayload
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		t.Errorf("failed to decode payload: %v", err)
		return
	}
	r.mu.Lock()
	r.payloads = append(r.payloads, p)
	r.mu.Unlock()
}

func (r *webhookRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func testEntries(n int) []entity.Entry {
	observed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := make([]entity.Entry, n)
	for i := range entries {
		entries[i] = entity.NewEntry(entity.TagDC,
			fmt.Sprintf("post %d", i),
			"2026.03.01 18:00",
			fmt.Sprintf("https://gall.dcinside.com/board/view/?id=x&no=%d", i),
			observed)
	}
	return entries
}

func newTestNotifier(url string) *DiscordNotifier {
	n := NewDiscordNotifier(DiscordConfig{WebhookURL: url, Timeout: time.Second})
	n.rateLimiter = NewRateLimiter(1000, 100)
	return n
}

func TestBuildEmbed(t *testing.T) {
	e := testEntries(1)[0]
	embed := buildEmbed(entity.TagDC, e)

	if embed.Title != "post 0" {
		t.Errorf("expected title %q, got %q", "post 0", embed.Title)
	}
	if embed.URL != e.Link {
		t.Errorf("expected url %q, got %q", e.Link, embed.URL)
	}
	if embed.Description != "2026.03.01 18:00" {
		t.Errorf("unexpected description %q", embed.Description)
	}
	if embed.Footer.Text != "dc" {
		t.Errorf("expected footer dc, got %q", embed.Footer.Text)
	}
	if embed.Timestamp != "2026-03-01T09:00:00Z" {
		t.Errorf("unexpected timestamp %q", embed.Timestamp)
	}
	if embed.Color != discordBlueColor {
		t.Errorf("expected color %d, got %d", discordBlueColor, embed.Color)
	}
}

func TestBuildEmbed_TruncatesLongTitleOnRunes(t *testing.T) {
	e := testEntries(1)[0]
	e.Title = strings.Repeat("가", 300)

	embed := buildEmbed(entity.TagDC, e)

	if n := utf8.RuneCountInString(embed.Title); n != maxTitleLength {
		t.Errorf("expected %d runes, got %d", maxTitleLength, n)
	}
	if !utf8.ValidString(embed.Title) {
		t.Error("truncated title is not valid UTF-8")
	}
	if !strings.HasSuffix(embed.Title, truncationSuffix) {
		t.Errorf("expected suffix %q", truncationSuffix)
	}
}

func TestBuildPayloads_Batches(t *testing.T) {
	tests := []struct {
		entries int
		want    []int
	}{
		{entries: 0, want: nil},
		{entries: 1, want: []int{1}},
		{entries: 10, want: []int{10}},
		{entries: 25, want: []int{10, 10, 5}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.entries), func(t *testing.T) {
			payloads := buildPayloads(entity.TagDC, testEntries(tt.entries))
			if len(payloads) != len(tt.want) {
				t.Fatalf("expected %d payloads, got %d", len(tt.want), len(payloads))
			}
			for i, p := range payloads {
				if len(p.Embeds) != tt.want[i] {
					t.Errorf("payload %d: expected %d embeds, got %d", i, tt.want[i], len(p.Embeds))
				}
			}
		})
	}
}

func TestDiscordNotifier_NotifyNewEntries(t *testing.T) {
	rec := &webhookRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		rec.record(t, r)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	newTestNotifier(server.URL).NotifyNewEntries(context.Background(), entity.TagDC, testEntries(12))

	if rec.count() != 2 {
		t.Fatalf("expected 2 messages, got %d", rec.count())
	}
	if got := rec.payloads[1].Embeds[1].URL; !strings.HasSuffix(got, "no=11") {
		t.Errorf("unexpected last embed url %q", got)
	}
}

func TestDiscordNotifier_NoEntriesSendsNothing(t *testing.T) {
	rec := &webhookRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(t, r)
	}))
	defer server.Close()

	newTestNotifier(server.URL).NotifyNewEntries(context.Background(), entity.TagDC, nil)

	if rec.count() != 0 {
		t.Errorf("expected no request, got %d", rec.count())
	}
}

func TestDiscordNotifier_RateLimitDropsRemaining(t *testing.T) {
	rec := &webhookRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(t, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"You are being rate limited.","retry_after":1.5}`))
	}))
	defer server.Close()

	newTestNotifier(server.URL).NotifyNewEntries(context.Background(), entity.TagDC, testEntries(25))

	if rec.count() != 1 {
		t.Errorf("expected 1 request before giving up, got %d", rec.count())
	}
}

func TestDiscordNotifier_ServerErrorIsNotRetried(t *testing.T) {
	rec := &webhookRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(t, r)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	newTestNotifier(server.URL).NotifyNewEntries(context.Background(), entity.TagDC, testEntries(15))

	// one attempt per message, no retries
	if rec.count() != 2 {
		t.Errorf("expected 2 requests, got %d", rec.count())
	}
}

func TestDiscordNotifier_CanceledContext(t *testing.T) {
	rec := &webhookRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(t, r)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	newTestNotifier(server.URL).NotifyNewEntries(ctx, entity.TagDC, testEntries(3))

	if rec.count() != 0 {
		t.Errorf("expected no request, got %d", rec.count())
	}
}

func TestDiscordNotifier_send(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header string
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "success",
			status: http.StatusOK,
			check: func(t *testing.T, err error) {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			},
		},
		{
			name:   "rate limited with header",
			status: http.StatusTooManyRequests,
			header: "7",
			check: func(t *testing.T, err error) {
				rl, ok := err.(*RateLimitError)
				if !ok {
					t.Fatalf("expected *RateLimitError, got %T", err)
				}
				if rl.RetryAfter != 7*time.Second {
					t.Errorf("expected 7s, got %v", rl.RetryAfter)
				}
			},
		},
		{
			name:   "client error",
			status: http.StatusNotFound,
			body:   `{"message":"Unknown Webhook","code":10015}`,
			check: func(t *testing.T, err error) {
				ce, ok := err.(*ClientError)
				if !ok {
					t.Fatalf("expected *ClientError, got %T", err)
				}
				if ce.StatusCode != http.StatusNotFound || !strings.Contains(ce.Error(), "Unknown Webhook") {
					t.Errorf("unexpected client error %v", ce)
				}
			},
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				if _, ok := err.(*ServerError); !ok {
					t.Errorf("expected *ServerError, got %T", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set("Retry-After", tt.header)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			n := newTestNotifier(server.URL)
			tt.check(t, n.send(context.Background(), buildPayloads(entity.TagDC, testEntries(1))[0]))
		})
	}
}

func TestExtractRetryAfter_Default(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if got := extractRetryAfter(resp, []byte("not json")); got != 5*time.Second {
		t.Errorf("expected 5s default, got %v", got)
	}
}

func TestNoOpNotifier(t *testing.T) {
	var n Notifier = NewNoOpNotifier()
	n.NotifyNewEntries(context.Background(), entity.TagDC, testEntries(3))
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(1000, 1)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRateLimiter(0.001, 1).Wait(ctx); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestDiscordNotifier_RequestIDHeader(t *testing.T) {
	var (
		mu  sync.Mutex
		ids []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ids = append(ids, r.Header.Get(requestIDHeader))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := newTestNotifier(server.URL)
	n.NotifyNewEntries(context.Background(), entity.TagDC, testEntries(12))
	n.NotifyNewEntries(context.Background(), entity.TagDC, testEntries(1))

	mu.Lock()
	defer mu.Unlock()
	if len(ids) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(ids))
	}
	if _, err := uuid.Parse(ids[0]); err != nil {
		t.Errorf("expected a UUID request id, got %q: %v", ids[0], err)
	}
	if ids[0] != ids[1] {
		t.Errorf("messages of one notification should share a request id, got %q and %q", ids[0], ids[1])
	}
	if ids[2] == ids[0] {
		t.Errorf("separate notifications should get separate request ids, both %q", ids[0])
	}
}
