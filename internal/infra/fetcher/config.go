package fetcher

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default User-Agent strings. Board pages are requested the way a desktop
// browser would; bot-mode sources get a crawler identity instead.
const (
	DefaultBrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultBotUserAgent     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

// Config holds the configuration for the shared HTTP client.
//
// Security settings:
//   - DenyPrivateIPs: Prevents SSRF by blocking private IP addresses
//   - MaxBodySize / MaxImageSize: Prevent memory exhaustion from oversized responses
//   - MaxRedirects: Prevents infinite redirect loops
//
// Request identity:
//   - UserAgent: sent by FetchText and FetchBytes
//   - BotUserAgent / BotAuthorization: sent by FetchTextAsBot
type Config struct {
	// Timeout is the maximum duration for a single HTTP request.
	// Default: 30s
	Timeout time.Duration

	// MaxBodySize is the maximum listing/detail page size in bytes.
	// Enforced while reading, not from Content-Length.
	// Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxImageSize is the maximum image body size in bytes.
	// Default: 52428800 (50MB)
	MaxImageSize int64

	// MaxRedirects is the maximum number of HTTP redirects to follow.
	// Default: 5
	MaxRedirects int

	// DenyPrivateIPs blocks URLs resolving to private/loopback/link-local IPs.
	// Default: false (boards are public, but operators may turn it on)
	DenyPrivateIPs bool

	UserAgent        string
	BotUserAgent     string
	BotAuthorization string
}

// DefaultConfig returns the default configuration for the shared client.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		MaxBodySize:  10 * 1024 * 1024, // 10MB
		MaxImageSize: 50 * 1024 * 1024, // 50MB
		MaxRedirects: 5,
		UserAgent:    DefaultBrowserUserAgent,
		BotUserAgent: DefaultBotUserAgent,
	}
}

// Validate checks if the configuration values are valid and safe.
//
// Validation rules:
//   - Timeout: > 0
//   - MaxBodySize: 1KB-100MB
//   - MaxImageSize: 1KB-200MB
//   - MaxRedirects: 0-10
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	minSize := int64(1024)
	if c.MaxBodySize < minSize || c.MaxBodySize > 100*1024*1024 {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minSize, 100*1024*1024, c.MaxBodySize)
	}
	if c.MaxImageSize < minSize || c.MaxImageSize > 200*1024*1024 {
		return fmt.Errorf("max image size must be between %d and %d bytes, got %d", minSize, 200*1024*1024, c.MaxImageSize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	return nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// If a variable is not set the default value is used; malformed values are errors.
//
// Environment variables:
//   - FETCH_TIMEOUT: duration string, e.g. "30s" (default: 30s)
//   - FETCH_MAX_BODY_SIZE: integer in bytes (default: 10485760)
//   - FETCH_MAX_IMAGE_SIZE: integer in bytes (default: 52428800)
//   - FETCH_MAX_REDIRECTS: integer (default: 5)
//   - FETCH_DENY_PRIVATE_IPS: "true" or "false" (default: false)
//   - FETCH_USER_AGENT, BOT_USER_AGENT: override the default identities
//   - BOT_AUTHORIZATION: Authorization header value for bot-mode sources
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if val := os.Getenv("FETCH_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_TIMEOUT: %v (expected format: '30s', '1m')", err)
		}
		cfg.Timeout = parsed
	}

	if val := os.Getenv("FETCH_MAX_BODY_SIZE"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_MAX_BODY_SIZE: %v", err)
		}
		cfg.MaxBodySize = parsed
	}

	if val := os.Getenv("FETCH_MAX_IMAGE_SIZE"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_MAX_IMAGE_SIZE: %v", err)
		}
		cfg.MaxImageSize = parsed
	}

	if val := os.Getenv("FETCH_MAX_REDIRECTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_MAX_REDIRECTS: %v", err)
		}
		cfg.MaxRedirects = parsed
	}

	if val := os.Getenv("FETCH_DENY_PRIVATE_IPS"); val != "" {
		cfg.DenyPrivateIPs = val == "true"
	}
	if val := os.Getenv("FETCH_USER_AGENT"); val != "" {
		cfg.UserAgent = val
	}
	if val := os.Getenv("BOT_USER_AGENT"); val != "" {
		cfg.BotUserAgent = val
	}
	cfg.BotAuthorization = os.Getenv("BOT_AUTHORIZATION")

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
