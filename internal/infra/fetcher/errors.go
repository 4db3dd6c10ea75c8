package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL indicates the URL is malformed or uses an unsupported scheme.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrPrivateIP indicates the host resolves to a private address while
	// DenyPrivateIPs is enabled.
	ErrPrivateIP = errors.New("private IP address not allowed")

	// ErrBodyTooLarge indicates the response exceeded the configured size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTooManyRedirects indicates the redirect limit was hit.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrTimeout indicates the per-request timeout elapsed.
	ErrTimeout = errors.New("request timeout")

	// ErrCircuitOpen indicates the host's circuit breaker is open and the
	// request was skipped without touching the network.
	ErrCircuitOpen = errors.New("circuit open")
)

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// Reason returns a low-cardinality label for metrics.
func Reason(err error) string {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &httpErr):
		return fmt.Sprintf("http_%dxx", httpErr.StatusCode/100)
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrBodyTooLarge):
		return "body_too_large"
	case errors.Is(err, ErrInvalidURL), errors.Is(err, ErrPrivateIP):
		return "invalid_url"
	default:
		return "transport"
	}
}
