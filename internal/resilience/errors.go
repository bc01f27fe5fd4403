package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// maxBodySnippet caps how much of an upstream response body rides along in
// the error message.
const maxBodySnippet = 512

// UpstreamStatusError is a non-2xx response from one of the upstream APIs
// the pipeline calls (LEI registry, Companies House, SERP, GDELT). Carrying
// the status code lets the retry layer tell a 429 from a 404.
type UpstreamStatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Upstream builds an UpstreamStatusError from a raw response body, trimming
// the body to a loggable snippet.
func Upstream(service string, statusCode int, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxBodySnippet {
		snippet = snippet[:maxBodySnippet]
	}
	return &UpstreamStatusError{Service: service, StatusCode: statusCode, Body: snippet}
}

// IsTransient reports whether err is worth retrying: an upstream response
// with a retryable status, a network timeout, a dropped connection, or a
// DNS hiccup. Anything else is treated as permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var upstream *UpstreamStatusError
	if errors.As(err, &upstream) {
		return IsTransientHTTPStatus(upstream.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsNotFound
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	// net/http flattens some transport failures into plain error strings.
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection reset by peer",
		"tls handshake timeout",
		"server closed idle connection",
		"i/o timeout",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether an HTTP status code indicates a
// condition the caller may retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429:
		return true
	}
	return statusCode >= 500 && statusCode <= 504
}
