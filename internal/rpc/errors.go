package rpc

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError signals HTTP 429 from the remote node. RetryAfter carries
// the server's hint when one was sent, zero otherwise.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by remote node, retry after %s", e.RetryAfter)
	}
	return "rate limited by remote node"
}

func rateLimitFromHeader(header http.Header) *RateLimitError {
	raw := header.Get("Retry-After")
	if raw == "" {
		return &RateLimitError{}
	}

	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return &RateLimitError{RetryAfter: time.Duration(secs) * time.Second}
	}

	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return &RateLimitError{RetryAfter: d}
		}
	}

	return &RateLimitError{}
}
