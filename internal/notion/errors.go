package notion

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken indicates the integration token was rejected
var ErrInvalidToken = errors.New("invalid or expired Notion token")

// RateLimitError indicates the API rate limit was exceeded.
// RetryAfter carries the server-suggested wait when present.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "notion API rate limit exceeded"
}

// ServerError represents a 5xx error from the Notion API
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Notion server error: HTTP %d", e.StatusCode)
}
