package ghclient

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ErrRateLimited is returned when the GitHub API rate limit has been exceeded.
var ErrRateLimited = errors.New("rate limited")

// RateLimitLowWatermark is the remaining request count under which the
// client starts logging.
const RateLimitLowWatermark = 100

// RateLimitState tracks the rate limit reported by the API for one token.
type RateLimitState struct {
	mu        sync.RWMutex
	limited   bool
	resetAt   time.Time
	remaining int
	limit     int
}

// IsLimited returns true while the limit is exhausted and not yet reset.
func (s *RateLimitState) IsLimited() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limited && time.Now().Before(s.resetAt)
}

// ResetAt returns when the current window resets.
func (s *RateLimitState) ResetAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resetAt
}

// SetLimited marks the token as limited until resetAt.
func (s *RateLimitState) SetLimited(limited bool, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limited = limited
	s.resetAt = resetAt
}

// Update records the limit reported by a response.
func (s *RateLimitState) Update(remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	s.limit = limit
	s.resetAt = resetAt
	s.limited = remaining == 0
}

// Status returns the last reported rate limit.
func (s *RateLimitState) Status() (remaining, limit int, resetAt time.Time, limited bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remaining, s.limit, s.resetAt, s.limited && time.Now().Before(s.resetAt)
}

// parseRateLimitHeaders extracts rate limit info from response headers.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			remaining = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			resetAt = time.Unix(n, 0)
		}
	}
	return remaining, limit, resetAt
}
