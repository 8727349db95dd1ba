package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// throttler counts requests per client within a sliding window.
type throttler struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
}

func newThrottler(limit int, window time.Duration) *throttler {
	return &throttler{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// allow prunes expired hits for the client and records the new one if
// it fits under the limit.
func (t *throttler) allow(client string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-t.window)
	recent := t.hits[client][:0]
	for _, ts := range t.hits[client] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= t.limit {
		t.hits[client] = recent
		return false
	}

	t.hits[client] = append(recent, now)
	return true
}

// Throttle rejects clients exceeding limit requests per window.
func Throttle(limit int, window time.Duration) gin.HandlerFunc {
	t := newThrottler(limit, window)

	return func(c *gin.Context) {
		client := c.ClientIP()
		if !t.allow(client, time.Now()) {
			slog.Warn("request throttled",
				"client_ip", client,
				"request_id", GetRequestID(c),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}

		c.Next()
	}
}
