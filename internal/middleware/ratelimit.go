package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter is a fixed-window request counter keyed by client identifier.
//
// Each key gets a window of fixed length; the counter resets when the window
// expires. A client can burst up to 2×limit across a window boundary; this
// is anti-spam throttling, not billing-grade quota enforcement.
//
// State is process-local and protected by a mutex: request handlers run on
// concurrent goroutines, so the read-modify-write in Allow must be atomic.
type RateLimiter struct {
	limit  int
	window time.Duration
	logger *slog.Logger

	// now is swappable so tests can advance simulated time.
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry

	sweepOnce sync.Once
	done      chan struct{}
}

type rateLimitEntry struct {
	count        int
	windowExpiry time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per window
// per key. Call StartSweeper to enable background cleanup of stale entries.
func NewRateLimiter(limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*rateLimitEntry),
		done:    make(chan struct{}),
	}
}

// Allow checks whether a request from the given key should be allowed.
//
// A fresh key, or one whose window has expired, starts a new window with
// count 1. A denied request leaves the record untouched and does not count
// toward the next window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.entries[key]

	if !exists || now.After(entry.windowExpiry) {
		rl.entries[key] = &rateLimitEntry{
			count:        1,
			windowExpiry: now.Add(rl.window),
		}
		return true
	}

	if entry.count >= rl.limit {
		return false
	}

	entry.count++
	return true
}

// TimeUntilReset returns how long until the window expires for a key.
// Returns 0 for unknown or already-expired keys.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.entries[key]
	if !exists {
		return 0
	}

	remaining := entry.windowExpiry.Sub(rl.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Sweep deletes every record whose window has expired. Purely a memory
// bound; Allow already self-corrects expired windows on the next request.
func (rl *RateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, entry := range rl.entries {
		if now.After(entry.windowExpiry) {
			delete(rl.entries, key)
		}
	}
}

// StartSweeper runs Sweep on a fixed interval until Stop is called.
// Safe to call once per limiter; a single repeating ticker, never
// concurrent with itself.
func (rl *RateLimiter) StartSweeper(interval time.Duration) {
	rl.sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					rl.Sweep()
				case <-rl.done:
					return
				}
			}
		}()
	})
}

// Stop halts the background sweeper.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

// size returns the current number of tracked keys. Test helper.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware wraps a rate limiter for use as HTTP middleware on
// routes throttled before any handler work (e.g. portal login).
//
// The form endpoints do not use this wrapper: they validate the payload
// first and consult the limiter directly, so malformed spam never consumes
// quota meant for legitimate retries.
type RateLimitMiddleware struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware.
func NewRateLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
	}
}

// Limit returns middleware that rejects over-limit requests with 429.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := GetClientIP(r)

		if !m.limiter.Allow(clientIP) {
			m.logger.Warn("rate limit exceeded",
				"ip", clientIP,
				"path", r.URL.Path,
				"method", r.Method,
			)

			retryAfter := int(m.limiter.TimeUntilReset(clientIP).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "Trop de requêtes. Veuillez réessayer dans quelques instants.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Helpers
// =============================================================================

// GetClientIP extracts the client IP from the request, considering proxy headers.
func GetClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: client, proxy1, proxy2.
	// The first one is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			clientIP := strings.TrimSpace(ips[0])
			if clientIP != "" {
				return clientIP
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}

	return ip
}
