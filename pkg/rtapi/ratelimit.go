package rtapi

import (
	"sync"
	"time"

	"github.com/revivatech/client-go/internal/constants"
)

// RateLimiterConfig configures sliding window admission control.
type RateLimiterConfig struct {
	// MaxRequests is the number of calls admitted per key within the
	// window.
	MaxRequests int

	// Window is the sliding window duration.
	Window time.Duration
}

// DefaultRateLimiterConfig returns the default rate limiter configuration.
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		MaxRequests: constants.DefaultRateLimitMaxRequests,
		Window:      constants.DefaultRateLimitWindow,
	}
}

// RateLimiter is sliding window admission control keyed by an arbitrary
// string. It never talks to the network and never touches breaker state;
// it only answers whether a call is allowed right now.
type RateLimiter struct {
	mu      sync.Mutex
	config  RateLimiterConfig
	windows map[string][]time.Time
}

// NewRateLimiter creates a rate limiter with empty windows.
func NewRateLimiter(config *RateLimiterConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}

	cfg := *config
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = constants.DefaultRateLimitMaxRequests
	}

	if cfg.Window <= 0 {
		cfg.Window = constants.DefaultRateLimitWindow
	}

	return &RateLimiter{
		config:  cfg,
		windows: make(map[string][]time.Time),
	}
}

// Allow prunes timestamps that fell out of the window for the key and
// admits the call if the remaining count is below the limit. Rejected
// calls are not recorded against the window.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	kept := l.prune(key, now)

	if len(kept) >= l.config.MaxRequests {
		l.windows[key] = kept

		return false
	}

	l.windows[key] = append(kept, now)

	return true
}

// Remaining reports how many calls the key may still issue within the
// current window.
func (l *RateLimiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.prune(key, time.Now())
	l.windows[key] = kept

	remaining := l.config.MaxRequests - len(kept)
	if remaining < 0 {
		return 0
	}

	return remaining
}

// Reset clears the window for a single key.
func (l *RateLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, key)
}

// ResetAll clears every window.
func (l *RateLimiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.windows = make(map[string][]time.Time)
}

// prune drops timestamps older than the window start. Callers must hold
// the mutex.
func (l *RateLimiter) prune(key string, now time.Time) []time.Time {
	windowStart := now.Add(-l.config.Window)
	stamps := l.windows[key]

	kept := stamps[:0]

	for _, ts := range stamps {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}

	return kept
}
