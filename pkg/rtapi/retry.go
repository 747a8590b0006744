package rtapi

import (
	"context"
	"math"
	"time"

	"github.com/revivatech/client-go/internal/constants"
)

// RetryPolicy computes how long to wait before re-attempting a failed
// call. It is a pure policy object; the request pipeline owns the loop
// and calls Delay between attempts.
type RetryPolicy struct {
	// MaxRetries is the number of retry attempts after the initial try.
	MaxRetries int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// BackoffMultiplier grows the delay per attempt, so the wait before
	// retry n is BaseDelay * BackoffMultiplier^n.
	BackoffMultiplier float64

	// MaxDelay caps the computed delay. Zero means no cap.
	MaxDelay time.Duration

	// NonRetryableStatuses lists HTTP status codes that are terminal
	// after the first attempt.
	NonRetryableStatuses []int
}

// DefaultRetryPolicy returns the default retry policy: three retries
// with exponential backoff starting at one second, and client errors
// that cannot succeed on retry treated as terminal.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:           constants.DefaultMaxRetries,
		BaseDelay:            constants.DefaultRetryBaseDelay,
		BackoffMultiplier:    constants.DefaultBackoffMultiplier,
		MaxDelay:             constants.MaxRetryDelay,
		NonRetryableStatuses: []int{400, 401, 403, 404, 422},
	}
}

// Delay returns the wait before the retry that follows the given zero
// based attempt index.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	multiplier := p.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = constants.DefaultBackoffMultiplier
	}

	delay := time.Duration(float64(p.BaseDelay) * math.Pow(multiplier, float64(attempt)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	return delay
}

// Retryable reports whether a failure with the given HTTP status may be
// retried. Zero status means the failure happened below the HTTP layer
// (network error or timeout), which is always retryable.
func (p *RetryPolicy) Retryable(status int) bool {
	if status == 0 {
		return true
	}

	for _, code := range p.NonRetryableStatuses {
		if status == code {
			return false
		}
	}

	return true
}

// Sleep waits for the given duration or until the context is done,
// whichever comes first. It is the suspension primitive used between
// retry attempts.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
