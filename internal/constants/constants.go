package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second

	// HealthCheckTimeout bounds the health probe round trip.
	HealthCheckTimeout = 5 * time.Second
)

// Retry and backoff defaults.
const (
	// DefaultMaxRetries is the default number of retry attempts after the
	// initial try.
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay is the backoff delay before the first retry.
	DefaultRetryBaseDelay = 1 * time.Second

	// DefaultBackoffMultiplier grows the delay exponentially per attempt.
	DefaultBackoffMultiplier = 2.0

	// MaxRetryDelay caps the computed backoff delay.
	MaxRetryDelay = 30 * time.Second
)

// Circuit breaker defaults.
const (
	// CircuitBreakerFailureThreshold is the number of consecutive failures
	// that opens the breaker.
	CircuitBreakerFailureThreshold = 5

	// CircuitBreakerCooldown is how long the breaker stays open before a
	// half-open trial is allowed.
	CircuitBreakerCooldown = 60 * time.Second
)

// Rate limiter defaults.
const (
	// DefaultRateLimitMaxRequests is the number of requests admitted per
	// window and key.
	DefaultRateLimitMaxRequests = 100

	// DefaultRateLimitWindow is the sliding window duration.
	DefaultRateLimitWindow = 1 * time.Minute

	// DefaultRateLimitKey is used when no per-request key is derived.
	DefaultRateLimitKey = "global"
)

// Response cache defaults.
const (
	// DefaultCacheCapacity is the maximum number of cached responses.
	DefaultCacheCapacity = 100

	// DefaultCacheTTL is the time-to-live applied when a request does not
	// override it.
	DefaultCacheTTL = 5 * time.Minute
)

// Authentication defaults.
const (
	// TokenExpirationBuffer treats tokens expiring within this window as
	// already expired so they are refreshed before use.
	TokenExpirationBuffer = 30 * time.Second

	// TokenRefreshRetryMax bounds retries of token endpoint calls.
	TokenRefreshRetryMax = 2

	// TokenRefreshWaitMin is the minimum backoff for token endpoint retries.
	TokenRefreshWaitMin = 500 * time.Millisecond

	// TokenRefreshWaitMax is the maximum backoff for token endpoint retries.
	TokenRefreshWaitMax = 5 * time.Second
)

// Concurrency and batching limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch operations.
	DefaultConcurrencyLimit = 3

	// SmallBufferSize is used for smaller channel buffers.
	SmallBufferSize = 10
)

// Pagination and display limits.
const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 50

	// MaxPageSize is the largest page size the API accepts.
	MaxPageSize = 200
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)

// Health statuses reported by the API.
const (
	// HealthStatusHealthy indicates the backend answered the probe.
	HealthStatusHealthy = "healthy"

	// HealthStatusDegraded indicates the backend answered with an error.
	HealthStatusDegraded = "degraded"

	// HealthStatusUnhealthy indicates the probe did not get an answer.
	HealthStatusUnhealthy = "unhealthy"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
