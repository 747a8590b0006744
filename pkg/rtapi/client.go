package rtapi

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// BookingsClient provides access to repair bookings.
type BookingsClient interface {
	Create(ctx context.Context, request *BookingCreateRequest) (*Booking, error)
	Get(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, params *QueryParams) (*BookingList, error)
	Update(ctx context.Context, id string, request *BookingUpdateRequest) (*Booking, error)
	Cancel(ctx context.Context, id string) (*Booking, error)
	Delete(ctx context.Context, id string) error
}

// CustomersClient provides access to customer accounts.
type CustomersClient interface {
	Create(ctx context.Context, request *CustomerCreateRequest) (*Customer, error)
	Get(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, params *QueryParams) (*CustomerList, error)
	Update(ctx context.Context, id string, request *CustomerUpdateRequest) (*Customer, error)
	Delete(ctx context.Context, id string) error
}

// DevicesClient provides access to the device catalog.
type DevicesClient interface {
	Get(ctx context.Context, id string) (*Device, error)
	List(ctx context.Context, params *QueryParams) (*DeviceList, error)
	ListCategories(ctx context.Context) ([]DeviceCategory, error)
	ListBrands(ctx context.Context, categoryID string) ([]DeviceBrand, error)
}

// QuotesClient provides access to repair quotes.
type QuotesClient interface {
	Create(ctx context.Context, request *QuoteCreateRequest) (*Quote, error)
	Get(ctx context.Context, id string) (*Quote, error)
	List(ctx context.Context, params *QueryParams) (*QuoteList, error)
	Accept(ctx context.Context, id string) (*Quote, error)
	Decline(ctx context.Context, id string) (*Quote, error)
}

// ResourceClients provides access to all resource-specific clients.
type ResourceClients interface {
	Bookings() BookingsClient
	Customers() CustomersClient
	Devices() DevicesClient
	Quotes() QuotesClient
}

// HealthClient provides access to API health and metadata endpoints.
type HealthClient interface {
	// GetHealth probes the backend and reports the outcome together
	// with the observed round trip latency.
	GetHealth(ctx context.Context) (*HealthStatus, error)
	GetInfo(ctx context.Context) (*Info, error)
}

// ResilienceController exposes the operational surface of the request
// pipeline: interceptor registration and manual control over the
// breaker, the rate limiter, and the response cache.
type ResilienceController interface {
	AddRequestInterceptor(interceptor RequestInterceptor)
	AddResponseInterceptor(interceptor ResponseInterceptor)
	AddErrorInterceptor(interceptor ErrorInterceptor)

	ClearCache(ctx context.Context) error
	ResetRateLimit(key string)
	ResetAllRateLimits()
	ResetCircuitBreaker()
	CircuitBreakerState() BreakerState
	CircuitBreakerSnapshot() BreakerSnapshot
}

// Client is the full RevivaTech API client surface.
type Client interface {
	ResourceClients
	HealthClient
	ResilienceController
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a rtapi.Client.
//
// # Authentication precedence
//
// The concrete client implementation applies the following precedence
// (see pkg/rtclient and internal/client):
//  1. AccessToken: if set, it is used directly as a static Bearer token.
//  2. APIKey: sent as the X-API-Key header on every request.
//  3. BasicAuthUsername/BasicAuthPassword: sent as an HTTP Basic
//     Authorization header on every request.
//  4. ClientID/ClientSecret: uses the OAuth2 client_credentials grant.
//  5. Username/Password: uses the OAuth2 password grant.
//  6. No credentials: requests are sent without authentication.
//
// # Token URL discovery
//
// If an OAuth2 grant is required and TokenURL is not provided,
// rtclient.New discovers it from the API info endpoint ("/api/info" →
// links.auth) and falls back to "<endpoint>/oauth/token".
//
// # Resiliency defaults
//
// Zero values leave the pipeline defaults in place: three retries with
// exponential backoff from one second, a breaker that opens after five
// consecutive failures for sixty seconds, admission control of one
// hundred requests per minute, and a bounded in-memory response cache
// of one hundred entries with a five minute TTL.
type Config struct {
	// APIEndpoint: base URL for the RevivaTech API (e.g.
	// "https://api.revivatech.co.uk"). rtclient.New normalizes this
	// value by trimming a trailing slash and adding "https://" if no
	// scheme is present.
	APIEndpoint string

	// Authentication options (provide one)
	// AccessToken: if set, used directly as a Bearer token.
	AccessToken string
	// APIKey: static API key for server-to-server integrations.
	APIKey string
	// BasicAuthUsername: username for HTTP Basic authentication.
	BasicAuthUsername string
	// BasicAuthPassword: password for HTTP Basic authentication.
	BasicAuthPassword string
	// ClientID: OAuth2 client ID for the client_credentials grant.
	ClientID string
	// ClientSecret: OAuth2 client secret used with ClientID.
	ClientSecret string
	// Username: account username for the OAuth2 password grant.
	Username string
	// Password: account password for the OAuth2 password grant.
	Password string
	// RefreshToken: optional refresh token used to renew access tokens.
	RefreshToken string
	// TokenURL: full OAuth2 token endpoint. If empty and an OAuth2
	// grant is configured, rtclient.New discovers it (preferred).
	TokenURL string

	// HTTPTimeout: default per-call timeout. Zero uses the pipeline
	// default; per-request timeouts override it.
	HTTPTimeout time.Duration

	// MaxRetries: retry attempts after the initial try. Zero uses the
	// default; per-request overrides win.
	MaxRetries int
	// RetryBaseDelay: backoff before the first retry.
	RetryBaseDelay time.Duration
	// RetryMaxDelay: cap on the computed backoff.
	RetryMaxDelay time.Duration

	// BreakerThreshold: consecutive failures before the breaker opens.
	BreakerThreshold int
	// BreakerCooldown: how long the breaker stays open.
	BreakerCooldown time.Duration

	// RateLimitMaxRequests: calls admitted per window.
	RateLimitMaxRequests int
	// RateLimitWindow: sliding window duration.
	RateLimitWindow time.Duration

	// Cache: response cache backend configuration. Nil uses the bounded
	// in-memory default; Type "none" disables caching.
	Cache *CacheConfig

	// Metrics: optional Prometheus collector. Nil disables metrics.
	Metrics *MetricsCollector

	// Debug: enables verbose HTTP request/response logging when a
	// Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// SkipTLSVerify: if true, TLS verification is skipped. Intended for
	// local development only.
	SkipTLSVerify bool
}

// Validate checks the configuration for values the client cannot work
// with. It validates shape, not reachability.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIEndpoint, validation.Required, is.RequestURL),
		validation.Field(&c.MaxRetries, validation.Min(0), validation.Max(10)),
		validation.Field(&c.BreakerThreshold, validation.Min(0)),
		validation.Field(&c.RateLimitMaxRequests, validation.Min(0)),
		validation.Field(&c.TokenURL, is.RequestURL),
	)
}
