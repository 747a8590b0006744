// Package client implements the rtapi.Client interface on top of the
// resilient HTTP pipeline.
package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/revivatech/client-go/internal/auth"
	"github.com/revivatech/client-go/internal/http"
	"github.com/revivatech/client-go/pkg/rtapi"
)

// Static errors for err113 compliance.
var (
	ErrAPIEndpointRequired      = errors.New("API endpoint is required")
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// Client implements rtapi.Client.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       rtapi.Logger

	bookings  rtapi.BookingsClient
	customers rtapi.CustomersClient
	devices   rtapi.DevicesClient
	quotes    rtapi.QuotesClient
}

// createTokenManager picks the credential source from the config. The
// precedence is access token, API key, basic auth, client credentials,
// password grant. API keys and basic auth are sent as headers by an
// interceptor, so they need no token manager.
func createTokenManager(config *rtapi.Config) auth.TokenManager {
	if config.AccessToken != "" {
		return auth.NewStaticTokenManager(config.AccessToken)
	}

	if config.APIKey != "" || config.BasicAuthUsername != "" {
		return nil
	}

	if config.ClientID != "" && config.ClientSecret != "" {
		return auth.NewOAuth2TokenManager(&auth.OAuth2Config{
			TokenURL:     getTokenURL(config),
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RefreshToken: config.RefreshToken,
		})
	}

	if config.Username != "" && config.Password != "" {
		return auth.NewOAuth2TokenManager(&auth.OAuth2Config{
			TokenURL:     getTokenURL(config),
			Username:     config.Username,
			Password:     config.Password,
			RefreshToken: config.RefreshToken,
		})
	}

	return nil
}

// getTokenURL returns the configured token endpoint or the conventional
// fallback under the API endpoint. rtclient.New discovers the real
// endpoint from /api/info before handing the config over.
func getTokenURL(config *rtapi.Config) string {
	if config.TokenURL != "" {
		return config.TokenURL
	}

	return config.APIEndpoint + "/oauth/token"
}

// buildHTTPOptions maps the public config onto pipeline options and
// builds the shared cache manager.
func buildHTTPOptions(config *rtapi.Config) ([]http.Option, *rtapi.CacheManager, error) {
	var opts []http.Option

	if config.Logger != nil {
		opts = append(opts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		opts = append(opts, http.WithUserAgent(config.UserAgent))
	}

	if config.SkipTLSVerify {
		opts = append(opts, http.WithSkipTLSVerify(true))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, http.WithTimeout(config.HTTPTimeout))
	}

	retryPolicy := rtapi.DefaultRetryPolicy()
	if config.MaxRetries > 0 {
		retryPolicy.MaxRetries = config.MaxRetries
	}

	if config.RetryBaseDelay > 0 {
		retryPolicy.BaseDelay = config.RetryBaseDelay
	}

	if config.RetryMaxDelay > 0 {
		retryPolicy.MaxDelay = config.RetryMaxDelay
	}

	opts = append(opts, http.WithRetryPolicy(retryPolicy))

	if config.BreakerThreshold > 0 || config.BreakerCooldown > 0 {
		opts = append(opts, http.WithCircuitBreakerConfig(&rtapi.CircuitBreakerConfig{
			FailureThreshold: config.BreakerThreshold,
			Cooldown:         config.BreakerCooldown,
		}))
	}

	if config.RateLimitMaxRequests > 0 || config.RateLimitWindow > 0 {
		opts = append(opts, http.WithRateLimiterConfig(&rtapi.RateLimiterConfig{
			MaxRequests: config.RateLimitMaxRequests,
			Window:      config.RateLimitWindow,
		}))
	}

	if config.Metrics != nil {
		opts = append(opts, http.WithMetrics(config.Metrics))
	}

	cache, err := rtapi.NewCacheFromConfig(config.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("building cache backend: %w", err)
	}

	var cacheOptions *rtapi.CacheOptions
	if config.Cache != nil {
		cacheOptions = config.Cache.Options
	}

	cacheManager := rtapi.NewCacheManager(cache, cacheOptions)
	opts = append(opts, http.WithCacheManager(cacheManager))

	return opts, cacheManager, nil
}

// New creates an API client from the config. The endpoint must already
// be normalized; rtclient.New does that for public callers.
func New(config *rtapi.Config) (*Client, error) {
	if config.APIEndpoint == "" {
		return nil, ErrAPIEndpointRequired
	}

	tokenManager := createTokenManager(config)

	return newWithManager(config, tokenManager)
}

// NewWithTokenManager creates an API client that authenticates through
// the given token manager instead of deriving one from the config.
func NewWithTokenManager(config *rtapi.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config.APIEndpoint == "" {
		return nil, ErrAPIEndpointRequired
	}

	return newWithManager(config, tokenManager)
}

func newWithManager(config *rtapi.Config, tokenManager auth.TokenManager) (*Client, error) {
	httpOpts, cacheManager, err := buildHTTPOptions(config)
	if err != nil {
		return nil, err
	}

	httpClient := http.NewClient(config.APIEndpoint, tokenManager, httpOpts...)

	if config.APIKey != "" {
		httpClient.AddRequestInterceptor(rtapi.HeaderInterceptor(map[string]string{
			"X-API-Key": config.APIKey,
		}))
	}

	if config.APIKey == "" && config.BasicAuthUsername != "" {
		credentials := config.BasicAuthUsername + ":" + config.BasicAuthPassword
		httpClient.AddRequestInterceptor(rtapi.HeaderInterceptor(map[string]string{
			"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
		}))
	}

	// Mutations drop the cached reads for their path so list and get
	// calls do not serve stale data afterwards.
	httpClient.AddResponseInterceptor(rtapi.CacheInvalidationInterceptor(cacheManager))

	client := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      config.APIEndpoint,
		logger:       config.Logger,
	}

	client.initializeResourceClients()

	return client, nil
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// GetToken returns the current access token from the token manager.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", ErrNoTokenManagerConfigured
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

// Bookings implements rtapi.Client.Bookings.
func (c *Client) Bookings() rtapi.BookingsClient {
	return c.bookings
}

// Customers implements rtapi.Client.Customers.
func (c *Client) Customers() rtapi.CustomersClient {
	return c.customers
}

// Devices implements rtapi.Client.Devices.
func (c *Client) Devices() rtapi.DevicesClient {
	return c.devices
}

// Quotes implements rtapi.Client.Quotes.
func (c *Client) Quotes() rtapi.QuotesClient {
	return c.quotes
}

// AddRequestInterceptor implements rtapi.ResilienceController.
func (c *Client) AddRequestInterceptor(interceptor rtapi.RequestInterceptor) {
	c.httpClient.AddRequestInterceptor(interceptor)
}

// AddResponseInterceptor implements rtapi.ResilienceController.
func (c *Client) AddResponseInterceptor(interceptor rtapi.ResponseInterceptor) {
	c.httpClient.AddResponseInterceptor(interceptor)
}

// AddErrorInterceptor implements rtapi.ResilienceController.
func (c *Client) AddErrorInterceptor(interceptor rtapi.ErrorInterceptor) {
	c.httpClient.AddErrorInterceptor(interceptor)
}

// ClearCache implements rtapi.ResilienceController.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.httpClient.ClearCache(ctx)
}

// CacheStats reports cache hit and miss counters.
func (c *Client) CacheStats() *rtapi.CacheStats {
	return c.httpClient.CacheStats()
}

// ResetRateLimit implements rtapi.ResilienceController.
func (c *Client) ResetRateLimit(key string) {
	c.httpClient.ResetRateLimit(key)
}

// ResetAllRateLimits implements rtapi.ResilienceController.
func (c *Client) ResetAllRateLimits() {
	c.httpClient.ResetAllRateLimits()
}

// ResetCircuitBreaker implements rtapi.ResilienceController.
func (c *Client) ResetCircuitBreaker() {
	c.httpClient.ResetCircuitBreaker()
}

// CircuitBreakerState implements rtapi.ResilienceController.
func (c *Client) CircuitBreakerState() rtapi.BreakerState {
	return c.httpClient.CircuitBreakerState()
}

// CircuitBreakerSnapshot implements rtapi.ResilienceController.
func (c *Client) CircuitBreakerSnapshot() rtapi.BreakerSnapshot {
	return c.httpClient.CircuitBreakerSnapshot()
}

// initializeResourceClients initializes all resource-specific clients.
func (c *Client) initializeResourceClients() {
	c.bookings = NewBookingsClient(c.httpClient)
	c.customers = NewCustomersClient(c.httpClient)
	c.devices = NewDevicesClient(c.httpClient)
	c.quotes = NewQuotesClient(c.httpClient)
}
