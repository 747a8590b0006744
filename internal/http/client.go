// Package http implements the resilient HTTP client used by all API
// operations. Every call flows through the same pipeline: circuit
// breaker admission, rate limiting, request interceptors, cache lookup,
// the retry loop around the transport, response interceptors, cache
// population, and circuit breaker bookkeeping.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/revivatech/client-go/internal/auth"
	"github.com/revivatech/client-go/internal/constants"
	"github.com/revivatech/client-go/pkg/rtapi"
)

const (
	defaultUserAgent = "revivatech-client-go"

	// breakerName labels circuit breaker metrics. The client carries a
	// single breaker shared by all endpoints.
	breakerName = "api"
)

// Client is the pipeline HTTP client. Use NewClient to construct one;
// the zero value is not usable.
type Client struct {
	baseURL      string
	userAgent    string
	debug        bool
	logger       rtapi.Logger
	httpClient   *nethttp.Client
	tokenManager auth.TokenManager

	retryPolicy *rtapi.RetryPolicy
	breaker     *rtapi.CircuitBreaker
	limiter     *rtapi.RateLimiter
	limitKey    func(*rtapi.Request) string
	cache       *rtapi.CacheManager
	cachePolicy *rtapi.CachingPolicy
	chain       *rtapi.InterceptorChain
	metrics     *rtapi.MetricsCollector
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug and warning output.
func WithLogger(logger rtapi.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(httpClient *nethttp.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the client wide request timeout. Individual requests
// may still override it through their Timeout field.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithSkipTLSVerify disables TLS certificate verification. Intended for
// development environments only.
func WithSkipTLSVerify(skip bool) Option {
	return func(c *Client) {
		if !skip {
			return
		}

		transport, ok := nethttp.DefaultTransport.(*nethttp.Transport)
		if !ok {
			return
		}

		clone := transport.Clone()
		clone.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-in
		c.httpClient.Transport = clone
	}
}

// WithRetryConfig sets the retry budget and backoff bounds while keeping
// the default backoff multiplier and terminal status codes.
func WithRetryConfig(maxRetries int, baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryPolicy.MaxRetries = maxRetries
		c.retryPolicy.BaseDelay = baseDelay
		c.retryPolicy.MaxDelay = maxDelay
	}
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(policy *rtapi.RetryPolicy) Option {
	return func(c *Client) {
		if policy != nil {
			c.retryPolicy = policy
		}
	}
}

// WithCircuitBreaker replaces the circuit breaker.
func WithCircuitBreaker(breaker *rtapi.CircuitBreaker) Option {
	return func(c *Client) {
		if breaker != nil {
			c.breaker = breaker
		}
	}
}

// WithCircuitBreakerConfig rebuilds the circuit breaker from a config.
func WithCircuitBreakerConfig(config *rtapi.CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.breaker = rtapi.NewCircuitBreaker(config)
	}
}

// WithRateLimiter replaces the rate limiter.
func WithRateLimiter(limiter *rtapi.RateLimiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// WithRateLimiterConfig rebuilds the rate limiter from a config.
func WithRateLimiterConfig(config *rtapi.RateLimiterConfig) Option {
	return func(c *Client) {
		c.limiter = rtapi.NewRateLimiter(config)
	}
}

// WithRateLimitKeyFunc sets how requests map to rate limit keys. The
// default puts every request in one shared bucket.
func WithRateLimitKeyFunc(fn func(*rtapi.Request) string) Option {
	return func(c *Client) {
		if fn != nil {
			c.limitKey = fn
		}
	}
}

// WithCacheManager replaces the response cache.
func WithCacheManager(manager *rtapi.CacheManager) Option {
	return func(c *Client) {
		c.cache = manager
	}
}

// WithCachingPolicy replaces the caching policy.
func WithCachingPolicy(policy *rtapi.CachingPolicy) Option {
	return func(c *Client) {
		if policy != nil {
			c.cachePolicy = policy
		}
	}
}

// WithMetrics attaches a metrics collector. A nil collector disables
// metrics, which is also the default.
func WithMetrics(metrics *rtapi.MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// NewClient returns a pipeline client for the given base URL. The token
// manager may be nil for unauthenticated use; every other collaborator
// has a working default and can be swapped through options.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		userAgent:    defaultUserAgent,
		httpClient:   &nethttp.Client{Timeout: constants.DefaultHTTPTimeout},
		tokenManager: tokenManager,
		retryPolicy:  rtapi.DefaultRetryPolicy(),
		breaker:      rtapi.NewCircuitBreaker(nil),
		limiter:      rtapi.NewRateLimiter(nil),
		limitKey: func(*rtapi.Request) string {
			return constants.DefaultRateLimitKey
		},
		cache:       rtapi.NewCacheManager(nil, nil),
		cachePolicy: rtapi.DefaultCachingPolicy(),
		chain:       rtapi.NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do executes a request through the full pipeline. On an HTTP level
// failure it returns the last response envelope together with the typed
// error so callers can inspect both; below the HTTP layer the envelope
// is nil.
//
// Rejections by the circuit breaker or the rate limiter happen before
// any transport work and are never retried and never counted against
// the breaker. A cache hit also returns before the transport and leaves
// breaker and limiter state untouched.
func (c *Client) Do(ctx context.Context, req *rtapi.Request) (*rtapi.Response, error) {
	if !c.breaker.Allow() {
		c.metrics.RecordCircuitBreakerRejection(breakerName)
		c.metrics.RecordError(rtapi.ErrorCodeCircuitOpen, req.Method, req.Path)

		return nil, &rtapi.Error{
			Code:    rtapi.ErrorCodeCircuitOpen,
			Message: "circuit breaker is open",
			Request: req,
		}
	}

	key := c.limitKey(req)
	if !c.limiter.Allow(key) {
		c.metrics.RecordRateLimitRejection(key)
		c.metrics.RecordError(rtapi.ErrorCodeRateLimited, req.Method, req.Path)

		return nil, &rtapi.Error{
			Code:       rtapi.ErrorCodeRateLimited,
			Message:    "rate limit exceeded",
			StatusCode: nethttp.StatusTooManyRequests,
			Request:    req,
		}
	}

	req, err := c.chain.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	cacheKey := ""
	if c.cache != nil && !req.DisableCache && c.cachePolicy.ShouldLookup(req.Method, req.Path) {
		cacheKey = c.cache.GetCacheKey(req.Method, req.Path, req.Query)

		entry, cacheErr := c.cache.Get(ctx, cacheKey)
		if cacheErr == nil {
			c.metrics.RecordCacheHit(req.Method, req.Path)

			return cachedResponse(req, entry), nil
		}

		c.metrics.RecordCacheMiss(req.Method, req.Path)
	}

	body, err := encodeRequestBody(req.Body)
	if err != nil {
		return nil, err
	}

	authHeader, err := c.authorizationHeader(ctx, req)
	if err != nil {
		return nil, err
	}

	maxRetries := c.retryPolicy.MaxRetries
	if req.MaxRetries != nil && *req.MaxRetries >= 0 {
		maxRetries = *req.MaxRetries
	}

	var (
		lastResp *rtapi.Response
		lastErr  *rtapi.Error
	)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.metrics.RecordRetry(req.Method, req.Path, attempt)
		}

		resp, apiErr := c.send(ctx, req, body, authHeader)
		if apiErr == nil {
			return c.finishSuccess(ctx, req, cacheKey, resp)
		}

		c.metrics.RecordError(apiErr.Code, req.Method, req.Path)

		recovered, apiErr := c.chain.ExecuteErrorInterceptors(ctx, req, apiErr)
		if recovered != nil {
			// An interceptor supplied a synthetic response. Return it
			// as a success, but without populating the cache or
			// touching the breaker.
			return recovered, nil
		}

		lastResp = resp
		lastErr = apiErr

		if !c.retryPolicy.Retryable(apiErr.StatusCode) {
			break
		}

		if attempt == maxRetries {
			break
		}

		delay := c.retryPolicy.Delay(attempt)
		if c.debug && c.logger != nil {
			c.logger.Debug("HTTP Retry", map[string]interface{}{
				"method":  req.Method,
				"path":    req.Path,
				"attempt": attempt + 1,
				"delay":   delay.String(),
			})
		}

		err := rtapi.Sleep(ctx, delay)
		if err != nil {
			break
		}
	}

	// The whole call counts as a single failure no matter how many
	// attempts it took.
	c.breaker.RecordFailure()
	c.metrics.RecordCircuitBreakerState(breakerName, c.breaker.State())

	return lastResp, lastErr
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*rtapi.Response, error) {
	return c.Do(ctx, &rtapi.Request{Method: nethttp.MethodGet, Path: path, Query: query})
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*rtapi.Response, error) {
	return c.Do(ctx, &rtapi.Request{Method: nethttp.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*rtapi.Response, error) {
	return c.Do(ctx, &rtapi.Request{Method: nethttp.MethodPut, Path: path, Body: body})
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*rtapi.Response, error) {
	return c.Do(ctx, &rtapi.Request{Method: nethttp.MethodPatch, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*rtapi.Response, error) {
	return c.Do(ctx, &rtapi.Request{Method: nethttp.MethodDelete, Path: path})
}

// AddRequestInterceptor appends an interceptor run before each request.
func (c *Client) AddRequestInterceptor(interceptor rtapi.RequestInterceptor) {
	c.chain.AddRequestInterceptor(interceptor)
}

// AddResponseInterceptor appends an interceptor run after each
// successful response.
func (c *Client) AddResponseInterceptor(interceptor rtapi.ResponseInterceptor) {
	c.chain.AddResponseInterceptor(interceptor)
}

// AddErrorInterceptor appends an interceptor run on each failed attempt.
func (c *Client) AddErrorInterceptor(interceptor rtapi.ErrorInterceptor) {
	c.chain.AddErrorInterceptor(interceptor)
}

// ClearCache drops every cached response.
func (c *Client) ClearCache(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}

	return c.cache.Clear(ctx)
}

// InvalidateCache drops cached responses for a path.
func (c *Client) InvalidateCache(ctx context.Context, path string) error {
	if c.cache == nil {
		return nil
	}

	return c.cache.InvalidatePath(ctx, path)
}

// CacheStats reports cache hit and miss counters.
func (c *Client) CacheStats() *rtapi.CacheStats {
	if c.cache == nil {
		return &rtapi.CacheStats{}
	}

	return c.cache.GetStats()
}

// ResetRateLimit clears the request history for one key.
func (c *Client) ResetRateLimit(key string) {
	c.limiter.Reset(key)
}

// ResetAllRateLimits clears the request history for all keys.
func (c *Client) ResetAllRateLimits() {
	c.limiter.ResetAll()
}

// RateLimitRemaining reports how many requests the key may still issue
// in the current window.
func (c *Client) RateLimitRemaining(key string) int {
	return c.limiter.Remaining(key)
}

// ResetCircuitBreaker forces the breaker back to closed.
func (c *Client) ResetCircuitBreaker() {
	c.breaker.Reset()
}

// CircuitBreakerState returns the current breaker state.
func (c *Client) CircuitBreakerState() rtapi.BreakerState {
	return c.breaker.State()
}

// CircuitBreakerSnapshot returns the breaker state together with its
// failure count and timing fields.
func (c *Client) CircuitBreakerSnapshot() rtapi.BreakerSnapshot {
	return c.breaker.Snapshot()
}

// finishSuccess runs the success tail of the pipeline: response
// interceptors, cache population, and the breaker success record.
func (c *Client) finishSuccess(ctx context.Context, req *rtapi.Request, cacheKey string, resp *rtapi.Response) (*rtapi.Response, error) {
	resp, err := c.chain.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" && c.cachePolicy.ShouldCache(req.Method, req.Path, resp.StatusCode) {
		entry := &rtapi.CacheEntry{
			Data:       resp.Body,
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			ETag:       resp.Headers.Get("ETag"),
			TTL:        req.CacheTTL,
		}

		cacheErr := c.cache.Set(ctx, cacheKey, entry)
		if cacheErr != nil && c.logger != nil {
			c.logger.Warn("failed to cache response", map[string]interface{}{
				"key":   cacheKey,
				"error": cacheErr.Error(),
			})
		}
	}

	c.breaker.RecordSuccess()
	c.metrics.RecordCircuitBreakerState(breakerName, c.breaker.State())

	return resp, nil
}

// send performs one transport attempt and classifies its outcome. For
// HTTP statuses of 400 and above it returns the response envelope
// alongside the typed error.
func (c *Client) send(ctx context.Context, req *rtapi.Request, body []byte, authHeader string) (*rtapi.Response, *rtapi.Error) {
	attemptCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc

		attemptCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := c.newHTTPRequest(attemptCtx, req, body, authHeader)
	if err != nil {
		return nil, &rtapi.Error{
			Code:    rtapi.ErrorCodeNetwork,
			Message: "failed to build request",
			Request: req,
			Err:     err,
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    httpReq.URL.String(),
			"body":   string(body),
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(req, err)
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &rtapi.Error{
			Code:    rtapi.ErrorCodeNetwork,
			Message: "failed to read response body",
			Request: req,
			Err:     err,
		}
	}

	duration := time.Since(start)
	c.metrics.RecordRequest(req.Method, req.Path, httpResp.StatusCode, duration)

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":   req.Method,
			"url":      httpReq.URL.String(),
			"status":   httpResp.StatusCode,
			"duration": duration.String(),
			"body":     string(respBody),
		})
	}

	resp := &rtapi.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
		Request:    req,
	}

	if httpResp.StatusCode >= nethttp.StatusBadRequest {
		return resp, httpError(req, resp)
	}

	return resp, nil
}

// newHTTPRequest builds the wire request: URL with encoded query,
// default headers, per request headers, and the authorization header.
func (c *Client) newHTTPRequest(ctx context.Context, req *rtapi.Request, body []byte, authHeader string) (*nethttp.Request, error) {
	endpoint := c.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, req.Method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if authHeader != "" && httpReq.Header.Get("Authorization") == "" {
		httpReq.Header.Set("Authorization", authHeader)
	}

	return httpReq, nil
}

// authorizationHeader resolves the bearer token once per call. Requests
// that already carry an Authorization header, for example through an
// interceptor, keep it.
func (c *Client) authorizationHeader(ctx context.Context, req *rtapi.Request) (string, error) {
	if c.tokenManager == nil {
		return "", nil
	}

	if _, ok := req.Headers["Authorization"]; ok {
		return "", nil
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get auth token: %w", err)
	}

	return "Bearer " + token, nil
}

// encodeRequestBody turns the request body into bytes once so that
// every retry attempt can replay it.
func encodeRequestBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}

		return data, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		return data, nil
	}
}

// classifyTransportError maps transport failures onto the error
// taxonomy: deadline and timeout conditions become TIMEOUT, everything
// else NETWORK_ERROR.
func classifyTransportError(req *rtapi.Request, err error) *rtapi.Error {
	var netErr net.Error

	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &rtapi.Error{
			Code:    rtapi.ErrorCodeTimeout,
			Message: "request timed out",
			Request: req,
			Err:     err,
		}
	}

	return &rtapi.Error{
		Code:    rtapi.ErrorCodeNetwork,
		Message: "network error",
		Request: req,
		Err:     err,
	}
}

// httpError builds the typed error for a non-success status, preferring
// the structured message from the backend error payload when present.
func httpError(req *rtapi.Request, resp *rtapi.Response) *rtapi.Error {
	respErr, err := rtapi.ParseResponseError(resp.Body)
	if err == nil && len(respErr.Errors) > 0 {
		return &rtapi.Error{
			Code:       rtapi.ErrorCodeHTTP,
			Message:    respErr.Error(),
			StatusCode: resp.StatusCode,
			Request:    req,
			Err:        respErr,
		}
	}

	return &rtapi.Error{
		Code:       rtapi.ErrorCodeHTTP,
		Message:    nethttp.StatusText(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Request:    req,
	}
}

// cachedResponse rebuilds a response envelope from a cache entry.
func cachedResponse(req *rtapi.Request, entry *rtapi.CacheEntry) *rtapi.Response {
	return &rtapi.Response{
		StatusCode: entry.StatusCode,
		Headers:    entry.Headers,
		Body:       entry.Data,
		Request:    req,
	}
}
