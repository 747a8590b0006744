package rtapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Request describes a single API call entering the pipeline. Treat it
// as immutable once submitted: interceptors that change anything return
// a copy via Clone rather than writing through the caller's pointer.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    any

	// Timeout overrides the client timeout for this call. Zero keeps
	// the default.
	Timeout time.Duration

	// DisableCache skips cache lookup and population for this call.
	DisableCache bool

	// CacheTTL overrides the cache TTL for this call. Zero keeps the
	// default.
	CacheTTL time.Duration

	// MaxRetries overrides the retry budget for this call. Nil keeps
	// the default.
	MaxRetries *int
}

// Clone returns a copy of the request with its own query and header
// maps. The body is shared.
func (r *Request) Clone() *Request {
	out := *r

	if r.Query != nil {
		out.Query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			vals := make([]string, len(v))
			copy(vals, v)
			out.Query[k] = vals
		}
	}

	if r.Headers != nil {
		out.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			out.Headers[k] = v
		}
	}

	if r.MaxRetries != nil {
		retries := *r.MaxRetries
		out.MaxRetries = &retries
	}

	return &out
}

// Response is the envelope returned on success.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Request    *Request
}

// RequestInterceptor is called before a request is sent. It returns the
// descriptor to continue with, either the one it received or a copy.
type RequestInterceptor func(ctx context.Context, req *Request) (*Request, error)

// ResponseInterceptor is called after a successful response. It returns
// the envelope to continue with.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) (*Response, error)

// ErrorInterceptor is called when a call attempt fails. It may rewrite
// the error, or recover it by returning a non-nil response; a recovered
// failure surfaces to the caller as a success.
type ErrorInterceptor func(ctx context.Context, req *Request, apiErr *Error) (*Response, *Error)

// InterceptorChain manages three independent ordered interceptor lists.
// Registration is append-only and safe to call while requests are in
// flight.
type InterceptorChain struct {
	mu                   sync.RWMutex
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	errorInterceptors    []ErrorInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
		errorInterceptors:    make([]ErrorInterceptor, 0),
	}
}

// AddRequestInterceptor appends a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor appends a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// AddErrorInterceptor appends an error interceptor to the chain.
func (c *InterceptorChain) AddErrorInterceptor(interceptor ErrorInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errorInterceptors = append(c.errorInterceptors, interceptor)
}

// ExecuteRequestInterceptors runs all request interceptors in
// registration order, threading the descriptor through each.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) (*Request, error) {
	for _, interceptor := range c.snapshotRequest() {
		out, err := interceptor(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("request interceptor failed: %w", err)
		}

		if out != nil {
			req = out
		}
	}

	return req, nil
}

// ExecuteResponseInterceptors runs all response interceptors in
// registration order, threading the envelope through each.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) (*Response, error) {
	for _, interceptor := range c.snapshotResponse() {
		out, err := interceptor(ctx, req, resp)
		if err != nil {
			return nil, fmt.Errorf("response interceptor failed: %w", err)
		}

		if out != nil {
			resp = out
		}
	}

	return resp, nil
}

// ExecuteErrorInterceptors runs the error interceptors in registration
// order. The first interceptor that returns a response resolves the
// failure and ends the chain; otherwise the transformed error is
// returned.
func (c *InterceptorChain) ExecuteErrorInterceptors(ctx context.Context, req *Request, apiErr *Error) (*Response, *Error) {
	for _, interceptor := range c.snapshotError() {
		resp, out := interceptor(ctx, req, apiErr)
		if resp != nil {
			return resp, nil
		}

		if out != nil {
			apiErr = out
		}
	}

	return nil, apiErr
}

func (c *InterceptorChain) snapshotRequest() []RequestInterceptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.requestInterceptors[:len(c.requestInterceptors):len(c.requestInterceptors)]
}

func (c *InterceptorChain) snapshotResponse() []ResponseInterceptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.responseInterceptors[:len(c.responseInterceptors):len(c.responseInterceptors)]
}

func (c *InterceptorChain) snapshotError() []ErrorInterceptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.errorInterceptors[:len(c.errorInterceptors):len(c.errorInterceptors)]
}

// Common Interceptors

// LoggingInterceptor logs outgoing requests.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) (*Request, error) {
		logger.Debug("API Request", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})

		return req, nil
	}
}

// LoggingResponseInterceptor logs responses.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) (*Response, error) {
		logger.Debug("API Response", map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": resp.StatusCode,
		})

		return resp, nil
	}
}

// LoggingErrorInterceptor logs failed calls without changing them.
func LoggingErrorInterceptor(logger Logger) ErrorInterceptor {
	return func(ctx context.Context, req *Request, apiErr *Error) (*Response, *Error) {
		logger.Error("API Request Failed", map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"code":        string(apiErr.Code),
			"status_code": apiErr.StatusCode,
		})

		return nil, apiErr
	}
}

// AuthenticationInterceptor adds a bearer token header. The token
// provider is consulted once per call.
func AuthenticationInterceptor(tokenProvider func(context.Context) (string, error)) RequestInterceptor {
	return func(ctx context.Context, req *Request) (*Request, error) {
		token, err := tokenProvider(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get authentication token: %w", err)
		}

		out := req.Clone()
		if out.Headers == nil {
			out.Headers = make(map[string]string)
		}

		out.Headers["Authorization"] = "Bearer " + token

		return out, nil
	}
}

// HeaderInterceptor adds custom headers to requests. Headers already
// present on the request win.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *Request) (*Request, error) {
		out := req.Clone()
		if out.Headers == nil {
			out.Headers = make(map[string]string)
		}

		for key, value := range headers {
			if _, ok := out.Headers[key]; !ok {
				out.Headers[key] = value
			}
		}

		return out, nil
	}
}

// ConditionalRequestInterceptor sets If-None-Match from a cached ETag so
// the backend can answer reads with 304 Not Modified.
func ConditionalRequestInterceptor(manager *CacheManager) RequestInterceptor {
	return func(ctx context.Context, req *Request) (*Request, error) {
		if req.Method != http.MethodGet {
			return req, nil
		}

		key := manager.GetCacheKey(req.Method, req.Path, req.Query)

		entry, err := manager.Get(ctx, key)
		if err != nil || entry.ETag == "" {
			return req, nil
		}

		out := req.Clone()
		if out.Headers == nil {
			out.Headers = make(map[string]string)
		}

		out.Headers["If-None-Match"] = entry.ETag

		return out, nil
	}
}

// CacheInvalidationInterceptor drops cached reads that a successful
// mutation may have made stale: the mutated path itself and its parent
// collection.
func CacheInvalidationInterceptor(manager *CacheManager) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) (*Response, error) {
		switch req.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return resp, nil
		}

		_ = manager.InvalidatePath(ctx, req.Path)

		if parent := parentPath(req.Path); parent != "" {
			_ = manager.InvalidatePath(ctx, parent)
		}

		return resp, nil
	}
}

// parentPath trims the last path segment, so "/api/bookings/123"
// becomes "/api/bookings".
func parentPath(path string) string {
	trimmed := strings.TrimRight(path, "/")

	idx := strings.LastIndex(trimmed, "/")
	if idx <= 0 {
		return ""
	}

	return trimmed[:idx]
}
