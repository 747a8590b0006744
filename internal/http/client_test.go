package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	rthttp "github.com/revivatech/client-go/internal/http"
	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockTokenManager supplies a fixed token for tests.
type MockTokenManager struct {
	token string
	err   error
}

func (m *MockTokenManager) GetToken(_ context.Context) (string, error) {
	return m.token, m.err
}

func (m *MockTokenManager) RefreshToken(_ context.Context) error {
	return m.err
}

// MockLogger records log calls for assertions.
type MockLogger struct {
	logs []map[string]interface{}
}

func (l *MockLogger) log(level, msg string, fields map[string]interface{}) {
	entry := map[string]interface{}{"level": level, "msg": msg}
	for k, v := range fields {
		entry[k] = v
	}

	l.logs = append(l.logs, entry)
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.log("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.log("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.log("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.log("error", msg, fields) }

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/bookings/bk-1", r.URL.Path)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"bk-1","status":"pending"}`))
		}))
		defer server.Close()

		client := rthttp.NewClient(server.URL, &MockTokenManager{token: "test-token"})

		resp, err := client.Get(context.Background(), "/api/bookings/bk-1", nil)
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var booking map[string]interface{}

		require.NoError(t, json.Unmarshal(resp.Body, &booking))
		assert.Equal(t, "bk-1", booking["id"])
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "pending", r.URL.Query().Get("status"))

			_, _ = w.Write([]byte(`{"items":[]}`))
		}))
		defer server.Close()

		client := rthttp.NewClient(server.URL, &MockTokenManager{token: "test-token"})

		query := url.Values{}
		query.Set("page", "2")
		query.Set("status", "pending")

		resp, err := client.Get(context.Background(), "/api/bookings", query)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var payload map[string]string

			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "dev-9", payload["device_id"])

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"bk-2"}`))
		}))
		defer server.Close()

		client := rthttp.NewClient(server.URL, &MockTokenManager{token: "test-token"})

		resp, err := client.Post(context.Background(), "/api/bookings", map[string]string{"device_id": "dev-9"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("error response carries the typed error and the envelope", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[{"code":"RESOURCE_NOT_FOUND","message":"booking not found"}]}`))
		}))
		defer server.Close()

		client := rthttp.NewClient(server.URL, &MockTokenManager{token: "test-token"},
			rthttp.WithRetryConfig(3, time.Millisecond, 5*time.Millisecond),
			rthttp.WithCacheManager(nil))

		resp, err := client.Get(context.Background(), "/api/bookings/missing", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var apiErr *rtapi.Error

		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, rtapi.ErrorCodeHTTP, apiErr.Code)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.True(t, rtapi.IsNotFound(err))

		var respErr *rtapi.ResponseError

		require.ErrorAs(t, err, &respErr)
		assert.Equal(t, "RESOURCE_NOT_FOUND", respErr.FirstError().Code)
	})
}

func TestClient_Methods(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Method", r.Method)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, &MockTokenManager{token: "test-token"},
		rthttp.WithCacheManager(nil))
	ctx := context.Background()

	tests := []struct {
		name   string
		method string
		call   func() (*rtapi.Response, error)
	}{
		{"get", http.MethodGet, func() (*rtapi.Response, error) {
			return client.Get(ctx, "/api/bookings", nil)
		}},
		{"post", http.MethodPost, func() (*rtapi.Response, error) {
			return client.Post(ctx, "/api/bookings", map[string]string{"device_id": "dev-1"})
		}},
		{"put", http.MethodPut, func() (*rtapi.Response, error) {
			return client.Put(ctx, "/api/bookings/bk-1", map[string]string{"status": "confirmed"})
		}},
		{"patch", http.MethodPatch, func() (*rtapi.Response, error) {
			return client.Patch(ctx, "/api/bookings/bk-1", map[string]string{"notes": "swap screen"})
		}},
		{"delete", http.MethodDelete, func() (*rtapi.Response, error) {
			return client.Delete(ctx, "/api/bookings/bk-1")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.call()
			require.NoError(t, err)
			assert.Equal(t, tt.method, resp.Headers.Get("X-Method"))
		})
	}
}

func TestClient_TrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/info", r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL+"/", nil)

	_, err := client.Get(context.Background(), "/api/info", nil)
	require.NoError(t, err)
}

func TestClient_CustomHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-7", r.Header.Get("X-Request-ID"))
		assert.Equal(t, "Bearer per-request", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, &MockTokenManager{token: "manager-token"},
		rthttp.WithCacheManager(nil))

	_, err := client.Do(context.Background(), &rtapi.Request{
		Method: http.MethodGet,
		Path:   "/api/bookings",
		Headers: map[string]string{
			"X-Request-ID":  "req-7",
			"Authorization": "Bearer per-request",
		},
	})
	require.NoError(t, err)
}

func TestClient_DebugLogging(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	logger := &MockLogger{}
	client := rthttp.NewClient(server.URL, &MockTokenManager{token: "test-token"},
		rthttp.WithDebug(true),
		rthttp.WithLogger(logger),
		rthttp.WithCacheManager(nil))

	_, err := client.Get(context.Background(), "/api/bookings", nil)
	require.NoError(t, err)

	require.Len(t, logger.logs, 2)
	assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
	assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	assert.Equal(t, http.StatusOK, logger.logs[1]["status"])
}

func TestClient_TokenManagerError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, &MockTokenManager{err: errors.New("token backend down")},
		rthttp.WithCacheManager(nil))

	_, err := client.Get(context.Background(), "/api/bookings", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get auth token")
	assert.Equal(t, int64(0), hits.Load())
}

func TestClient_RequestInterceptors(t *testing.T) {
	t.Parallel()

	t.Run("interceptor adds a header", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "revivatech", r.Header.Get("X-Tenant"))
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := rthttp.NewClient(server.URL, nil, rthttp.WithCacheManager(nil))
		client.AddRequestInterceptor(func(_ context.Context, req *rtapi.Request) (*rtapi.Request, error) {
			out := req.Clone()
			if out.Headers == nil {
				out.Headers = map[string]string{}
			}
			out.Headers["X-Tenant"] = "revivatech"

			return out, nil
		})

		_, err := client.Get(context.Background(), "/api/bookings", nil)
		require.NoError(t, err)
	})

	t.Run("interceptor failure aborts before the transport", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := rthttp.NewClient(server.URL, nil, rthttp.WithCacheManager(nil))
		client.AddRequestInterceptor(func(_ context.Context, _ *rtapi.Request) (*rtapi.Request, error) {
			return nil, errors.New("missing tenant")
		})

		_, err := client.Get(context.Background(), "/api/bookings", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "request interceptor failed")
		assert.Equal(t, int64(0), hits.Load())
	})
}

func TestClient_ResponseInterceptors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"bk-1"}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil, rthttp.WithCacheManager(nil))
	client.AddResponseInterceptor(func(_ context.Context, _ *rtapi.Request, resp *rtapi.Response) (*rtapi.Response, error) {
		out := *resp
		out.Body = []byte(`{"rewritten":true}`)

		return &out, nil
	})

	resp, err := client.Get(context.Background(), "/api/bookings/bk-1", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rewritten":true}`, string(resp.Body))
}

func TestClient_ErrorInterceptorRecovery(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":[{"code":"SERVER_ERROR","message":"boom"}]}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil,
		rthttp.WithRetryConfig(3, time.Millisecond, 5*time.Millisecond))
	client.AddErrorInterceptor(func(_ context.Context, req *rtapi.Request, _ *rtapi.Error) (*rtapi.Response, *rtapi.Error) {
		return &rtapi.Response{
			StatusCode: http.StatusOK,
			Body:       []byte(`{"fallback":true}`),
			Request:    req,
		}, nil
	})

	resp, err := client.Get(context.Background(), "/api/bookings", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"fallback":true}`, string(resp.Body))

	// Recovery resolves the first attempt, so the loop never retries.
	assert.Equal(t, int64(1), hits.Load())

	// A recovered call neither counts against the breaker nor populates
	// the cache.
	snap := client.CircuitBreakerSnapshot()
	assert.Equal(t, rtapi.BreakerClosed, snap.State)
	assert.Equal(t, 0, snap.FailureCount)
	assert.Equal(t, int64(0), client.CacheStats().Sets)

	_, err = client.Get(context.Background(), "/api/bookings", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestClient_CircuitBreakerOpensAfterThreshold(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":[{"code":"SERVER_ERROR","message":"boom"}]}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil,
		rthttp.WithRetryConfig(0, time.Millisecond, time.Millisecond),
		rthttp.WithCacheManager(nil))

	for i := 0; i < 5; i++ {
		_, err := client.Get(context.Background(), "/api/bookings", nil)
		require.Error(t, err)
	}

	require.Equal(t, int64(5), hits.Load())
	assert.Equal(t, rtapi.BreakerOpen, client.CircuitBreakerState())

	// The sixth call is rejected without reaching the transport.
	_, err := client.Get(context.Background(), "/api/bookings", nil)
	require.Error(t, err)
	assert.True(t, rtapi.IsCircuitOpen(err))
	assert.Equal(t, int64(5), hits.Load())
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_CircuitBreakerHalfOpenTrial(t *testing.T) {
	t.Parallel()

	t.Run("trial success closes the breaker", func(t *testing.T) {
		t.Parallel()

		var healthy atomic.Bool

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if healthy.Load() {
				_, _ = w.Write([]byte(`{}`))

				return
			}

			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := rthttp.NewClient(server.URL, nil,
			rthttp.WithRetryConfig(0, time.Millisecond, time.Millisecond),
			rthttp.WithCircuitBreakerConfig(&rtapi.CircuitBreakerConfig{
				FailureThreshold: 2,
				Cooldown:         30 * time.Millisecond,
			}),
			rthttp.WithCacheManager(nil))

		for i := 0; i < 2; i++ {
			_, err := client.Get(context.Background(), "/api/bookings", nil)
			require.Error(t, err)
		}

		assert.Equal(t, rtapi.BreakerOpen, client.CircuitBreakerState())

		_, err := client.Get(context.Background(), "/api/bookings", nil)
		require.Error(t, err)
		assert.True(t, rtapi.IsCircuitOpen(err))

		healthy.Store(true)
		time.Sleep(50 * time.Millisecond)

		resp, err := client.Get(context.Background(), "/api/bookings", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		snap := client.CircuitBreakerSnapshot()
		assert.Equal(t, rtapi.BreakerClosed, snap.State)
		assert.Equal(t, 0, snap.FailureCount)
	})

	t.Run("trial failure reopens the breaker", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := rthttp.NewClient(server.URL, nil,
			rthttp.WithRetryConfig(0, time.Millisecond, time.Millisecond),
			rthttp.WithCircuitBreakerConfig(&rtapi.CircuitBreakerConfig{
				FailureThreshold: 2,
				Cooldown:         30 * time.Millisecond,
			}),
			rthttp.WithCacheManager(nil))

		for i := 0; i < 2; i++ {
			_, err := client.Get(context.Background(), "/api/bookings", nil)
			require.Error(t, err)
		}

		firstAttempt := client.CircuitBreakerSnapshot().NextAttemptTime
		require.False(t, firstAttempt.IsZero())

		time.Sleep(50 * time.Millisecond)

		// The trial call reaches the transport and fails.
		_, err := client.Get(context.Background(), "/api/bookings", nil)
		require.Error(t, err)

		var apiErr *rtapi.Error

		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, rtapi.ErrorCodeHTTP, apiErr.Code)
		assert.Equal(t, int64(3), hits.Load())

		snap := client.CircuitBreakerSnapshot()
		assert.Equal(t, rtapi.BreakerOpen, snap.State)
		assert.True(t, snap.NextAttemptTime.After(firstAttempt))

		// Rejected again without transport until the new cooldown ends.
		_, err = client.Get(context.Background(), "/api/bookings", nil)
		require.Error(t, err)
		assert.True(t, rtapi.IsCircuitOpen(err))
		assert.Equal(t, int64(3), hits.Load())
	})
}

func TestClient_RateLimiter(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil,
		rthttp.WithRateLimiterConfig(&rtapi.RateLimiterConfig{
			MaxRequests: 3,
			Window:      200 * time.Millisecond,
		}),
		rthttp.WithCacheManager(nil))

	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), "/api/bookings", nil)
		require.NoError(t, err)
	}

	require.Equal(t, int64(3), hits.Load())
	assert.Equal(t, 0, client.RateLimitRemaining("global"))

	// The fourth call is rejected locally without a transport attempt.
	_, err := client.Get(context.Background(), "/api/bookings", nil)
	require.Error(t, err)
	assert.True(t, rtapi.IsRateLimited(err))

	var apiErr *rtapi.Error

	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int64(3), hits.Load())

	// Local rejections never count against the breaker.
	snap := client.CircuitBreakerSnapshot()
	assert.Equal(t, rtapi.BreakerClosed, snap.State)
	assert.Equal(t, 0, snap.FailureCount)

	// Once the window slides past the first request a new call goes
	// through.
	time.Sleep(250 * time.Millisecond)

	_, err = client.Get(context.Background(), "/api/bookings", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), hits.Load())
}

func TestClient_RateLimitKeys(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil,
		rthttp.WithRateLimiterConfig(&rtapi.RateLimiterConfig{
			MaxRequests: 1,
			Window:      time.Minute,
		}),
		rthttp.WithRateLimitKeyFunc(func(req *rtapi.Request) string {
			return req.Path
		}),
		rthttp.WithCacheManager(nil))
	ctx := context.Background()

	_, err := client.Get(ctx, "/api/bookings", nil)
	require.NoError(t, err)

	_, err = client.Get(ctx, "/api/bookings", nil)
	require.Error(t, err)
	assert.True(t, rtapi.IsRateLimited(err))

	// A different key has its own window.
	_, err = client.Get(ctx, "/api/customers", nil)
	require.NoError(t, err)

	client.ResetRateLimit("/api/bookings")

	_, err = client.Get(ctx, "/api/bookings", nil)
	require.NoError(t, err)

	client.ResetAllRateLimits()

	_, err = client.Get(ctx, "/api/customers", nil)
	require.NoError(t, err)
}

func TestClient_CachesGetResponses(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"id":"bk-1"}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil)
	ctx := context.Background()

	get := func() *rtapi.Response {
		resp, err := client.Do(ctx, &rtapi.Request{
			Method:   http.MethodGet,
			Path:     "/api/bookings/bk-1",
			CacheTTL: 80 * time.Millisecond,
		})
		require.NoError(t, err)

		return resp
	}

	first := get()
	require.Equal(t, int64(1), hits.Load())

	// Within the TTL the response is served from the cache.
	second := get()
	assert.Equal(t, int64(1), hits.Load())
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, int64(1), client.CacheStats().Hits)

	// After the TTL the entry expires and the transport is used again.
	time.Sleep(100 * time.Millisecond)

	get()
	assert.Equal(t, int64(2), hits.Load())
}

func TestClient_CacheSkipsMutationsAndOptOuts(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil)
	ctx := context.Background()

	// Mutations always reach the transport.
	for i := 0; i < 2; i++ {
		_, err := client.Post(ctx, "/api/bookings", map[string]string{"device_id": "dev-1"})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(2), hits.Load())

	// DisableCache opts a read out of both lookup and population.
	for i := 0; i < 2; i++ {
		_, err := client.Do(ctx, &rtapi.Request{
			Method:       http.MethodGet,
			Path:         "/api/bookings",
			DisableCache: true,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(4), hits.Load())

	// The health endpoint is excluded by the default policy.
	for i := 0; i < 2; i++ {
		_, err := client.Get(ctx, "/api/health", nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(6), hits.Load())
}

func TestClient_CacheEvictsOldestInsertion(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil,
		rthttp.WithCacheManager(rtapi.NewCacheManager(rtapi.NewMemoryCache(2), nil)))
	ctx := context.Background()

	get := func(path string) {
		_, err := client.Get(ctx, path, nil)
		require.NoError(t, err)
	}

	get("/api/devices/a")
	get("/api/devices/b")
	get("/api/devices/c")
	require.Equal(t, int64(3), hits.Load())

	// b and c survived, a was the oldest insertion and is gone.
	get("/api/devices/c")
	get("/api/devices/b")
	assert.Equal(t, int64(3), hits.Load())

	get("/api/devices/a")
	assert.Equal(t, int64(4), hits.Load())

	// Re-fetching a evicted b in turn.
	get("/api/devices/b")
	assert.Equal(t, int64(5), hits.Load())
}

func TestClient_ClearAndInvalidateCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil)
	ctx := context.Background()

	get := func(path string) {
		_, err := client.Get(ctx, path, nil)
		require.NoError(t, err)
	}

	get("/api/quotes/q-1")
	get("/api/quotes/q-1")
	require.Equal(t, int64(1), hits.Load())

	require.NoError(t, client.ClearCache(ctx))

	get("/api/quotes/q-1")
	assert.Equal(t, int64(2), hits.Load())

	require.NoError(t, client.InvalidateCache(ctx, "/api/quotes/q-1"))

	get("/api/quotes/q-1")
	assert.Equal(t, int64(3), hits.Load())
}

func TestClient_NotFoundNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"code":"RESOURCE_NOT_FOUND","message":"booking not found"}]}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil,
		rthttp.WithRetryConfig(3, time.Millisecond, 5*time.Millisecond),
		rthttp.WithCacheManager(nil))

	resp, err := client.Get(context.Background(), "/api/bookings/missing", nil)
	require.Error(t, err)
	assert.True(t, rtapi.IsNotFound(err))
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Terminal statuses end the loop after the first attempt.
	require.Equal(t, int64(1), hits.Load())

	// The failed call still counts once against the breaker.
	snap := client.CircuitBreakerSnapshot()
	assert.Equal(t, rtapi.BreakerClosed, snap.State)
	assert.Equal(t, 1, snap.FailureCount)
	assert.False(t, snap.LastFailureTime.IsZero())
}

func TestClient_RetryBackoff(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil,
		rthttp.WithRetryConfig(3, 20*time.Millisecond, 200*time.Millisecond),
		rthttp.WithCacheManager(nil))

	start := time.Now()

	resp, err := client.Get(context.Background(), "/api/bookings", nil)

	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int64(3), hits.Load())

	// The waits grow with the backoff multiplier: 20ms before the first
	// retry and 40ms before the second.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)

	// The call ended in a success, so no breaker failure was recorded.
	snap := client.CircuitBreakerSnapshot()
	assert.Equal(t, rtapi.BreakerClosed, snap.State)
	assert.Equal(t, 0, snap.FailureCount)
}

func TestClient_RetriesServerSentRateLimit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil,
		rthttp.WithRetryConfig(3, time.Millisecond, 5*time.Millisecond),
		rthttp.WithCacheManager(nil))

	// A backend 429 is an HTTP error and retryable, unlike a local rate
	// limit rejection.
	resp, err := client.Get(context.Background(), "/api/bookings", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(2), hits.Load())
}

func TestClient_PerRequestRetryOverride(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil,
		rthttp.WithRetryConfig(3, time.Millisecond, 5*time.Millisecond),
		rthttp.WithCacheManager(nil))
	ctx := context.Background()

	noRetries := 0

	_, err := client.Do(ctx, &rtapi.Request{
		Method:     http.MethodGet,
		Path:       "/api/bookings",
		MaxRetries: &noRetries,
	})
	require.Error(t, err)
	require.Equal(t, int64(1), hits.Load())

	hits.Store(0)

	twoRetries := 2

	_, err = client.Do(ctx, &rtapi.Request{
		Method:     http.MethodGet,
		Path:       "/api/bookings",
		MaxRetries: &twoRetries,
	})
	require.Error(t, err)
	require.Equal(t, int64(3), hits.Load())
}

func TestClient_TransportErrorClassification(t *testing.T) {
	t.Parallel()

	t.Run("slow response times out", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := rthttp.NewClient(server.URL, nil, rthttp.WithCacheManager(nil))

		noRetries := 0

		_, err := client.Do(context.Background(), &rtapi.Request{
			Method:     http.MethodGet,
			Path:       "/api/bookings",
			Timeout:    20 * time.Millisecond,
			MaxRetries: &noRetries,
		})
		require.Error(t, err)
		assert.True(t, rtapi.IsTimeout(err))
	})

	t.Run("unreachable host is a network error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		serverURL := server.URL
		server.Close()

		client := rthttp.NewClient(serverURL, nil, rthttp.WithCacheManager(nil))

		noRetries := 0

		_, err := client.Do(context.Background(), &rtapi.Request{
			Method:     http.MethodGet,
			Path:       "/api/bookings",
			MaxRetries: &noRetries,
		})
		require.Error(t, err)

		var apiErr *rtapi.Error

		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, rtapi.ErrorCodeNetwork, apiErr.Code)
	})
}

func TestClient_ResetCircuitBreaker(t *testing.T) {
	t.Parallel()

	var healthy atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if healthy.Load() {
			_, _ = w.Write([]byte(`{}`))

			return
		}

		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := rthttp.NewClient(server.URL, nil,
		rthttp.WithRetryConfig(0, time.Millisecond, time.Millisecond),
		rthttp.WithCacheManager(nil))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := client.Get(ctx, "/api/bookings", nil)
		require.Error(t, err)
	}

	require.Equal(t, rtapi.BreakerOpen, client.CircuitBreakerState())

	healthy.Store(true)

	// Still rejected: the backend recovered but the cooldown has not
	// elapsed.
	_, err := client.Get(ctx, "/api/bookings", nil)
	require.Error(t, err)
	assert.True(t, rtapi.IsCircuitOpen(err))

	// Reset applies regardless of state or pending cooldown.
	client.ResetCircuitBreaker()

	snap := client.CircuitBreakerSnapshot()
	assert.Equal(t, rtapi.BreakerClosed, snap.State)
	assert.Equal(t, 0, snap.FailureCount)
	assert.True(t, snap.LastFailureTime.IsZero())
	assert.True(t, snap.NextAttemptTime.IsZero())

	resp, err := client.Get(ctx, "/api/bookings", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
