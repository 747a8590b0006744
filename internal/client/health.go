package client

import (
	"context"
	"fmt"
	"time"

	"github.com/revivatech/client-go/internal/constants"
	"github.com/revivatech/client-go/pkg/rtapi"
)

// GetHealth probes the backend health endpoint and reports the outcome
// together with the observed round trip latency. The probe uses a short
// timeout and no retries so the result reflects the backend as it is
// right now, not as it looks after backoff.
func (c *Client) GetHealth(ctx context.Context) (*rtapi.HealthStatus, error) {
	noRetries := 0
	req := &rtapi.Request{
		Method:     "GET",
		Path:       "/api/health",
		Timeout:    constants.HealthCheckTimeout,
		MaxRetries: &noRetries,
	}

	start := time.Now()

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("checking health: %w", err)
	}

	status := &rtapi.HealthStatus{}
	if len(resp.Body) > 0 {
		decoded, decodeErr := rtapi.DecodeResponse[rtapi.HealthStatus](resp)
		if decodeErr != nil {
			return nil, fmt.Errorf("parsing health response: %w", decodeErr)
		}

		status = decoded
	}

	// Some deployments answer the probe with an empty 200.
	if status.Status == "" {
		status.Status = constants.HealthStatusHealthy
	}

	status.Latency = time.Since(start)
	status.CheckedAt = time.Now()

	return status, nil
}

// GetInfo returns backend metadata such as the API version and the
// discovery links.
func (c *Client) GetInfo(ctx context.Context) (*rtapi.Info, error) {
	resp, err := c.httpClient.Get(ctx, "/api/info", nil)
	if err != nil {
		return nil, fmt.Errorf("getting info: %w", err)
	}

	info, err := rtapi.DecodeResponse[rtapi.Info](resp)
	if err != nil {
		return nil, fmt.Errorf("parsing info response: %w", err)
	}

	return info, nil
}
