package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/revivatech/client-go/internal/http"
	"github.com/revivatech/client-go/pkg/rtapi"
)

// DevicesClient provides read access to the device catalog.
type DevicesClient struct {
	httpClient *http.Client
}

// NewDevicesClient creates a new devices client.
func NewDevicesClient(httpClient *http.Client) *DevicesClient {
	return &DevicesClient{httpClient: httpClient}
}

// Get retrieves a specific device model by ID.
func (c *DevicesClient) Get(ctx context.Context, id string) (*rtapi.Device, error) {
	path := fmt.Sprintf("/api/devices/%s", id)
	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting device: %w", err)
	}

	var device rtapi.Device
	if err := json.Unmarshal(resp.Body, &device); err != nil {
		return nil, fmt.Errorf("parsing device response: %w", err)
	}

	return &device, nil
}

// List lists device models.
func (c *DevicesClient) List(ctx context.Context, params *rtapi.QueryParams) (*rtapi.DeviceList, error) {
	return c.ListWithPath(ctx, "/api/devices", params)
}

// ListWithPath lists devices from a specific path. It satisfies
// rtapi.PaginationClient so the pagination helpers can walk pages.
func (c *DevicesClient) ListWithPath(ctx context.Context, path string, params *rtapi.QueryParams) (*rtapi.DeviceList, error) {
	var query url.Values
	if params != nil {
		query = params.ToValues()
	}

	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	var result rtapi.DeviceList
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("parsing devices list response: %w", err)
	}

	return &result, nil
}

// ListCategories lists the top level device categories.
func (c *DevicesClient) ListCategories(ctx context.Context) ([]rtapi.DeviceCategory, error) {
	resp, err := c.httpClient.Get(ctx, "/api/devices/categories", nil)
	if err != nil {
		return nil, fmt.Errorf("listing device categories: %w", err)
	}

	var result rtapi.ListResponse[rtapi.DeviceCategory]
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("parsing device categories response: %w", err)
	}

	return result.Resources, nil
}

// ListBrands lists the brands within a device category.
func (c *DevicesClient) ListBrands(ctx context.Context, categoryID string) ([]rtapi.DeviceBrand, error) {
	path := fmt.Sprintf("/api/devices/categories/%s/brands", categoryID)
	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing device brands: %w", err)
	}

	var result rtapi.ListResponse[rtapi.DeviceBrand]
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("parsing device brands response: %w", err)
	}

	return result.Resources, nil
}
