package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/revivatech/client-go/internal/http"
	"github.com/revivatech/client-go/pkg/rtapi"
)

// CustomersClient provides access to customer account endpoints.
type CustomersClient struct {
	httpClient *http.Client
}

// NewCustomersClient creates a new customers client.
func NewCustomersClient(httpClient *http.Client) *CustomersClient {
	return &CustomersClient{httpClient: httpClient}
}

// Create registers a new customer.
func (c *CustomersClient) Create(ctx context.Context, request *rtapi.CustomerCreateRequest) (*rtapi.Customer, error) {
	resp, err := c.httpClient.Post(ctx, "/api/customers", request)
	if err != nil {
		return nil, fmt.Errorf("creating customer: %w", err)
	}

	var customer rtapi.Customer
	if err := json.Unmarshal(resp.Body, &customer); err != nil {
		return nil, fmt.Errorf("parsing customer response: %w", err)
	}

	return &customer, nil
}

// Get retrieves a specific customer by ID.
func (c *CustomersClient) Get(ctx context.Context, id string) (*rtapi.Customer, error) {
	path := fmt.Sprintf("/api/customers/%s", id)
	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}

	var customer rtapi.Customer
	if err := json.Unmarshal(resp.Body, &customer); err != nil {
		return nil, fmt.Errorf("parsing customer response: %w", err)
	}

	return &customer, nil
}

// List lists customers.
func (c *CustomersClient) List(ctx context.Context, params *rtapi.QueryParams) (*rtapi.CustomerList, error) {
	return c.ListWithPath(ctx, "/api/customers", params)
}

// ListWithPath lists customers from a specific path. It satisfies
// rtapi.PaginationClient so the pagination helpers can walk pages.
func (c *CustomersClient) ListWithPath(ctx context.Context, path string, params *rtapi.QueryParams) (*rtapi.CustomerList, error) {
	var query url.Values
	if params != nil {
		query = params.ToValues()
	}

	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}

	var result rtapi.CustomerList
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("parsing customers list response: %w", err)
	}

	return &result, nil
}

// Update updates a customer's contact details.
func (c *CustomersClient) Update(ctx context.Context, id string, request *rtapi.CustomerUpdateRequest) (*rtapi.Customer, error) {
	path := fmt.Sprintf("/api/customers/%s", id)
	resp, err := c.httpClient.Patch(ctx, path, request)
	if err != nil {
		return nil, fmt.Errorf("updating customer: %w", err)
	}

	var customer rtapi.Customer
	if err := json.Unmarshal(resp.Body, &customer); err != nil {
		return nil, fmt.Errorf("parsing customer response: %w", err)
	}

	return &customer, nil
}

// Delete removes a customer account.
func (c *CustomersClient) Delete(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/customers/%s", id)
	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting customer: %w", err)
	}

	return nil
}
