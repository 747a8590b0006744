package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/revivatech/client-go/internal/http"
	"github.com/revivatech/client-go/pkg/rtapi"
)

// QuotesClient provides access to repair quote endpoints.
type QuotesClient struct {
	httpClient *http.Client
}

// NewQuotesClient creates a new quotes client.
func NewQuotesClient(httpClient *http.Client) *QuotesClient {
	return &QuotesClient{httpClient: httpClient}
}

// Create requests a quote for a booking.
func (c *QuotesClient) Create(ctx context.Context, request *rtapi.QuoteCreateRequest) (*rtapi.Quote, error) {
	resp, err := c.httpClient.Post(ctx, "/api/quotes", request)
	if err != nil {
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	var quote rtapi.Quote
	if err := json.Unmarshal(resp.Body, &quote); err != nil {
		return nil, fmt.Errorf("parsing quote response: %w", err)
	}

	return &quote, nil
}

// Get retrieves a specific quote by ID.
func (c *QuotesClient) Get(ctx context.Context, id string) (*rtapi.Quote, error) {
	path := fmt.Sprintf("/api/quotes/%s", id)
	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting quote: %w", err)
	}

	var quote rtapi.Quote
	if err := json.Unmarshal(resp.Body, &quote); err != nil {
		return nil, fmt.Errorf("parsing quote response: %w", err)
	}

	return &quote, nil
}

// List lists quotes.
func (c *QuotesClient) List(ctx context.Context, params *rtapi.QueryParams) (*rtapi.QuoteList, error) {
	return c.ListWithPath(ctx, "/api/quotes", params)
}

// ListWithPath lists quotes from a specific path. It satisfies
// rtapi.PaginationClient so the pagination helpers can walk pages.
func (c *QuotesClient) ListWithPath(ctx context.Context, path string, params *rtapi.QueryParams) (*rtapi.QuoteList, error) {
	var query url.Values
	if params != nil {
		query = params.ToValues()
	}

	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}

	var result rtapi.QuoteList
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("parsing quotes list response: %w", err)
	}

	return &result, nil
}

// Accept marks a quote as accepted by the customer.
func (c *QuotesClient) Accept(ctx context.Context, id string) (*rtapi.Quote, error) {
	path := fmt.Sprintf("/api/quotes/%s/actions/accept", id)
	resp, err := c.httpClient.Post(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("accepting quote: %w", err)
	}

	var quote rtapi.Quote
	if err := json.Unmarshal(resp.Body, &quote); err != nil {
		return nil, fmt.Errorf("parsing quote response: %w", err)
	}

	return &quote, nil
}

// Decline marks a quote as declined by the customer.
func (c *QuotesClient) Decline(ctx context.Context, id string) (*rtapi.Quote, error) {
	path := fmt.Sprintf("/api/quotes/%s/actions/decline", id)
	resp, err := c.httpClient.Post(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("declining quote: %w", err)
	}

	var quote rtapi.Quote
	if err := json.Unmarshal(resp.Body, &quote); err != nil {
		return nil, fmt.Errorf("parsing quote response: %w", err)
	}

	return &quote, nil
}
