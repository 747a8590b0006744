package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/revivatech/client-go/internal/http"
	"github.com/revivatech/client-go/pkg/rtapi"
)

// BookingsClient provides access to repair booking endpoints.
type BookingsClient struct {
	httpClient *http.Client
}

// NewBookingsClient creates a new bookings client.
func NewBookingsClient(httpClient *http.Client) *BookingsClient {
	return &BookingsClient{httpClient: httpClient}
}

// Create creates a new repair booking.
func (c *BookingsClient) Create(ctx context.Context, request *rtapi.BookingCreateRequest) (*rtapi.Booking, error) {
	resp, err := c.httpClient.Post(ctx, "/api/bookings", request)
	if err != nil {
		return nil, fmt.Errorf("creating booking: %w", err)
	}

	var booking rtapi.Booking
	if err := json.Unmarshal(resp.Body, &booking); err != nil {
		return nil, fmt.Errorf("parsing booking response: %w", err)
	}

	return &booking, nil
}

// Get retrieves a specific booking by ID.
func (c *BookingsClient) Get(ctx context.Context, id string) (*rtapi.Booking, error) {
	path := fmt.Sprintf("/api/bookings/%s", id)
	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting booking: %w", err)
	}

	var booking rtapi.Booking
	if err := json.Unmarshal(resp.Body, &booking); err != nil {
		return nil, fmt.Errorf("parsing booking response: %w", err)
	}

	return &booking, nil
}

// List lists all bookings the credentials can see.
func (c *BookingsClient) List(ctx context.Context, params *rtapi.QueryParams) (*rtapi.BookingList, error) {
	return c.ListWithPath(ctx, "/api/bookings", params)
}

// ListWithPath lists bookings from a specific path. It satisfies
// rtapi.PaginationClient so the pagination helpers can walk pages.
func (c *BookingsClient) ListWithPath(ctx context.Context, path string, params *rtapi.QueryParams) (*rtapi.BookingList, error) {
	var query url.Values
	if params != nil {
		query = params.ToValues()
	}

	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}

	var result rtapi.BookingList
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("parsing bookings list response: %w", err)
	}

	return &result, nil
}

// Update updates a booking.
func (c *BookingsClient) Update(ctx context.Context, id string, request *rtapi.BookingUpdateRequest) (*rtapi.Booking, error) {
	path := fmt.Sprintf("/api/bookings/%s", id)
	resp, err := c.httpClient.Patch(ctx, path, request)
	if err != nil {
		return nil, fmt.Errorf("updating booking: %w", err)
	}

	var booking rtapi.Booking
	if err := json.Unmarshal(resp.Body, &booking); err != nil {
		return nil, fmt.Errorf("parsing booking response: %w", err)
	}

	return &booking, nil
}

// Cancel cancels a booking. The booking stays on record with status
// cancelled rather than being removed.
func (c *BookingsClient) Cancel(ctx context.Context, id string) (*rtapi.Booking, error) {
	path := fmt.Sprintf("/api/bookings/%s/actions/cancel", id)
	resp, err := c.httpClient.Post(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("cancelling booking: %w", err)
	}

	var booking rtapi.Booking
	if err := json.Unmarshal(resp.Body, &booking); err != nil {
		return nil, fmt.Errorf("parsing booking response: %w", err)
	}

	return &booking, nil
}

// Delete removes a booking entirely.
func (c *BookingsClient) Delete(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/bookings/%s", id)
	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting booking: %w", err)
	}

	return nil
}
