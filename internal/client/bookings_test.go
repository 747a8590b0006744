package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingsClient_Create(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var req rtapi.BookingCreateRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "cust-1", req.CustomerID)
		assert.Equal(t, "dev-9", req.DeviceID)
		assert.Equal(t, "screen_replacement", req.RepairType)
		assert.Equal(t, "Cracked screen after drop", req.Problem)

		booking := rtapi.Booking{
			Resource: rtapi.Resource{
				ID:        "bk-123",
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
			Reference:  "RT-2026-0042",
			CustomerID: req.CustomerID,
			DeviceID:   req.DeviceID,
			RepairType: req.RepairType,
			Status:     rtapi.BookingStatusPending,
			Problem:    req.Problem,
			Urgency:    req.Urgency,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(booking)
	}))
	defer server.Close()

	client, err := New(&rtapi.Config{APIEndpoint: server.URL})
	require.NoError(t, err)

	booking, err := client.Bookings().Create(context.Background(), &rtapi.BookingCreateRequest{
		CustomerID: "cust-1",
		DeviceID:   "dev-9",
		RepairType: "screen_replacement",
		Problem:    "Cracked screen after drop",
		Urgency:    "standard",
	})

	require.NoError(t, err)
	assert.Equal(t, "bk-123", booking.ID)
	assert.Equal(t, "RT-2026-0042", booking.Reference)
	assert.Equal(t, rtapi.BookingStatusPending, booking.Status)
}

func TestBookingsClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings/bk-123", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		booking := rtapi.Booking{
			Resource: rtapi.Resource{
				ID: "bk-123",
			},
			Reference: "RT-2026-0042",
			Status:    rtapi.BookingStatusConfirmed,
		}

		json.NewEncoder(w).Encode(booking)
	}))
	defer server.Close()

	client, err := New(&rtapi.Config{APIEndpoint: server.URL})
	require.NoError(t, err)

	booking, err := client.Bookings().Get(context.Background(), "bk-123")
	require.NoError(t, err)
	assert.Equal(t, "bk-123", booking.ID)
	assert.Equal(t, rtapi.BookingStatusConfirmed, booking.Status)
}

func TestBookingsClient_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings", r.URL.Path)
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		assert.Equal(t, "pending", r.URL.Query().Get("status"))

		list := rtapi.BookingList{
			Pagination: rtapi.Pagination{
				TotalResults: 2,
				TotalPages:   1,
				Page:         1,
				PerPage:      10,
			},
			Resources: []rtapi.Booking{
				{Resource: rtapi.Resource{ID: "bk-1"}, Status: rtapi.BookingStatusPending},
				{Resource: rtapi.Resource{ID: "bk-2"}, Status: rtapi.BookingStatusPending},
			},
		}

		json.NewEncoder(w).Encode(list)
	}))
	defer server.Close()

	client, err := New(&rtapi.Config{APIEndpoint: server.URL})
	require.NoError(t, err)

	list, err := client.Bookings().List(context.Background(), &rtapi.QueryParams{
		PerPage: 10,
		Filters: map[string][]string{"status": {rtapi.BookingStatusPending}},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, list.Pagination.TotalResults)
	assert.Len(t, list.Resources, 2)
	assert.Equal(t, "bk-1", list.Resources[0].ID)
}

func TestBookingsClient_Update(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings/bk-123", r.URL.Path)
		assert.Equal(t, "PATCH", r.Method)

		var req rtapi.BookingUpdateRequest
		json.NewDecoder(r.Body).Decode(&req)
		require.NotNil(t, req.Status)
		assert.Equal(t, rtapi.BookingStatusConfirmed, *req.Status)

		booking := rtapi.Booking{
			Resource: rtapi.Resource{ID: "bk-123"},
			Status:   *req.Status,
		}

		json.NewEncoder(w).Encode(booking)
	}))
	defer server.Close()

	client, err := New(&rtapi.Config{APIEndpoint: server.URL})
	require.NoError(t, err)

	status := rtapi.BookingStatusConfirmed
	booking, err := client.Bookings().Update(context.Background(), "bk-123", &rtapi.BookingUpdateRequest{
		Status: &status,
	})

	require.NoError(t, err)
	assert.Equal(t, rtapi.BookingStatusConfirmed, booking.Status)
}

func TestBookingsClient_Cancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings/bk-123/actions/cancel", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		booking := rtapi.Booking{
			Resource: rtapi.Resource{ID: "bk-123"},
			Status:   rtapi.BookingStatusCancelled,
		}

		json.NewEncoder(w).Encode(booking)
	}))
	defer server.Close()

	client, err := New(&rtapi.Config{APIEndpoint: server.URL})
	require.NoError(t, err)

	booking, err := client.Bookings().Cancel(context.Background(), "bk-123")
	require.NoError(t, err)
	assert.Equal(t, rtapi.BookingStatusCancelled, booking.Status)
}

func TestBookingsClient_Delete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings/bk-123", r.URL.Path)
		assert.Equal(t, "DELETE", r.Method)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := New(&rtapi.Config{APIEndpoint: server.URL})
	require.NoError(t, err)

	err = client.Bookings().Delete(context.Background(), "bk-123")
	require.NoError(t, err)
}

func TestBookingsClient_GetNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []map[string]interface{}{
				{"code": "RESOURCE_NOT_FOUND", "title": "Not Found", "detail": "booking bk-404 does not exist"},
			},
		})
	}))
	defer server.Close()

	client, err := New(&rtapi.Config{APIEndpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Bookings().Get(context.Background(), "bk-404")
	require.Error(t, err)
	assert.True(t, rtapi.IsNotFound(err))
	assert.Contains(t, err.Error(), "getting booking")
}

func TestBookingsClient_Pagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings", r.URL.Path)

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 0 {
			page = 1
		}

		list := rtapi.BookingList{
			Pagination: rtapi.Pagination{
				TotalResults: 4,
				TotalPages:   2,
				Page:         page,
				PerPage:      2,
			},
		}

		switch page {
		case 1:
			list.Resources = []rtapi.Booking{
				{Resource: rtapi.Resource{ID: "bk-1"}},
				{Resource: rtapi.Resource{ID: "bk-2"}},
			}
		case 2:
			list.Resources = []rtapi.Booking{
				{Resource: rtapi.Resource{ID: "bk-3"}},
				{Resource: rtapi.Resource{ID: "bk-4"}},
			}
		}

		json.NewEncoder(w).Encode(list)
	}))
	defer server.Close()

	client, err := New(&rtapi.Config{APIEndpoint: server.URL})
	require.NoError(t, err)

	bookings, ok := client.Bookings().(*BookingsClient)
	require.True(t, ok)

	all, err := rtapi.FetchAllPages[rtapi.Booking](context.Background(), bookings, "/api/bookings", &rtapi.QueryParams{PerPage: 2}, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "bk-1", all[0].ID)
	assert.Equal(t, "bk-4", all[3].ID)
}

func TestBookingsClient_UpdateInvalidatesCache(t *testing.T) {
	var (
		mu     sync.Mutex
		gets   int
		status = rtapi.BookingStatusPending
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		switch r.Method {
		case "GET":
			gets++
		case "PATCH":
			var req rtapi.BookingUpdateRequest
			json.NewDecoder(r.Body).Decode(&req)
			status = *req.Status
		}

		booking := rtapi.Booking{
			Resource: rtapi.Resource{ID: "bk-123"},
			Status:   status,
		}
		mu.Unlock()

		json.NewEncoder(w).Encode(booking)
	}))
	defer server.Close()

	client, err := New(&rtapi.Config{APIEndpoint: server.URL})
	require.NoError(t, err)

	booking, err := client.Bookings().Get(context.Background(), "bk-123")
	require.NoError(t, err)
	assert.Equal(t, rtapi.BookingStatusPending, booking.Status)

	// Served from cache, so the transport sees a single GET.
	booking, err = client.Bookings().Get(context.Background(), "bk-123")
	require.NoError(t, err)
	assert.Equal(t, rtapi.BookingStatusPending, booking.Status)

	mu.Lock()
	assert.Equal(t, 1, gets)
	mu.Unlock()

	confirmed := rtapi.BookingStatusConfirmed
	_, err = client.Bookings().Update(context.Background(), "bk-123", &rtapi.BookingUpdateRequest{
		Status: &confirmed,
	})
	require.NoError(t, err)

	// The mutation dropped the cached read, so the next GET is fresh.
	booking, err = client.Bookings().Get(context.Background(), "bk-123")
	require.NoError(t, err)
	assert.Equal(t, rtapi.BookingStatusConfirmed, booking.Status)

	mu.Lock()
	assert.Equal(t, 2, gets)
	mu.Unlock()
}
