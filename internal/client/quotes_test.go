package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotesClient_Create(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quotes", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var req rtapi.QuoteCreateRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "bk-123", req.BookingID)

		quote := rtapi.Quote{
			Resource:  rtapi.Resource{ID: "qt-1"},
			BookingID: req.BookingID,
			Amount:    12900,
			Currency:  "GBP",
			Status:    rtapi.QuoteStatusDraft,
			Notes:     req.Notes,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(quote)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	quote, err := client.Quotes().Create(context.Background(), &rtapi.QuoteCreateRequest{
		BookingID: "bk-123",
		Notes:     "Genuine parts only",
	})

	require.NoError(t, err)
	assert.Equal(t, "qt-1", quote.ID)
	assert.Equal(t, int64(12900), quote.Amount)
	assert.Equal(t, rtapi.QuoteStatusDraft, quote.Status)
}

func TestQuotesClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quotes/qt-1", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		quote := rtapi.Quote{
			Resource: rtapi.Resource{ID: "qt-1"},
			Amount:   12900,
			Currency: "GBP",
			Status:   rtapi.QuoteStatusSent,
		}

		json.NewEncoder(w).Encode(quote)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	quote, err := client.Quotes().Get(context.Background(), "qt-1")
	require.NoError(t, err)
	assert.Equal(t, rtapi.QuoteStatusSent, quote.Status)
	assert.Equal(t, "GBP", quote.Currency)
}

func TestQuotesClient_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quotes", r.URL.Path)
		assert.Equal(t, rtapi.QuoteStatusSent, r.URL.Query().Get("status"))

		list := rtapi.QuoteList{
			Pagination: rtapi.Pagination{TotalResults: 1, TotalPages: 1, Page: 1},
			Resources: []rtapi.Quote{
				{Resource: rtapi.Resource{ID: "qt-1"}, Status: rtapi.QuoteStatusSent},
			},
		}

		json.NewEncoder(w).Encode(list)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	list, err := client.Quotes().List(context.Background(), &rtapi.QueryParams{
		Filters: map[string][]string{"status": {rtapi.QuoteStatusSent}},
	})

	require.NoError(t, err)
	require.Len(t, list.Resources, 1)
	assert.Equal(t, "qt-1", list.Resources[0].ID)
}

func TestQuotesClient_Accept(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quotes/qt-1/actions/accept", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		quote := rtapi.Quote{
			Resource: rtapi.Resource{ID: "qt-1"},
			Status:   rtapi.QuoteStatusAccepted,
		}

		json.NewEncoder(w).Encode(quote)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	quote, err := client.Quotes().Accept(context.Background(), "qt-1")
	require.NoError(t, err)
	assert.Equal(t, rtapi.QuoteStatusAccepted, quote.Status)
}

func TestQuotesClient_Decline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quotes/qt-1/actions/decline", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		quote := rtapi.Quote{
			Resource: rtapi.Resource{ID: "qt-1"},
			Status:   rtapi.QuoteStatusDeclined,
		}

		json.NewEncoder(w).Encode(quote)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	quote, err := client.Quotes().Decline(context.Background(), "qt-1")
	require.NoError(t, err)
	assert.Equal(t, rtapi.QuoteStatusDeclined, quote.Status)
}
