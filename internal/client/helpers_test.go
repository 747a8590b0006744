package client

import (
	"testing"

	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(&rtapi.Config{APIEndpoint: baseURL})
	require.NoError(t, err)

	return client
}

func stringPtr(s string) *string {
	return &s
}
