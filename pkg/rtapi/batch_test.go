package rtapi_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements rtapi.Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Bookings() rtapi.BookingsClient {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(rtapi.BookingsClient)
}

func (m *MockClient) Customers() rtapi.CustomersClient {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(rtapi.CustomersClient)
}

func (m *MockClient) Devices() rtapi.DevicesClient {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(rtapi.DevicesClient)
}

func (m *MockClient) Quotes() rtapi.QuotesClient {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(rtapi.QuotesClient)
}

func (m *MockClient) GetHealth(ctx context.Context) (*rtapi.HealthStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.HealthStatus), args.Error(1)
}

func (m *MockClient) GetInfo(ctx context.Context) (*rtapi.Info, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.Info), args.Error(1)
}

func (m *MockClient) AddRequestInterceptor(interceptor rtapi.RequestInterceptor) {
	m.Called(interceptor)
}

func (m *MockClient) AddResponseInterceptor(interceptor rtapi.ResponseInterceptor) {
	m.Called(interceptor)
}

func (m *MockClient) AddErrorInterceptor(interceptor rtapi.ErrorInterceptor) {
	m.Called(interceptor)
}

func (m *MockClient) ClearCache(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockClient) ResetRateLimit(key string) {
	m.Called(key)
}

func (m *MockClient) ResetAllRateLimits() {
	m.Called()
}

func (m *MockClient) ResetCircuitBreaker() {
	m.Called()
}

func (m *MockClient) CircuitBreakerState() rtapi.BreakerState {
	args := m.Called()

	return args.Get(0).(rtapi.BreakerState)
}

func (m *MockClient) CircuitBreakerSnapshot() rtapi.BreakerSnapshot {
	args := m.Called()

	return args.Get(0).(rtapi.BreakerSnapshot)
}

// MockBookingsClient implements rtapi.BookingsClient for testing.
type MockBookingsClient struct {
	mock.Mock
}

func (m *MockBookingsClient) Create(ctx context.Context, request *rtapi.BookingCreateRequest) (*rtapi.Booking, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.Booking), args.Error(1)
}

func (m *MockBookingsClient) Get(ctx context.Context, id string) (*rtapi.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.Booking), args.Error(1)
}

func (m *MockBookingsClient) List(ctx context.Context, params *rtapi.QueryParams) (*rtapi.BookingList, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.BookingList), args.Error(1)
}

func (m *MockBookingsClient) Update(ctx context.Context, id string, request *rtapi.BookingUpdateRequest) (*rtapi.Booking, error) {
	args := m.Called(ctx, id, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.Booking), args.Error(1)
}

func (m *MockBookingsClient) Cancel(ctx context.Context, id string) (*rtapi.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.Booking), args.Error(1)
}

func (m *MockBookingsClient) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockQuotesClient implements rtapi.QuotesClient for testing.
type MockQuotesClient struct {
	mock.Mock
}

func (m *MockQuotesClient) Create(ctx context.Context, request *rtapi.QuoteCreateRequest) (*rtapi.Quote, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.Quote), args.Error(1)
}

func (m *MockQuotesClient) Get(ctx context.Context, id string) (*rtapi.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.Quote), args.Error(1)
}

func (m *MockQuotesClient) List(ctx context.Context, params *rtapi.QueryParams) (*rtapi.QuoteList, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.QuoteList), args.Error(1)
}

func (m *MockQuotesClient) Accept(ctx context.Context, id string) (*rtapi.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.Quote), args.Error(1)
}

func (m *MockQuotesClient) Decline(ctx context.Context, id string) (*rtapi.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*rtapi.Quote), args.Error(1)
}

func TestBatchExecutor_Execute(t *testing.T) {
	mockClient := &MockClient{}
	mockBookings := &MockBookingsClient{}
	mockClient.On("Bookings").Return(mockBookings)

	executor := rtapi.NewBatchExecutor(mockClient, 2)
	ctx := context.Background()

	booking1 := &rtapi.Booking{
		Resource:  rtapi.Resource{ID: "bk-1"},
		Reference: "RT-2024-0001",
	}
	booking2 := &rtapi.Booking{
		Resource:  rtapi.Resource{ID: "bk-2"},
		Reference: "RT-2024-0002",
	}

	mockBookings.On("Get", mock.Anything, "bk-1").Return(booking1, nil)
	mockBookings.On("Get", mock.Anything, "bk-2").Return(booking2, nil)

	operations := []rtapi.BatchOperation{
		{
			ID:       "op1",
			Type:     "get",
			Resource: "booking",
			Data:     "bk-1",
		},
		{
			ID:       "op2",
			Type:     "get",
			Resource: "booking",
			Data:     "bk-2",
		},
	}

	results, err := executor.Execute(ctx, operations)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Results keep the submission order
	assert.Equal(t, "op1", results[0].ID)
	assert.Equal(t, "op2", results[1].ID)

	for _, result := range results {
		assert.True(t, result.Success)
		assert.NoError(t, result.Error)
		assert.NotNil(t, result.Data)
		assert.True(t, result.Duration > 0)
	}

	mockClient.AssertExpectations(t)
	mockBookings.AssertExpectations(t)
}

func TestBatchExecutor_WithCallback(t *testing.T) {
	mockClient := &MockClient{}
	mockBookings := &MockBookingsClient{}
	mockClient.On("Bookings").Return(mockBookings)

	executor := rtapi.NewBatchExecutor(mockClient, 1)
	ctx := context.Background()

	booking := &rtapi.Booking{
		Resource:  rtapi.Resource{ID: "bk-1"},
		Reference: "RT-2024-0001",
	}
	mockBookings.On("Get", mock.Anything, "bk-1").Return(booking, nil)

	var callbackCalled bool

	var callbackResult *rtapi.BatchResult

	operation := rtapi.BatchOperation{
		ID:       "op1",
		Type:     "get",
		Resource: "booking",
		Data:     "bk-1",
		Callback: func(result *rtapi.BatchResult) {
			callbackCalled = true
			callbackResult = result
		},
	}

	_, err := executor.Execute(ctx, []rtapi.BatchOperation{operation})
	require.NoError(t, err)

	assert.True(t, callbackCalled)
	assert.NotNil(t, callbackResult)
	assert.True(t, callbackResult.Success)
	assert.Equal(t, "op1", callbackResult.ID)

	mockClient.AssertExpectations(t)
	mockBookings.AssertExpectations(t)
}

func TestBatchExecutor_WithError(t *testing.T) {
	mockClient := &MockClient{}
	mockBookings := &MockBookingsClient{}
	mockClient.On("Bookings").Return(mockBookings)

	executor := rtapi.NewBatchExecutor(mockClient, 1)
	ctx := context.Background()

	mockBookings.On("Get", mock.Anything, "bk-1").Return(nil, errors.New("booking not found"))

	operation := rtapi.BatchOperation{
		ID:       "op1",
		Type:     "get",
		Resource: "booking",
		Data:     "bk-1",
	}

	results, err := executor.Execute(ctx, []rtapi.BatchOperation{operation})
	require.NoError(t, err) // Execute itself shouldn't fail
	assert.Len(t, results, 1)

	result := results[0]
	assert.False(t, result.Success)
	assert.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "booking not found")

	mockClient.AssertExpectations(t)
	mockBookings.AssertExpectations(t)
}

func TestBatchExecutor_MixedResources(t *testing.T) {
	mockClient := &MockClient{}
	mockBookings := &MockBookingsClient{}
	mockQuotes := &MockQuotesClient{}
	mockClient.On("Bookings").Return(mockBookings)
	mockClient.On("Quotes").Return(mockQuotes)

	executor := rtapi.NewBatchExecutor(mockClient, 2)
	ctx := context.Background()

	booking := &rtapi.Booking{Resource: rtapi.Resource{ID: "bk-1"}}
	quote := &rtapi.Quote{Resource: rtapi.Resource{ID: "qt-1"}, Status: "accepted"}

	mockBookings.On("Cancel", mock.Anything, "bk-1").Return(booking, nil)
	mockQuotes.On("Accept", mock.Anything, "qt-1").Return(quote, nil)

	operations := rtapi.NewBatchBuilder().
		AddCancelBooking("cancel-1", "bk-1").
		AddAcceptQuote("accept-1", "qt-1").
		Build()

	results, err := executor.Execute(ctx, operations)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)

	mockBookings.AssertExpectations(t)
	mockQuotes.AssertExpectations(t)
}

func TestBatchExecutor_InvalidData(t *testing.T) {
	mockClient := &MockClient{}
	mockBookings := &MockBookingsClient{}
	mockClient.On("Bookings").Return(mockBookings)

	executor := rtapi.NewBatchExecutor(mockClient, 1)

	operation := rtapi.BatchOperation{
		ID:       "op1",
		Type:     "create",
		Resource: "booking",
		Data:     42, // wrong payload type
	}

	results, err := executor.Execute(context.Background(), []rtapi.BatchOperation{operation})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.False(t, results[0].Success)
	assert.ErrorIs(t, results[0].Error, rtapi.ErrInvalidDataTypeBooking)
}

func TestBatchExecutor_UnsupportedResource(t *testing.T) {
	mockClient := &MockClient{}
	executor := rtapi.NewBatchExecutor(mockClient, 1)
	executor.SetTimeout(time.Second)

	operation := rtapi.BatchOperation{
		ID:       "op1",
		Type:     "get",
		Resource: "warehouse",
		Data:     "w-1",
	}

	results, err := executor.Execute(context.Background(), []rtapi.BatchOperation{operation})
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, rtapi.ErrUnsupportedResourceType)
}

func TestBatchExecutor_UnsupportedOperation(t *testing.T) {
	mockClient := &MockClient{}
	mockBookings := &MockBookingsClient{}
	mockClient.On("Bookings").Return(mockBookings)

	executor := rtapi.NewBatchExecutor(mockClient, 1)

	operation := rtapi.BatchOperation{
		ID:       "op1",
		Type:     "archive",
		Resource: "booking",
		Data:     "bk-1",
	}

	results, err := executor.Execute(context.Background(), []rtapi.BatchOperation{operation})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, rtapi.ErrUnsupportedOperationType)
}

func TestBatchBuilder(t *testing.T) {
	builder := rtapi.NewBatchBuilder()

	createReq := &rtapi.BookingCreateRequest{
		CustomerID: "cust-1",
		DeviceID:   "dev-1",
		RepairType: "screen_replacement",
	}

	status := rtapi.BookingStatusConfirmed
	updateReq := &rtapi.BookingUpdateRequest{
		Status: &status,
	}

	builder.
		AddCreateBooking("create-1", createReq).
		AddUpdateBooking("update-1", "bk-1", updateReq).
		AddCancelBooking("cancel-1", "bk-2").
		AddGetBooking("get-1", "bk-3").
		AddCreateCustomer("cust-create-1", &rtapi.CustomerCreateRequest{Email: "jo@example.com"}).
		AddAcceptQuote("quote-accept-1", "qt-1")

	operations := builder.Build()
	assert.Len(t, operations, 6)

	assert.Equal(t, "create-1", operations[0].ID)
	assert.Equal(t, "create", operations[0].Type)
	assert.Equal(t, "booking", operations[0].Resource)

	assert.Equal(t, "update-1", operations[1].ID)
	assert.Equal(t, "update", operations[1].Type)

	assert.Equal(t, "cancel-1", operations[2].ID)
	assert.Equal(t, "cancel", operations[2].Type)

	assert.Equal(t, "get-1", operations[3].ID)
	assert.Equal(t, "get", operations[3].Type)

	assert.Equal(t, "customer", operations[4].Resource)
	assert.Equal(t, "quote", operations[5].Resource)
}
