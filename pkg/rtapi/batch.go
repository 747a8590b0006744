package rtapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/revivatech/client-go/internal/constants"
)

// Static errors for batch execution.
var (
	ErrUnsupportedResourceType  = errors.New("unsupported resource type")
	ErrUnsupportedOperationType = errors.New("unsupported operation type")
	ErrInvalidDataTypeBooking   = errors.New("invalid data type for booking operation")
	ErrInvalidDataTypeCustomer  = errors.New("invalid data type for customer operation")
	ErrInvalidDataTypeQuote     = errors.New("invalid data type for quote operation")
)

// UpdateDataWrapper pairs update data with the resource ID.
type UpdateDataWrapper[T any] struct {
	ID      string
	Request *T
}

// BatchOperation describes one operation in a batch.
type BatchOperation struct {
	ID       string
	Type     string // "create", "update", "delete", "get", "cancel", "accept"
	Resource string // "booking", "customer", "quote"
	Data     interface{}
	Callback func(result *BatchResult)
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string
	Success  bool
	Data     interface{}
	Error    error
	Duration time.Duration
}

// BatchExecutor runs independent operations concurrently against one
// client. Every operation flows through the same request pipeline, so
// breaker state, admission control, and the cache are shared.
type BatchExecutor struct {
	client      Client
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(client Client, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the per-operation timeout.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations. Results are returned in the order
// the operations were given, regardless of completion order.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) ([]BatchResult, error) {
	results := make([]BatchResult, len(operations))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, operation := range operations {
		waitGroup.Add(1)

		go func(index int, operation BatchOperation) {
			defer waitGroup.Done()

			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}
		}(index, operation)
	}

	waitGroup.Wait()

	return results, nil
}

// executeOperation dispatches one operation to its resource client.
func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	switch operation.Resource {
	case "booking":
		return b.executeBookingOperation(ctx, operation)
	case "customer":
		return b.executeCustomerOperation(ctx, operation)
	case "quote":
		return b.executeQuoteOperation(ctx, operation)
	default:
		return &BatchResult{
			ID:    operation.ID,
			Error: fmt.Errorf("%w: %s", ErrUnsupportedResourceType, operation.Resource),
		}
	}
}

func (b *BatchExecutor) executeBookingOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	bookings := b.client.Bookings()

	return runOperation(operation, func() (interface{}, error) {
		switch operation.Type {
		case "create":
			request, ok := operation.Data.(*BookingCreateRequest)
			if !ok {
				return nil, ErrInvalidDataTypeBooking
			}

			return bookings.Create(ctx, request)
		case "update":
			wrapper, ok := operation.Data.(UpdateDataWrapper[BookingUpdateRequest])
			if !ok {
				return nil, ErrInvalidDataTypeBooking
			}

			return bookings.Update(ctx, wrapper.ID, wrapper.Request)
		case "get":
			id, ok := operation.Data.(string)
			if !ok {
				return nil, ErrInvalidDataTypeBooking
			}

			return bookings.Get(ctx, id)
		case "cancel":
			id, ok := operation.Data.(string)
			if !ok {
				return nil, ErrInvalidDataTypeBooking
			}

			return bookings.Cancel(ctx, id)
		case "delete":
			id, ok := operation.Data.(string)
			if !ok {
				return nil, ErrInvalidDataTypeBooking
			}

			return nil, bookings.Delete(ctx, id)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperationType, operation.Type)
		}
	})
}

func (b *BatchExecutor) executeCustomerOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	customers := b.client.Customers()

	return runOperation(operation, func() (interface{}, error) {
		switch operation.Type {
		case "create":
			request, ok := operation.Data.(*CustomerCreateRequest)
			if !ok {
				return nil, ErrInvalidDataTypeCustomer
			}

			return customers.Create(ctx, request)
		case "update":
			wrapper, ok := operation.Data.(UpdateDataWrapper[CustomerUpdateRequest])
			if !ok {
				return nil, ErrInvalidDataTypeCustomer
			}

			return customers.Update(ctx, wrapper.ID, wrapper.Request)
		case "get":
			id, ok := operation.Data.(string)
			if !ok {
				return nil, ErrInvalidDataTypeCustomer
			}

			return customers.Get(ctx, id)
		case "delete":
			id, ok := operation.Data.(string)
			if !ok {
				return nil, ErrInvalidDataTypeCustomer
			}

			return nil, customers.Delete(ctx, id)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperationType, operation.Type)
		}
	})
}

func (b *BatchExecutor) executeQuoteOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	quotes := b.client.Quotes()

	return runOperation(operation, func() (interface{}, error) {
		switch operation.Type {
		case "create":
			request, ok := operation.Data.(*QuoteCreateRequest)
			if !ok {
				return nil, ErrInvalidDataTypeQuote
			}

			return quotes.Create(ctx, request)
		case "get":
			id, ok := operation.Data.(string)
			if !ok {
				return nil, ErrInvalidDataTypeQuote
			}

			return quotes.Get(ctx, id)
		case "accept":
			id, ok := operation.Data.(string)
			if !ok {
				return nil, ErrInvalidDataTypeQuote
			}

			return quotes.Accept(ctx, id)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperationType, operation.Type)
		}
	})
}

// runOperation wraps an operation body into a BatchResult.
func runOperation(operation BatchOperation, fn func() (interface{}, error)) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	data, err := fn()
	if err != nil {
		result.Error = err

		return result
	}

	result.Success = true
	result.Data = data

	return result
}

// BatchBuilder helps assemble batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		operations: make([]BatchOperation, 0),
	}
}

// AddCreateBooking adds a booking create operation.
func (b *BatchBuilder) AddCreateBooking(id string, request *BookingCreateRequest) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "create",
		Resource: "booking",
		Data:     request,
	})

	return b
}

// AddUpdateBooking adds a booking update operation.
func (b *BatchBuilder) AddUpdateBooking(id, bookingID string, request *BookingUpdateRequest) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "update",
		Resource: "booking",
		Data:     UpdateDataWrapper[BookingUpdateRequest]{ID: bookingID, Request: request},
	})

	return b
}

// AddGetBooking adds a booking read operation.
func (b *BatchBuilder) AddGetBooking(id, bookingID string) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "get",
		Resource: "booking",
		Data:     bookingID,
	})

	return b
}

// AddCancelBooking adds a booking cancel operation.
func (b *BatchBuilder) AddCancelBooking(id, bookingID string) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "cancel",
		Resource: "booking",
		Data:     bookingID,
	})

	return b
}

// AddCreateCustomer adds a customer create operation.
func (b *BatchBuilder) AddCreateCustomer(id string, request *CustomerCreateRequest) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "create",
		Resource: "customer",
		Data:     request,
	})

	return b
}

// AddGetCustomer adds a customer read operation.
func (b *BatchBuilder) AddGetCustomer(id, customerID string) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "get",
		Resource: "customer",
		Data:     customerID,
	})

	return b
}

// AddCreateQuote adds a quote create operation.
func (b *BatchBuilder) AddCreateQuote(id string, request *QuoteCreateRequest) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "create",
		Resource: "quote",
		Data:     request,
	})

	return b
}

// AddAcceptQuote adds a quote accept operation.
func (b *BatchBuilder) AddAcceptQuote(id, quoteID string) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID:       id,
		Type:     "accept",
		Resource: "quote",
		Data:     quoteID,
	})

	return b
}

// Build returns the assembled operations.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}
