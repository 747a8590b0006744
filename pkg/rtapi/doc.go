// Package rtapi provides types, interfaces, and helpers for working with the
// RevivaTech repair booking API.
//
// # Overview
//
// The rtapi package defines the domain types (e.g., Booking, Customer, Device,
// Quote) and the interfaces for resource-oriented clients (e.g., BookingsClient,
// CustomersClient). A concrete implementation of these clients is provided by
// the rtclient package, which wires configuration, transport, authentication,
// and the resiliency pipeline. Most consumers should import rtclient to
// construct a client and then interact with the resource client interfaces
// exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/revivatech/client-go/pkg/rtapi"
//	  "github.com/revivatech/client-go/pkg/rtclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := rtclient.New(ctx, &rtapi.Config{APIEndpoint: "https://api.revivatech.co.uk"})
//	  if err != nil { log.Fatal(err) }
//
//	  // List the first page of bookings
//	  bookings, err := cli.Bookings().List(ctx, rtapi.NewQueryParams().WithPerPage(50))
//	  if err != nil { log.Fatal(err) }
//	  _ = bookings
//	}
//
// # Queries and pagination
//
// Use QueryParams to express common list options (page, per_page, order_by,
// search, filters). The concrete resource clients additionally implement
// PaginationClient, which feeds the helpers for iterating or collecting
// paginated results:
//
//	lister := cli.Bookings().(rtapi.PaginationClient[rtapi.Booking])
//	it := rtapi.NewPaginationIterator(ctx, lister, "/api/bookings", rtapi.NewQueryParams())
//	for it.HasNext() {
//	  booking, err := it.Next()
//	  if err != nil { break }
//	  _ = booking
//	}
//
// or fetch all results at once:
//
//	all, err := rtapi.FetchAllPages(ctx, lister, "/api/bookings", nil, rtapi.DefaultPaginationOptions())
//	if err != nil { /* handle error */ }
//	_ = all
//
// # Errors
//
// Failures are represented by Error, which carries a stable code
// (CIRCUIT_OPEN, RATE_LIMIT_EXCEEDED, HTTP_ERROR, NETWORK_ERROR, TIMEOUT) and
// the HTTP status when one was received. Helpers such as IsCircuitOpen,
// IsRateLimited, IsNotFound, and IsUnauthorized make it easy to branch on
// common cases.
//
// # Resiliency
//
// Every request the client sends flows through a shared pipeline: a circuit
// breaker that fails fast after repeated failures, a sliding-window rate
// limiter, a response cache for GET requests, and a retry loop with
// exponential backoff. The pieces (CircuitBreaker, RateLimiter, MemoryCache,
// RetryPolicy, InterceptorChain) are exported so applications with advanced
// needs can use or tune them directly; the rtclient package composes them
// into sensible defaults.
//
// # Resources
//
// Resource clients follow a consistent CRUD-and-actions pattern across
// resources (Bookings, Customers, Devices, Quotes). See the interfaces in
// client.go for the full surface area.
package rtapi
