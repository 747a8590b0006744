// Package rtclient provides the primary entry point for constructing a
// RevivaTech API client that implements the rtapi.Client interface.
//
// It layers configuration, the resilient HTTP pipeline, authentication,
// and auth endpoint discovery on top of the resource interfaces and types
// defined in the rtapi package. Most applications should import rtclient
// to build a client, then use the returned rtapi.Client to access
// resource-specific clients, for example Bookings(), Customers(),
// Devices(), and Quotes().
//
// Quick start
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
//
//	  // Minimal: just an API endpoint (no auth).
//	  cli, err := rtclient.New(ctx, &rtapi.Config{APIEndpoint: "https://api.revivatech.co.uk"})
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with an access token you already have:
//	  cli, err = rtclient.New(ctx, &rtapi.Config{
//	    APIEndpoint: "https://api.revivatech.co.uk",
//	    AccessToken: "eyJhbGciOi...", // bearer token
//	  })
//
//	  // Or with username/password or client credentials. When credentials
//	  // are provided and no token URL is set, rtclient discovers the auth
//	  // endpoint from the API info document (/api/info) and sets TokenURL
//	  // automatically.
//	  cli, err = rtclient.New(ctx, &rtapi.Config{
//	    APIEndpoint: "https://api.revivatech.co.uk",
//	    Username:    "user",
//	    Password:    "pass",
//	    // alternatively:
//	    // ClientID:     "client-id",
//	    // ClientSecret: "client-secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Use resource clients via the rtapi.Client interface
//	  bookings, err := cli.Bookings().List(ctx, &rtapi.QueryParams{PerPage: 10})
//	  if err != nil { log.Fatal(err) }
//	  _ = bookings
//	}
//
// # Resiliency
//
// Every request runs through a circuit breaker, a sliding window rate
// limiter, a response cache for GET requests, and a retry loop with
// exponential backoff. The returned client exposes operational controls
// for all of them; see rtapi.ResilienceController.
//
// # TLS and development mode
//
// For local development, you can set Config.SkipTLSVerify=true. This is
// gated by the environment variable RTAPI_DEV_MODE to avoid accidental
// insecure usage in production environments.
//
// # Helpers
//
// The package also provides convenience constructors NewWithEndpoint,
// NewWithToken, NewWithAPIKey, NewWithClientCredentials, and
// NewWithPassword that wrap New with the appropriate configuration.
package rtclient
