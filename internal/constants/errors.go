package constants

import "errors"

// Errors shared between the CLI commands and the token persistence
// layer.
var (
	// ErrAPIConfigNotFound is returned when a refreshed token cannot be
	// persisted because the CLI configuration holds no matching API
	// endpoint.
	ErrAPIConfigNotFound = errors.New("API configuration not found")

	// ErrNoRefreshToken is returned when a token refresh is requested
	// but the stored configuration has nothing to refresh with.
	ErrNoRefreshToken = errors.New("no refresh token available, run 'rtapi login' again")
)
