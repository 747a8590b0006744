// Package rtclient provides the main entry point for creating RevivaTech API clients
package rtclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/revivatech/client-go/internal/client"
	"github.com/revivatech/client-go/internal/constants"
	"github.com/revivatech/client-go/pkg/rtapi"
)

// Static errors for err113 compliance.
var (
	ErrSkipTLSOnlyInDev  = errors.New("skipping TLS verification is only allowed in development environments")
	ErrInfoRequestFailed = errors.New("API info request failed")
)

// New creates a new RevivaTech API client with automatic auth endpoint
// discovery.
func New(ctx context.Context, config *rtapi.Config) (rtapi.Client, error) {
	if config == nil {
		return nil, rtapi.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, rtapi.ErrAPIEndpointRequired
	}

	// Normalize the API endpoint before validating it.
	apiEndpoint := strings.TrimSuffix(config.APIEndpoint, "/")
	if !strings.HasPrefix(apiEndpoint, "http://") && !strings.HasPrefix(apiEndpoint, "https://") {
		apiEndpoint = "https://" + apiEndpoint
	}

	config.APIEndpoint = apiEndpoint

	err := config.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// OAuth2 grants need a token URL. Discover it from the API info
	// document unless the config names one explicitly.
	if needsAuth(config) && config.TokenURL == "" {
		authURL, err := discoverAuthEndpoint(ctx, apiEndpoint, config.SkipTLSVerify)
		if err != nil {
			return nil, fmt.Errorf("discovering auth endpoint: %w", err)
		}

		config.TokenURL = strings.TrimSuffix(authURL, "/") + "/oauth/token"
	}

	apiClient, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return apiClient, nil
}

// needsAuth checks if the config requires an OAuth2 token URL. Static
// tokens, API keys, and basic auth are sent as-is and need no token
// endpoint.
func needsAuth(config *rtapi.Config) bool {
	return config.AccessToken == "" && config.APIKey == "" && config.BasicAuthUsername == "" &&
		(config.Username != "" || config.ClientID != "" || config.RefreshToken != "")
}

// isDevelopmentEnvironment checks if we're in a development environment.
func isDevelopmentEnvironment() bool {
	devMode := os.Getenv("RTAPI_DEV_MODE")

	return devMode == "true" || devMode == "1"
}

// createDiscoveryHTTPClient creates an HTTP client for auth endpoint discovery.
func createDiscoveryHTTPClient(skipTLS bool) (*http.Client, error) {
	httpClient := &http.Client{
		Timeout: constants.ShortHTTPTimeout,
	}

	if skipTLS {
		// Only allow insecure TLS in explicit development environments
		if !isDevelopmentEnvironment() {
			return nil, fmt.Errorf("%w (set RTAPI_DEV_MODE=true)", ErrSkipTLSOnlyInDev)
		}

		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 -- Protected by development environment check above
		}
	}

	return httpClient, nil
}

// fetchAuthURL fetches the API info document and extracts the auth link.
func fetchAuthURL(ctx context.Context, httpClient *http.Client, apiEndpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiEndpoint+"/api/info", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("getting API info: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			// Log error but don't return it to avoid masking original error
			fmt.Fprintf(os.Stderr, "Warning: failed to close response body: %v\n", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf("%w with status %d: %s", ErrInfoRequestFailed, resp.StatusCode, string(body))
	}

	var info rtapi.Info

	err = json.NewDecoder(resp.Body).Decode(&info)
	if err != nil {
		return "", fmt.Errorf("parsing API info: %w", err)
	}

	authURL := info.Links["auth"]
	if authURL == "" {
		return "", rtapi.ErrNoTokenURL
	}

	return authURL, nil
}

func discoverAuthEndpoint(ctx context.Context, apiEndpoint string, skipTLS bool) (string, error) {
	httpClient, err := createDiscoveryHTTPClient(skipTLS)
	if err != nil {
		return "", err
	}

	return fetchAuthURL(ctx, httpClient, apiEndpoint)
}

// NewWithEndpoint creates a new client with just an API endpoint (no auth).
func NewWithEndpoint(ctx context.Context, endpoint string) (rtapi.Client, error) {
	return New(ctx, &rtapi.Config{
		APIEndpoint: endpoint,
	})
}

// NewWithToken creates a new client with an API endpoint and access token.
func NewWithToken(ctx context.Context, endpoint, token string) (rtapi.Client, error) {
	return New(ctx, &rtapi.Config{
		APIEndpoint: endpoint,
		AccessToken: token,
	})
}

// NewWithAPIKey creates a new client that authenticates with an API key.
func NewWithAPIKey(ctx context.Context, endpoint, apiKey string) (rtapi.Client, error) {
	return New(ctx, &rtapi.Config{
		APIEndpoint: endpoint,
		APIKey:      apiKey,
	})
}

// NewWithClientCredentials creates a new client using OAuth2 client credentials.
func NewWithClientCredentials(ctx context.Context, endpoint, clientID, clientSecret string) (rtapi.Client, error) {
	return New(ctx, &rtapi.Config{
		APIEndpoint:  endpoint,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// NewWithPassword creates a new client using username/password authentication.
func NewWithPassword(ctx context.Context, endpoint, username, password string) (rtapi.Client, error) {
	return New(ctx, &rtapi.Config{
		APIEndpoint: endpoint,
		Username:    username,
		Password:    password,
	})
}
