package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/revivatech/client-go/internal/auth"
	"github.com/revivatech/client-go/internal/client"
	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/revivatech/client-go/pkg/rtclient"
	"gopkg.in/yaml.v3"
)

// YAML formatting.
const defaultYAMLIndent = 2

// Common static errors used throughout the commands package.
var (
	ErrNoHostInURL           = errors.New("no host specified in URL")
	ErrCacheStatsUnavailable = errors.New("cache statistics are not available for this client")
)

// CreateClientWithAPI creates an API client using the --api flag value
// or the stored endpoint.
func CreateClientWithAPI(apiFlag string) (rtapi.Client, error) {
	return CreateClientWithTokenRefresh(apiFlag)
}

// CreateClientWithTokenRefresh creates an API client with automatic
// token refresh backed by the CLI configuration.
func CreateClientWithTokenRefresh(apiFlag string) (rtapi.Client, error) {
	config, endpoint, err := prepareClientSettings(apiFlag)
	if err != nil {
		return nil, err
	}

	tokenManager := createTokenManager(config, endpoint)
	clientConfig := buildClientConfig(config, endpoint)

	return createFinalClient(clientConfig, tokenManager)
}

func prepareClientSettings(apiFlag string) (*Config, string, error) {
	config := loadConfig()

	endpoint := apiFlag
	if endpoint == "" {
		endpoint = config.API
	}

	if endpoint == "" {
		return nil, "", rtapi.ErrNoAPIEndpointInUse
	}

	normalized, err := normalizeEndpoint(endpoint)
	if err != nil {
		return nil, "", fmt.Errorf("invalid API endpoint: %w", err)
	}

	return config, normalized, nil
}

// createTokenManager builds a config-persisting token manager when
// stored credentials need refresh handling. API keys and anonymous use
// return nil and go through the plain client constructor.
func createTokenManager(config *Config, endpoint string) auth.TokenManager {
	if !hasAuthInfo(config) {
		return nil
	}

	oauth2Config := buildOAuth2Config(config, endpoint)
	configPersister := NewConfigPersister()
	initialExpiry := getInitialTokenExpiry(config)

	return auth.NewConfigTokenManager(oauth2Config, configPersister, extractDomainFromEndpoint(endpoint), config.Token, initialExpiry)
}

func hasAuthInfo(config *Config) bool {
	return config.Token != "" || config.RefreshToken != "" || config.Username != ""
}

func buildOAuth2Config(config *Config, endpoint string) *auth.OAuth2Config {
	return &auth.OAuth2Config{
		TokenURL:     resolveTokenURL(config, endpoint),
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Username:     config.Username,
		RefreshToken: config.RefreshToken,
		AccessToken:  config.Token,
	}
}

// resolveTokenURL prefers an explicitly configured token URL and falls
// back to the conventional endpoint layout.
func resolveTokenURL(config *Config, endpoint string) string {
	if config.TokenURL != "" {
		return config.TokenURL
	}

	return strings.TrimSuffix(endpoint, "/") + "/oauth/token"
}

func getInitialTokenExpiry(config *Config) time.Time {
	if config.TokenExpiresAt != nil {
		return *config.TokenExpiresAt
	}

	return time.Time{}
}

func buildClientConfig(config *Config, endpoint string) *rtapi.Config {
	return &rtapi.Config{
		APIEndpoint:   endpoint,
		APIKey:        config.APIKey,
		ClientID:      config.ClientID,
		ClientSecret:  config.ClientSecret,
		Username:      config.Username,
		TokenURL:      config.TokenURL,
		SkipTLSVerify: config.SkipSSLValidation,
	}
}

func createFinalClient(clientConfig *rtapi.Config, tokenManager auth.TokenManager) (rtapi.Client, error) {
	if tokenManager != nil {
		return createClientWithTokenManager(clientConfig, tokenManager)
	}

	apiClient, err := rtclient.New(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return apiClient, nil
}

// createClientWithTokenManager creates a client with a custom token manager.
func createClientWithTokenManager(config *rtapi.Config, tokenManager auth.TokenManager) (rtapi.Client, error) {
	apiClient, err := client.NewWithTokenManager(config, tokenManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create client with token manager: %w", err)
	}

	return apiClient, nil
}

// normalizeEndpoint validates and normalizes an API endpoint URL.
func normalizeEndpoint(endpoint string) (string, error) {
	// Add https:// if no protocol is specified
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Host == "" {
		return "", ErrNoHostInURL
	}

	// Remove trailing slash and path for consistency
	return fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host), nil
}

// extractDomainFromEndpoint extracts the host portion of an endpoint
// for use as the key passed to the token persister.
func extractDomainFromEndpoint(endpoint string) string {
	domain := strings.TrimPrefix(endpoint, "https://")
	domain = strings.TrimPrefix(domain, "http://")

	if idx := strings.Index(domain, "/"); idx != -1 {
		domain = domain[:idx]
	}

	if idx := strings.Index(domain, ":"); idx != -1 {
		domain = domain[:idx]
	}

	return domain
}

// StandardJSONRenderer creates a standard JSON encoder.
func StandardJSONRenderer[T any](data T) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer creates a standard YAML encoder.
func StandardYAMLRenderer[T any](data T) error {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(defaultYAMLIndent)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return nil
}

// confirmDeletion prompts for confirmation unless force is set. It
// reports whether the caller should proceed.
func confirmDeletion(entityType, id string, force bool) bool {
	if force {
		return true
	}

	_, _ = fmt.Fprintf(os.Stdout, "Really delete %s '%s'? (y/N): ", entityType, id)

	var response string

	_, _ = fmt.Scanln(&response)
	if response != "y" && response != "Y" {
		_, _ = os.Stdout.WriteString("Cancelled\n")

		return false
	}

	return true
}

// formatValue renders an optional string for table output.
func formatValue(value string) string {
	if value == "" {
		return "-"
	}

	return value
}

// formatTimestamp renders an optional timestamp for table output.
func formatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}

	return t.Local().Format("2006-01-02 15:04")
}

// formatMoney renders a minor-unit amount with its currency code.
func formatMoney(amount int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(amount)/100, currency)
}
