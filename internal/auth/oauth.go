package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/revivatech/client-go/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrNoValidCredentials = errors.New("no valid credentials available")
	ErrTokenRequestFailed = errors.New("token request failed")
	ErrNoTokenEndpoint    = errors.New("no token endpoint configured")
	ErrStaticTokenRefresh = errors.New("static token cannot be refreshed")
)

// OAuth2Config holds the credentials used to obtain tokens.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	RefreshToken string
	AccessToken  string
	Scopes       []string
}

// OAuth2TokenManager obtains and refreshes tokens from the auth server.
// Token endpoint calls ride on a retrying HTTP client so a blip on the
// auth server does not fail an otherwise healthy API call.
type OAuth2TokenManager struct {
	config *OAuth2Config
	store  *TokenStore
	client *http.Client
	mu     sync.Mutex
}

// NewOAuth2TokenManager creates a token manager for the given config.
// A pre-issued access token in the config is stored immediately and
// used until it expires.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.TokenRefreshRetryMax
	retryClient.RetryWaitMin = constants.TokenRefreshWaitMin
	retryClient.RetryWaitMax = constants.TokenRefreshWaitMax
	retryClient.Logger = nil

	manager := &OAuth2TokenManager{
		config: config,
		store:  NewTokenStore(),
		client: retryClient.StandardClient(),
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{
			AccessToken: config.AccessToken,
			TokenType:   "bearer",
		})
	}

	return manager
}

// GetToken returns a valid access token, fetching a new one when the
// stored token is missing or about to expire.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	err := m.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken obtains a new token even if the stored one is still
// valid.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.fetchToken(ctx)
}

// SetToken stores a token obtained elsewhere.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}

// fetchToken runs the first grant the configuration supports: refresh
// token, then client credentials, then resource owner password. Callers
// must hold m.mu.
func (m *OAuth2TokenManager) fetchToken(ctx context.Context) error {
	refreshToken := m.config.RefreshToken
	if stored := m.store.Get(); stored != nil && stored.RefreshToken != "" {
		refreshToken = stored.RefreshToken
	}

	switch {
	case refreshToken != "":
		return m.requestToken(ctx, url.Values{
			"grant_type":    []string{"refresh_token"},
			"refresh_token": []string{refreshToken},
		}, false)

	case m.config.ClientID != "" && m.config.ClientSecret != "":
		return m.requestToken(ctx, url.Values{
			"grant_type": []string{"client_credentials"},
		}, true)

	case m.config.Username != "" && m.config.Password != "":
		values := url.Values{
			"grant_type": []string{"password"},
			"username":   []string{m.config.Username},
			"password":   []string{m.config.Password},
		}
		if m.config.ClientID != "" {
			values.Set("client_id", m.config.ClientID)
		}

		return m.requestToken(ctx, values, false)

	default:
		return ErrNoValidCredentials
	}
}

// tokenError is the error payload returned by the auth server.
type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// requestToken performs the form POST against the token endpoint and
// stores the resulting token.
func (m *OAuth2TokenManager) requestToken(ctx context.Context, form url.Values, basicAuth bool) error {
	if m.config.TokenURL == "" {
		return ErrNoTokenEndpoint
	}

	if len(m.config.Scopes) > 0 {
		form.Set("scope", strings.Join(m.config.Scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	if basicAuth {
		req.SetBasicAuth(m.config.ClientID, m.config.ClientSecret)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call token endpoint: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var tokenErr tokenError
		if jsonErr := json.Unmarshal(body, &tokenErr); jsonErr == nil && tokenErr.Error != "" {
			return fmt.Errorf("%w: %s: %s", ErrTokenRequestFailed, tokenErr.Error, tokenErr.ErrorDescription)
		}

		return fmt.Errorf("%w: status %d", ErrTokenRequestFailed, resp.StatusCode)
	}

	var token Token

	err = json.Unmarshal(body, &token)
	if err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}

	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	m.store.Set(&token)

	return nil
}

// NewAuthServerTokenManager creates a manager that uses the client
// credentials grant against the RevivaTech auth server.
func NewAuthServerTokenManager(authURL, clientID, clientSecret string) *OAuth2TokenManager {
	return NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     strings.TrimRight(authURL, "/") + "/oauth/token",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"bookings.read", "bookings.write"},
	})
}

// NewAuthServerTokenManagerWithPassword creates a manager that uses the
// resource owner password grant against the RevivaTech auth server.
func NewAuthServerTokenManagerWithPassword(authURL, clientID, clientSecret, username, password string) *OAuth2TokenManager {
	return NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     strings.TrimRight(authURL, "/") + "/oauth/token",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Username:     username,
		Password:     password,
		Scopes:       []string{"bookings.read", "bookings.write"},
	})
}
