package auth

import "context"

// StaticTokenManager hands out one pre-issued token. Useful for service
// accounts with long lived tokens and for tests.
type StaticTokenManager struct {
	token string
}

// NewStaticTokenManager creates a manager around a pre-issued token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	return &StaticTokenManager{token: token}
}

// GetToken returns the fixed token.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	if m.token == "" {
		return "", ErrNoValidCredentials
	}

	return m.token, nil
}

// RefreshToken always fails. A static token has nothing to refresh.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return ErrStaticTokenRefresh
}
