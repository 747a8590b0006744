package auth

import (
	"context"
	"sync"
	"time"

	"github.com/revivatech/client-go/internal/constants"
)

// TokenManager supplies bearer tokens for API requests.
type TokenManager interface {
	// GetToken returns a valid access token, obtaining or refreshing
	// one when needed.
	GetToken(ctx context.Context) (string, error)

	// RefreshToken forces a new token to be obtained.
	RefreshToken(ctx context.Context) error
}

// Token holds an OAuth2 access token and its metadata.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"-"`
}

// Valid reports whether the token can still be sent. Tokens about to
// expire are treated as invalid so a refresh happens before the server
// starts rejecting them.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(constants.TokenExpirationBuffer).Before(t.ExpiresAt)
}

// TokenStore is a concurrency safe holder for the current token.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the current token or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the current token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear removes the current token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
}
