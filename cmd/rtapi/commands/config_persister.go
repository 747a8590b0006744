package commands

import (
	"fmt"
	"sync"
	"time"

	"github.com/revivatech/client-go/internal/constants"
)

// ConfigPersister implements the auth.ConfigPersister interface.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateAPIToken updates the stored token and related metadata after a
// refresh so the next invocation reuses the fresh token.
func (p *ConfigPersister) UpdateAPIToken(apiDomain, token string, expiresAt time.Time, refreshToken string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()

	if config.API == "" || extractDomainFromEndpoint(config.API) != apiDomain {
		return fmt.Errorf("API configuration for '%s': %w", apiDomain, constants.ErrAPIConfigNotFound)
	}

	config.Token = token
	if !expiresAt.IsZero() {
		config.TokenExpiresAt = &expiresAt
	}

	if refreshToken != "" {
		config.RefreshToken = refreshToken
	}

	now := time.Now()
	config.LastRefreshed = &now

	return saveConfigStruct(config)
}
