package rtapi_test

import (
	"testing"

	"github.com/revivatech/client-go/pkg/rtapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	config := &rtapi.Config{
		APIEndpoint: "https://api.revivatech.co.uk",
	}

	assert.NoError(t, config.Validate())
}

func TestConfig_ValidateMissingEndpoint(t *testing.T) {
	t.Parallel()

	config := &rtapi.Config{}

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIEndpoint")
}

func TestConfig_ValidateBadEndpoint(t *testing.T) {
	t.Parallel()

	config := &rtapi.Config{APIEndpoint: "not a url"}

	assert.Error(t, config.Validate())
}

func TestConfig_ValidateRetryBounds(t *testing.T) {
	t.Parallel()

	config := &rtapi.Config{
		APIEndpoint: "https://api.revivatech.co.uk",
		MaxRetries:  11,
	}

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxRetries")
}

func TestConfig_ValidateTokenURL(t *testing.T) {
	t.Parallel()

	config := &rtapi.Config{
		APIEndpoint: "https://api.revivatech.co.uk",
		TokenURL:    "https://auth.revivatech.co.uk/oauth/token",
	}
	assert.NoError(t, config.Validate())

	config.TokenURL = "::bad::"
	assert.Error(t, config.Validate())
}
