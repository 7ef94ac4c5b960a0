package guard_test

import (
	"testing"

	guard "github.com/goliatone/go-guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleConfig_Validate(t *testing.T) {
	t.Run("a complete config validates", func(t *testing.T) {
		cfg := testConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("signing key is required", func(t *testing.T) {
		cfg := testConfig()
		cfg.SigningKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("short signing keys are rejected", func(t *testing.T) {
		cfg := testConfig()
		cfg.SigningKey = "too-short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("token expiration must be positive", func(t *testing.T) {
		cfg := testConfig()
		cfg.TokenExpiration = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("refresh window must not undercut the default window", func(t *testing.T) {
		cfg := testConfig()
		cfg.TokenExpiration = 24
		cfg.RefreshTokenExpiration = 12
		assert.Error(t, cfg.Validate())
	})
}

func TestSimpleConfig_Defaults(t *testing.T) {
	cfg := guard.SimpleConfig{}

	assert.Equal(t, "Bearer", cfg.GetAuthScheme())
	assert.Equal(t, guard.DefaultContextKey, cfg.GetContextKey())

	cfg.AuthScheme = "Token"
	cfg.ContextKey = "session"
	assert.Equal(t, "Token", cfg.GetAuthScheme())
	assert.Equal(t, "session", cfg.GetContextKey())
}
