package guard_test

import (
	"testing"

	guard "github.com/goliatone/go-guard"
	"github.com/stretchr/testify/assert"
)

func TestAuthState_CanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    guard.AuthState
		to      guard.AuthState
		allowed bool
	}{
		{"unauthenticated to token verified", guard.StateUnauthenticated, guard.StateTokenVerified, true},
		{"token verified to user looked up", guard.StateTokenVerified, guard.StateUserLookedUp, true},
		{"user looked up to authenticated", guard.StateUserLookedUp, guard.StateAuthenticated, true},
		{"authenticated to authorized", guard.StateAuthenticated, guard.StateAuthorized, true},
		{"any non-terminal state can be denied", guard.StateTokenVerified, guard.StateDenied, true},
		{"no skipping the lookup", guard.StateTokenVerified, guard.StateAuthenticated, false},
		{"no skipping verification", guard.StateUnauthenticated, guard.StateUserLookedUp, false},
		{"no leaving an authorized state", guard.StateAuthorized, guard.StateDenied, false},
		{"no recovering from a denial", guard.StateDenied, guard.StateTokenVerified, false},
		{"no moving backwards", guard.StateAuthenticated, guard.StateTokenVerified, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestAuthState_Terminal(t *testing.T) {
	assert.True(t, guard.StateAuthorized.Terminal())
	assert.True(t, guard.StateDenied.Terminal())

	assert.False(t, guard.StateUnauthenticated.Terminal())
	assert.False(t, guard.StateTokenVerified.Terminal())
	assert.False(t, guard.StateUserLookedUp.Terminal())
	assert.False(t, guard.StateAuthenticated.Terminal())
}
