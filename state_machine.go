package guard

import (
	"github.com/goliatone/go-errors"
)

// AuthState tracks the per-request authentication progression. Every strict
// request walks UNAUTHENTICATED → TOKEN_VERIFIED → USER_LOOKED_UP →
// AUTHENTICATED → AUTHORIZED; any failed transition short-circuits to DENIED.
type AuthState string

const (
	StateUnauthenticated AuthState = "UNAUTHENTICATED"
	StateTokenVerified   AuthState = "TOKEN_VERIFIED"
	StateUserLookedUp    AuthState = "USER_LOOKED_UP"
	StateAuthenticated   AuthState = "AUTHENTICATED"
	StateAuthorized      AuthState = "AUTHORIZED"
	StateDenied          AuthState = "DENIED"
)

// ErrInvalidAuthTransition is returned when the flow is advanced out of order.
var ErrInvalidAuthTransition = errors.New("invalid authentication state transition", errors.CategoryInternal).
	WithTextCode("INVALID_AUTH_STATE_TRANSITION").
	WithCode(errors.CodeInternal)

var authTransitions = map[AuthState][]AuthState{
	StateUnauthenticated: {StateTokenVerified, StateDenied},
	StateTokenVerified:   {StateUserLookedUp, StateDenied},
	StateUserLookedUp:    {StateAuthenticated, StateDenied},
	StateAuthenticated:   {StateAuthorized, StateDenied},
	// terminal states
	StateAuthorized: {},
	StateDenied:     {},
}

// Terminal reports whether the state ends the authorization flow.
func (s AuthState) Terminal() bool {
	return s == StateAuthorized || s == StateDenied
}

// CanTransition reports whether the flow may move from s to target.
func (s AuthState) CanTransition(target AuthState) bool {
	for _, next := range authTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// authFlow walks a single request through the state graph. deny is always a
// legal move from a non-terminal state; every other transition is validated
// against the graph.
type authFlow struct {
	state AuthState
}

func newAuthFlow() *authFlow {
	return &authFlow{state: StateUnauthenticated}
}

func (f *authFlow) advance(target AuthState) error {
	if !f.state.CanTransition(target) {
		clone := ErrInvalidAuthTransition.Clone()
		if clone == nil {
			return ErrInvalidAuthTransition
		}
		return clone.WithMetadata(map[string]any{
			"from": string(f.state),
			"to":   string(target),
		})
	}
	f.state = target
	return nil
}

func (f *authFlow) deny() {
	f.state = StateDenied
}
