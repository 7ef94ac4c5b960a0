package guard

import (
	"context"

	"github.com/goliatone/go-router"
)

// DefaultContextKey is where Guard stores the AuthContext in router locals.
const DefaultContextKey = "auth"

var authCtxKey = &contextKey{"auth"}

type contextKey struct {
	name string
}

// AuthContext is the per-request outcome of authentication: either a resolved
// Identity plus the raw token it presented, or an explicit unauthenticated
// value. It is constructed once per request and never mutated.
type AuthContext struct {
	identity Identity
	token    string
}

// NewAuthContext builds an authenticated context.
func NewAuthContext(identity Identity, token string) AuthContext {
	return AuthContext{identity: identity, token: token}
}

// Unauthenticated is the explicit "no identity" outcome used by optional-auth
// paths, so the three authentication outcomes (authenticated, unauthenticated,
// denied) stay a closed set.
func Unauthenticated() AuthContext {
	return AuthContext{}
}

// Authenticated reports whether the request carries a resolved identity.
func (a AuthContext) Authenticated() bool {
	return a.identity != nil
}

// Identity returns the resolved identity, if any.
func (a AuthContext) Identity() (Identity, bool) {
	return a.identity, a.identity != nil
}

// Token returns the raw bearer token the identity presented.
func (a AuthContext) Token() string {
	return a.token
}

// WithAuthContext sets the AuthContext in the given context
func WithAuthContext(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authCtxKey, ac)
}

// AuthContextFrom finds the AuthContext from the standard context.
func AuthContextFrom(ctx context.Context) (AuthContext, bool) {
	raw, ok := ctx.Value(authCtxKey).(AuthContext)
	return raw, ok
}

// RouterAuthContext extracts the AuthContext from the router context.
func RouterAuthContext(c router.Context, key string) (AuthContext, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	raw := c.Locals(key)
	if raw == nil {
		return AuthContext{}, false
	}
	ac, ok := raw.(AuthContext)
	return ac, ok
}
