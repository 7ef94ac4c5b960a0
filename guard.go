package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

const defaultAuthScheme = "Bearer"

// ErrorResponse is the uniform payload written for every guard failure.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Data    map[string]any `json:"data,omitempty"`
}

// Guard authenticates callers and enforces role/ownership policy per request.
// It owns the response for every denial: the downstream handler never runs
// after a failed check.
type Guard struct {
	tokens     TokenService
	directory  UserDirectory
	sessions   LoginSessionStore // optional: enables logical session revocation
	recorder   *ActivityRecorder // optional: best-effort denial audit
	logger     Logger
	contextKey string
	authScheme string
}

// GuardOption customizes guard construction.
type GuardOption func(*Guard)

// WithGuardLogger overrides the default logger.
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGuardRecorder wires an ActivityRecorder so strict-mode denials leave an
// audit trace. Optional-mode failures are never recorded.
func WithGuardRecorder(recorder *ActivityRecorder) GuardOption {
	return func(g *Guard) {
		g.recorder = recorder
	}
}

// WithSessionStore enables the logical revocation check: a token whose login
// session has been revoked is rejected even while cryptographically valid.
func WithSessionStore(sessions LoginSessionStore) GuardOption {
	return func(g *Guard) {
		g.sessions = sessions
	}
}

// WithGuardContextKey overrides where the AuthContext is stored in router
// locals.
func WithGuardContextKey(key string) GuardOption {
	return func(g *Guard) {
		if key != "" {
			g.contextKey = key
		}
	}
}

// WithGuardAuthScheme overrides the Authorization header scheme.
func WithGuardAuthScheme(scheme string) GuardOption {
	return func(g *Guard) {
		if scheme != "" {
			g.authScheme = scheme
		}
	}
}

// NewGuard returns a new Guard
func NewGuard(tokens TokenService, directory UserDirectory, opts ...GuardOption) *Guard {
	g := &Guard{
		tokens:     tokens,
		directory:  directory,
		logger:     defLogger{},
		contextKey: DefaultContextKey,
		authScheme: defaultAuthScheme,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Authenticate returns middleware that resolves the caller's AuthContext.
//
// In Strict mode any failure terminates the request with a structured 401.
// In Optional mode failures collapse to an explicit unauthenticated context,
// nothing is logged or recorded, and the request proceeds.
func (g *Guard) Authenticate(mode Mode) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			authCtx, err := g.resolve(c)
			if err != nil {
				if mode == Optional {
					g.attach(c, Unauthenticated())
					return c.Next()
				}

				richErr := GuardError(err)
				g.logger.Info(
					"authentication denied",
					"code", richErr.TextCode,
					"path", c.Path(),
				)
				g.recordDenial(c, nil, richErr)
				return g.deny(c, richErr)
			}

			g.attach(c, authCtx)
			return c.Next()
		}
	}
}

// RequireRole returns middleware that passes when the authenticated identity
// holds the required role. Admin always passes.
func (g *Guard) RequireRole(role UserRole) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			identity, errResp := g.requireIdentity(c)
			if errResp != nil {
				return g.deny(c, errResp)
			}

			if RoleSatisfies(identity.Role(), role) {
				return c.Next()
			}

			richErr := insufficientPermissions(role, identity.Role())
			g.recordDenial(c, identity, richErr)
			return g.deny(c, richErr)
		}
	}
}

// RequireOwnershipOrAdmin returns middleware that passes when the resource's
// owner id, read from the route param, query, or JSON payload field named
// ownerField, equals the caller's id. Admin always passes. A missing owner
// value is a denial, not an open door.
func (g *Guard) RequireOwnershipOrAdmin(ownerField string) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			identity, errResp := g.requireIdentity(c)
			if errResp != nil {
				return g.deny(c, errResp)
			}

			if identity.Role() == RoleAdmin {
				return c.Next()
			}

			owner := ownerValue(c, ownerField)
			if owner == "" || owner != identity.ID() {
				richErr := ErrAccessDenied
				g.recordDenial(c, identity, richErr)
				return g.deny(c, richErr)
			}

			return c.Next()
		}
	}
}

// resolve walks the request through the authentication state machine:
// token extraction, verification, directory lookup, active check.
func (g *Guard) resolve(c router.Context) (AuthContext, error) {
	flow := newAuthFlow()

	raw, err := g.bearerToken(c)
	if err != nil {
		flow.deny()
		return AuthContext{}, err
	}

	claims, err := g.tokens.Verify(raw)
	if err != nil {
		flow.deny()
		return AuthContext{}, err
	}
	if err := flow.advance(StateTokenVerified); err != nil {
		return AuthContext{}, err
	}

	identity, err := g.directory.FindByID(c.Context(), claims.SubjectID())
	if err != nil {
		flow.deny()
		return AuthContext{}, errors.Wrap(err, errors.CategoryInternal, "identity lookup failed").
			WithTextCode(TextCodeInternal).
			WithCode(errors.CodeInternal)
	}
	if identity == nil {
		flow.deny()
		return AuthContext{}, ErrUserNotFound
	}
	if err := flow.advance(StateUserLookedUp); err != nil {
		return AuthContext{}, err
	}

	// active = false invalidates every outstanding token for the subject,
	// regardless of signature validity or remaining lifetime
	if !identity.Active() {
		flow.deny()
		return AuthContext{}, ErrUserInactive
	}

	if err := g.checkRevocation(c.Context(), raw); err != nil {
		flow.deny()
		return AuthContext{}, err
	}

	if err := flow.advance(StateAuthenticated); err != nil {
		return AuthContext{}, err
	}

	return NewAuthContext(identity, raw), nil
}

// checkRevocation rejects tokens whose login session carries the logical
// revoked flag. Clients receive TOKEN_EXPIRED: the remedy is the same, log
// in again.
func (g *Guard) checkRevocation(ctx context.Context, raw string) error {
	if g.sessions == nil {
		return nil
	}

	session, err := g.sessions.FindByFingerprint(ctx, Fingerprint(raw))
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "session lookup failed").
			WithTextCode(TextCodeInternal).
			WithCode(errors.CodeInternal)
	}
	if session != nil && session.Revoked {
		return ErrTokenExpired
	}

	return nil
}

func (g *Guard) bearerToken(c router.Context) (string, error) {
	header := c.GetString(router.HeaderAuthorization, "")
	if header == "" {
		return "", ErrNoToken
	}

	scheme := g.authScheme
	if len(header) <= len(scheme)+1 || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", ErrNoToken
	}

	raw := strings.TrimSpace(header[len(scheme):])
	if raw == "" {
		return "", ErrNoToken
	}

	return raw, nil
}

// attach stores the immutable AuthContext in router locals and propagates it
// through the standard context for downstream handlers.
func (g *Guard) attach(c router.Context, authCtx AuthContext) {
	c.Locals(g.contextKey, authCtx)
	c.SetContext(WithAuthContext(c.Context(), authCtx))
}

// requireIdentity is shared by the policy middlewares: they only make sense
// downstream of Authenticate.
func (g *Guard) requireIdentity(c router.Context) (Identity, *errors.Error) {
	authCtx, ok := RouterAuthContext(c, g.contextKey)
	if !ok {
		return nil, ErrNoToken
	}

	identity, ok := authCtx.Identity()
	if !ok {
		return nil, ErrNoToken
	}

	return identity, nil
}

// deny writes the structured error payload and the mapped status code. The
// downstream handler never runs.
func (g *Guard) deny(c router.Context, richErr *errors.Error) error {
	status := richErr.Code
	if status == 0 {
		status = errors.CodeInternal
	}

	code := richErr.TextCode
	if code == "" {
		code = TextCodeInternal
	}

	return c.JSON(status, ErrorResponse{
		Success: false,
		Error:   richErr.Message,
		Code:    code,
		Data:    richErr.Metadata,
	})
}

// recordDenial leaves an audit trace for a denied request. identity is nil
// for authentication failures, where the subject was never resolved.
func (g *Guard) recordDenial(c router.Context, identity Identity, richErr *errors.Error) {
	if g.recorder == nil {
		return
	}

	meta := CaptureRequestMeta(c)
	g.recorder.LogFailure(identity, ActionDenied, meta, richErr.Message, map[string]any{
		"code": richErr.TextCode,
	})
}

// ownerValue reads the resource owner id from the route param, then the
// query string, then a JSON payload field.
func ownerValue(c router.Context, field string) string {
	if v := c.Param(field); v != "" {
		return v
	}

	if v := c.Query(field, ""); v != "" {
		return v
	}

	body := c.Body()
	if len(body) == 0 {
		return ""
	}

	payload := map[string]any{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	switch v := payload[field].(type) {
	case string:
		return v
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	default:
		return ""
	}
}
