package guard

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Authenticator orchestrates the login, logout, and session-extension flows
// around the TokenService: verify credentials, issue a token, open a login
// session, and leave an audit trace. Session and audit bookkeeping never
// block or fail an otherwise successful authentication.
type Authenticator struct {
	verifier CredentialVerifier
	tokens   TokenService
	sessions LoginSessionStore
	recorder *ActivityRecorder
	logger   Logger
	now      func() time.Time
}

// AuthenticatorOption customizes authenticator construction.
type AuthenticatorOption func(*Authenticator)

// WithAuthenticatorLogger overrides the default logger.
func WithAuthenticatorLogger(logger Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAuthenticatorRecorder wires the activity recorder used for login,
// logout, and refresh events.
func WithAuthenticatorRecorder(recorder *ActivityRecorder) AuthenticatorOption {
	return func(a *Authenticator) {
		a.recorder = recorder
	}
}

// WithAuthenticatorSessions wires the login session store.
func WithAuthenticatorSessions(sessions LoginSessionStore) AuthenticatorOption {
	return func(a *Authenticator) {
		a.sessions = sessions
	}
}

// WithAuthenticatorClock injects a custom clock (useful for tests).
func WithAuthenticatorClock(clock func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		if clock != nil {
			a.now = clock
		}
	}
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(verifier CredentialVerifier, tokens TokenService, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		verifier: verifier,
		tokens:   tokens,
		logger:   defLogger{},
		now:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// Login verifies the credentials, issues a session token with the default
// validity window, opens a LoginSession, and records the login.
func (a *Authenticator) Login(ctx context.Context, identifier, password string, meta RequestMeta) (string, error) {
	identity, err := a.verifier.VerifyCredentials(ctx, identifier, password)
	if err != nil {
		a.logger.Warn("login credential verification failed", "identifier", identifier)
		a.recordFailure(nil, meta, err, map[string]any{"identifier": identifier})
		return "", err
	}

	if identity == nil {
		a.recordFailure(nil, meta, ErrIdentityNotFound, map[string]any{"identifier": identifier})
		return "", ErrIdentityNotFound
	}

	if !identity.Active() {
		a.logger.Warn("login blocked for inactive user", "user_id", identity.ID())
		a.recordFailure(identity, meta, ErrUserInactive, map[string]any{"identifier": identifier})
		return "", ErrUserInactive
	}

	token, err := a.tokens.Issue(identity.ID())
	if err != nil {
		a.recordFailure(identity, meta, err, map[string]any{"identifier": identifier})
		return "", err
	}

	a.openSession(ctx, identity, token)

	if a.recorder != nil {
		a.recorder.LogLogin(identity, meta)
	}

	return token, nil
}

// Logout closes the caller's login session and records the logout. Calling
// it with an unauthenticated context is a no-op.
func (a *Authenticator) Logout(ctx context.Context, authCtx AuthContext, meta RequestMeta) error {
	identity, ok := authCtx.Identity()
	if !ok {
		return nil
	}

	if a.sessions != nil {
		if _, err := a.sessions.Close(ctx, Fingerprint(authCtx.Token()), a.now().UTC()); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to close login session")
		}
	}

	if a.recorder != nil {
		a.recorder.LogLogout(identity, meta)
	}

	return nil
}

// RefreshSession issues a token with the longer refresh window. Extension is
// always explicit: nothing in the request path refreshes implicitly. The old
// session is closed and a new one opened for the refreshed token.
func (a *Authenticator) RefreshSession(ctx context.Context, authCtx AuthContext, meta RequestMeta) (string, error) {
	identity, ok := authCtx.Identity()
	if !ok {
		return "", ErrNoToken
	}

	token, err := a.tokens.Refresh(identity.ID())
	if err != nil {
		a.recordFailure(identity, meta, err, nil)
		return "", err
	}

	if a.sessions != nil {
		if _, err := a.sessions.Close(ctx, Fingerprint(authCtx.Token()), a.now().UTC()); err != nil {
			a.logger.Warn("failed to close refreshed session", "error", err)
		}
	}

	a.openSession(ctx, identity, token)

	if a.recorder != nil {
		a.recorder.LogAction(identity, ActionRefresh, meta, nil)
	}

	return token, nil
}

// openSession is best-effort bookkeeping: a storage fault is logged but never
// turns a successful authentication into a failure.
func (a *Authenticator) openSession(ctx context.Context, identity Identity, token string) {
	if a.sessions == nil {
		return
	}

	userID, err := uuid.Parse(identity.ID())
	if err != nil {
		a.logger.Warn("cannot open session for non-uuid subject", "user_id", identity.ID())
		return
	}

	session := &LoginSession{
		UserID:           userID,
		TokenFingerprint: Fingerprint(token),
		LoginAt:          a.now().UTC(),
	}

	if err := a.sessions.Open(ctx, session); err != nil {
		a.logger.Warn("failed to open login session", "user_id", identity.ID(), "error", err)
	}
}

func (a *Authenticator) recordFailure(identity Identity, meta RequestMeta, cause error, detail map[string]any) {
	if a.recorder == nil {
		return
	}
	a.recorder.LogFailure(identity, ActionLogin, meta, cause.Error(), detail)
}
