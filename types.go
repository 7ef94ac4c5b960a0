package guard

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated subject
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
	Active() bool
}

// UserDirectory is the identity store this core reads from. It is owned by
// the persistence layer; the guard only ever calls FindByID. Implementations
// return (nil, nil) when no record matches so callers can distinguish a
// missing identity from an infrastructure fault.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (Identity, error)
	FindByEmail(ctx context.Context, email string) (Identity, error)
}

// CredentialVerifier authenticates an identifier/password pair. Used by the
// login flow, never by the per-request guard.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, identifier, password string) (Identity, error)
}

// TokenService issues, refreshes, and verifies signed session tokens.
type TokenService interface {
	Issue(subjectID string) (string, error)
	Refresh(subjectID string) (string, error)
	Verify(raw string) (*SessionClaims, error)
}

// Config holds guard options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetAuthScheme() string
	GetContextKey() string
	GetTokenExpiration() int
	GetRefreshTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
}

// Mode selects how Guard.Authenticate treats failures.
type Mode int

const (
	// Strict terminates the request with a structured 401 on any failure.
	Strict Mode = iota
	// Optional collapses failures into an unauthenticated context and
	// lets the request proceed.
	Optional
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Optional:
		return "optional"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] GUARD "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] GUARD "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] GUARD "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] GUARD "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
