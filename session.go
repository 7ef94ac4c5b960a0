package guard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LoginSession spans a single login-to-logout interval. The duration is
// computed exactly once, when the logout time is set. Revoked is a logical
// flag only: there is no server-side revocation store.
type LoginSession struct {
	bun.BaseModel `bun:"table:login_sessions,alias:lsn"`

	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID           uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id"`
	TokenFingerprint string     `bun:"token_fingerprint,notnull" json:"token_fingerprint"`
	LoginAt          time.Time  `bun:"login_at,notnull" json:"login_at"`
	LogoutAt         *time.Time `bun:"logout_at,nullzero" json:"logout_at,omitempty"`
	DurationSeconds  *int64     `bun:"duration_seconds,nullzero" json:"duration_seconds,omitempty"`
	Revoked          bool       `bun:"revoked,notnull,default:false" json:"revoked"`
}

// Open reports whether the session has not been closed yet.
func (s *LoginSession) Open() bool {
	return s.LogoutAt == nil
}

// Duration returns the login-to-logout interval. It is only available once
// the session has been closed.
func (s *LoginSession) Duration() (time.Duration, bool) {
	if s.DurationSeconds == nil {
		return 0, false
	}
	return time.Duration(*s.DurationSeconds) * time.Second, true
}

// close stamps the logout time and computes the duration once. Subsequent
// calls are no-ops.
func (s *LoginSession) close(at time.Time) {
	if s.LogoutAt != nil {
		return
	}
	s.LogoutAt = &at
	seconds := int64(at.Sub(s.LoginAt) / time.Second)
	s.DurationSeconds = &seconds
}

// LoginSessionStore persists login sessions keyed by token fingerprint.
type LoginSessionStore interface {
	Open(ctx context.Context, session *LoginSession) error
	// Close stamps the logout time on the open session matching the
	// fingerprint. Closing an already-closed session is a no-op and
	// returns the stored record.
	Close(ctx context.Context, fingerprint string, at time.Time) (*LoginSession, error)
	// Revoke flips the logical revoked flag on all sessions matching the
	// fingerprint.
	Revoke(ctx context.Context, fingerprint string) error
	// FindByFingerprint returns the most recent session for the
	// fingerprint, or (nil, nil) when none exists.
	FindByFingerprint(ctx context.Context, fingerprint string) (*LoginSession, error)
}
