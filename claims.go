package guard

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the verified content of a session token. Claims are
// limited to the registered set: no role or permission data is embedded, so
// role changes take effect on the next directory lookup instead of waiting
// for token expiry.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SubjectID returns the subject the token was issued to.
func (c *SessionClaims) SubjectID() string {
	return c.RegisteredClaims.Subject
}

// IssuedTime returns the issued at time
func (c *SessionClaims) IssuedTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ExpiryTime returns the expiration time
func (c *SessionClaims) ExpiryTime() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// TokenID returns the jti claim.
func (c *SessionClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
