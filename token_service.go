package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	tokenTTL   time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

// TokenServiceOption customizes token service construction.
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// WithTokenLogger overrides the default logger.
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService instance. Expirations come from
// configuration: the default window backs Issue (login), the refresh window
// backs Refresh (explicit session extension, never implicit).
func NewTokenService(cfg Config, opts ...TokenServiceOption) TokenService {
	ts := &TokenServiceImpl{
		signingKey: []byte(cfg.GetSigningKey()),
		tokenTTL:   time.Duration(cfg.GetTokenExpiration()) * time.Hour,
		refreshTTL: time.Duration(cfg.GetRefreshTokenExpiration()) * time.Hour,
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	// only HMAC-SHA256 is supported; anything else in config is a mistake
	if method := cfg.GetSigningMethod(); method != "" && method != jwt.SigningMethodHS256.Alg() {
		ts.logger.Warn("TokenService ignoring unsupported signing method, using HS256", "method", method)
	}

	return ts
}

// Issue signs a token with the default validity window.
func (ts *TokenServiceImpl) Issue(subjectID string) (string, error) {
	return ts.sign(subjectID, ts.tokenTTL)
}

// Refresh signs a token with the longer refresh window.
func (ts *TokenServiceImpl) Refresh(subjectID string) (string, error) {
	return ts.sign(subjectID, ts.refreshTTL)
}

func (ts *TokenServiceImpl) sign(subjectID string, ttl time.Duration) (string, error) {
	if subjectID == "" {
		return "", errors.New("subject id must not be empty", errors.CategoryBadInput)
	}
	// ttl > 0 keeps the expires-at > issued-at invariant
	if ttl <= 0 {
		return "", errors.New("token TTL must be positive", errors.CategoryBadInput)
	}

	now := ts.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subjectID,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}

	return signedString, nil
}

// Verify parses and validates a raw token string. Expiry is checked exactly
// once, inside the parser, so there is a single source of truth for the
// clock. Failures map onto the structured errors ErrTokenExpired,
// ErrSignatureInvalid, and ErrTokenMalformed.
func (ts *TokenServiceImpl) Verify(raw string) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 3)
	parserOptions = append(parserOptions, jwt.WithTimeFunc(ts.now))
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrSignatureInvalid
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(errors.CodeUnauthorized)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService verify could not decode claims")
	return nil, ErrTokenMalformed
}

// Fingerprint derives a stable identifier for a raw token so login sessions
// can reference it without storing the credential itself.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
