package guard

import (
	stderrors "errors"

	"github.com/goliatone/go-errors"
)

// Machine-readable codes carried on every guard failure. Clients branch on
// these instead of parsing free-text messages: 401 codes mean "log in again",
// 403 codes mean "you don't have access".
const (
	TextCodeNoToken          = "NO_TOKEN"
	TextCodeInvalidFormat    = "INVALID_FORMAT"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeSignatureInvalid = "SIGNATURE_INVALID"
	TextCodeUserNotFound     = "USER_NOT_FOUND"
	TextCodeUserInactive     = "USER_INACTIVE"
	TextCodeInsufficientPerm = "INSUFFICIENT_PERMISSIONS"
	TextCodeAccessDenied     = "ACCESS_DENIED"
	TextCodeInternal         = "INTERNAL_ERROR"
)

// ErrNoToken is returned when the Authorization header is absent or does not
// carry the expected scheme.
var ErrNoToken = errors.New("authorization token missing", errors.CategoryAuth).
	WithTextCode(TextCodeNoToken).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for structurally invalid tokens.
var ErrTokenMalformed = errors.New("authorization token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidFormat).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned once current time exceeds the token expiry.
var ErrTokenExpired = errors.New("authorization token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrSignatureInvalid is returned when the token signature does not verify
// against the configured signing secret.
var ErrSignatureInvalid = errors.New("authorization token signature invalid", errors.CategoryAuth).
	WithTextCode(TextCodeSignatureInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned when a verified token references a subject the
// directory no longer knows about.
var ErrUserNotFound = errors.New("user not found", errors.CategoryAuth).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrUserInactive is returned for deactivated subjects. A cryptographically
// valid, unexpired token does not override the active flag.
var ErrUserInactive = errors.New("user account inactive", errors.CategoryAuth).
	WithTextCode(TextCodeUserInactive).
	WithCode(errors.CodeUnauthorized)

// ErrInsufficientPermissions is returned by role checks after successful
// authentication. Carries required/current role metadata.
var ErrInsufficientPermissions = errors.New("insufficient permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientPerm).
	WithCode(errors.CodeForbidden)

// ErrAccessDenied is returned by ownership checks after successful
// authentication.
var ErrAccessDenied = errors.New("access denied", errors.CategoryAuthz).
	WithTextCode(TextCodeAccessDenied).
	WithCode(errors.CodeForbidden)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = stderrors.New("identity not found")

// ErrMismatchedHashAndPassword is returned when credential verification fails
var ErrMismatchedHashAndPassword = stderrors.New("mismatched hash and password")

// ErrNoEmptyString rejects empty required string inputs
var ErrNoEmptyString = stderrors.New("value must not be an empty string")

// insufficientPermissions clones ErrInsufficientPermissions with the
// required/current role pair a client needs to render a useful message.
func insufficientPermissions(required, current UserRole) *errors.Error {
	clone := ErrInsufficientPermissions.Clone()
	if clone == nil {
		return ErrInsufficientPermissions
	}
	return clone.WithMetadata(map[string]any{
		"required": string(required),
		"current":  string(current),
	})
}

// GuardError extracts the structured error from any guard failure. Errors
// without a structured wrapper are treated as unexpected internal faults.
func GuardError(err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}
	return errors.Wrap(err, errors.CategoryInternal, "unexpected internal error").
		WithTextCode(TextCodeInternal).
		WithCode(errors.CodeInternal)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeTokenExpired
	}
	return false
}

// IsAuthorizationError reports whether err is a post-authentication policy
// failure (403) rather than an authentication failure (401).
func IsAuthorizationError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == errors.CategoryAuthz
}
