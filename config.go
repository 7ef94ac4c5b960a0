package guard

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// SimpleConfig is a concrete Config for services that load guard settings
// from their own configuration layer. The signing secret and both lifetimes
// must come from deployment configuration: there is no production-safe
// default for any of them.
type SimpleConfig struct {
	SigningKey             string   `json:"signing_key" yaml:"signing_key"`
	SigningMethod          string   `json:"signing_method" yaml:"signing_method"`
	AuthScheme             string   `json:"auth_scheme" yaml:"auth_scheme"`
	ContextKey             string   `json:"context_key" yaml:"context_key"`
	TokenExpiration        int      `json:"token_expiration" yaml:"token_expiration"`
	RefreshTokenExpiration int      `json:"refresh_token_expiration" yaml:"refresh_token_expiration"`
	Issuer                 string   `json:"issuer" yaml:"issuer"`
	Audience               []string `json:"audience" yaml:"audience"`
}

var _ Config = SimpleConfig{}

func (c SimpleConfig) GetSigningKey() string    { return c.SigningKey }
func (c SimpleConfig) GetSigningMethod() string { return c.SigningMethod }

func (c SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return defaultAuthScheme
	}
	return c.AuthScheme
}

func (c SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return DefaultContextKey
	}
	return c.ContextKey
}

// GetTokenExpiration returns the default validity window in hours.
func (c SimpleConfig) GetTokenExpiration() int { return c.TokenExpiration }

// GetRefreshTokenExpiration returns the refresh validity window in hours.
func (c SimpleConfig) GetRefreshTokenExpiration() int { return c.RefreshTokenExpiration }

func (c SimpleConfig) GetIssuer() string     { return c.Issuer }
func (c SimpleConfig) GetAudience() []string { return c.Audience }

// Validate enforces the configuration invariants: a real secret, positive
// lifetimes, and a refresh window at least as long as the default window.
func (c SimpleConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.TokenExpiration, validation.Required, validation.Min(1)),
		validation.Field(&c.RefreshTokenExpiration, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return err
	}

	if c.RefreshTokenExpiration < c.TokenExpiration {
		return errors.New(
			"refresh token expiration must not be shorter than the default expiration",
			errors.CategoryValidation,
		)
	}

	return nil
}
