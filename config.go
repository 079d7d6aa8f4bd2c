package auth

import "time"

// SimpleConfig is a plain struct implementation of Config with working
// defaults. Zero values fall back to the documented defaults, so a literal
// with just the key paths set is a usable configuration.
type SimpleConfig struct {
	PrivateKeyPath       string
	PublicKeyPath        string
	SigningMethod        string
	ContextKey           string
	TokenExpiration      int
	TokenLookup          string
	AuthScheme           string
	Issuer               string
	Audience             []string
	ConfirmationTokenTTL time.Duration
	PasswordResetTTL     time.Duration
	PublicRoutes         []string
	BaseURL              string
	MaskRecoveryNotFound bool
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetPrivateKeyPath() string {
	if c.PrivateKeyPath == "" {
		return "certs/private.pem"
	}
	return c.PrivateKeyPath
}

func (c *SimpleConfig) GetPublicKeyPath() string {
	if c.PublicKeyPath == "" {
		return "certs/public.pem"
	}
	return c.PublicKeyPath
}

func (c *SimpleConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "RS256"
	}
	return c.SigningMethod
}

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c *SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return 1
	}
	return c.TokenExpiration
}

func (c *SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}

func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *SimpleConfig) GetIssuer() string {
	return c.Issuer
}

func (c *SimpleConfig) GetAudience() []string {
	return c.Audience
}

func (c *SimpleConfig) GetConfirmationTokenTTL() time.Duration {
	if c.ConfirmationTokenTTL <= 0 {
		return 15 * time.Minute
	}
	return c.ConfirmationTokenTTL
}

func (c *SimpleConfig) GetPasswordResetTokenTTL() time.Duration {
	if c.PasswordResetTTL <= 0 {
		return 24 * time.Hour
	}
	return c.PasswordResetTTL
}

func (c *SimpleConfig) GetPublicRoutes() []string {
	return c.PublicRoutes
}

func (c *SimpleConfig) GetBaseURL() string {
	if c.BaseURL == "" {
		return "http://localhost:3000"
	}
	return c.BaseURL
}

func (c *SimpleConfig) GetMaskRecoveryNotFound() bool {
	return c.MaskRecoveryNotFound
}
