package authgate

import (
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SigningKey pins a verification key and, optionally, the algorithm tokens
// must be signed with.
type SigningKey struct {
	JWTAlg string
	Key    any
}

// RemoteValidatorConfig configures a validator that verifies tokens against
// pinned keys or one or more JWK Set endpoints. Use it when the tokens on a
// deployment are minted by another service and the RSA public keys rotate
// out of band.
type RemoteValidatorConfig struct {
	SigningKey  SigningKey
	SigningKeys map[string]SigningKey
	JWKSetURLs  []string
	KeyFunc     jwt.Keyfunc
}

// remoteValidator implements TokenValidator on top of a jwt.Keyfunc.
type remoteValidator struct {
	keyFunc jwt.Keyfunc
}

// NewRemoteValidator builds a TokenValidator from the config. At least one
// of KeyFunc, JWKSetURLs, SigningKeys, or SigningKey must be set.
func NewRemoteValidator(cfg RemoteValidatorConfig) (TokenValidator, error) {
	keyFunc := cfg.KeyFunc

	if keyFunc == nil {
		if len(cfg.SigningKeys) > 0 || len(cfg.JWKSetURLs) > 0 {
			var givenKeys map[string]keyfunc.GivenKey
			if cfg.SigningKeys != nil {
				givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
				for kid, key := range cfg.SigningKeys {
					givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
						Algorithm: key.JWTAlg,
					})
				}
			}
			if len(cfg.JWKSetURLs) > 0 {
				var err error
				keyFunc, err = multiKeyfunc(givenKeys, cfg.JWKSetURLs)
				if err != nil {
					return nil, fmt.Errorf("failed to create keyfunc from JWK Set URL: %w", err)
				}
			} else {
				keyFunc = keyfunc.NewGiven(givenKeys).Keyfunc
			}
		} else if cfg.SigningKey.Key != nil {
			keyFunc = signingKeyFunc(cfg.SigningKey)
		} else {
			return nil, fmt.Errorf("remote validator requires one of: KeyFunc, JWKSetURLs, SigningKeys, SigningKey")
		}
	}

	return &remoteValidator{keyFunc: keyFunc}, nil
}

func (v *remoteValidator) Validate(tokenString string) (AuthClaims, error) {
	claims := &remoteClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	return claims, nil
}

// remoteClaims adapts externally minted tokens to the AuthClaims surface.
type remoteClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	UserRole string `json:"role,omitempty"`
}

func (c *remoteClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

func (c *remoteClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

func (c *remoteClaims) Role() string {
	return c.UserRole
}

func (c *remoteClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast on remote tokens only supports exact matching; hierarchy lives
// with the issuing service.
func (c *remoteClaims) IsAtLeast(minRole string) bool {
	return c.UserRole == minRole
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwtSetUrls []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwtSetUrls))
	for _, url := range jwtSetUrls {
		m[url] = opts
	}
	mopts := keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	}
	multi, err := keyfunc.GetMultiple(m, mopts)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got: missing json type", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}
