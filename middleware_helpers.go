package auth

import (
	"context"

	"github.com/starthub/go-auth/middleware/authgate"
)

// ValidationListener aliases the gate listener so consumers can use auth helpers directly.
type ValidationListener = authgate.ValidationListener

// ContextEnricherAdapter adapts authgate.AuthClaims to auth.AuthClaims and
// stores claims in the standard context for downstream usage.
func ContextEnricherAdapter(c context.Context, claims authgate.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	return WithClaimsContext(c, authClaims)
}

// NewSubjectResolver builds a resolver that confirms the token subject still
// maps to a live, active account. Tokens for deleted, deactivated, or locked
// users stop working at the gate even before they expire.
func NewSubjectResolver(provider IdentityProvider) authgate.SubjectResolver {
	return func(ctx context.Context, claims authgate.AuthClaims) error {
		identity, err := provider.FindIdentityByIdentifier(ctx, claims.UserID())
		if err != nil {
			return ErrUnauthorized
		}

		if identity == nil {
			return ErrUnauthorized
		}

		if identity.IsLocked() || !identity.IsActive() {
			return ErrUnauthorized
		}

		return nil
	}
}

// ProtectedRoutes wires the gate with this package's defaults: the token
// service as validator, config driven lookup and public routes, claims
// propagated to the standard context.
func ProtectedRoutes(ts TokenService, provider IdentityProvider, cfg Config) authgate.Config {
	return authgate.Config{
		TokenValidator:  claimsValidatorAdapter{ts},
		SubjectResolver: NewSubjectResolver(provider),
		PublicRoutes:    cfg.GetPublicRoutes(),
		ContextKey:      cfg.GetContextKey(),
		TokenLookup:     cfg.GetTokenLookup(),
		AuthScheme:      cfg.GetAuthScheme(),
		ContextEnricher: ContextEnricherAdapter,
	}
}

// RegisterValidationListeners appends listeners to a authgate.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *authgate.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}

// claimsValidatorAdapter bridges the auth validator to the gate's local
// interface so the packages stay decoupled.
type claimsValidatorAdapter struct {
	ts TokenService
}

func (a claimsValidatorAdapter) Validate(tokenString string) (authgate.AuthClaims, error) {
	claims, err := a.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
