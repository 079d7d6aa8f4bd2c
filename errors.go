package auth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Stable machine readable codes. The HTTP layer maps these to status codes;
// programmatic clients switch on them instead of parsing messages.
const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeAccountInactive    = "ACCOUNT_INACTIVE"
	TextCodeAccountLocked      = "ACCOUNT_LOCKED"
	TextCodeUnauthorized       = "UNAUTHORIZED"
	TextCodeTokenNotFound      = "TOKEN_NOT_FOUND"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenAlreadyUsed   = "TOKEN_ALREADY_USED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeAlreadyActive      = "ACCOUNT_ALREADY_ACTIVE"
	TextCodeEmailTaken         = "EMAIL_TAKEN"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeTooManyAttempts    = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeUnavailable        = "STORAGE_UNAVAILABLE"
)

// Expected business outcomes. These are returned, never thrown: callers
// branch on them and the controller renders them with a stable text code.
var (
	// ErrInvalidCredentials covers both unknown identifier and bad password
	ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
				WithCode(goerrors.CodeUnauthorized).
				WithTextCode(TextCodeInvalidCredentials)

	// ErrAccountInactive rejects logins for accounts pending email confirmation
	ErrAccountInactive = goerrors.New("account is not active", goerrors.CategoryAuth).
				WithCode(goerrors.CodeUnauthorized).
				WithTextCode(TextCodeAccountInactive)

	// ErrAccountLocked rejects logins for locked accounts even with valid credentials
	ErrAccountLocked = goerrors.New("account is locked", goerrors.CategoryAuth).
				WithCode(goerrors.CodeUnauthorized).
				WithTextCode(TextCodeAccountLocked)

	// ErrUnauthorized is the uniform rejection for bad, missing, or expired bearer tokens
	ErrUnauthorized = goerrors.New("Unauthorized", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized).
			WithTextCode(TextCodeUnauthorized)

	// ErrTokenNotFound means no ledger entry matches the presented token string
	ErrTokenNotFound = goerrors.New("token not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound).
				WithTextCode(TextCodeTokenNotFound)

	// ErrTokenExpired means the ledger entry exists but its expiry has passed
	ErrTokenExpired = goerrors.New("token has expired", goerrors.CategoryValidation).
			WithTextCode(TextCodeTokenExpired)

	// ErrTokenAlreadyUsed means the ledger entry was consumed by an earlier claim
	ErrTokenAlreadyUsed = goerrors.New("token has already been used", goerrors.CategoryConflict).
				WithTextCode(TextCodeTokenAlreadyUsed)

	// ErrTokenMalformed covers bearer tokens that fail to parse or verify
	ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
				WithCode(goerrors.CodeUnauthorized).
				WithTextCode(TextCodeTokenMalformed)

	// ErrTokenExpiredAuth is the bearer token flavor of expiry, kept distinct
	// from the ledger's ErrTokenExpired so AuthGate rejections stay uniform
	ErrTokenExpiredAuth = goerrors.New("token is expired", goerrors.CategoryAuth).
				WithCode(goerrors.CodeUnauthorized).
				WithTextCode(TextCodeTokenExpired)

	// ErrAlreadyActive rejects re-registration of a confirmed account
	ErrAlreadyActive = goerrors.New("account is already active", goerrors.CategoryConflict).
				WithTextCode(TextCodeAlreadyActive)

	// ErrEmailTaken rejects registration with an email owned by an active account
	ErrEmailTaken = goerrors.New("email already taken", goerrors.CategoryConflict).
			WithTextCode(TextCodeEmailTaken)

	// ErrUserNotFound is the typed miss for user lookups in the flows
	ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithTextCode(TextCodeUserNotFound)

	// ErrTooManyLoginAttempts enforces the login cool down window
	ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
				WithTextCode(TextCodeTooManyAttempts)

	// ErrUnavailable surfaces storage connectivity faults. Callers decide
	// whether to retry; the core never does.
	ErrUnavailable = goerrors.New("storage unavailable", goerrors.CategoryOperation).
			WithTextCode(TextCodeUnavailable)
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToFindSession is the error when our request has no token
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT from the request
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty")

// ErrMismatchedHashAndPassword is returned when a password comparison fails
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")

// ErrSigningKeyUnavailable is returned when a verify-only KeyMaterial is asked to sign
var ErrSigningKeyUnavailable = errors.New("signing key unavailable")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// textCode extracts the stable code from a rich error, empty otherwise.
func textCode(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}
