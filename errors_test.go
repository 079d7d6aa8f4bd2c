package auth_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/starthub/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorShape(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category any
		textCode string
	}{
		{
			name:     "invalid credentials",
			err:      auth.ErrInvalidCredentials,
			category: goerrors.CategoryAuth,
			textCode: auth.TextCodeInvalidCredentials,
		},
		{
			name:     "account inactive",
			err:      auth.ErrAccountInactive,
			category: goerrors.CategoryAuth,
			textCode: auth.TextCodeAccountInactive,
		},
		{
			name:     "account locked",
			err:      auth.ErrAccountLocked,
			category: goerrors.CategoryAuth,
			textCode: auth.TextCodeAccountLocked,
		},
		{
			name:     "token not found",
			err:      auth.ErrTokenNotFound,
			category: goerrors.CategoryNotFound,
			textCode: auth.TextCodeTokenNotFound,
		},
		{
			name:     "token expired",
			err:      auth.ErrTokenExpired,
			category: goerrors.CategoryValidation,
			textCode: auth.TextCodeTokenExpired,
		},
		{
			name:     "token already used",
			err:      auth.ErrTokenAlreadyUsed,
			category: goerrors.CategoryConflict,
			textCode: auth.TextCodeTokenAlreadyUsed,
		},
		{
			name:     "email taken",
			err:      auth.ErrEmailTaken,
			category: goerrors.CategoryConflict,
			textCode: auth.TextCodeEmailTaken,
		},
		{
			name:     "too many login attempts",
			err:      auth.ErrTooManyLoginAttempts,
			category: goerrors.CategoryRateLimit,
			textCode: auth.TextCodeTooManyAttempts,
		},
		{
			name:     "storage unavailable",
			err:      auth.ErrUnavailable,
			category: goerrors.CategoryOperation,
			textCode: auth.TextCodeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var richErr *goerrors.Error
			require.True(t, goerrors.As(tt.err, &richErr))
			assert.Equal(t, tt.category, richErr.Category)
			assert.Equal(t, tt.textCode, richErr.TextCode)
		})
	}
}

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "structured token expired error",
			err:      auth.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "bearer token expired error",
			err:      auth.ErrTokenExpiredAuth,
			expected: true,
		},
		{
			name:     "legacy string match",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "different error",
			err:      auth.ErrIdentityNotFound,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "structured malformed error",
			err:      auth.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "missing or malformed JWT message",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "different error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsMalformedError(tt.err))
		})
	}
}
