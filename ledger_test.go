package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	auth "github.com/starthub/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpaqueToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		token, err := auth.NewOpaqueToken()
		require.NoError(t, err)
		require.NotEmpty(t, token)

		assert.False(t, seen[token], "tokens must be unique")
		seen[token] = true

		assert.False(t, strings.ContainsAny(token, "+/="), "token must be URL safe")
	}
}

func TestTokenLedgerIssueAndClaim(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	ledger := auth.NewTokenLedger(db)

	user := seedUser(t, db, &auth.User{})

	t.Run("issue persists a pending entry", func(t *testing.T) {
		entry, err := ledger.Issue(ctx, user.ID, auth.PurposeConfirmation, time.Hour)
		require.NoError(t, err)

		assert.NotEmpty(t, entry.Token)
		assert.Equal(t, user.ID, entry.UserID)
		assert.Equal(t, auth.PurposeConfirmation, entry.Purpose)
		assert.False(t, entry.Consumed())
		assert.True(t, entry.ExpiresAt.After(entry.CreatedAt))
	})

	t.Run("claim consumes the entry once", func(t *testing.T) {
		entry, err := ledger.Issue(ctx, user.ID, auth.PurposeConfirmation, time.Hour)
		require.NoError(t, err)

		claimed, err := ledger.Claim(ctx, entry.Token, auth.PurposeConfirmation, time.Now())
		require.NoError(t, err)
		assert.Equal(t, user.ID, claimed.UserID)
		assert.True(t, claimed.Consumed())

		_, err = ledger.Claim(ctx, entry.Token, auth.PurposeConfirmation, time.Now())
		require.ErrorIs(t, err, auth.ErrTokenAlreadyUsed)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := ledger.Claim(ctx, "no-such-token", auth.PurposeConfirmation, time.Now())
		require.ErrorIs(t, err, auth.ErrTokenNotFound)
	})

	t.Run("purpose scoping", func(t *testing.T) {
		entry, err := ledger.Issue(ctx, user.ID, auth.PurposePasswordReset, time.Hour)
		require.NoError(t, err)

		_, err = ledger.Claim(ctx, entry.Token, auth.PurposeConfirmation, time.Now())
		require.ErrorIs(t, err, auth.ErrTokenNotFound)

		// still claimable by the purpose it was issued for
		_, err = ledger.Claim(ctx, entry.Token, auth.PurposePasswordReset, time.Now())
		require.NoError(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		entry, err := ledger.Issue(ctx, user.ID, auth.PurposeConfirmation, time.Minute)
		require.NoError(t, err)

		_, err = ledger.Claim(ctx, entry.Token, auth.PurposeConfirmation, time.Now().Add(time.Hour))
		require.ErrorIs(t, err, auth.ErrTokenExpired)

		// an expired entry stays expired, it never becomes "used"
		_, err = ledger.Claim(ctx, entry.Token, auth.PurposeConfirmation, time.Now().Add(2*time.Hour))
		require.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("get does not consume", func(t *testing.T) {
		entry, err := ledger.Issue(ctx, user.ID, auth.PurposeConfirmation, time.Hour)
		require.NoError(t, err)

		got, err := ledger.Get(ctx, entry.Token, auth.PurposeConfirmation)
		require.NoError(t, err)
		assert.False(t, got.Consumed())

		_, err = ledger.Claim(ctx, entry.Token, auth.PurposeConfirmation, time.Now())
		require.NoError(t, err)
	})
}

func TestTokenLedgerPinnedClock(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := auth.NewTokenLedger(db).WithNow(func() time.Time { return issuedAt })

	user := seedUser(t, db, &auth.User{})

	entry, err := ledger.Issue(ctx, user.ID, auth.PurposePasswordReset, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(30*time.Minute), entry.ExpiresAt)

	// a zero claim time falls back to the ledger clock
	claimed, err := ledger.Claim(ctx, entry.Token, auth.PurposePasswordReset, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, claimed.ConsumedAt)
}

func TestTokenLedgerConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	ledger := auth.NewTokenLedger(db)

	user := seedUser(t, db, &auth.User{})

	entry, err := ledger.Issue(ctx, user.ID, auth.PurposeConfirmation, time.Hour)
	require.NoError(t, err)

	const claimers = 16

	var wg sync.WaitGroup
	results := make(chan error, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Claim(ctx, entry.Token, auth.PurposeConfirmation, time.Now())
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	wins, losses := 0, 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		losses++
		assert.ErrorIs(t, err, auth.ErrTokenAlreadyUsed)
	}

	assert.Equal(t, 1, wins, "exactly one concurrent claim may succeed")
	assert.Equal(t, claimers-1, losses)
}

func TestTokenLedgerMultipleOutstandingTokens(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	ledger := auth.NewTokenLedger(db)

	user := seedUser(t, db, &auth.User{})

	first, err := ledger.Issue(ctx, user.ID, auth.PurposePasswordReset, time.Hour)
	require.NoError(t, err)
	second, err := ledger.Issue(ctx, user.ID, auth.PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	require.NotEqual(t, first.Token, second.Token)

	// issuing a new token does not invalidate the older one
	_, err = ledger.Claim(ctx, first.Token, auth.PurposePasswordReset, time.Now())
	require.NoError(t, err)
	_, err = ledger.Claim(ctx, second.Token, auth.PurposePasswordReset, time.Now())
	require.NoError(t, err)
}
