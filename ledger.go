package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// opaqueTokenBytes sizes the random token at 256 bits, comfortably above the
// brute force floor for a value that is both lookup key and credential.
const opaqueTokenBytes = 32

// NewOpaqueToken returns a cryptographically random, URL safe token string.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate random token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// TokenLedger is the single-use expiring token store shared by the
// confirmation and password reset flows. Claiming is a single conditional
// update at the storage layer, so at most one caller ever observes success
// for a given token string no matter how many claim it concurrently.
type TokenLedger struct {
	db     bun.IDB
	logger Logger
	now    func() time.Time
}

// NewTokenLedger creates a ledger on top of a bun database handle.
func NewTokenLedger(db bun.IDB) *TokenLedger {
	return &TokenLedger{
		db:     db,
		logger: defLogger{},
		now:    time.Now,
	}
}

// WithLogger overrides the ledger logger.
func (l *TokenLedger) WithLogger(logger Logger) *TokenLedger {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithNow overrides the ledger clock, used by tests.
func (l *TokenLedger) WithNow(now func() time.Time) *TokenLedger {
	if now != nil {
		l.now = now
	}
	return l
}

// Issue generates a fresh entry for the user and persists it.
func (l *TokenLedger) Issue(ctx context.Context, userID uuid.UUID, purpose TokenPurpose, ttl time.Duration) (*OneTimeToken, error) {
	return l.IssueTx(ctx, l.db, userID, purpose, ttl)
}

// IssueTx is Issue inside an existing transaction.
func (l *TokenLedger) IssueTx(ctx context.Context, idb bun.IDB, userID uuid.UUID, purpose TokenPurpose, ttl time.Duration) (*OneTimeToken, error) {
	token, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := l.now()
	entry := &OneTimeToken{
		ID:        uuid.New(),
		Token:     token,
		Purpose:   purpose,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if _, err := idb.NewInsert().Model(entry).Exec(ctx); err != nil {
		return nil, storageError(err, "failed to persist one-time token")
	}

	return entry, nil
}

// Claim looks up the entry by token string and consumes it. Outcomes:
// ErrTokenNotFound when no entry matches, ErrTokenAlreadyUsed when it was
// consumed before, ErrTokenExpired when its expiry has passed, otherwise the
// now-consumed entry.
func (l *TokenLedger) Claim(ctx context.Context, tokenString string, purpose TokenPurpose, now time.Time) (*OneTimeToken, error) {
	return l.ClaimTx(ctx, l.db, tokenString, purpose, now)
}

// ClaimTx is Claim inside an existing transaction.
func (l *TokenLedger) ClaimTx(ctx context.Context, idb bun.IDB, tokenString string, purpose TokenPurpose, now time.Time) (*OneTimeToken, error) {
	if now.IsZero() {
		now = l.now()
	}

	// The consumed check and the write are one statement on purpose: two
	// concurrent claims must not both see consumed_at IS NULL.
	res, err := idb.NewUpdate().
		Model((*OneTimeToken)(nil)).
		Set("consumed_at = ?", now).
		Where("token = ?", tokenString).
		Where("purpose = ?", purpose).
		Where("consumed_at IS NULL").
		Where("expires_at > ?", now).
		Exec(ctx)
	if err != nil {
		return nil, storageError(err, "failed to claim one-time token")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, storageError(err, "failed to read claim result")
	}

	if rows == 1 {
		entry := new(OneTimeToken)
		err := idb.NewSelect().
			Model(entry).
			Where("token = ?", tokenString).
			Where("purpose = ?", purpose).
			Scan(ctx)
		if err != nil {
			return nil, storageError(err, "failed to load claimed token")
		}
		return entry, nil
	}

	return nil, l.classifyFailedClaim(ctx, idb, tokenString, purpose, now)
}

// classifyFailedClaim turns a zero-row claim into the right typed error.
func (l *TokenLedger) classifyFailedClaim(ctx context.Context, idb bun.IDB, tokenString string, purpose TokenPurpose, now time.Time) error {
	entry := new(OneTimeToken)
	err := idb.NewSelect().
		Model(entry).
		Where("token = ?", tokenString).
		Where("purpose = ?", purpose).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTokenNotFound
		}
		return storageError(err, "failed to inspect one-time token")
	}

	if entry.Consumed() {
		return ErrTokenAlreadyUsed
	}

	if entry.Expired(now) {
		return ErrTokenExpired
	}

	// The update matched nothing yet the row looks claimable: a concurrent
	// claim holds the row and will commit consumed_at. Report it as used.
	return ErrTokenAlreadyUsed
}

// Get fetches an entry without consuming it, mostly useful for the
// verification screens that show token state before the user commits.
func (l *TokenLedger) Get(ctx context.Context, tokenString string, purpose TokenPurpose) (*OneTimeToken, error) {
	entry := new(OneTimeToken)
	err := l.db.NewSelect().
		Model(entry).
		Where("token = ?", tokenString).
		Where("purpose = ?", purpose).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, storageError(err, "failed to load one-time token")
	}

	return entry, nil
}

// storageError wraps a driver fault as the Unavailable condition so callers
// can tell infrastructure problems apart from business outcomes.
func storageError(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, msg).
		WithTextCode(TextCodeUnavailable)
}
