package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	auth "github.com/starthub/go-auth"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    user_role TEXT NOT NULL,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT,
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    is_locked BOOLEAN NOT NULL DEFAULT FALSE,
    login_attempts INTEGER NOT NULL DEFAULT 0,
    login_attempt_at TIMESTAMP NULL,
    loggedin_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

	sqliteCreateOneTimeTokens = `CREATE TABLE one_time_tokens (
    id TEXT NOT NULL PRIMARY KEY,
    token TEXT NOT NULL UNIQUE,
    purpose TEXT NOT NULL,
    user_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    consumed_at TIMESTAMP NULL,
    FOREIGN KEY (user_id) REFERENCES users (id)
);`
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec(sqliteCreateUsers)
	require.NoError(t, err)
	_, err = db.Exec(sqliteCreateOneTimeTokens)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func seedUser(t *testing.T, db *bun.DB, user *auth.User) *auth.User {
	t.Helper()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = auth.RoleMember
	}
	if user.Username == "" {
		user.Username = "user-" + user.ID.String()[:8]
	}
	if user.Email == "" {
		user.Email = user.Username + "@example.com"
	}

	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	return user
}

var (
	testKeyOnce sync.Once
	testRSAKey  *rsa.PrivateKey
	testKeyErr  error
)

// testKeys returns KeyMaterial backed by a process wide RSA key, generated
// once because key generation dominates test runtime otherwise.
func testKeys(t *testing.T) *auth.KeyMaterial {
	t.Helper()

	testKeyOnce.Do(func() {
		testRSAKey, testKeyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, testKeyErr)

	return auth.NewKeyMaterial(testRSAKey)
}

const testPassword = "correct-horse-battery"

var (
	testHashOnce sync.Once
	testHash     string
	testHashErr  error
)

// testPasswordHash hashes testPassword exactly once per run; bcrypt at the
// production cost factor is too slow to repeat in every subtest.
func testPasswordHash(t *testing.T) string {
	t.Helper()

	testHashOnce.Do(func() {
		testHash, testHashErr = auth.HashPassword(testPassword)
	})
	require.NoError(t, testHashErr)

	return testHash
}

func testConfig() *auth.SimpleConfig {
	return &auth.SimpleConfig{
		Issuer:               "starthub-test",
		Audience:             []string{"starthub-api"},
		ConfirmationTokenTTL: 15 * time.Minute,
		PasswordResetTTL:     time.Hour,
		BaseURL:              "https://app.example.com",
	}
}
