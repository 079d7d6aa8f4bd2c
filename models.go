package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole string

const (
	// RoleGuest is a guest role (ie. view)
	RoleGuest UserRole = "guest"
	// RoleMember is a member (i.e. view, edit)
	RoleMember UserRole = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin UserRole = "admin"
	// RoleOwner is an owner role (i.e. view, edit, create, delete)
	RoleOwner UserRole = "owner"
)

// User is the user model. Active starts false and flips to true exactly once,
// when a confirmation token is claimed. Locked overrides everything: a locked
// account cannot log in regardless of credentials.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName      string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	Active         bool       `bun:"is_active" json:"is_active,omitempty"`
	Locked         bool       `bun:"is_locked" json:"is_locked,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// TokenPurpose scopes a ledger entry to the flow that issued it. A token
// issued for one purpose can never be claimed by another flow.
type TokenPurpose string

const (
	// PurposeConfirmation backs the registration email confirmation flow
	PurposeConfirmation TokenPurpose = "confirmation"
	// PurposePasswordReset backs the password recovery flow
	PurposePasswordReset TokenPurpose = "password_reset"
)

// OneTimeToken is a single-use, expiring ledger entry. The opaque Token
// string is both the lookup key and the sole credential needed to claim the
// entry. Entries transition pending -> consumed at most once; they are never
// deleted here, expiry cleanup is a housekeeping job outside this package.
type OneTimeToken struct {
	bun.BaseModel `bun:"table:one_time_tokens,alias:ott"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string       `bun:"token,notnull,unique" json:"-"`
	Purpose       TokenPurpose `bun:"purpose,notnull" json:"purpose,omitempty"`
	UserID        uuid.UUID    `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User        `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt     time.Time    `bun:"created_at,notnull" json:"created_at,omitempty"`
	ExpiresAt     time.Time    `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	ConsumedAt    *time.Time   `bun:"consumed_at,nullzero" json:"consumed_at,omitempty"`
}

// Consumed reports whether the entry has been claimed.
func (t *OneTimeToken) Consumed() bool {
	return t.ConsumedAt != nil
}

// Expired reports whether the entry's expiry has passed at the given time.
func (t *OneTimeToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// Identity surface for User

// PrincipalID returns the string form of the user id
func (u *User) PrincipalID() string {
	return u.ID.String()
}

// userIdentity adapts a User record to the Identity interface without
// exposing the persistence shape to security code.
type userIdentity struct {
	user *User
}

// AsIdentity wraps a user record as a security principal.
func AsIdentity(u *User) Identity {
	return userIdentity{user: u}
}

func (i userIdentity) ID() string       { return i.user.ID.String() }
func (i userIdentity) Username() string { return i.user.Username }
func (i userIdentity) Email() string    { return i.user.Email }
func (i userIdentity) Role() string     { return string(i.user.Role) }
func (i userIdentity) IsActive() bool   { return i.user.Active }
func (i userIdentity) IsLocked() bool   { return i.user.Locked }
