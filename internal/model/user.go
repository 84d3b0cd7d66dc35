package model

import "time"

// Account states.  An account moves UNVERIFIED -> EMAIL_VERIFIED ->
// REGISTERED and only a REGISTERED account can sign in.
const (
	StatusUnverified    = "UNVERIFIED"
	StatusEmailVerified = "EMAIL_VERIFIED"
	StatusRegistered    = "REGISTERED"
)

// User represents an account record as stored in the `users` table.  The
// json tags are omitted because handlers define their own response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique display name; empty until registration completes.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash; empty until registration completes.
//  Status       – one of the Status* constants.
//  OTPHash      – SHA‑256 hex of the pending one-time code, empty when none.
//  OTPExpiresAt – expiry of the pending code (nil when none).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64     // users.id
	Username     string     // users.username (nullable)
	Email        string     // users.email
	PasswordHash string     // users.password_hash (nullable)
	Status       string     // users.status
	OTPHash      string     // users.otp_hash (nullable)
	OTPExpiresAt *time.Time // users.otp_expires_at (nullable)
	IsActive     bool       // users.is_active
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// Registered reports whether the account finished signup.
func (u User) Registered() bool { return u.Status == StatusRegistered }

// DisplayName is the name shown next to reviews: the username, or the email
// for accounts that never picked one.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
