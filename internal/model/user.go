package model

import "time"

// Account roles.  CLIENT books tables, RESTAURANT manages one venue and its
// bookings, ADMIN moderates reviews and sees the revenue dashboard.
const (
	RoleClient     = "CLIENT"
	RoleRestaurant = "RESTAURANT"
	RoleAdmin      = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  Handlers expose a reduced view; PasswordHash never leaves the
// repository and service layers.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  DisplayName  – name shown to the other side of a booking.
//  Role         – CLIENT, RESTAURANT or ADMIN.
//  IsActive     – whether the account may log in.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	DisplayName  string    // users.display_name
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Actor identifies who performs an operation.  It is built from the access
// token claims by the HTTP layer and from SystemActor for background jobs.
type Actor struct {
	UserID uint64
	Role   string
}

// SystemActor is used by background jobs such as the pending-booking sweeper.
var SystemActor = Actor{Role: "SYSTEM"}

// IsSystem reports whether a is the background actor.
func (a Actor) IsSystem() bool { return a.Role == SystemActor.Role && a.UserID == 0 }
