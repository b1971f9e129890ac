package model

import "time"

// User represents a student account as stored in the `users` table.  Each
// field corresponds to a column in the database.  The json tags are omitted
// here because these structs are primarily used internally by the
// repository layer; handlers define separate response types with
// appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  StudentID    – unique campus registration number; its shape depends on Year.
//  Year         – study year (1–4), drives the StudentID format rules.
//  Name         – display name.
//  Email        – unique campus email address.
//  Phone        – 10-digit contact number.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    StudentID    string    // users.student_id
    Year         int       // users.year
    Name         string    // users.name
    Email        string    // users.email
    Phone        string    // users.phone
    PasswordHash string    // users.password_hash
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user (student or admin) and contains
// metadata for expiry and revocation.  The plain token is not stored;
// only its SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  Role      – role the token was issued for (STUDENT or ADMIN).
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    Role      string     // refresh_tokens.role
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
