package model

import "time"

// User represents an application user record as stored in the
// `users` table.  The json tags are omitted because these structs are
// used by the repository and service layers; handlers define their own
// response shapes so the password hash never leaves the process.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt hashed password.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}
