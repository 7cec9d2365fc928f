// Package models defines the server-side entities persisted in the store.
package models

import "time"

// User is an account. TokenVersion is bumped on logout and password change;
// bearer tokens carrying an older version are rejected.
type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	TokenVersion int64     `db:"token_version"`
	CreatedAt    time.Time `db:"created_at"`
}
