// Package models defines server-side data models shared by repositories,
// services and transport.
package models

import "time"

// User is an account known to the gateway. The password hash is only ever
// compared, never returned to callers.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
