package models

import "time"

// WhitelistEntry is a single allowed token. Exactly one of AccessToken and
// RefreshToken is set. Access entries carry RefreshTokenID pointing to the
// refresh entry they were issued with.
type WhitelistEntry struct {
	ID             string
	UserID         string
	UserEmail      string
	AccessToken    string
	RefreshToken   string
	RefreshTokenID string
	ExpiredAt      time.Time
	CreatedAt      time.Time
}

// IsAccess reports whether the entry holds an access token.
func (e *WhitelistEntry) IsAccess() bool {
	return e.AccessToken != ""
}

// Expired reports whether now is strictly past the entry expiry, matching
// the sweep condition expired_at < now.
func (e *WhitelistEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiredAt)
}

// TokenPair is returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
