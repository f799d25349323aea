// Package principals holds the principal (user account) model and the
// session-store contract the auth workflow runs against, together with the
// postgres and in-memory implementations.
package principals

import "time"

// Principal is the stored account record. PasswordHash is always a hash,
// never plaintext. RefreshTokenHash holds the digest of the currently valid
// refresh token; empty means no active session. Neither field may ever be
// returned across the service boundary.
type Principal struct {
	ID               string
	Email            string
	Name             string
	Phone            string
	PasswordHash     string
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProfileUpdate carries the mutable profile fields; nil means "leave as is".
type ProfileUpdate struct {
	Name  *string
	Phone *string
}
