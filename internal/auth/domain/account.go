package domain

import "time"

// Account is the persisted user record. All mutation goes through the auth
// services; nothing else writes these fields.
type Account struct {
	ID           string
	Email        string // unique, stored case-sensitively
	PasswordHash string // argon2id encoded, never plaintext

	Role Role

	FailedLoginAttempts int
	LockoutUntil        *time.Time // login refused while set and in the future

	MFASecret  *string // TOTP secret (base32), present once setup has started
	MFAEnabled bool    // true only after a successful setup verification

	IsRevoked bool // one-way administrative kill switch

	ResetTokenHash   *string    // SHA-256 fingerprint of the reset token
	ResetTokenExpiry *time.Time // set iff ResetTokenHash is set

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reports whether the account is inside an active lockout window.
func (a *Account) Locked(now time.Time) bool {
	return a.LockoutUntil != nil && a.LockoutUntil.After(now)
}
