package store

import (
	"context"
	"errors"
	"time"

	"github.com/Kingjoy7/CharityPulse/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. The account store is the single source of truth; every
// mutation is read-modify-write against one record and last write wins,
// which is acceptable here because the worst case is a slightly inaccurate
// failed-attempt counter, never an authorization bypass.
type Store interface {
	Accounts() Accounts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back when fn
	// returns an error and committing otherwise. Use it for multi-step
	// mutations that must land together (e.g. reset-token consumption).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail is used during login and registration. The match
	// is case-sensitive, exactly as stored.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetAccountByResetTokenHash returns the account holding a reset token
	// with the given fingerprint whose expiry is after now.
	GetAccountByResetTokenHash(ctx context.Context, hash string, now time.Time) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdateLoginState persists the failed-attempt counter and lockout
	// window after a login attempt.
	UpdateLoginState(ctx context.Context, accountID string, attempts int, lockoutUntil *time.Time) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, accountID string, newHash string) error

	// UpdateMFASecret stores a fresh TOTP secret and clears the enabled
	// flag; a stale pending secret is silently discarded.
	UpdateMFASecret(ctx context.Context, accountID string, secret string) error

	// EnableMFA marks MFA as enabled after successful verification.
	EnableMFA(ctx context.Context, accountID string) error

	// Revoke flips the one-way revocation flag. Like all account updates
	// it returns ErrNotFound for an unknown id.
	Revoke(ctx context.Context, accountID string) error

	// SetResetToken records a reset-token fingerprint and expiry,
	// superseding any pending token.
	SetResetToken(ctx context.Context, accountID string, hash string, expires time.Time) error

	// ClearResetToken removes both reset-token fields together.
	ClearResetToken(ctx context.Context, accountID string) error

	// ListAccounts returns all accounts, newest first.
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}
