package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Kingjoy7/CharityPulse/internal/auth/domain"
)

type accountsRepo struct {
	db querier
}

const accountColumns = `id, email, password_hash, role, failed_login_attempts,
	lockout_until, mfa_secret, mfa_enabled, is_revoked,
	reset_token_hash, reset_token_expiry, created_at, updated_at`

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByResetTokenHash(
	ctx context.Context,
	hash string,
	now time.Time,
) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE reset_token_hash = ? AND reset_token_expiry > ?`, hash, now)
	return scanAccount(row)
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (
			id, email, password_hash, role, failed_login_attempts,
			lockout_until, mfa_secret, mfa_enabled, is_revoked,
			reset_token_hash, reset_token_expiry
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Email,
		a.PasswordHash,
		string(a.Role),
		a.FailedLoginAttempts,
		mapOptionalTime(a.LockoutUntil),
		mapOptionalString(a.MFASecret),
		a.MFAEnabled,
		a.IsRevoked,
		mapOptionalString(a.ResetTokenHash),
		mapOptionalTime(a.ResetTokenExpiry),
	)
	return mapConflict(err)
}

func (r *accountsRepo) UpdateLoginState(
	ctx context.Context,
	accountID string,
	attempts int,
	lockoutUntil *time.Time,
) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET failed_login_attempts = ?, lockout_until = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		attempts, mapOptionalTime(lockoutUntil), accountID)
	return requireRowAffected(res, err)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, accountID string, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newHash, accountID)
	return requireRowAffected(res, err)
}

func (r *accountsRepo) UpdateMFASecret(ctx context.Context, accountID string, secret string) error {
	// Storing a new secret always drops back to pending verification.
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET mfa_secret = ?, mfa_enabled = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		secret, accountID)
	return requireRowAffected(res, err)
}

func (r *accountsRepo) EnableMFA(ctx context.Context, accountID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET mfa_enabled = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		accountID)
	return requireRowAffected(res, err)
}

func (r *accountsRepo) Revoke(ctx context.Context, accountID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET is_revoked = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		accountID)
	return requireRowAffected(res, err)
}

func (r *accountsRepo) SetResetToken(
	ctx context.Context,
	accountID string,
	hash string,
	expires time.Time,
) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET reset_token_hash = ?, reset_token_expiry = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		hash, expires, accountID)
	return requireRowAffected(res, err)
}

func (r *accountsRepo) ClearResetToken(ctx context.Context, accountID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		accountID)
	return requireRowAffected(res, err)
}

func (r *accountsRepo) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (domain.Account, error) {
	var (
		a            domain.Account
		role         string
		lockoutUntil sql.NullTime
		mfaSecret    sql.NullString
		resetHash    sql.NullString
		resetExpiry  sql.NullTime
	)

	err := s.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&role,
		&a.FailedLoginAttempts,
		&lockoutUntil,
		&mfaSecret,
		&a.MFAEnabled,
		&a.IsRevoked,
		&resetHash,
		&resetExpiry,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.Role = domain.Role(role)
	a.LockoutUntil = mapNullTimePtr(lockoutUntil)
	a.MFASecret = mapNullStringPtr(mfaSecret)
	a.ResetTokenHash = mapNullStringPtr(resetHash)
	a.ResetTokenExpiry = mapNullTimePtr(resetExpiry)

	return a, nil
}
