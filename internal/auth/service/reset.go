package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kingjoy7/CharityPulse/internal/auth/store"
	"github.com/Kingjoy7/CharityPulse/pkg/cryptox"
	"github.com/Kingjoy7/CharityPulse/pkg/slogx"
)

// DefaultResetTokenTTL is how long a password reset link stays valid.
const DefaultResetTokenTTL = time.Hour

var ErrInvalidResetToken = errors.New("reset token is invalid or has expired")

// PasswordResetService issues and consumes single-use password reset tokens.
// Only the SHA-256 fingerprint of a token is persisted; the raw token exists
// solely inside the emailed link.
type PasswordResetService struct {
	Store    store.Store
	TokenTTL time.Duration
	LinkBase string // e.g. "http://localhost:3000/reset-password"
}

// Request generates a reset token for the account, if one exists, and
// returns the raw token. Unknown emails return ("", nil) so callers can
// always answer with the same generic message. Requesting again supersedes
// any earlier token.
//
// There is no mail integration yet, so the link is written to the log.
func (s *PasswordResetService) Request(ctx context.Context, email string) (string, error) {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("password reset requested for unknown email", "email", email)
			return "", nil
		}
		return "", fmt.Errorf("failed to look up account: %w", err)
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize160)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	hash := cryptox.FingerprintToken(token)
	if err := s.Store.Accounts().SetResetToken(ctx, account.ID, hash, time.Now().Add(ttl)); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	resetLink := s.LinkBase + "/" + token
	log.Info("password reset link generated", "email", email, "user_id", account.ID)
	log.Info("mock email: password reset link", "to", email, "link", resetLink)

	return token, nil
}

// Confirm consumes a reset token and sets the new password. The token lookup
// is by fingerprint and excludes expired tokens, so invalid and expired look
// identical to the caller. The password update and token clearing land in one
// transaction.
func (s *PasswordResetService) Confirm(ctx context.Context, token, password string) error {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByResetTokenHash(ctx, cryptox.FingerprintToken(token), time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("password reset failed: token invalid or expired")
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().UpdatePasswordHash(ctx, account.ID, hash); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := tx.Accounts().ClearResetToken(ctx, account.ID); err != nil {
			return fmt.Errorf("failed to clear reset token: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("password reset", "user_id", account.ID)
	return nil
}
