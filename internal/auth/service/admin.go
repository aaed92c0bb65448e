package service

import (
	"context"

	"github.com/Kingjoy7/CharityPulse/internal/auth/domain"
	"github.com/Kingjoy7/CharityPulse/internal/auth/store"
	"github.com/Kingjoy7/CharityPulse/pkg/slogx"
)

// AdminService exposes the administrative operations. RBAC is enforced by
// the HTTP layer; these methods assume the caller is already authorized.
type AdminService struct {
	Store store.Store
}

// ListAccounts returns all accounts, newest first.
func (s *AdminService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.Store.Accounts().ListAccounts(ctx)
}

// RevokeAccess flips the one-way revocation flag on the target account.
// Returns store.ErrNotFound for an unknown id. Tokens already issued to the
// target stay valid until they expire; revocation bites at the next login.
func (s *AdminService) RevokeAccess(ctx context.Context, adminID, targetID string) error {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.Store.Accounts().Revoke(ctx, account.ID); err != nil {
		return err
	}

	log.Info("admin revoked account access", "admin_id", adminID, "user_id", account.ID)
	return nil
}
