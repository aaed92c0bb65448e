package service

import (
	"context"
	"testing"
	"time"

	"github.com/Kingjoy7/CharityPulse/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email yields no token", func(t *testing.T) {
		st := newTestStore(t)
		reset := &PasswordResetService{Store: st, LinkBase: "http://localhost:3000/reset-password"}

		token, err := reset.Request(ctx, "nobody@example.com")
		require.NoError(t, err)
		require.Empty(t, token)
	})

	t.Run("full reset flow", func(t *testing.T) {
		st := newTestStore(t)
		auth := newTestAuthService(t, st)
		reset := &PasswordResetService{Store: st, LinkBase: "http://localhost:3000/reset-password"}

		_, err := auth.Register(ctx, "alice@example.com", "old-password", "")
		require.NoError(t, err)

		token, err := reset.Request(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		// Only the fingerprint is stored, never the raw token.
		account, err := st.Accounts().GetAccountByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, account.ResetTokenHash)
		require.NotEqual(t, token, *account.ResetTokenHash)
		require.Equal(t, cryptox.FingerprintToken(token), *account.ResetTokenHash)

		require.NoError(t, reset.Confirm(ctx, token, "new-password"))

		_, err = auth.Login(ctx, "alice@example.com", "old-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		result, err := auth.Login(ctx, "alice@example.com", "new-password")
		require.NoError(t, err)
		require.NotEmpty(t, result.Token)

		// Consuming the token clears it; a second use fails.
		err = reset.Confirm(ctx, token, "another-password")
		require.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("bogus token rejected", func(t *testing.T) {
		st := newTestStore(t)
		reset := &PasswordResetService{Store: st, LinkBase: "http://localhost:3000/reset-password"}

		err := reset.Confirm(ctx, "not-a-real-token", "new-password")
		require.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		st := newTestStore(t)
		auth := newTestAuthService(t, st)
		reset := &PasswordResetService{Store: st, LinkBase: "http://localhost:3000/reset-password"}

		_, err := auth.Register(ctx, "alice@example.com", "old-password", "")
		require.NoError(t, err)
		account, err := st.Accounts().GetAccountByEmail(ctx, "alice@example.com")
		require.NoError(t, err)

		token, err := cryptox.GenerateToken(cryptox.TokenSize160)
		require.NoError(t, err)
		expired := time.Now().Add(-time.Minute)
		require.NoError(t, st.Accounts().SetResetToken(ctx, account.ID, cryptox.FingerprintToken(token), expired))

		err = reset.Confirm(ctx, token, "new-password")
		require.ErrorIs(t, err, ErrInvalidResetToken)

		// The old password still works after a failed reset.
		_, err = auth.Login(ctx, "alice@example.com", "old-password")
		require.NoError(t, err)
	})

	t.Run("new request supersedes earlier token", func(t *testing.T) {
		st := newTestStore(t)
		auth := newTestAuthService(t, st)
		reset := &PasswordResetService{Store: st, LinkBase: "http://localhost:3000/reset-password"}

		_, err := auth.Register(ctx, "alice@example.com", "old-password", "")
		require.NoError(t, err)

		first, err := reset.Request(ctx, "alice@example.com")
		require.NoError(t, err)
		second, err := reset.Request(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		err = reset.Confirm(ctx, first, "new-password")
		require.ErrorIs(t, err, ErrInvalidResetToken)
		require.NoError(t, reset.Confirm(ctx, second, "new-password"))
	})
}
