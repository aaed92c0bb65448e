package http

import (
	"net/http"

	"github.com/Kingjoy7/CharityPulse/internal/auth/domain"
	"github.com/Kingjoy7/CharityPulse/internal/auth/store"
	"github.com/Kingjoy7/CharityPulse/pkg/httpx"
	"github.com/Kingjoy7/CharityPulse/pkg/slogx"
)

// RequireAdmin loads the caller's account and rejects anyone whose CURRENT
// stored role is not Admin. The role inside the token is deliberately not
// trusted here: a role change or revocation must bite without waiting for
// the token to expire. Must run after AuthnMiddleware.
func RequireAdmin(st store.Store) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			account, err := st.Accounts().GetAccountByID(ctx, httpx.UserIDFromCtx(ctx))
			if err != nil {
				log.Error("admin check failed to load account", "err", err)
				httpx.WriteMsg(w, http.StatusInternalServerError, "Server error")
				return
			}

			if account.Role != domain.RoleAdmin {
				log.Warn("admin access denied", "user_id", account.ID)
				httpx.WriteMsg(w, http.StatusForbidden, "Access denied. Admin role required.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
