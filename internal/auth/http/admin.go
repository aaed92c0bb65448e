package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/Kingjoy7/CharityPulse/internal/auth/service"
	"github.com/Kingjoy7/CharityPulse/internal/auth/store"
	"github.com/Kingjoy7/CharityPulse/pkg/httpx"
	"github.com/Kingjoy7/CharityPulse/pkg/slogx"
)

// AdminHandler exposes the admin-only endpoints. RequireAdmin guards every
// route registered for it.
type AdminHandler struct {
	AdminService *service.AdminService
}

// accountSummary is the admin listing view. Credential material (password
// hash, MFA secret, reset token) never leaves the store layer.
type accountSummary struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	Role                string    `json:"role"`
	MFAEnabled          bool      `json:"mfaEnabled"`
	IsRevoked           bool      `json:"isRevoked"`
	FailedLoginAttempts int       `json:"failedLoginAttempts"`
	CreatedAt           time.Time `json:"createdAt"`
}

// HandleListUsers handles GET /v1/admin/users.
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accounts, err := h.AdminService.ListAccounts(ctx)
	if err != nil {
		log.Error("failed to list accounts", "err", err)
		httpx.WriteMsg(w, http.StatusInternalServerError, "Server error")
		return
	}

	summaries := make([]accountSummary, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, accountSummary{
			ID:                  a.ID,
			Email:               a.Email,
			Role:                a.Role.String(),
			MFAEnabled:          a.MFAEnabled,
			IsRevoked:           a.IsRevoked,
			FailedLoginAttempts: a.FailedLoginAttempts,
			CreatedAt:           a.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, summaries)
}

// HandleRevoke handles POST /v1/admin/users/{id}/revoke.
func (h *AdminHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	err := h.AdminService.RevokeAccess(ctx, httpx.UserIDFromCtx(ctx), r.PathValue("id"))
	switch {
	case err == nil:
		httpx.WriteMsg(w, http.StatusOK, "User access revoked")
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteMsg(w, http.StatusNotFound, "User not found")
	default:
		log.Error("failed to revoke access", "err", err)
		httpx.WriteMsg(w, http.StatusInternalServerError, "Server error")
	}
}
