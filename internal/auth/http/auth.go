package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Kingjoy7/CharityPulse/internal/auth/service"
	"github.com/Kingjoy7/CharityPulse/internal/auth/store"
	"github.com/Kingjoy7/CharityPulse/pkg/httpx"
	"github.com/Kingjoy7/CharityPulse/pkg/slogx"
)

// genericResetMsg is sent for every forgot-password request, found or not.
const genericResetMsg = "If an account with this email exists, a reset link has been sent."

// AuthHandler covers registration, both login steps and the password reset
// flow. All endpoints here are unauthenticated.
type AuthHandler struct {
	AuthService  *service.AuthService
	ResetService *service.PasswordResetService
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginTOTPRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type mfaChallengeResponse struct {
	MFARequired bool   `json:"mfaRequired"`
	UserID      string `json:"userId"`
}

// HandleRegister handles POST /v1/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMsg(w, http.StatusBadRequest, "Please enter all fields")
		return
	}

	result, err := h.AuthService.Register(ctx, req.Email, req.Password, req.Role)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusCreated, tokenResponse{Token: result.Token, Role: result.Role.String()})
	case errors.Is(err, service.ErrMissingFields):
		httpx.WriteMsg(w, http.StatusBadRequest, "Please enter all fields")
	case errors.Is(err, service.ErrInvalidRole):
		httpx.WriteMsg(w, http.StatusBadRequest, "Invalid role")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteMsg(w, http.StatusBadRequest, "User already exists")
	default:
		log.Error("registration failed", "err", err)
		httpx.WriteMsg(w, http.StatusInternalServerError, "Server error")
	}
}

// HandleLogin handles POST /v1/auth/login, the password step.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMsg(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	result, err := h.AuthService.Login(ctx, req.Email, req.Password)
	switch {
	case err == nil && result.MFARequired:
		httpx.WriteJSON(w, http.StatusOK, mfaChallengeResponse{MFARequired: true, UserID: result.UserID})
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, tokenResponse{Token: result.Token, Role: result.Role.String()})
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteMsg(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, service.ErrAccountRevoked):
		httpx.WriteMsg(w, http.StatusForbidden, "Your account access has been revoked.")
	case errors.Is(err, service.ErrAccountLocked):
		httpx.WriteMsg(w, http.StatusForbidden, "Account locked. Try again later.")
	default:
		log.Error("login failed", "err", err)
		httpx.WriteMsg(w, http.StatusInternalServerError, "Server error")
	}
}

// HandleLoginTOTP handles POST /v1/auth/login/2fa, the second login step for
// MFA-enabled accounts.
func (h *AuthHandler) HandleLoginTOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginTOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMsg(w, http.StatusBadRequest, "Invalid token, login failed")
		return
	}

	result, err := h.AuthService.LoginTOTP(ctx, req.UserID, req.Token)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, tokenResponse{Token: result.Token, Role: result.Role.String()})
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteMsg(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrInvalidTOTPCode):
		httpx.WriteMsg(w, http.StatusBadRequest, "Invalid token, login failed")
	default:
		log.Error("MFA login failed", "err", err)
		httpx.WriteMsg(w, http.StatusInternalServerError, "Server error")
	}
}

// HandleForgotPassword handles POST /v1/auth/forgot-password. The response
// is the same whether or not the email exists.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMsg(w, http.StatusOK, genericResetMsg)
		return
	}

	if _, err := h.ResetService.Request(ctx, req.Email); err != nil {
		log.Error("password reset request failed", "err", err)
		httpx.WriteMsg(w, http.StatusInternalServerError, "Server error")
		return
	}

	httpx.WriteMsg(w, http.StatusOK, genericResetMsg)
}

// HandleResetPassword handles POST /v1/auth/reset-password/{token}.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMsg(w, http.StatusBadRequest, "Password reset token is invalid or has expired.")
		return
	}

	err := h.ResetService.Confirm(ctx, r.PathValue("token"), req.Password)
	switch {
	case err == nil:
		httpx.WriteMsg(w, http.StatusOK, "Password has been reset successfully.")
	case errors.Is(err, service.ErrInvalidResetToken):
		httpx.WriteMsg(w, http.StatusBadRequest, "Password reset token is invalid or has expired.")
	default:
		log.Error("password reset failed", "err", err)
		httpx.WriteMsg(w, http.StatusInternalServerError, "Server error")
	}
}
