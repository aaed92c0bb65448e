package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Kingjoy7/CharityPulse/internal/auth/service"
	"github.com/Kingjoy7/CharityPulse/pkg/httpx"
	"github.com/Kingjoy7/CharityPulse/pkg/slogx"
)

// MFAHandler handles TOTP enrollment for the authenticated user.
type MFAHandler struct {
	MFAService *service.MFAService
}

type mfaSetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
	QRCodeURL  string `json:"qrCodeUrl"`
}

// HandleSetup handles POST /v1/mfa/setup. Always generates a fresh secret;
// a previously enabled enrollment is discarded.
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	setup, err := h.MFAService.Setup(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		log.Error("MFA setup failed", "err", err)
		httpx.WriteMsg(w, http.StatusInternalServerError, "Server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, mfaSetupResponse{
		Secret:     setup.Secret,
		OTPAuthURL: setup.OTPAuthURL,
		QRCodeURL:  setup.QRCode,
	})
}

// HandleVerify handles POST /v1/mfa/verify, confirming the enrollment.
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMsg(w, http.StatusBadRequest, "Invalid token, verification failed")
		return
	}

	err := h.MFAService.Verify(ctx, httpx.UserIDFromCtx(ctx), req.Token)
	switch {
	case err == nil:
		httpx.WriteMsg(w, http.StatusOK, "MFA enabled successfully")
	case errors.Is(err, service.ErrMFANotSetup):
		httpx.WriteMsg(w, http.StatusBadRequest, "MFA not set up. Please set up first.")
	case errors.Is(err, service.ErrInvalidTOTPCode):
		httpx.WriteMsg(w, http.StatusBadRequest, "Invalid token, verification failed")
	default:
		log.Error("MFA verification failed", "err", err)
		httpx.WriteMsg(w, http.StatusInternalServerError, "Server error")
	}
}
