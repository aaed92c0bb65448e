package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"

	"github.com/Kingjoy7/CharityPulse/internal/auth/domain"
	"github.com/Kingjoy7/CharityPulse/internal/auth/store"
	"github.com/Kingjoy7/CharityPulse/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidTOTPCode = errors.New("invalid TOTP code")
	ErrMFANotSetup     = errors.New("MFA not set up for this user")
)

type MFAService struct {
	Store  store.Store
	Issuer string // Issuer name for TOTP (e.g., "CharityPulse")
}

// Setup generates a fresh TOTP secret for the user and returns it with the
// otpauth URL and a QR code. This does NOT enable MFA yet; the user must
// verify a code first. Calling it again replaces any pending secret and
// drops the enabled flag, so a lost authenticator can be re-enrolled.
func (s *MFAService) Setup(ctx context.Context, userID string) (domain.MFASetup, error) {
	account, err := s.Store.Accounts().GetAccountByID(ctx, userID)
	if err != nil {
		return domain.MFASetup{}, fmt.Errorf("failed to get account: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: account.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFASetup{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if err := s.Store.Accounts().UpdateMFASecret(ctx, userID, key.Secret()); err != nil {
		return domain.MFASetup{}, fmt.Errorf("failed to store MFA secret: %w", err)
	}

	qrCode, err := renderQRDataURL(key)
	if err != nil {
		return domain.MFASetup{}, err
	}

	return domain.MFASetup{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     qrCode,
	}, nil
}

// Verify checks a TOTP code against the pending secret and enables MFA on
// success. Returns ErrMFANotSetup when Setup was never called.
func (s *MFAService) Verify(ctx context.Context, userID, code string) error {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	if account.MFASecret == nil || *account.MFASecret == "" {
		return ErrMFANotSetup
	}

	if !totp.Validate(code, *account.MFASecret) {
		log.Warn("MFA verification failed", "user_id", account.ID)
		return ErrInvalidTOTPCode
	}

	if err := s.Store.Accounts().EnableMFA(ctx, userID); err != nil {
		return fmt.Errorf("failed to enable MFA: %w", err)
	}

	log.Info("MFA enabled", "user_id", account.ID)
	return nil
}

func renderQRDataURL(key *otp.Key) (string, error) {
	img, err := key.Image(200, 200)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
