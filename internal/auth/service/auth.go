package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kingjoy7/CharityPulse/internal/auth/domain"
	"github.com/Kingjoy7/CharityPulse/internal/auth/store"
	"github.com/Kingjoy7/CharityPulse/pkg/cryptox"
	"github.com/Kingjoy7/CharityPulse/pkg/idx"
	"github.com/Kingjoy7/CharityPulse/pkg/jwtx"
	"github.com/Kingjoy7/CharityPulse/pkg/slogx"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultLockoutThreshold is the number of consecutive failed logins
	// that triggers a lockout.
	DefaultLockoutThreshold = 5

	// DefaultLockoutWindow is how long an account stays locked.
	DefaultLockoutWindow = 15 * time.Minute
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidRole        = errors.New("invalid role")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountRevoked     = errors.New("account access revoked")
	ErrAccountLocked      = errors.New("account locked")
)

// AuthService implements registration and the password (and optional TOTP)
// login steps. Tokens it issues are stateless; revocation and lockout are
// enforced at login time only.
type AuthService struct {
	Store  store.Store
	Signer jwtx.Signer
	Issuer string

	TokenTTL         time.Duration
	LockoutThreshold int
	LockoutWindow    time.Duration
	DefaultRole      domain.Role
}

// LoginResult is the outcome of a successful credential check. Either Token
// is set, or MFARequired is true and the caller must complete the TOTP step
// with UserID.
type LoginResult struct {
	Token       string
	Role        domain.Role
	MFARequired bool
	UserID      string
}

// Register creates a new account and signs it in immediately.
// An empty role falls back to the configured default.
func (s *AuthService) Register(ctx context.Context, email, password, role string) (LoginResult, error) {
	log := slogx.FromContext(ctx)

	if email == "" || password == "" {
		return LoginResult{}, ErrMissingFields
	}

	parsedRole, ok := domain.ParseRole(role, s.DefaultRole)
	if !ok {
		return LoginResult{}, ErrInvalidRole
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         parsedRole,
	}
	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return LoginResult{}, ErrEmailTaken
		}
		return LoginResult{}, fmt.Errorf("failed to create account: %w", err)
	}

	log.Info("new user registered", "email", email, "user_id", account.ID)

	token, err := s.signToken(account)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Role: account.Role}, nil
}

// Login verifies the password step. A wrong password increments the
// failed-attempt counter and locks the account at the threshold; a correct
// one resets both. Revocation and an active lockout are checked before the
// password so their responses don't leak whether the password was right.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("failed login attempt: user not found", "email", email)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if account.IsRevoked {
		log.Warn("login refused: account revoked", "user_id", account.ID)
		return LoginResult{}, ErrAccountRevoked
	}

	now := time.Now()
	if account.Locked(now) {
		log.Warn("failed login attempt: account locked", "user_id", account.ID)
		return LoginResult{}, ErrAccountLocked
	}

	if err := cryptox.VerifyPassword(password, account.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			return LoginResult{}, fmt.Errorf("failed to verify password: %w", err)
		}

		attempts := account.FailedLoginAttempts + 1
		lockoutUntil := account.LockoutUntil
		if attempts >= s.lockoutThreshold() {
			until := now.Add(s.lockoutWindow())
			lockoutUntil = &until
		}
		if err := s.Store.Accounts().UpdateLoginState(ctx, account.ID, attempts, lockoutUntil); err != nil {
			return LoginResult{}, fmt.Errorf("failed to record failed login: %w", err)
		}

		log.Warn("failed login attempt: invalid password",
			"user_id", account.ID,
			"failed_attempts", attempts,
		)
		return LoginResult{}, ErrInvalidCredentials
	}

	// Correct password clears the counter and any stale lockout.
	if err := s.Store.Accounts().UpdateLoginState(ctx, account.ID, 0, nil); err != nil {
		return LoginResult{}, fmt.Errorf("failed to reset login state: %w", err)
	}

	if account.MFAEnabled {
		log.Info("MFA required for login", "user_id", account.ID)
		return LoginResult{MFARequired: true, UserID: account.ID}, nil
	}

	log.Info("successful login", "user_id", account.ID)

	token, err := s.signToken(account)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Role: account.Role}, nil
}

// LoginTOTP completes the second login step for MFA-enabled accounts.
// Returns store.ErrNotFound for an unknown user id and ErrInvalidTOTPCode
// when the code doesn't verify.
func (s *AuthService) LoginTOTP(ctx context.Context, userID, code string) (LoginResult, error) {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByID(ctx, userID)
	if err != nil {
		return LoginResult{}, err
	}

	var secret string
	if account.MFASecret != nil {
		secret = *account.MFASecret
	}
	if !totp.Validate(code, secret) {
		log.Warn("MFA login failed: invalid code", "user_id", account.ID)
		return LoginResult{}, ErrInvalidTOTPCode
	}

	log.Info("successful MFA login", "user_id", account.ID)

	token, err := s.signToken(account)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Role: account.Role}, nil
}

func (s *AuthService) signToken(account domain.Account) (string, error) {
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultTokenTTL
	}
	claims := jwtx.NewClaims(account.ID, account.Role.String(), s.Issuer, ttl, time.Now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *AuthService) lockoutThreshold() int {
	if s.LockoutThreshold > 0 {
		return s.LockoutThreshold
	}
	return DefaultLockoutThreshold
}

func (s *AuthService) lockoutWindow() time.Duration {
	if s.LockoutWindow > 0 {
		return s.LockoutWindow
	}
	return DefaultLockoutWindow
}
