package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Kingjoy7/CharityPulse/internal/auth/domain"
	authhttp "github.com/Kingjoy7/CharityPulse/internal/auth/http"
	"github.com/Kingjoy7/CharityPulse/internal/auth/service"
	"github.com/Kingjoy7/CharityPulse/internal/auth/store"
	"github.com/Kingjoy7/CharityPulse/internal/auth/store/drivers/sqlite"
	"github.com/Kingjoy7/CharityPulse/pkg/cryptox"
	"github.com/Kingjoy7/CharityPulse/pkg/httpx"
	"github.com/Kingjoy7/CharityPulse/pkg/jwtx"
	"github.com/Kingjoy7/CharityPulse/pkg/slogx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "charitypulse-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	// The strict profile would throttle these tests' repeated logins.
	generous := httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}
	httpx.StrictLimit = generous
	httpx.ModerateLimit = generous

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testEnv struct {
	router *authhttp.Router
	store  store.Store
	reset  *service.PasswordResetService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	secret := []byte("test-secret-test-secret-test-sec")
	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierHS256(secret, "charitypulse-test")

	logger := slogx.New(slogx.Config{Level: "error", Format: "text"})

	router := authhttp.NewRouter(verifier, "test", st, logger)
	router.AuthService = &service.AuthService{
		Store:            st,
		Signer:           signer,
		Issuer:           "charitypulse-test",
		TokenTTL:         5 * time.Hour,
		LockoutThreshold: service.DefaultLockoutThreshold,
		LockoutWindow:    service.DefaultLockoutWindow,
		DefaultRole:      domain.RoleOrganizer,
	}
	router.MFAService = &service.MFAService{Store: st, Issuer: "CharityPulse"}
	router.ResetService = &service.PasswordResetService{
		Store:    st,
		LinkBase: "http://localhost:3000/reset-password",
	}
	router.AdminService = &service.AdminService{Store: st}
	router.ApplyRoutes()

	return &testEnv{router: router, store: st, reset: router.ResetService}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (e *testEnv) register(t *testing.T, email, password, role string) (token string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/register", "",
		map[string]string{"email": email, "password": password, "role": role})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody(t, rec)["token"].(string)
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("creates account and returns token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/register", "",
			map[string]string{"email": "alice@example.com", "password": "hunter2!"})
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		require.NotEmpty(t, body["token"])
		require.Equal(t, "Organizer", body["role"])
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/register", "",
			map[string]string{"email": "bob@example.com"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Please enter all fields", decodeBody(t, rec)["msg"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/register", "",
			map[string]string{"email": "alice@example.com", "password": "other"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "User already exists", decodeBody(t, rec)["msg"])
	})
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com", "hunter2!", "")

	t.Run("success", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/login", "",
			map[string]string{"email": "alice@example.com", "password": "hunter2!"})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.NotEmpty(t, body["token"])
		require.Equal(t, "Organizer", body["role"])
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		recWrong := env.do(t, http.MethodPost, "/v1/auth/login", "",
			map[string]string{"email": "alice@example.com", "password": "wrong"})
		recUnknown := env.do(t, http.MethodPost, "/v1/auth/login", "",
			map[string]string{"email": "nobody@example.com", "password": "wrong"})

		require.Equal(t, http.StatusBadRequest, recWrong.Code)
		require.Equal(t, http.StatusBadRequest, recUnknown.Code)
		require.Equal(t, decodeBody(t, recWrong)["msg"], decodeBody(t, recUnknown)["msg"])
	})

	t.Run("lockout after repeated failures", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "bob@example.com", "hunter2!", "")

		for range service.DefaultLockoutThreshold {
			rec := env.do(t, http.MethodPost, "/v1/auth/login", "",
				map[string]string{"email": "bob@example.com", "password": "wrong"})
			require.Equal(t, http.StatusBadRequest, rec.Code)
		}

		rec := env.do(t, http.MethodPost, "/v1/auth/login", "",
			map[string]string{"email": "bob@example.com", "password": "hunter2!"})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "Account locked. Try again later.", decodeBody(t, rec)["msg"])
	})

	t.Run("revoked account", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "carol@example.com", "hunter2!", "")

		ctx := context.Background()
		account, err := env.store.Accounts().GetAccountByEmail(ctx, "carol@example.com")
		require.NoError(t, err)
		require.NoError(t, env.store.Accounts().Revoke(ctx, account.ID))

		rec := env.do(t, http.MethodPost, "/v1/auth/login", "",
			map[string]string{"email": "carol@example.com", "password": "hunter2!"})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "Your account access has been revoked.", decodeBody(t, rec)["msg"])
	})
}

func TestMFAEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice@example.com", "hunter2!", "")

	t.Run("setup requires authentication", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/mfa/setup", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("verify before setup", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/mfa/verify", token, map[string]string{"token": "123456"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "MFA not set up. Please set up first.", decodeBody(t, rec)["msg"])
	})

	var secret string
	t.Run("setup returns secret and QR code", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/mfa/setup", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		secret = body["secret"].(string)
		require.NotEmpty(t, secret)
		require.Contains(t, body["otpauthUrl"], "otpauth://totp/")
		require.Contains(t, body["qrCodeUrl"], "data:image/png;base64,")
	})

	t.Run("verify enables MFA", func(t *testing.T) {
		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		rec := env.do(t, http.MethodPost, "/v1/mfa/verify", token, map[string]string{"token": code})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "MFA enabled successfully", decodeBody(t, rec)["msg"])
	})

	t.Run("login now requires the TOTP step", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/login", "",
			map[string]string{"email": "alice@example.com", "password": "hunter2!"})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, true, body["mfaRequired"])
		userID := body["userId"].(string)
		require.NotEmpty(t, userID)

		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		rec = env.do(t, http.MethodPost, "/v1/auth/login/2fa", "",
			map[string]string{"userId": userID, "token": code})
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, decodeBody(t, rec)["token"])

		rec = env.do(t, http.MethodPost, "/v1/auth/login/2fa", "",
			map[string]string{"userId": userID, "token": "000000"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Invalid token, login failed", decodeBody(t, rec)["msg"])
	})

	t.Run("2fa with unknown user id", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/login/2fa", "",
			map[string]string{"userId": "no-such-id", "token": "123456"})
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "User not found", decodeBody(t, rec)["msg"])
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com", "old-password", "")

	genericMsg := "If an account with this email exists, a reset link has been sent."

	t.Run("forgot-password is uniform for unknown emails", func(t *testing.T) {
		recKnown := env.do(t, http.MethodPost, "/v1/auth/forgot-password", "",
			map[string]string{"email": "alice@example.com"})
		recUnknown := env.do(t, http.MethodPost, "/v1/auth/forgot-password", "",
			map[string]string{"email": "nobody@example.com"})

		require.Equal(t, http.StatusOK, recKnown.Code)
		require.Equal(t, http.StatusOK, recUnknown.Code)
		require.Equal(t, genericMsg, decodeBody(t, recKnown)["msg"])
		require.Equal(t, genericMsg, decodeBody(t, recUnknown)["msg"])
	})

	t.Run("reset with valid token", func(t *testing.T) {
		// The raw token normally only travels in the emailed link.
		token, err := env.reset.Request(context.Background(), "alice@example.com")
		require.NoError(t, err)

		rec := env.do(t, http.MethodPost, "/v1/auth/reset-password/"+token, "",
			map[string]string{"password": "new-password"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Password has been reset successfully.", decodeBody(t, rec)["msg"])

		rec = env.do(t, http.MethodPost, "/v1/auth/login", "",
			map[string]string{"email": "alice@example.com", "password": "new-password"})
		require.Equal(t, http.StatusOK, rec.Code)

		// Token is single use.
		rec = env.do(t, http.MethodPost, "/v1/auth/reset-password/"+token, "",
			map[string]string{"password": "again"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Password reset token is invalid or has expired.", decodeBody(t, rec)["msg"])
	})

	t.Run("reset with bogus token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/auth/reset-password/bogus", "",
			map[string]string{"password": "whatever"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.register(t, "admin@example.com", "hunter2!", "Admin")
	userToken := env.register(t, "alice@example.com", "hunter2!", "")

	t.Run("requires authentication", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/admin/users", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("requires admin role", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/admin/users", userToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "Access denied. Admin role required.", decodeBody(t, rec)["msg"])
	})

	t.Run("lists users without credential material", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/admin/users", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var users []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
		require.Len(t, users, 2)
		for _, u := range users {
			require.NotContains(t, u, "passwordHash")
			require.NotContains(t, u, "mfaSecret")
			require.NotContains(t, u, "resetTokenHash")
		}
	})

	t.Run("revoke user", func(t *testing.T) {
		ctx := context.Background()
		alice, err := env.store.Accounts().GetAccountByEmail(ctx, "alice@example.com")
		require.NoError(t, err)

		path := fmt.Sprintf("/v1/admin/users/%s/revoke", alice.ID)
		rec := env.do(t, http.MethodPost, path, adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "User access revoked", decodeBody(t, rec)["msg"])

		rec = env.do(t, http.MethodPost, "/v1/auth/login", "",
			map[string]string{"email": "alice@example.com", "password": "hunter2!"})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("revoke unknown user", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/admin/users/no-such-id/revoke", adminToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "User not found", decodeBody(t, rec)["msg"])
	})

}

func TestProbes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])
}
