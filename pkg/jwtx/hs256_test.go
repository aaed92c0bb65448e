package jwtx

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testIssuer = "charitypulse"

func testSecret() []byte { return []byte("0123456789abcdef0123456789abcdef") }

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret())
	require.NoError(t, err)

	claims := NewClaims("account-1", "Organizer", testIssuer, DefaultTokenTTL, time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	verifier := NewVerifierHS256(testSecret(), testIssuer)
	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "account-1", got.Subject)
	require.Equal(t, "Organizer", got.Role)
	require.NotEmpty(t, got.ID, "jti should be populated")
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret())
	require.NoError(t, err)

	token, err := signer.Sign(NewClaims("a", "User", testIssuer, time.Hour, time.Now()))
	require.NoError(t, err)

	verifier := NewVerifierHS256([]byte("a completely different secret!!!"), testIssuer)
	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret())
	require.NoError(t, err)

	// Issued six hours ago with the standard five hour TTL.
	issued := time.Now().Add(-6 * time.Hour)
	token, err := signer.Sign(NewClaims("a", "User", testIssuer, DefaultTokenTTL, issued))
	require.NoError(t, err)

	verifier := NewVerifierHS256(testSecret(), testIssuer)
	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	t.Parallel()

	signer, err := NewSignerHS256(testSecret())
	require.NoError(t, err)

	token, err := signer.Sign(NewClaims("a", "User", "someone-else", time.Hour, time.Now()))
	require.NoError(t, err)

	verifier := NewVerifierHS256(testSecret(), testIssuer)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	claims := NewClaims("a", "Admin", testIssuer, time.Hour, time.Now())
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	verifier := NewVerifierHS256(testSecret(), testIssuer)
	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	verifier := NewVerifierHS256(testSecret(), testIssuer)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := verifier.Verify(tok)
		require.Error(t, err)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewSignerHS256(nil)
	require.Error(t, err)
}
