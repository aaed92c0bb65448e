package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign bearer credentials.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HS256Signer signs credentials with a shared HMAC secret. Signing is
// CPU-bound and synchronous; the result type is the signed string or an
// error.
type HS256Signer struct {
	secret []byte
	alg    string
}

// NewSignerHS256 creates an HS256 signer from the configured secret.
func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty HMAC secret")
	}
	return &HS256Signer{secret: secret, alg: jwt.SigningMethodHS256.Alg()}, nil
}

func (s *HS256Signer) Alg() string { return s.alg }

// Sign takes claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}
