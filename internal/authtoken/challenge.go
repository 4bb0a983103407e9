// Package authtoken issues and validates the short-lived challenge token
// that binds a successful request-8 (password) step to the request-22
// (OTP/recovery) step on the same connection. Grounded on the teacher's
// internal/tokens/jwt.go Manager, trimmed to one claim and one lifetime —
// this protocol has no access/refresh token pair, only a single login
// challenge.
package authtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers parse failure, signature mismatch, and expiry.
var ErrInvalidToken = errors.New("authtoken: invalid or expired challenge token")

// challengeLifetime bounds how long a challenge token issued by request 8
// stays valid. Request 22 checks the token only when the client sends one;
// a request 22 without a token is not time-bounded by it.
const challengeLifetime = 2 * time.Minute

// Claims carries the account id that passed request 8.
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// Manager signs and validates challenge tokens with one process-lifetime
// HMAC key.
type Manager struct {
	signingKey []byte
}

// NewManager builds a Manager. signingKey should be generated once at
// process start (internal/supervisor) and held only in memory — the challenge
// token never needs to survive a restart.
func NewManager(signingKey []byte) *Manager {
	return &Manager{signingKey: signingKey}
}

// Issue mints a challenge token for accountID.
func (m *Manager) Issue(accountID string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(challengeLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("authtoken: sign challenge: %w", err)
	}
	return signed, nil
}

// Validate parses tokenString and returns the account id it was issued
// for, if it is well-formed, correctly signed, and unexpired.
func (m *Manager) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.AccountID, nil
}
