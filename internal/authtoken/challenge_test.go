package authtoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueThenValidateRoundTrip(t *testing.T) {
	m := NewManager([]byte("test-signing-key"))

	tok, err := m.Issue("alice")
	require.NoError(t, err)

	id, err := m.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", id)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	m1 := NewManager([]byte("key-one"))
	m2 := NewManager([]byte("key-two"))

	tok, err := m1.Issue("alice")
	require.NoError(t, err)

	_, err = m2.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewManager([]byte("test-signing-key"))
	now := time.Now().Add(-10 * time.Minute)
	claims := Claims{
		AccountID: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(challengeLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	require.NoError(t, err)

	_, err = m.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
