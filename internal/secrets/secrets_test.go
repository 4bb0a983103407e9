package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("pw12345")
	require.NoError(t, err)

	ok, err := VerifyPassword(hash, "pw12345")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong-password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerateRecoveryCodes(t *testing.T) {
	codes, err := GenerateRecoveryCodes()
	require.NoError(t, err)
	require.Len(t, codes, recoveryCodeCount)

	seen := map[string]bool{}
	for _, code := range codes {
		assert.Len(t, code, recoveryCodeLength)
		assert.False(t, seen[code.String()], "recovery codes must be distinct")
		seen[code.String()] = true
	}
}

func TestHashRecoveryCodesVerifiable(t *testing.T) {
	codes, err := GenerateRecoveryCodes()
	require.NoError(t, err)

	hashes, err := HashRecoveryCodes(codes)
	require.NoError(t, err)
	require.Len(t, hashes, len(codes))

	ok, err := VerifyPassword(hashes[0], codes[0].String())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSecureClear(t *testing.T) {
	buf := []byte("pw12345")
	SecureClear(buf)
	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}
}
