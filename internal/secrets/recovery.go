package secrets

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	recoveryCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	recoveryCodeLength   = 10
	recoveryCodeCount    = 5
)

// GenerateRecoveryCodes draws recoveryCodeCount codes, each
// recoveryCodeLength characters from a cryptographic source, into mutable
// Plain buffers so the caller can SecureClear them once the codes have
// been hashed and marshaled into the signup response, the same discipline
// used for password and OTP input elsewhere in this package.
func GenerateRecoveryCodes() ([]Plain, error) {
	codes := make([]Plain, recoveryCodeCount)
	for i := range codes {
		code, err := randomCode(recoveryCodeLength)
		if err != nil {
			return nil, fmt.Errorf("secrets: generate recovery code: %w", err)
		}
		codes[i] = code
	}
	return codes, nil
}

func randomCode(length int) (Plain, error) {
	alphabetSize := big.NewInt(int64(len(recoveryCodeAlphabet)))
	buf := make(Plain, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return nil, err
		}
		buf[i] = recoveryCodeAlphabet[n.Int64()]
	}
	return buf, nil
}

// HashRecoveryCodes hashes each plaintext code with the same Argon2id
// primitive used for account passwords.
func HashRecoveryCodes(codes []Plain) ([]string, error) {
	hashes := make([]string, len(codes))
	for i, code := range codes {
		hash, err := HashPassword(code.String())
		if err != nil {
			return nil, err
		}
		hashes[i] = hash
	}
	return hashes, nil
}
