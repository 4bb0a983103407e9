// Package secrets implements password hashing, recovery-code generation,
// and the secure-erase discipline spec.md §3 invariant 6 requires of every
// plaintext secret that transits process memory.
package secrets

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrHashFailure wraps any error raised by the Argon2id primitive itself.
var ErrHashFailure = errors.New("secrets: hash failure")

// Params are the Argon2id interactive parameters spec.md §4.2 calls for.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams matches the interactive profile: fast enough for a login
// path, still memory-hard against offline cracking.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  1,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// HashPassword returns an encoded Argon2id hash of plaintext.
func HashPassword(plaintext string) (string, error) {
	salt := make([]byte, DefaultParams.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashFailure, err)
	}

	hash := argon2.IDKey([]byte(plaintext), salt, DefaultParams.Iterations, DefaultParams.Memory, DefaultParams.Parallelism, DefaultParams.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, DefaultParams.Memory, DefaultParams.Iterations, DefaultParams.Parallelism, b64Salt, b64Hash), nil
}

// VerifyPassword performs a constant-time comparison of plaintext against
// an encoded hash produced by HashPassword.
func VerifyPassword(encodedHash, plaintext string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("%w: malformed encoded hash", ErrHashFailure)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: %v", ErrHashFailure, err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: incompatible argon2 version", ErrHashFailure)
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return false, fmt.Errorf("%w: %v", ErrHashFailure, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrHashFailure, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrHashFailure, err)
	}
	p.KeyLength = uint32(len(want))

	got := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// SecureClear overwrites buf with zeros. Callers defer this immediately
// after reading a plaintext password or recovery code out of a request.
//
// Go strings are immutable and cannot be zeroed in place; handlers that
// need this guarantee must decode the secret field as []byte (not string)
// so there is a mutable buffer to clear. See tlsserver's request structs.
func SecureClear(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
