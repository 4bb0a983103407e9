// Package otp is the TOTP manager (spec.md C5): per-account secret
// generation, otpauth:// enrolment URIs, RFC 6238 verification, and SVG QR
// rendering of the enrolment URI.
package otp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // RFC 6238 mandates SHA-1 for the default TOTP algorithm
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	secretLength = 16 // base32 characters
	digits       = 6
	period       = 30 * time.Second
	issuer       = "CCTVCoordinator"
)

// Manager holds an in-memory mapping from account id to TOTP secret. It is
// rebuilt on demand from the store (spec.md §3 invariant 5) via Restore;
// Enrol generates a new secret and registers it before the caller
// persists it.
type Manager struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewManager constructs an empty registry.
func NewManager() *Manager {
	return &Manager{secrets: make(map[string]string)}
}

// Enrol generates a new base32 secret for id, registers it, and returns
// the enrolment URI alongside the raw secret so the caller can persist it.
func (m *Manager) Enrol(id string) (enrolmentURI string, secret string, err error) {
	secret, err = generateSecret()
	if err != nil {
		return "", "", fmt.Errorf("otp: generate secret: %w", err)
	}
	m.Restore(id, secret)
	return buildURI(id, secret), secret, nil
}

// Restore rebuilds the in-memory instance for id from a previously stored
// secret. Idempotent.
func (m *Manager) Restore(id, secret string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[id] = secret
}

// Verify checks a 6-digit code against the current 30-second window, with
// zero tolerance either side (spec.md §4.5).
func (m *Manager) Verify(id, codeDigits string, now time.Time) bool {
	m.mu.RLock()
	secret, ok := m.secrets[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	want, err := generateCode(secret, now)
	if err != nil {
		return false
	}
	return want == codeDigits
}

func generateSecret() (string, error) {
	raw := make([]byte, secretLength*5/8+1)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	return strings.ToUpper(enc)[:secretLength], nil
}

func buildURI(id, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("algorithm", "SHA1")
	v.Set("digits", fmt.Sprintf("%d", digits))
	v.Set("period", fmt.Sprintf("%d", int(period.Seconds())))
	label := url.PathEscape(fmt.Sprintf("%s:%s", issuer, id))
	return fmt.Sprintf("otpauth://totp/%s?%s", label, v.Encode())
}

func generateCode(secret string, now time.Time) (string, error) {
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		return "", fmt.Errorf("otp: decode secret: %w", err)
	}

	counter := uint64(now.Unix()) / uint64(period.Seconds())
	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	truncated := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	mod := uint32(math.Pow10(digits))
	return fmt.Sprintf("%0*d", digits, truncated%mod), nil
}
