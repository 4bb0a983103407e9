package otp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrolThenVerify(t *testing.T) {
	m := NewManager()
	uri, secret, err := m.Enrol("alice")
	require.NoError(t, err)
	assert.Contains(t, uri, "otpauth://totp/")
	assert.Contains(t, uri, "secret="+secret)
	assert.Len(t, secret, secretLength)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	code, err := generateCode(secret, now)
	require.NoError(t, err)
	assert.True(t, m.Verify("alice", code, now))
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	m := NewManager()
	_, secret, err := m.Enrol("bob")
	require.NoError(t, err)
	m.Restore("bob", secret)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, m.Verify("bob", "000000", now))
}

func TestVerifyRejectsAdjacentWindow(t *testing.T) {
	m := NewManager()
	_, secret, err := m.Enrol("carol")
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	code, err := generateCode(secret, now)
	require.NoError(t, err)

	assert.True(t, m.Verify("carol", code, now))
	assert.False(t, m.Verify("carol", code, now.Add(period)), "zero tolerance: next window must reject the prior code")
}

func TestVerifyUnknownAccount(t *testing.T) {
	m := NewManager()
	assert.False(t, m.Verify("nobody", "123456", time.Now()))
}

func TestRestoreRebuildsFromStoredSecret(t *testing.T) {
	m := NewManager()
	secret := "JBSWY3DPEHPK3PXP"
	m.Restore("dave", secret)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	code, err := generateCode(secret, now)
	require.NoError(t, err)
	assert.True(t, m.Verify("dave", code, now))
}

func TestRenderQRSVGProducesValidMarkup(t *testing.T) {
	svg, err := RenderQRSVG("otpauth://totp/CCTVCoordinator:alice?secret=JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, "<rect")
}
