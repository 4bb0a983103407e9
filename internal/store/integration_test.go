package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fryholic/cctv-coordinator/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests open a real sqlite file (via modernc.org/sqlite, pure Go, no
// cgo) in a temp directory and exercise the full migration + CRUD path.

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coordinator.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCrossLineRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := CrossLine{Index: 1, X1: 10, Y1: 20, X2: 30, Y2: 40, Name: "L1", Mode: LineModeRight}
	require.NoError(t, s.InsertLine(ctx, want))

	lines, err := s.SelectAllLines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, want, lines[0])
}

func TestCrossLineUniqueName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertLine(ctx, CrossLine{Index: 1, Name: "dup", Mode: LineModeRight}))
	err := s.InsertLine(ctx, CrossLine{Index: 2, Name: "dup", Mode: LineModeLeft})
	assert.ErrorIs(t, err, ErrUnique)
}

func TestDetectionsSelectBetweenOrdered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.InsertDetection(ctx, []byte("a"), t0.Add(2*time.Second))
	require.NoError(t, err)
	_, err = s.InsertDetection(ctx, []byte("b"), t0)
	require.NoError(t, err)
	_, err = s.InsertDetection(ctx, []byte("c"), t0.Add(time.Second))
	require.NoError(t, err)

	got, err := s.SelectDetectionsBetween(ctx, t0.Add(-time.Hour), t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []byte("b"), got[0].Image)
	assert.Equal(t, []byte("c"), got[1].Image)
	assert.Equal(t, []byte("a"), got[2].Image)
}

func TestBaseLineInsertThenMerge(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	b := BaseLine{Index: 1, MatrixNum1: 1, MatrixNum2: 2, X1: 0, Y1: 0, X2: 10, Y2: 10}
	inserted, updated, err := s.InsertBaseLine(ctx, b)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.False(t, updated)

	b.MatrixNum1, b.MatrixNum2 = 5, 6
	inserted, updated, err = s.InsertBaseLine(ctx, b)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.True(t, updated)

	all, err := s.SelectAllBaseLines(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(5), all[0].MatrixNum1)
	assert.Equal(t, int64(6), all[0].MatrixNum2)
}

func TestAccountAndRecoveryCodeLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAccount(ctx, Account{ID: "alice", PasswordHash: "hash", UseOTP: true}))

	err := s.CreateAccount(ctx, Account{ID: "alice", PasswordHash: "hash2"})
	assert.ErrorIs(t, err, ErrUnique)

	got, err := s.GetAccountByID(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.UseOTP)

	require.NoError(t, s.SetOTPSecret(ctx, "alice", "JBSWY3DPEHPK3PXP"))
	got, err = s.GetAccountByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", got.OTPSecret)

	codes := []secrets.Plain{secrets.Plain("codeone"), secrets.Plain("codetwo")}
	hashes, err := secrets.HashRecoveryCodes(codes)
	require.NoError(t, err)
	require.NoError(t, s.StoreHashedRecoveryCodes(ctx, "alice", hashes))

	unused, err := s.ListUnusedRecoveryHashes(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, unused, 2)

	ok, err := s.MarkRecoveryCodeUsed(ctx, "alice", "codeone")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkRecoveryCodeUsed(ctx, "alice", "codeone")
	require.NoError(t, err)
	assert.False(t, ok, "a used recovery code must never verify again")

	unused, err = s.ListUnusedRecoveryHashes(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, unused, 1)
}

func TestMigrationVersionAfterOpen(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrationVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Greater(t, version, uint(0), "Open must leave the schema at the latest migration")
}

func TestMigrateDownThenUp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertLine(ctx, CrossLine{Index: 1, Name: "L1", Mode: LineModeRight}))

	require.NoError(t, s.Migrate(false, 0))
	require.NoError(t, s.Migrate(true, 0))

	lines, err := s.SelectAllLines(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines, "a down+up cycle recreates empty tables")
}
