package store

import (
	"context"
	"fmt"

	"github.com/fryholic/cctv-coordinator/internal/secrets"
)

// StoreHashedRecoveryCodes persists one row per hash for the account.
func (s *Store) StoreHashedRecoveryCodes(ctx context.Context, id string, hashes []string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin store recovery codes: %v", ErrBackend, err)
	}
	defer tx.Rollback()

	for _, hash := range hashes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recovery_codes (id, code, used) VALUES (?, ?, 0)`, id, hash); err != nil {
			return fmt.Errorf("%w: insert recovery code: %v", ErrBackend, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit store recovery codes: %v", ErrBackend, err)
	}
	return nil
}

// recoveryCodeRow is an internal row reference used only within
// MarkRecoveryCodeUsed to identify which hash matched.
type recoveryCodeRow struct {
	rowid int64
	hash  string
}

// ListUnusedRecoveryHashes returns every hash not yet marked used.
func (s *Store) ListUnusedRecoveryHashes(ctx context.Context, id string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT code FROM recovery_codes WHERE id = ? AND used = 0`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: list unused recovery codes: %v", ErrBackend, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("%w: scan recovery code: %v", ErrBackend, err)
		}
		out = append(out, hash)
	}
	return out, rows.Err()
}

// MarkRecoveryCodeUsed verifies plaintext against each of the account's
// unused hashed codes in turn; on the first match it atomically flips
// that row's used flag to 1 and returns true. It never transitions a row
// from used back to unused (spec.md §3 invariant 3).
func (s *Store) MarkRecoveryCodeUsed(ctx context.Context, id, plaintext string) (bool, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT rowid, code FROM recovery_codes WHERE id = ? AND used = 0`, id)
	if err != nil {
		return false, fmt.Errorf("%w: list unused recovery rows: %v", ErrBackend, err)
	}
	var candidates []recoveryCodeRow
	for rows.Next() {
		var row recoveryCodeRow
		if err := rows.Scan(&row.rowid, &row.hash); err != nil {
			rows.Close()
			return false, fmt.Errorf("%w: scan recovery row: %v", ErrBackend, err)
		}
		candidates = append(candidates, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return false, fmt.Errorf("%w: iterate recovery rows: %v", ErrBackend, err)
	}
	rows.Close()

	for _, row := range candidates {
		ok, err := secrets.VerifyPassword(row.hash, plaintext)
		if err != nil {
			continue
		}
		if !ok {
			continue
		}
		res, err := s.DB.ExecContext(ctx,
			`UPDATE recovery_codes SET used = 1 WHERE rowid = ? AND used = 0`, row.rowid)
		if err != nil {
			return false, fmt.Errorf("%w: mark recovery code used: %v", ErrBackend, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("%w: mark recovery code rows affected: %v", ErrBackend, err)
		}
		return n == 1, nil
	}
	return false, nil
}
