package store

import (
	"context"
	"fmt"
)

// InsertLine inserts a CrossLine. Fails with ErrUnique if index or name
// already exists (spec.md §3 invariant 2).
func (s *Store) InsertLine(ctx context.Context, l CrossLine) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO lines (indexNum, x1, y1, x2, y2, name, mode) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.Index, l.X1, l.Y1, l.X2, l.Y2, l.Name, string(l.Mode))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUnique
		}
		return fmt.Errorf("%w: insert line: %v", ErrBackend, err)
	}
	return nil
}

// SelectAllLines returns every CrossLine ordered by name.
func (s *Store) SelectAllLines(ctx context.Context) ([]CrossLine, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT indexNum, x1, y1, x2, y2, name, mode FROM lines ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: select lines: %v", ErrBackend, err)
	}
	defer rows.Close()

	var out []CrossLine
	for rows.Next() {
		var l CrossLine
		var mode string
		if err := rows.Scan(&l.Index, &l.X1, &l.Y1, &l.X2, &l.Y2, &l.Name, &mode); err != nil {
			return nil, fmt.Errorf("%w: scan line: %v", ErrBackend, err)
		}
		l.Mode = LineMode(mode)
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteLine removes the line with the given index.
func (s *Store) DeleteLine(ctx context.Context, index int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM lines WHERE indexNum = ?`, index)
	if err != nil {
		return fmt.Errorf("%w: delete line: %v", ErrBackend, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete line rows affected: %v", ErrBackend, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllLines empties the lines table.
func (s *Store) DeleteAllLines(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM lines`); err != nil {
		return fmt.Errorf("%w: delete all lines: %v", ErrBackend, err)
	}
	return nil
}

// ReplaceLines empties the lines table and inserts replacement in one
// transaction. Used by the request-3 reconciliation handler.
func (s *Store) ReplaceLines(ctx context.Context, replacement []CrossLine) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin replace lines: %v", ErrBackend, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lines`); err != nil {
		return fmt.Errorf("%w: clear lines: %v", ErrBackend, err)
	}
	for _, l := range replacement {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lines (indexNum, x1, y1, x2, y2, name, mode) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l.Index, l.X1, l.Y1, l.X2, l.Y2, l.Name, string(l.Mode)); err != nil {
			return fmt.Errorf("%w: insert replacement line: %v", ErrBackend, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit replace lines: %v", ErrBackend, err)
	}
	return nil
}
