package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertBaseLine inserts a BaseLine, or updates matrixNum1/matrixNum2 on
// the existing row if index already exists (request 5's merge semantics,
// spec.md §4.9).
func (s *Store) InsertBaseLine(ctx context.Context, b BaseLine) (inserted bool, updated bool, err error) {
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO baseLines (indexNum, matrixNum1, x1, y1, matrixNum2, x2, y2) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Index, b.MatrixNum1, b.X1, b.Y1, b.MatrixNum2, b.X2, b.Y2)
	if err == nil {
		return true, false, nil
	}
	if !isUniqueViolation(err) {
		return false, false, fmt.Errorf("%w: insert baseline: %v", ErrBackend, err)
	}

	if uerr := s.UpdateBaseLineMatrixNums(ctx, b.Index, b.MatrixNum1, b.MatrixNum2); uerr != nil {
		return false, false, uerr
	}
	return false, true, nil
}

// UpdateBaseLineMatrixNums updates only the matrix identifiers of an
// existing BaseLine.
func (s *Store) UpdateBaseLineMatrixNums(ctx context.Context, index, matrixNum1, matrixNum2 int64) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE baseLines SET matrixNum1 = ?, matrixNum2 = ? WHERE indexNum = ?`,
		matrixNum1, matrixNum2, index)
	if err != nil {
		return fmt.Errorf("%w: update baseline matrix nums: %v", ErrBackend, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update baseline rows affected: %v", ErrBackend, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SelectAllBaseLines returns every BaseLine.
func (s *Store) SelectAllBaseLines(ctx context.Context) ([]BaseLine, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT indexNum, matrixNum1, x1, y1, matrixNum2, x2, y2 FROM baseLines ORDER BY indexNum ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: select baselines: %v", ErrBackend, err)
	}
	defer rows.Close()

	var out []BaseLine
	for rows.Next() {
		var b BaseLine
		if err := rows.Scan(&b.Index, &b.MatrixNum1, &b.X1, &b.Y1, &b.MatrixNum2, &b.X2, &b.Y2); err != nil {
			return nil, fmt.Errorf("%w: scan baseline: %v", ErrBackend, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteAllBaseLines empties the baseLines table.
func (s *Store) DeleteAllBaseLines(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM baseLines`); err != nil {
		return fmt.Errorf("%w: delete all baselines: %v", ErrBackend, err)
	}
	return nil
}

// InsertVerticalEquation inserts a VerticalLineEquation.
func (s *Store) InsertVerticalEquation(ctx context.Context, v VerticalLineEquation) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO verticalLineEquations (indexNum, a, b) VALUES (?, ?, ?)`,
		v.Index, v.A, v.B)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUnique
		}
		return fmt.Errorf("%w: insert vertical equation: %v", ErrBackend, err)
	}
	return nil
}

// SelectVerticalEquation fetches a single VerticalLineEquation by index.
func (s *Store) SelectVerticalEquation(ctx context.Context, index int64) (VerticalLineEquation, error) {
	var v VerticalLineEquation
	err := s.DB.QueryRowContext(ctx,
		`SELECT indexNum, a, b FROM verticalLineEquations WHERE indexNum = ?`, index).
		Scan(&v.Index, &v.A, &v.B)
	if err == sql.ErrNoRows {
		return VerticalLineEquation{}, ErrNotFound
	}
	if err != nil {
		return VerticalLineEquation{}, fmt.Errorf("%w: select vertical equation: %v", ErrBackend, err)
	}
	return v, nil
}

// DeleteAllVerticalEquations empties the verticalLineEquations table.
func (s *Store) DeleteAllVerticalEquations(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM verticalLineEquations`); err != nil {
		return fmt.Errorf("%w: delete all vertical equations: %v", ErrBackend, err)
	}
	return nil
}
