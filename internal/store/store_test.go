package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func TestInsertDetection(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO detections").
		WithArgs([]byte("jpeg-bytes"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := s.InsertDetection(context.Background(), []byte("jpeg-bytes"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertLineUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO lines").
		WillReturnError(&uniqueConstraintErr{})

	err := s.InsertLine(context.Background(), CrossLine{Index: 1, Name: "L1", Mode: LineModeRight})
	assert.ErrorIs(t, err, ErrUnique)
}

// uniqueConstraintErr mimics the error text modernc.org/sqlite surfaces for
// a UNIQUE constraint failure, without requiring a real sqlite file in
// this unit test.
type uniqueConstraintErr struct{}

func (e *uniqueConstraintErr) Error() string {
	return "constraint failed: UNIQUE constraint failed: lines.name (2067)"
}

func TestDeleteLineNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM lines").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteLine(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
}
