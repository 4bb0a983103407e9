package store

import "errors"

// Sentinel errors every store operation maps backend-specific failures to,
// per spec.md §7's Store error kind.
var (
	ErrNotFound = errors.New("store: record not found")
	ErrUnique   = errors.New("store: unique constraint violation")
	ErrBackend  = errors.New("store: backend failure")
)
