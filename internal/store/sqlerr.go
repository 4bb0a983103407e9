package store

import "strings"

// isUniqueViolation recognizes sqlite's UNIQUE/PRIMARY KEY constraint error
// text. modernc.org/sqlite surfaces the underlying SQLITE_CONSTRAINT message
// verbatim rather than a typed code callers can switch on, so this is the
// idiomatic recognition point across the driver's issue tracker and the
// wider ecosystem.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
