package tlsserver

import (
	"github.com/fryholic/cctv-coordinator/internal/bbox"
)

// session is the per-connection authentication and pusher state. Every
// field is only ever touched from the connection's own read loop
// goroutine, except where noted.
type session struct {
	authenticated bool
	accountID     string

	// set by a successful request 8, consumed (and cleared) by request 22.
	pendingAccountID string

	pusher        *bbox.Pusher
	releasePusher func()
}

// requiresAuth reports whether requestID needs a completed login. It is
// false only for the three requests a connection may send before
// completing the login handshake (8, 9 and 22).
func requiresAuth(requestID int) bool {
	switch requestID {
	case reqAuthStep1, reqAuthStep2, reqCreateAccount:
		return false
	default:
		return true
	}
}
