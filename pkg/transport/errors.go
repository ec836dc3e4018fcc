// Package transport implements busybus's local stream-socket primitives:
// listen/accept-with-credentials/connect, readiness polling, and the
// send-all/receive-exact loops the rest of the daemon builds on.
package transport

import "errors"

var (
	// ErrConnClosed is returned by RecvExact when the peer closes the
	// connection mid-message (EOF before n bytes were read).
	ErrConnClosed = errors.New("transport: connection closed")
	// ErrShortRead is returned by RecvExact for any other short read.
	ErrShortRead = errors.New("transport: received less than expected")
	// ErrShortWrite is returned by SendAll when fewer bytes could be
	// written than were given, after a hard send error.
	ErrShortWrite = errors.New("transport: sent less than expected")
	// ErrPollInterrupted is the distinguished error Ready returns on
	// EINTR; callers should treat it as "poll again".
	ErrPollInterrupted = errors.New("transport: poll interrupted by a signal")
)
