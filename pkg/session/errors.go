// Package session implements busybus's connection handshake: turning a
// freshly accepted or dialed socket into a typed client session, and
// the graceful CLOSE exchange.
package session

import "errors"

var (
	// ErrRejected is returned to a client-side dialer when the server
	// sends SORJCT instead of SOOK.
	ErrRejected = errors.New("session: session-open rejected")
	// ErrUnauthorized is returned by the server-side handshake when an
	// AuthFunc rejects the connecting peer's credentials.
	ErrUnauthorized = errors.New("session: client unauthorized")
	// ErrBadMessage is returned when the first frame on a new
	// connection is not a well-formed SO message.
	ErrBadMessage = errors.New("session: invalid session-open message")
	// ErrUnknownSOType is returned when a SO frame names a sotype that
	// is not caller/provider/monitor/control.
	ErrUnknownSOType = errors.New("session: unknown session-open type")
)
