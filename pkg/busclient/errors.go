// Package busclient is the blocking client library used by callers and
// providers to talk to a busybus daemon: it drives the handshake, then
// CLICALL/SRVREG and their replies.
//
// Calls are synchronous from the application's point of view: Call
// sends a frame and then waits on the same socket for the matching
// reply. Each Client keeps its own last error instead of a shared
// global — a *Client must not be shared across goroutines without
// external synchronization, but distinct goroutines may each own a
// distinct Client.
package busclient

import "errors"

var (
	// ErrNoMethod mirrors CLIREPLY/NOMETHOD: the called path has no
	// registered handler.
	ErrNoMethod = errors.New("busclient: no such method")
	// ErrMethodFailed mirrors CLIREPLY/METHODERR: the method ran (or the
	// provider could not be reached) and failed.
	ErrMethodFailed = errors.New("busclient: method invocation failed")
	// ErrRegistrationFailed mirrors SRVACK/MREGERR.
	ErrRegistrationFailed = errors.New("busclient: registration failed")
	// ErrUnexpectedReply is returned when a reply frame's msgtype does
	// not match what the preceding request expects.
	ErrUnexpectedReply = errors.New("busclient: unexpected reply message type")
	// ErrClosed is returned by any call made after Close.
	ErrClosed = errors.New("busclient: connection closed")
)
