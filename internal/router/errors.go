// Package router implements busybus's single-threaded readiness loop:
// it owns the listener, the live-client set, the method registry, and
// the pending-call map, and drives each session through its state
// machine.
package router

import "errors"

var (
	// ErrShuttingDown is returned by Run once a control client has
	// requested shutdown and the loop has torn down.
	ErrShuttingDown = errors.New("router: shutdown requested")
)
