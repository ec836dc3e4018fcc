// Package object implements busybus's typed payload codec: a small
// self-describing grammar ("i", "u", "b", "s", "A x", "(x...)") over a
// flat byte buffer, used for every call argument and return value that
// passes through the daemon.
package object

import "errors"

var (
	// ErrInvalidDescr is returned when a description string does not
	// parse per the object grammar.
	ErrInvalidDescr = errors.New("object: invalid description")
	// ErrFormat is returned when building or parsing an object fails
	// to match its description (wrong argument type, truncated buffer,
	// unterminated string, short array).
	ErrFormat = errors.New("object: invalid format")
	// ErrBufferTooSmall reports that a caller-supplied buffer cannot
	// hold a full representation. Repr builds a string of whatever
	// length the object needs and does not return this error.
	ErrBufferTooSmall = errors.New("object: buffer too small")
)
