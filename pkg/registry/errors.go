// Package registry implements busybus's method namespace: a tree of
// service nodes keyed by dotted path component, whose leaves are
// either a local function or a weak reference to a publishing
// provider session.
package registry

import "errors"

var (
	// ErrAlreadyRegistered is returned by Insert when the leaf path is
	// already occupied.
	ErrAlreadyRegistered = errors.New("registry: method already registered")
	// ErrNoSuchMethod is returned by Lookup/RemoveByPath when no entry
	// exists at the given path.
	ErrNoSuchMethod = errors.New("registry: no such method")
	// ErrTopLevel is returned by Insert when path has no service
	// component at all. A bare name with no dot leaves the SRVCALL
	// leaf-name meta undefined, so it is rejected outright rather than
	// guessed at.
	ErrTopLevel = errors.New("registry: top-level method registration is not allowed")
)
