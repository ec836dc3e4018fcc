package registry

import (
	"fmt"
	"strings"

	"github.com/chisheng/busybus/pkg/object"
)

// LocalFunc is the body of a locally implemented method: it takes the
// caller's argument object and returns a reply object, or fails.
type LocalFunc func(arg *object.Object) (*object.Object, error)

// RemoteEntry is a weak reference to a provider session publishing one
// of its leaves. Provider is an opaque identity (the router passes its
// own per-session connection value) compared only for equality; the
// registry never dereferences it.
type RemoteEntry struct {
	Provider any
	LeafName string
}

// Entry is a method registry leaf: exactly one of Local or Remote is set.
type Entry struct {
	Local  LocalFunc
	Remote *RemoteEntry
}

// IsLocal reports whether the entry is a locally implemented method.
func (e *Entry) IsLocal() bool { return e.Local != nil }

// node is one level of the service tree: children by path component,
// methods (leaves) by name.
type node struct {
	children map[string]*node
	methods  map[string]*Entry
}

func newNode() *node {
	return &node{children: map[string]*node{}, methods: map[string]*Entry{}}
}

// Registry is the rooted service tree. It is owned exclusively by the
// router's single goroutine and is not safe for concurrent use from
// multiple goroutines.
type Registry struct {
	root *node
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{root: newNode()}
}

func splitPath(path string) ([]string, error) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return nil, ErrTopLevel
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: empty path component in %q", ErrNoSuchMethod, path)
		}
	}
	return parts, nil
}

// Insert adds entry at path (a dotted service path whose last component
// is the method name), creating intermediate nodes as needed. It fails
// with ErrAlreadyRegistered if the leaf is already occupied, or
// ErrTopLevel if path has no service component.
func (r *Registry) Insert(path string, entry *Entry) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	n := r.root
	for _, comp := range parts[:len(parts)-1] {
		child, ok := n.children[comp]
		if !ok {
			child = newNode()
			n.children[comp] = child
		}
		n = child
	}
	leaf := parts[len(parts)-1]
	if _, exists := n.methods[leaf]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, path)
	}
	n.methods[leaf] = entry
	return nil
}

// Lookup descends path and returns its entry, or ErrNoSuchMethod.
func (r *Registry) Lookup(path string) (*Entry, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, ErrNoSuchMethod
	}
	n := r.root
	for _, comp := range parts[:len(parts)-1] {
		child, ok := n.children[comp]
		if !ok {
			return nil, ErrNoSuchMethod
		}
		n = child
	}
	leaf := parts[len(parts)-1]
	entry, ok := n.methods[leaf]
	if !ok {
		return nil, ErrNoSuchMethod
	}
	return entry, nil
}

// RemoveByPath removes the entry exactly at path. Used by SRVUNREG.
func (r *Registry) RemoveByPath(path string) error {
	parts, err := splitPath(path)
	if err != nil {
		return ErrNoSuchMethod
	}
	n := r.root
	for _, comp := range parts[:len(parts)-1] {
		child, ok := n.children[comp]
		if !ok {
			return ErrNoSuchMethod
		}
		n = child
	}
	leaf := parts[len(parts)-1]
	if _, ok := n.methods[leaf]; !ok {
		return ErrNoSuchMethod
	}
	delete(n.methods, leaf)
	return nil
}

// RemoveByProvider removes every remote entry owned by provider
// (compared by identity) across the whole tree, pruning any node left
// with no children and no methods. It returns the number of entries
// removed.
func (r *Registry) RemoveByProvider(provider any) int {
	removed := 0
	removeFromNode(r.root, provider, &removed)
	return removed
}

func removeFromNode(n *node, provider any, removed *int) bool {
	for name, entry := range n.methods {
		if entry.Remote != nil && entry.Remote.Provider == provider {
			delete(n.methods, name)
			*removed++
		}
	}
	for comp, child := range n.children {
		if removeFromNode(child, provider, removed) {
			delete(n.children, comp)
		}
	}
	return len(n.methods) == 0 && len(n.children) == 0
}

// List returns the full dotted path of every registered method, for
// CTRL's enumerate-methods surface. Order is unspecified.
func (r *Registry) List() []string {
	var out []string
	collect(r.root, "", &out)
	return out
}

func collect(n *node, prefix string, out *[]string) {
	for name := range n.methods {
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}
		*out = append(*out, full)
	}
	for comp, child := range n.children {
		next := comp
		if prefix != "" {
			next = prefix + "." + comp
		}
		collect(child, next, out)
	}
}
