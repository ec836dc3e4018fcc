package router

import (
	"github.com/chisheng/busybus/pkg/object"
	"github.com/chisheng/busybus/pkg/registry"
)

// registerBuiltins installs the always-present local methods for basic
// daemon introspection: an echo that hands its argument straight back,
// and an info call returning the daemon's identity string.
func (r *Router) registerBuiltins() {
	_ = r.registry.Insert("bbus.bbusd.echo", &registry.Entry{
		Local: func(arg *object.Object) (*object.Object, error) {
			return arg, nil
		},
	})
	_ = r.registry.Insert("bbus.bbusd.info", &registry.Entry{
		Local: func(arg *object.Object) (*object.Object, error) {
			return object.Build("s", "busybus")
		},
	})
}
