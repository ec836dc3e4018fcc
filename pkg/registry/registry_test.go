package registry

import (
	"testing"

	"github.com/chisheng/busybus/pkg/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertUniqueness(t *testing.T) {
	r := New()
	entry := &Entry{Local: func(arg *object.Object) (*object.Object, error) { return arg, nil }}

	require.NoError(t, r.Insert("bbus.bbusd.echo", entry))

	err := r.Insert("bbus.bbusd.echo", entry)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestLookupAfterInsert(t *testing.T) {
	r := New()
	entry := &Entry{Local: func(arg *object.Object) (*object.Object, error) { return arg, nil }}
	require.NoError(t, r.Insert("bbus.foo.bar", entry))

	got, err := r.Lookup("bbus.foo.bar")
	require.NoError(t, err)
	assert.Same(t, entry, got)

	_, err = r.Lookup("bbus.foo.baz")
	assert.ErrorIs(t, err, ErrNoSuchMethod)
}

func TestTopLevelRejected(t *testing.T) {
	r := New()
	entry := &Entry{Local: func(arg *object.Object) (*object.Object, error) { return arg, nil }}
	err := r.Insert("echo", entry)
	assert.ErrorIs(t, err, ErrTopLevel)
}

func TestRemoveByProvider(t *testing.T) {
	r := New()
	type providerID struct{ name string }
	p1 := &providerID{"p1"}
	p2 := &providerID{"p2"}

	require.NoError(t, r.Insert("bbus.foo.bar", &Entry{Remote: &RemoteEntry{Provider: p1, LeafName: "bar"}}))
	require.NoError(t, r.Insert("bbus.foo.baz", &Entry{Remote: &RemoteEntry{Provider: p2, LeafName: "baz"}}))
	require.NoError(t, r.Insert("bbus.other.qux", &Entry{Remote: &RemoteEntry{Provider: p1, LeafName: "qux"}}))

	removed := r.RemoveByProvider(p1)
	assert.Equal(t, 2, removed)

	_, err := r.Lookup("bbus.foo.bar")
	assert.ErrorIs(t, err, ErrNoSuchMethod)

	got, err := r.Lookup("bbus.foo.baz")
	require.NoError(t, err)
	assert.Equal(t, p2, got.Remote.Provider)

	_, err = r.Lookup("bbus.other.qux")
	assert.ErrorIs(t, err, ErrNoSuchMethod)
}

func TestRemoveByPath(t *testing.T) {
	r := New()
	entry := &Entry{Local: func(arg *object.Object) (*object.Object, error) { return arg, nil }}
	require.NoError(t, r.Insert("bbus.foo.bar", entry))
	require.NoError(t, r.RemoveByPath("bbus.foo.bar"))
	assert.ErrorIs(t, r.RemoveByPath("bbus.foo.bar"), ErrNoSuchMethod)
}

func TestList(t *testing.T) {
	r := New()
	entry := &Entry{Local: func(arg *object.Object) (*object.Object, error) { return arg, nil }}
	require.NoError(t, r.Insert("bbus.foo.bar", entry))
	require.NoError(t, r.Insert("bbus.bbusd.echo", entry))

	paths := r.List()
	assert.ElementsMatch(t, []string{"bbus.foo.bar", "bbus.bbusd.echo"}, paths)
}
