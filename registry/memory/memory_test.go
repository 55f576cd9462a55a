package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/flowmesh/registry"
	"github.com/flowmesh/flowmesh/signature"
)

func TestStore_New(t *testing.T) {
	t.Parallel()

	s := New()
	require.NotNil(t, s)

	var _ registry.Store = s
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	s := New()

	sig := signature.OperationSignature{
		Name: "add",
		Inputs: []signature.Field{
			{Name: "a", Type: signature.Simple(signature.KindI64)},
			{Name: "b", Type: signature.Simple(signature.KindI64)},
		},
		Outputs: []signature.Field{
			{Name: "sum", Type: signature.Simple(signature.KindI64)},
		},
	}

	require.NoError(t, s.Put("math", sig))

	got, ok, err := s.Get("math", "add")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sig, got)

	_, ok, err = s.Get("math", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Get("other", "add")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.Put("math", signature.NewOperationSignature("add")))
	require.NoError(t, s.Put("math", signature.NewOperationSignature("sub")))
	require.NoError(t, s.Put("fail", signature.NewOperationSignature("boom")))

	list, err := s.List("math")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.List("unknown")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_DeleteClear(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.Put("math", signature.NewOperationSignature("add")))
	require.NoError(t, s.Put("math", signature.NewOperationSignature("sub")))

	require.NoError(t, s.Delete("math", "add"))
	_, ok, err := s.Get("math", "add")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := s.List("math")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.Clear("math"))
	list, err = s.List("math")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_AsRegistry(t *testing.T) {
	t.Parallel()

	s := New()
	sig := signature.NewOperationSignature("add")
	require.NoError(t, s.Put("math", sig))

	reg := registry.AsRegistry(s)
	got, ok := reg.Lookup("math", "add")
	require.True(t, ok)
	assert.Equal(t, "add", got.Name)

	_, ok = reg.Lookup("math", "missing")
	assert.False(t, ok)
}

func TestStore_Close(t *testing.T) {
	t.Parallel()

	s := New()
	assert.NoError(t, s.Close())
}
