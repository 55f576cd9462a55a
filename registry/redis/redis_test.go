package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/flowmesh/registry"
	"github.com/flowmesh/flowmesh/signature"
)

func TestStore_PutGetListDeleteClear(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := New(Options{Addr: mr.Addr()})
	defer s.Close()

	var _ registry.Store = s

	add := signature.OperationSignature{
		Name:    "add",
		Inputs:  []signature.Field{{Name: "a", Type: signature.Simple(signature.KindI64)}},
		Outputs: []signature.Field{{Name: "sum", Type: signature.Simple(signature.KindI64)}},
	}
	sub := signature.NewOperationSignature("sub")

	require.NoError(t, s.Put("math", add))
	require.NoError(t, s.Put("math", sub))

	got, ok, err := s.Get("math", "add")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, add, got)

	_, ok, err = s.Get("math", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := s.List("math")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, s.Delete("math", "sub"))
	list, err = s.List("math")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.Clear("math"))
	list, err = s.List("math")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_TTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := New(Options{Addr: mr.Addr(), TTL: 0})
	defer s.Close()

	require.NoError(t, s.Put("math", signature.NewOperationSignature("add")))
	_, ok, err := s.Get("math", "add")
	require.NoError(t, err)
	assert.True(t, ok)
}
