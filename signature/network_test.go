package signature

import (
	"testing"

	"github.com/flowmesh/flowmesh/schematic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func externalRegistry() Registry {
	reg := NewMemoryRegistry()
	double := NewOperationSignature("double")
	double.Inputs = []Field{{Name: "in", Type: Simple(KindI64)}}
	double.Outputs = []Field{{Name: "out", Type: Simple(KindI64)}}
	reg.Register("math", double)
	return reg
}

func buildPassthrough(t *testing.T) *schematic.Graph {
	t.Helper()
	g := schematic.New("passthrough")
	in, err := g.AddInput("value")
	require.NoError(t, err)
	out, err := g.AddOutput("value")
	require.NoError(t, err)
	_, err = g.Connect(in, out)
	require.NoError(t, err)
	return g
}

func TestResolveSelfSignaturesPassthrough(t *testing.T) {
	net := NewNetwork()
	net.Add(buildPassthrough(t))

	reg, err := ResolveSelfSignatures(net, externalRegistry())
	require.NoError(t, err)

	sig, ok := reg.Lookup(SelfNamespace, "passthrough")
	require.True(t, ok)
	in, ok := sig.Input("value")
	require.True(t, ok)
	assert.Equal(t, KindRaw, in.Type.Kind)
	out, ok := sig.Output("value")
	require.True(t, ok)
	assert.Equal(t, KindRaw, out.Type.Kind)
}

func TestResolveSelfSignaturesWithExternalOperation(t *testing.T) {
	g := schematic.New("doubler")
	in, _ := g.AddInput("n")
	out, _ := g.AddOutput("n2")
	dbl := g.AddExternal("dbl", "math", "double")
	dblIn, _ := dbl.AddInput("in")
	dblOut, _ := dbl.AddOutput("out")
	_, err := g.Connect(in, dblIn)
	require.NoError(t, err)
	_, err = g.Connect(dblOut, out)
	require.NoError(t, err)

	net := NewNetwork()
	net.Add(g)
	reg, err := ResolveSelfSignatures(net, externalRegistry())
	require.NoError(t, err)

	sig, ok := reg.Lookup(SelfNamespace, "doubler")
	require.True(t, ok)
	outField, ok := sig.Output("n2")
	require.True(t, ok)
	assert.Equal(t, KindI64, outField.Type.Kind)
}

func TestResolveSelfReferencingSchematics(t *testing.T) {
	inner := schematic.New("inner")
	a, _ := inner.AddInput("x")
	b, _ := inner.AddOutput("x")
	_, err := inner.Connect(a, b)
	require.NoError(t, err)

	outer := schematic.New("outer")
	oi, _ := outer.AddInput("x")
	oo, _ := outer.AddOutput("x")
	call := outer.AddExternal("call_inner", SelfNamespace, "inner")
	callIn, _ := call.AddInput("x")
	callOut, _ := call.AddOutput("x")
	_, err = outer.Connect(oi, callIn)
	require.NoError(t, err)
	_, err = outer.Connect(callOut, oo)
	require.NoError(t, err)

	net := NewNetwork()
	net.Add(outer)
	net.Add(inner)

	reg, err := ResolveSelfSignatures(net, NewMemoryRegistry())
	require.NoError(t, err)
	_, ok := reg.Lookup(SelfNamespace, "outer")
	assert.True(t, ok)
	_, ok = reg.Lookup(SelfNamespace, "inner")
	assert.True(t, ok)
}

func TestResolveSelfReferenceCycleGivesUpAfterFiveCycles(t *testing.T) {
	a := schematic.New("a")
	b := schematic.New("b")

	aCall := a.AddExternal("call_b", SelfNamespace, "b")
	_, _ = aCall.AddInput("x")
	_, _ = aCall.AddOutput("x")

	bCall := b.AddExternal("call_a", SelfNamespace, "a")
	_, _ = bCall.AddInput("x")
	_, _ = bCall.AddOutput("x")

	net := NewNetwork()
	net.Add(a)
	net.Add(b)

	_, err := ResolveSelfSignatures(net, NewMemoryRegistry())
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, NetworkUnresolvable, ve.Kind)
}
