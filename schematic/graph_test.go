package schematic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraphHasSentinels(t *testing.T) {
	g := New("passthrough")
	assert.Equal(t, KindInput, g.Input().Kind)
	assert.Equal(t, KindOutput, g.Output().Kind)
	assert.Equal(t, InputNodeIndex, g.Input().Index())
	assert.Equal(t, OutputNodeIndex, g.Output().Index())
}

func TestAddInputMirrorsOnInputNode(t *testing.T) {
	g := New("s")
	ref, err := g.AddInput("left")
	require.NoError(t, err)
	assert.Equal(t, Out, ref.Direction)

	_, ok := g.Input().FindInput("left")
	assert.True(t, ok, "Input sentinel should mirror the port onto its input list too")
}

func TestManualAddInputOnInputNodePanicsAsBuildError(t *testing.T) {
	g := New("s")
	_, err := g.Input().AddInput("x")
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, InvalidDirection, be.Kind)
}

func TestConnectAndFanOut(t *testing.T) {
	g := New("fanout")
	in, err := g.AddInput("value")
	require.NoError(t, err)
	n1 := g.AddExternal("double", "math", "double")
	n2 := g.AddExternal("triple", "math", "triple")
	p1, err := n1.AddInput("in")
	require.NoError(t, err)
	p2, err := n2.AddInput("in")
	require.NoError(t, err)

	_, err = g.Connect(in, p1)
	require.NoError(t, err)
	_, err = g.Connect(in, p2)
	require.NoError(t, err)

	down, err := g.DownstreamOf(in)
	require.NoError(t, err)
	assert.Len(t, down, 2)
}

func TestFanInCappedAtOne(t *testing.T) {
	g := New("fanin")
	a := g.AddExternal("a", "ns", "a")
	b := g.AddExternal("b", "ns", "b")
	c := g.AddExternal("c", "ns", "c")
	ao, _ := a.AddOutput("out")
	bo, _ := b.AddOutput("out")
	ci, _ := c.AddInput("in")

	_, err := g.Connect(ao, ci)
	require.NoError(t, err)

	_, err = g.Connect(bo, ci)
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, MultipleInputConnections, be.Kind)
}

func TestAddExternalIdempotentByName(t *testing.T) {
	g := New("s")
	a := g.AddExternal("n", "ns", "op")
	b := g.AddExternal("n", "ns", "op2")
	assert.Same(t, a, b, "re-adding the same node name must return the existing node")
}

func TestConnectByNameUnknownNode(t *testing.T) {
	g := New("s")
	_, err := g.ConnectByName("missing", "out", "alsomissing", "in")
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, UnknownNode, be.Kind)
}
