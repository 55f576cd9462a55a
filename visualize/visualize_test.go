package visualize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/flowmesh/schematic"
)

func buildPassthrough(t *testing.T) *schematic.Graph {
	t.Helper()
	g := schematic.New("passthrough")
	in, err := g.AddInput("x")
	require.NoError(t, err)
	out, err := g.AddOutput("x")
	require.NoError(t, err)
	_, err = g.Connect(in, out)
	require.NoError(t, err)
	return g
}

func TestDrawMermaidIncludesNodesAndEdges(t *testing.T) {
	g := buildPassthrough(t)
	out := New(g).DrawMermaid()
	assert.Contains(t, out, "flowchart TD")
	assert.Contains(t, out, "n0")
	assert.Contains(t, out, "n1")
	assert.Contains(t, out, "-->|x|")
}

func TestDrawDOTIncludesNodesAndEdges(t *testing.T) {
	g := buildPassthrough(t)
	out := New(g).DrawDOT()
	assert.Contains(t, out, "digraph G")
	assert.Contains(t, out, "n0 -> n1")
}

func TestSummaryListsPortsPerNode(t *testing.T) {
	g := buildPassthrough(t)
	out := New(g).Summary()
	assert.Contains(t, out, "passthrough")
	assert.Contains(t, out, "in  x")
	assert.Contains(t, out, "out x")
}

func TestSummaryIncludesExternalNode(t *testing.T) {
	g := schematic.New("s")
	g.AddExternal("adder", "math", "add")
	out := New(g).Summary()
	assert.Contains(t, out, "adder")
	assert.Contains(t, out, "math::add")
}
