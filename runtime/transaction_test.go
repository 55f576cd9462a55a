package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/flowmesh/packet"
	"github.com/flowmesh/flowmesh/schematic"
)

func passthroughGraph(t *testing.T) *schematic.Graph {
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

func TestTransactionDoneFalseUntilOutputClosed(t *testing.T) {
	g := passthroughGraph(t)
	tx := New(g, 1)
	assert.False(t, tx.Done())
}

func TestRouteDeliversToDownstreamAndDoneCompletes(t *testing.T) {
	g := passthroughGraph(t)
	tx := New(g, 1)

	inputRef, err := g.Input().AddOutput("value")
	require.NoError(t, err)

	_, err = tx.Route(inputRef, packet.NewData("i64", []byte{42}))
	require.NoError(t, err)
	assert.False(t, tx.Done())

	_, err = tx.Route(inputRef, packet.NewDone())
	require.NoError(t, err)
	assert.False(t, tx.Done(), "the data packet is still unread ahead of the Done signal, so the port is DoneOpen, not yet DoneClosed")

	outs := tx.TakeOutputs()
	require.Len(t, outs, 2, "the data packet plus a synthesized Done for the port")
	assert.Equal(t, "value", outs[0].Port)
	assert.Equal(t, "value", outs[1].Port)
	assert.True(t, outs[1].Packet.IsDone())
	assert.True(t, tx.Done(), "draining the last packet advances the port to DoneClosed")

	assert.Empty(t, tx.TakeOutputs(), "the synthesized Done is only reported once per port")
}

func TestFanOutErrorHitsEveryDeclaredOutputPort(t *testing.T) {
	g := schematic.New("fanout")
	in, err := g.AddInput("value")
	require.NoError(t, err)
	node := g.AddExternal("split", "ns", "split")
	nodeIn, err := node.AddInput("in")
	require.NoError(t, err)
	outA, err := node.AddOutput("a")
	require.NoError(t, err)
	outB, err := node.AddOutput("b")
	require.NoError(t, err)

	oa, err := g.AddOutput("a")
	require.NoError(t, err)
	ob, err := g.AddOutput("b")
	require.NoError(t, err)

	_, err = g.Connect(in, nodeIn)
	require.NoError(t, err)
	_, err = g.Connect(outA, oa)
	require.NoError(t, err)
	_, err = g.Connect(outB, ob)
	require.NoError(t, err)

	tx := New(g, 1)
	results, err := tx.FanOutError(node.Index(), "panic", "boom")
	require.NoError(t, err)
	assert.Len(t, results, 2, "one error+done pair per declared output port")

	outs := tx.TakeOutputs()
	require.Len(t, outs, 4, "one error packet and one synthesized Done per declared output port")
	errs, dones := 0, 0
	for _, p := range outs {
		if p.Packet.IsDone() {
			dones++
			continue
		}
		assert.True(t, p.Packet.IsError())
		assert.Equal(t, "boom", p.Packet.ErrMsg)
		errs++
	}
	assert.Equal(t, 2, errs)
	assert.Equal(t, 2, dones)
	assert.True(t, tx.Done())
}

func TestTakeHandlerInputsFiresOnceWhenReady(t *testing.T) {
	g := schematic.New("s")
	node := g.AddExternal("op", "ns", "op")
	in, err := node.AddInput("in")
	require.NoError(t, err)
	_, err = node.AddOutput("out")
	require.NoError(t, err)

	tx := New(g, 1)
	_, err = tx.PushInput(in, packet.NewData("i64", []byte{7}))
	require.NoError(t, err)

	payload, ok := tx.TakeHandlerInputs(node.Index())
	require.True(t, ok)
	assert.Contains(t, payload, "in")

	_, ok = tx.TakeHandlerInputs(node.Index())
	assert.False(t, ok, "a dispatched node must not fire twice")
}
