package runtime

import (
	"github.com/flowmesh/flowmesh/buffer"
	"github.com/flowmesh/flowmesh/schematic"
)

// NodeInstance is the per-transaction execution state of one schematic
// node: one PortBuffer per declared input port, plus the bookkeeping the
// scheduler needs to dispatch the node's handler repeatedly as new packets
// arrive, until every input has permanently closed.
type NodeInstance struct {
	Node       *schematic.Node
	Inputs     map[schematic.PortIndex]*buffer.PortBuffer
	dispatched bool
	exhausted  bool
}

func newNodeInstance(n *schematic.Node) *NodeInstance {
	ni := &NodeInstance{Node: n, Inputs: map[schematic.PortIndex]*buffer.PortBuffer{}}
	for _, p := range n.Inputs() {
		ni.Inputs[p.Ref.PortIndex] = buffer.New()
	}
	return ni
}

// Buffer returns the input port buffer at idx.
func (ni *NodeInstance) Buffer(idx schematic.PortIndex) (*buffer.PortBuffer, bool) {
	b, ok := ni.Inputs[idx]
	return b, ok
}

// Ready reports whether every declared input port has data waiting or has
// permanently closed empty, and this instance has not already taken the
// dispatch where every port was simultaneously empty-and-closed (its last
// possible invocation). A node with no input ports (a pure source) is ready
// exactly once, for that same reason.
func (ni *NodeInstance) Ready() bool {
	if ni.exhausted {
		return false
	}
	for _, b := range ni.Inputs {
		if !b.Ready() {
			return false
		}
	}
	return true
}

// Dispatched reports whether a handler invocation for this instance is
// currently in flight. The scheduler takes handler input for a node only
// while this is false, so one node is never invoked concurrently with
// itself — it may still be invoked again, with a fresh packet set, once
// that invocation completes and ClearDispatched runs.
func (ni *NodeInstance) Dispatched() bool { return ni.dispatched }

// MarkDispatched flags that a handler invocation for this instance is now
// in flight.
func (ni *NodeInstance) MarkDispatched() { ni.dispatched = true }

// ClearDispatched flags that the in-flight handler invocation has
// finished, letting the node be dispatched again if it has since become
// ready.
func (ni *NodeInstance) ClearDispatched() { ni.dispatched = false }

// MarkExhausted flags that the node's most recent dispatch already saw
// every input port closed empty with nothing left to take: no further
// packet will ever arrive, so it must never be dispatched again.
func (ni *NodeInstance) MarkExhausted() { ni.exhausted = true }

// Exhausted reports whether the dispatch that just ran was this instance's
// last possible one, so its caller knows whether that was the node's final
// stream end.
func (ni *NodeInstance) Exhausted() bool { return ni.exhausted }
