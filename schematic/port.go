package schematic

import "fmt"

// PortDirection distinguishes the two ends of a port.
type PortDirection int

const (
	// In marks an input port: it accepts at most one incoming connection.
	In PortDirection = iota
	// Out marks an output port: it may fan out to any number of connections.
	Out
)

func (d PortDirection) String() string {
	if d == In {
		return "In"
	}
	return "Out"
}

// NodeIndex addresses a node within a Graph's arena.
type NodeIndex int

// PortIndex addresses a port within a node's input or output port list.
type PortIndex int

// ConnectionIndex addresses a connection within a Graph's arena.
type ConnectionIndex int

// PortRef addresses one port of one node, unambiguously, without holding a
// pointer into the graph. Graphs are built once and walked by index so they
// stay free of reference cycles.
type PortRef struct {
	NodeIndex NodeIndex
	PortIndex PortIndex
	Direction PortDirection
}

func (p PortRef) String() string {
	return fmt.Sprintf("node(%d).%s[%d]", p.NodeIndex, p.Direction, p.PortIndex)
}

// Connection links one output port to one input port.
type Connection struct {
	From PortRef // Direction == Out
	To   PortRef // Direction == In
}
