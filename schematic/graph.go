// Package schematic implements the dataflow graph data structure: nodes,
// ports and connections laid out in flat arenas addressed by index rather
// than by pointer, so a built Graph can never contain a reference cycle.
package schematic

import "fmt"

// Graph is one compiled schematic: a fixed Input sentinel at index 0, a
// fixed Output sentinel at index 1, zero or more inherent-data nodes, and
// zero or more external operation nodes, wired together by Connections.
type Graph struct {
	Name        string
	nodes       []*Node
	byName      map[string]NodeIndex
	connections []Connection
}

// New creates an empty schematic named id, pre-populated with its Input and
// Output sentinel nodes at the reserved indices.
func New(id string) *Graph {
	g := &Graph{Name: id, byName: map[string]NodeIndex{}}
	in := newNode(SchematicInputName, InputNodeIndex, KindInput, NodeReference{Namespace: NSSchematic, Name: SchematicInputName})
	out := newNode(SchematicOutputName, OutputNodeIndex, KindOutput, NodeReference{Namespace: NSSchematic, Name: SchematicOutputName})
	g.nodes = append(g.nodes, in, out)
	g.byName[in.Name] = InputNodeIndex
	g.byName[out.Name] = OutputNodeIndex
	return g
}

// Input returns the schematic's Input sentinel node.
func (g *Graph) Input() *Node { return g.nodes[InputNodeIndex] }

// Output returns the schematic's Output sentinel node.
func (g *Graph) Output() *Node { return g.nodes[OutputNodeIndex] }

// AddInput declares an invocation argument, mirrored as an output on the
// Input sentinel so that the rest of the graph can read it like any other
// node's output port.
func (g *Graph) AddInput(name string) (PortRef, error) { return g.Input().AddOutput(name) }

// AddOutput declares a caller-visible result, mirrored as an input on the
// Output sentinel.
func (g *Graph) AddOutput(name string) (PortRef, error) { return g.Output().AddInput(name) }

// AddInherent registers a node fed runtime-supplied data (a per-transaction
// seed value or a timestamp) rather than an upstream connection. Re-adding the
// same name returns the existing node, matching the idempotent-by-name
// behavior of the rest of the builder API.
func (g *Graph) AddInherent(name string) *Node {
	return g.addNode(name, KindInherent, NodeReference{Namespace: NSSchematic, Name: name})
}

// AddExternal registers an operation node bound to (namespace, name) in a
// signature registry. Re-adding the same node name returns the existing
// node.
func (g *Graph) AddExternal(nodeName, namespace, opName string) *Node {
	return g.addNode(nodeName, KindExternal, NodeReference{Namespace: namespace, Name: opName})
}

func (g *Graph) addNode(name string, kind NodeKind, ref NodeReference) *Node {
	if idx, ok := g.byName[name]; ok {
		return g.nodes[idx]
	}
	idx := NodeIndex(len(g.nodes))
	n := newNode(name, idx, kind, ref)
	g.nodes = append(g.nodes, n)
	g.byName[name] = idx
	return n
}

// Node returns the node at idx.
func (g *Graph) Node(idx NodeIndex) (*Node, error) {
	if idx < 0 || int(idx) >= len(g.nodes) {
		return nil, newBuildError(UnknownNode, "node index %d out of range", idx)
	}
	return g.nodes[idx], nil
}

// NodeByName looks a node up by its declared name.
func (g *Graph) NodeByName(name string) (*Node, bool) {
	idx, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.nodes[idx], true
}

// Nodes returns every node in the graph in arena order (Input, Output, then
// insertion order of the rest).
func (g *Graph) Nodes() []*Node { return g.nodes }

// Connections returns every connection in the graph in arena order.
func (g *Graph) Connections() []Connection { return g.connections }

// Connection returns the connection at idx.
func (g *Graph) Connection(idx ConnectionIndex) (Connection, error) {
	if idx < 0 || int(idx) >= len(g.connections) {
		return Connection{}, newBuildError(UnknownNode, "connection index %d out of range", idx)
	}
	return g.connections[idx], nil
}

// Connect wires an output port to an input port. Fan-out from the output
// port is unbounded; fan-in to the input port is capped at one and a
// second attempt returns MultipleInputConnections.
func (g *Graph) Connect(from, to PortRef) (ConnectionIndex, error) {
	if from.Direction != Out {
		return 0, newBuildError(InvalidDirection, "connection source %s is not an output port", from)
	}
	if to.Direction != In {
		return 0, newBuildError(InvalidDirection, "connection target %s is not an input port", to)
	}
	fromNode, err := g.Node(from.NodeIndex)
	if err != nil {
		return 0, err
	}
	toNode, err := g.Node(to.NodeIndex)
	if err != nil {
		return 0, err
	}
	idx := ConnectionIndex(len(g.connections))
	if err := toNode.connectInput(to.PortIndex, idx); err != nil {
		return 0, err
	}
	if err := fromNode.connectOutput(from.PortIndex, idx); err != nil {
		return 0, err
	}
	g.connections = append(g.connections, Connection{From: from, To: to})
	return idx, nil
}

// ConnectByName resolves port names on named nodes and connects them,
// the form schematic manifests and test fixtures normally use.
func (g *Graph) ConnectByName(fromNode, fromPort, toNode, toPort string) (ConnectionIndex, error) {
	fn, ok := g.NodeByName(fromNode)
	if !ok {
		return 0, newBuildError(UnknownNode, "unknown node %q", fromNode)
	}
	tn, ok := g.NodeByName(toNode)
	if !ok {
		return 0, newBuildError(UnknownNode, "unknown node %q", toNode)
	}
	fp, ok := fn.FindOutput(fromPort)
	if !ok {
		return 0, newBuildError(UnknownPort, "node %q has no output port %q", fromNode, fromPort)
	}
	tp, ok := tn.FindInput(toPort)
	if !ok {
		return 0, newBuildError(UnknownPort, "node %q has no input port %q", toNode, toPort)
	}
	return g.Connect(fp.Ref, tp.Ref)
}

// DownstreamOf returns the input ports directly connected to an output
// port, in connection order.
func (g *Graph) DownstreamOf(ref PortRef) ([]PortRef, error) {
	n, err := g.Node(ref.NodeIndex)
	if err != nil {
		return nil, err
	}
	p, ok := n.outs.get(ref.PortIndex)
	if !ok {
		return nil, newBuildError(UnknownPort, "node %q has no output port %d", n.Name, ref.PortIndex)
	}
	out := make([]PortRef, 0, len(p.connections))
	for _, ci := range p.connections {
		out = append(out, g.connections[ci].To)
	}
	return out, nil
}

// UpstreamOf returns the output port feeding an input port, if connected.
func (g *Graph) UpstreamOf(ref PortRef) (PortRef, bool, error) {
	n, err := g.Node(ref.NodeIndex)
	if err != nil {
		return PortRef{}, false, err
	}
	p, ok := n.ins.get(ref.PortIndex)
	if !ok {
		return PortRef{}, false, newBuildError(UnknownPort, "node %q has no input port %d", n.Name, ref.PortIndex)
	}
	if len(p.connections) == 0 {
		return PortRef{}, false, nil
	}
	return g.connections[p.connections[0]].From, true, nil
}

func (g *Graph) String() string {
	return fmt.Sprintf("schematic(%s, %d nodes, %d connections)", g.Name, len(g.nodes), len(g.connections))
}
