package schematic

import "fmt"

// NSSchematic is the reserved namespace used for the graph's own Input and
// Output sentinel nodes, mirroring how a resolved schematic appears as a
// component in its own right within the registry's self namespace.
const NSSchematic = "schematic"

// Reserved sentinel names for the Input and Output nodes of every schematic.
const (
	SchematicInputName  = "<input>"
	SchematicOutputName = "<output>"
)

// Reserved, fixed node indices. Every Graph carries exactly one Input node
// at index 0 and one Output node at index 1. InherentNodeIndex is the index
// an inherent-data node gets when it is the first node added after the
// sentinels; the builder does not reserve it, so an inherent node added
// after other nodes sits at a later index.
const (
	InputNodeIndex    NodeIndex = 0
	OutputNodeIndex   NodeIndex = 1
	InherentNodeIndex NodeIndex = 2
)

// NodeKind distinguishes the four roles a node can play in a schematic.
type NodeKind int

const (
	// KindInput is the schematic's sole entry sentinel: its "outputs" are
	// the caller-supplied invocation arguments.
	KindInput NodeKind = iota
	// KindOutput is the schematic's sole exit sentinel: its "inputs" are
	// the values streamed back to the caller.
	KindOutput
	// KindInherent is a node fed runtime-supplied data (a per-transaction
	// seed or timestamp) rather than packets flowing from an upstream
	// connection.
	KindInherent
	// KindExternal is an ordinary operation resolved against a signature
	// registry by (namespace, name).
	KindExternal
)

func (k NodeKind) String() string {
	switch k {
	case KindInput:
		return "Input"
	case KindOutput:
		return "Output"
	case KindInherent:
		return "Inherent"
	case KindExternal:
		return "External"
	default:
		return "UnknownKind"
	}
}

// NodeReference names the component an External or Inherent node resolves
// to: Namespace is either a provider namespace or the reserved self
// namespace ("self") for other schematics in the same program.
type NodeReference struct {
	Namespace string
	Name      string
}

func (r NodeReference) String() string { return fmt.Sprintf("%s::%s", r.Namespace, r.Name) }

// NodePort is one named port on a node, together with the connections
// attached to it. Input ports carry at most one connection; output ports
// may carry any number.
type NodePort struct {
	Name        string
	Ref         PortRef
	connections []ConnectionIndex
}

// Connections returns the connection indices attached to this port.
func (p *NodePort) Connections() []ConnectionIndex { return p.connections }

func (p *NodePort) addConnection(c ConnectionIndex) error {
	if p.Ref.Direction == In && len(p.connections) > 0 {
		return newBuildError(MultipleInputConnections, "port %s already has an incoming connection", p.Name)
	}
	p.connections = append(p.connections, c)
	return nil
}

// portList is an insertion-ordered, name-indexed collection of same
// direction ports belonging to one node.
type portList struct {
	direction PortDirection
	byName    map[string]PortIndex
	ports     []NodePort
}

func newPortList(dir PortDirection) *portList {
	return &portList{direction: dir, byName: map[string]PortIndex{}}
}

// add registers port name if new and returns its PortRef either way
// (idempotent, matching the Rust PortList::add behavior).
func (l *portList) add(name string, node NodeIndex) PortRef {
	if idx, ok := l.byName[name]; ok {
		return l.ports[idx].Ref
	}
	idx := PortIndex(len(l.ports))
	ref := PortRef{NodeIndex: node, PortIndex: idx, Direction: l.direction}
	l.byName[name] = idx
	l.ports = append(l.ports, NodePort{Name: name, Ref: ref})
	return ref
}

func (l *portList) find(name string) (*NodePort, bool) {
	idx, ok := l.byName[name]
	if !ok {
		return nil, false
	}
	return &l.ports[idx], true
}

func (l *portList) get(idx PortIndex) (*NodePort, bool) {
	if idx < 0 || int(idx) >= len(l.ports) {
		return nil, false
	}
	return &l.ports[idx], true
}

// Node is one vertex of a Graph: either the Input/Output sentinel, an
// inherent-data source, or an external operation bound to a registry entry.
type Node struct {
	Name  string
	Kind  NodeKind
	Ref   NodeReference
	index NodeIndex
	ins   *portList
	outs  *portList
}

func newNode(name string, index NodeIndex, kind NodeKind, ref NodeReference) *Node {
	return &Node{
		Name:  name,
		Kind:  kind,
		Ref:   ref,
		index: index,
		ins:   newPortList(In),
		outs:  newPortList(Out),
	}
}

// Index returns this node's position in its Graph's node arena.
func (n *Node) Index() NodeIndex { return n.index }

// Inputs returns the node's input ports in declaration order.
func (n *Node) Inputs() []NodePort { return n.ins.ports }

// Outputs returns the node's output ports in declaration order.
func (n *Node) Outputs() []NodePort { return n.outs.ports }

// FindInput looks up an input port by name.
func (n *Node) FindInput(name string) (*NodePort, bool) { return n.ins.find(name) }

// FindOutput looks up an output port by name.
func (n *Node) FindOutput(name string) (*NodePort, bool) { return n.outs.find(name) }

// AddInput declares an input port on an External node. The Input and
// Inherent sentinel kinds may not receive manually added inputs: the
// schematic builder mirrors ports onto them instead, matching the
// asymmetry in the original graph representation.
func (n *Node) AddInput(name string) (PortRef, error) {
	switch n.Kind {
	case KindOutput:
		n.outs.add(name, n.index)
		return n.ins.add(name, n.index), nil
	case KindInput, KindInherent:
		return PortRef{}, newBuildError(InvalidDirection, "node %q (%s) cannot have inputs added manually", n.Name, n.Kind)
	default:
		return n.ins.add(name, n.index), nil
	}
}

// AddOutput declares an output port on an External node, mirroring AddInput.
func (n *Node) AddOutput(name string) (PortRef, error) {
	switch n.Kind {
	case KindInput, KindInherent:
		n.ins.add(name, n.index)
		return n.outs.add(name, n.index), nil
	case KindOutput:
		return PortRef{}, newBuildError(InvalidDirection, "node %q (%s) cannot have outputs added manually", n.Name, n.Kind)
	default:
		return n.outs.add(name, n.index), nil
	}
}

func (n *Node) connectInput(port PortIndex, conn ConnectionIndex) error {
	p, ok := n.ins.get(port)
	if !ok {
		return newBuildError(UnknownPort, "node %q has no input port %d", n.Name, port)
	}
	return p.addConnection(conn)
}

func (n *Node) connectOutput(port PortIndex, conn ConnectionIndex) error {
	p, ok := n.outs.get(port)
	if !ok {
		return newBuildError(UnknownPort, "node %q has no output port %d", n.Name, port)
	}
	return p.addConnection(conn)
}

func (n *Node) String() string { return fmt.Sprintf("%s(%s)", n.Kind, n.Ref) }
