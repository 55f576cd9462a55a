package signature

import (
	"github.com/flowmesh/flowmesh/schematic"
)

// Network is a named collection of schematics that may reference each
// other (and themselves) through the self namespace, the unit a program
// resolves signatures for and validates as a whole.
type Network struct {
	schematics map[string]*schematic.Graph
	order      []string // insertion order, kept for deterministic resolution batches
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{schematics: map[string]*schematic.Graph{}}
}

// Add registers a schematic under its own name. Adding the same name twice
// replaces the earlier entry.
func (n *Network) Add(g *schematic.Graph) {
	if _, exists := n.schematics[g.Name]; !exists {
		n.order = append(n.order, g.Name)
	}
	n.schematics[g.Name] = g
}

// Get looks a schematic up by name.
func (n *Network) Get(name string) (*schematic.Graph, bool) {
	g, ok := n.schematics[name]
	return g, ok
}

// Schematics returns every schematic in insertion order.
func (n *Network) Schematics() []*schematic.Graph {
	out := make([]*schematic.Graph, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.schematics[name])
	}
	return out
}

// resolutionOrder batches schematics into resolution waves: a schematic is
// resolvable once every self-referenced schematic it calls is resolvable in
// an earlier (or the same) wave. If the unresolved set stops shrinking for
// five consecutive passes the remaining schematics form a cycle through the
// self namespace and resolution gives up.
func resolutionOrder(n *Network) ([][]string, error) {
	var order [][]string
	willResolve := map[string]bool{}
	remaining := append([]string{}, n.order...)
	cycle := 0
	numUnresolved := len(remaining)

	for cycle < 5 {
		var unresolved, batch []string
		for _, name := range remaining {
			g := n.schematics[name]
			resolvable := true
			for _, node := range g.Nodes() {
				if node.Kind != schematic.KindExternal {
					continue
				}
				if node.Ref.Namespace != SelfNamespace {
					continue
				}
				if !willResolve[node.Ref.Name] {
					resolvable = false
					break
				}
			}
			if resolvable {
				willResolve[name] = true
				batch = append(batch, name)
			} else {
				unresolved = append(unresolved, name)
			}
		}
		if len(batch) > 0 {
			order = append(order, batch)
		}
		remaining = unresolved
		if len(remaining) == 0 {
			break
		}
		if len(remaining) == numUnresolved {
			cycle++
		} else {
			numUnresolved = len(remaining)
			cycle = 0
		}
	}

	if cycle >= 5 {
		return nil, newValidationError(NetworkUnresolvable, "schematics could not be resolved after 5 cycles: %v", remaining)
	}
	return order, nil
}

// ResolveSelfSignatures derives a self-namespace OperationSignature for
// every schematic in the network (its own inputs/outputs as seen from
// outside) against an external registry of already-known components, and
// returns a registry that answers for both. External nodes are resolved
// batch by batch so a schematic that calls another schematic in the same
// network sees its callee's derived signature.
func ResolveSelfSignatures(n *Network, external Registry) (Registry, error) {
	order, err := resolutionOrder(n)
	if err != nil {
		return nil, err
	}
	self := NewMemoryRegistry()
	combined := Layer(self, external)

	for _, batch := range order {
		for _, name := range batch {
			g := n.schematics[name]
			sig, err := schematicSignature(g, combined)
			if err != nil {
				return nil, err
			}
			self.Register(SelfNamespace, sig)
		}
	}
	return combined, nil
}

// schematicSignature derives the OperationSignature a schematic presents to
// the outside world by resolving, for each declared Input/Output sentinel
// port, the type of the port it connects directly to.
func schematicSignature(g *schematic.Graph, reg Registry) (OperationSignature, error) {
	sig := NewOperationSignature(g.Name)

	for _, port := range g.Input().Outputs() {
		down, err := g.DownstreamOf(port.Ref)
		if err != nil {
			return sig, err
		}
		for _, to := range down {
			ft, ok, err := portType(g, to, schematic.In, reg)
			if err != nil {
				return sig, err
			}
			if !ok {
				continue
			}
			sig.Inputs = append(sig.Inputs, Field{Name: port.Name, Type: ft})
			break
		}
	}

	for _, port := range g.Output().Inputs() {
		up, ok, err := g.UpstreamOf(port.Ref)
		if err != nil {
			return sig, err
		}
		if !ok {
			continue
		}
		ft, ok2, err := portType(g, up, schematic.Out, reg)
		if err != nil {
			return sig, err
		}
		if !ok2 {
			continue
		}
		sig.Outputs = append(sig.Outputs, Field{Name: port.Name, Type: ft})
	}

	return sig, nil
}

// portType resolves the FieldType a port carries given the direction the
// caller is observing it from: Raw for the sentinel nodes, the registry's
// declared type for everything else.
func portType(g *schematic.Graph, ref schematic.PortRef, from schematic.PortDirection, reg Registry) (FieldType, bool, error) {
	node, err := g.Node(ref.NodeIndex)
	if err != nil {
		return FieldType{}, false, err
	}

	switch node.Kind {
	case schematic.KindInput:
		if from == schematic.Out {
			return Raw(), true, nil
		}
		return FieldType{}, false, nil
	case schematic.KindOutput:
		if from == schematic.In {
			return Raw(), true, nil
		}
		return FieldType{}, false, nil
	default:
		opSig, ok := reg.Lookup(node.Ref.Namespace, node.Ref.Name)
		if !ok {
			return FieldType{}, false, newValidationError(MissingComponent, "%s::%s", node.Ref.Namespace, node.Ref.Name)
		}
		var portName string
		if from == schematic.In {
			ports := node.Inputs()
			if int(ref.PortIndex) >= len(ports) {
				return FieldType{}, false, newValidationError(MissingPort, "%s::%s has no input at index %d", node.Ref.Namespace, node.Ref.Name, ref.PortIndex)
			}
			portName = ports[ref.PortIndex].Name
			field, ok := opSig.Input(portName)
			if !ok {
				return FieldType{}, false, newValidationError(InvalidPort, "%s::%s has no input port %q", node.Ref.Namespace, node.Ref.Name, portName)
			}
			return field.Type, true, nil
		}
		ports := node.Outputs()
		if int(ref.PortIndex) >= len(ports) {
			return FieldType{}, false, newValidationError(MissingPort, "%s::%s has no output at index %d", node.Ref.Namespace, node.Ref.Name, ref.PortIndex)
		}
		portName = ports[ref.PortIndex].Name
		field, ok := opSig.Output(portName)
		if !ok {
			return FieldType{}, false, newValidationError(InvalidPort, "%s::%s has no output port %q", node.Ref.Namespace, node.Ref.Name, portName)
		}
		return field.Type, true, nil
	}
}
