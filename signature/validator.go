package signature

import (
	"strings"

	"github.com/flowmesh/flowmesh/log"
	"github.com/flowmesh/flowmesh/schematic"
)

// Validate checks every schematic in the network against reg (normally the
// registry returned by ResolveSelfSignatures, so self-referencing
// schematics validate against each other's derived signatures too) and
// returns one *OperationInvalid per schematic that fails, in network
// insertion order. A nil/empty result means the whole network is valid.
//
// Output ports with no downstream connection are not an error: an unused
// result is only logged, never rejected, matching the comparatively
// permissive stance the original interpreter takes on dead outputs.
func Validate(n *Network, reg Registry, logger log.Logger) []*OperationInvalid {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	var invalid []*OperationInvalid
	for _, g := range n.Schematics() {
		if errs := validateSchematic(g, reg, logger); len(errs) > 0 {
			invalid = append(invalid, &OperationInvalid{Schematic: g.Name, Errors: errs})
		}
	}
	return invalid
}

func validateSchematic(g *schematic.Graph, reg Registry, logger log.Logger) []*ValidationError {
	var errs []*ValidationError

	for _, node := range g.Nodes() {
		switch node.Kind {
		case schematic.KindInput, schematic.KindOutput:
			continue
		}

		opSig, ok := reg.Lookup(node.Ref.Namespace, node.Ref.Name)
		if !ok {
			errs = append(errs, newValidationError(MissingComponent, "node %q references unknown operation %s::%s", node.Name, node.Ref.Namespace, node.Ref.Name))
			continue
		}

		for _, port := range node.Inputs() {
			if _, ok := opSig.Input(port.Name); !ok {
				errs = append(errs, newValidationError(InvalidPort, "node %q input port %q is not declared by %s::%s", node.Name, port.Name, node.Ref.Namespace, node.Ref.Name))
				continue
			}
			if len(port.Connections()) == 0 {
				errs = append(errs, newValidationError(MissingConnection, "node %q input port %q has no incoming connection", node.Name, port.Name))
			}
		}

		for _, port := range node.Outputs() {
			if _, ok := opSig.Output(port.Name); !ok {
				errs = append(errs, newValidationError(InvalidPort, "node %q output port %q is not declared by %s::%s", node.Name, port.Name, node.Ref.Namespace, node.Ref.Name))
				continue
			}
			if len(port.Connections()) == 0 {
				logger.Debug("schematic %q: node %q output port %q has no downstream connection", g.Name, node.Name, port.Name)
			}
		}

		for _, field := range opSig.Inputs {
			if _, ok := node.FindInput(field.Name); !ok {
				errs = append(errs, newValidationError(MissingPort, "node %q does not wire declared input %q of %s::%s", node.Name, field.Name, node.Ref.Namespace, node.Ref.Name))
			}
		}
	}

	return errs
}

// CombineInvalid renders a slice of per-schematic failures as a single
// error message, or nil if the slice is empty.
func CombineInvalid(invalid []*OperationInvalid) error {
	if len(invalid) == 0 {
		return nil
	}
	parts := make([]string, len(invalid))
	for i, oi := range invalid {
		parts[i] = oi.Error()
	}
	return &NetworkInvalid{Message: strings.Join(parts, "\n")}
}

// NetworkInvalid wraps the combined per-schematic validation failures of a
// whole network.
type NetworkInvalid struct{ Message string }

func (e *NetworkInvalid) Error() string { return e.Message }
