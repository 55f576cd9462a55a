package schematic

import "fmt"

// BuildError is returned while assembling a Graph: adding nodes, ports or
// connections that violate the graph's structural invariants.
type BuildError struct {
	Kind    BuildErrorKind
	Detail  string
}

// BuildErrorKind enumerates the ways building a schematic can fail.
type BuildErrorKind int

const (
	// InvalidDirection is returned when a port is looked up or connected
	// against the wrong direction (e.g. connecting two input ports).
	InvalidDirection BuildErrorKind = iota
	// UnknownPort is returned when a port index or name does not exist on
	// the referenced node.
	UnknownPort
	// MultipleInputConnections is returned when a second connection is
	// attempted into an input port that already has one (fan-in is 1).
	MultipleInputConnections
	// DuplicateNodeID names a second node with an already-used name. The
	// builder in this package does not return it: AddExternal and
	// AddInherent are idempotent by name and return the existing node.
	DuplicateNodeID
	// UnknownNode is returned when a node index or id does not resolve.
	UnknownNode
)

func (k BuildErrorKind) String() string {
	switch k {
	case InvalidDirection:
		return "InvalidDirection"
	case UnknownPort:
		return "UnknownPort"
	case MultipleInputConnections:
		return "MultipleInputConnections"
	case DuplicateNodeID:
		return "DuplicateNodeID"
	case UnknownNode:
		return "UnknownNode"
	default:
		return "UnknownBuildError"
	}
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newBuildError(kind BuildErrorKind, format string, args ...any) *BuildError {
	return &BuildError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
