package interpreter

import (
	"context"

	"github.com/flowmesh/flowmesh/packet"
)

// Output is one packet a Handler produces, addressed to one of the
// operation's declared output ports by name.
type Output struct {
	Port   string
	Packet packet.Packet
}

// Handler implements one operation's behavior: given its resolved inputs
// (one packet per declared input port, or a Done signal packet for a port
// that closed empty), it streams packets back addressed by output port
// name until its channel closes. Returning a non-nil error instead of a
// stream is treated as an immediate component failure and fans out an
// error+Done pair to every output port the operation declares.
type Handler interface {
	Handle(ctx context.Context, opName string, inputs map[string]packet.Packet, config map[string]any) (<-chan Output, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, opName string, inputs map[string]packet.Packet, config map[string]any) (<-chan Output, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, opName string, inputs map[string]packet.Packet, config map[string]any) (<-chan Output, error) {
	return f(ctx, opName, inputs, config)
}

// HandlerMap resolves a node's (namespace, operation) reference to the
// Handler that runs it, mirroring how a signature.Registry resolves the
// same pair to a static signature.
type HandlerMap interface {
	Lookup(namespace, name string) (Handler, bool)
}

// MapHandlerMap is a process-local HandlerMap.
type MapHandlerMap struct {
	entries map[string]map[string]Handler
}

// NewMapHandlerMap creates an empty handler map.
func NewMapHandlerMap() *MapHandlerMap {
	return &MapHandlerMap{entries: map[string]map[string]Handler{}}
}

// Register binds a Handler to (namespace, name).
func (m *MapHandlerMap) Register(namespace, name string, h Handler) {
	ns, ok := m.entries[namespace]
	if !ok {
		ns = map[string]Handler{}
		m.entries[namespace] = ns
	}
	ns[name] = h
}

// Lookup implements HandlerMap.
func (m *MapHandlerMap) Lookup(namespace, name string) (Handler, bool) {
	ns, ok := m.entries[namespace]
	if !ok {
		return nil, false
	}
	h, ok := ns[name]
	return h, ok
}
