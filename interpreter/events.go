package interpreter

import (
	"github.com/google/uuid"

	"github.com/flowmesh/flowmesh/packet"
	"github.com/flowmesh/flowmesh/schematic"
)

// EventKind discriminates the messages the event loop consumes. Every
// state-changing operation on a Transaction happens inside the loop's
// single goroutine while handling one of these; nothing else ever touches
// Transaction state directly.
type EventKind int

const (
	// TxStart primes a freshly created transaction's Inherent sources and
	// dispatches any node that is immediately ready.
	TxStart EventKind = iota
	// PortData signals that a packet was pushed onto an input port; the
	// loop checks whether that makes the owning node ready to dispatch.
	PortData
	// NodeReady requests that a ready, not-yet-dispatched node's handler
	// be invoked.
	NodeReady
	// Delivered carries a packet produced on an output port (by a running
	// handler, or by Invoke for the Input sentinel), addressed by that
	// port's PortRef, to be routed to its downstream connections.
	Delivered
	// HandlerDone marks that a running handler's packet stream closed.
	HandlerDone
	// HandlerError marks that a running handler failed outright; it fans
	// an error out to every output port the node declares.
	HandlerError
	// TxOutput requests a flush of newly available output packets to the
	// transaction's caller-facing stream; the flush blocks while that
	// stream's buffer is full.
	TxOutput
	// TxDone finalizes and unregisters a transaction once it is done.
	TxDone
	// Ping is a diagnostic event kind. Nothing in this package raises it and
	// the loop takes no action on it; the watchdog checks transactions
	// directly from its own goroutine.
	Ping
	// Close handles the events already queued behind it, then stops the
	// event loop.
	Close
)

// Event is one message on the loop's dispatch queue.
type Event struct {
	Kind EventKind
	TxID uuid.UUID

	Port schematic.PortRef // PortData, Delivered (destination/source port)
	Node schematic.NodeIndex
	Name string // not set by any event this package produces

	Data packet.Packet // Delivered payload

	ErrCode string // HandlerError
	ErrMsg  string
}
