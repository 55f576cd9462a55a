// Package runtime holds the per-invocation state the event loop drives: one
// Transaction per call into a schematic, owning a NodeInstance (and its
// input port buffers) for every node, isolated from every other concurrent
// Transaction of the same schematic.
package runtime

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/flowmesh/flowmesh/buffer"
	"github.com/flowmesh/flowmesh/packet"
	"github.com/flowmesh/flowmesh/schematic"
)

// NamedPacket pairs a packet with the name of the port it arrived on or is
// destined for, the shape the external invocation API streams in both
// directions.
type NamedPacket struct {
	Port   string
	Packet packet.Packet
}

// Transaction is one isolated execution of one schematic: its own node
// instances, its own RNG, its own statistics, and its own watchdog clock.
// No two transactions ever share buffer state, even for the same
// schematic run concurrently.
type Transaction struct {
	ID        uuid.UUID
	Graph     *schematic.Graph
	instances []*NodeInstance
	rng       *rand.Rand
	Stats     *TransactionStatistics

	lastActivity atomic.Int64 // unix nanos
	finished     atomic.Bool

	// Output is the caller-facing packet stream for this transaction. The
	// event loop is its only writer; Invoke's caller is the only reader.
	Output chan NamedPacket

	// outputDone tracks which Output-sentinel input ports have already had
	// their synthesized Done forwarded to Output, so a port that stays
	// DoneClosed across several FlushOutputs calls is only reported once.
	outputDone map[string]bool
}

// PacketStream is a sequence of named packets flowing in one direction
// between a caller and a running transaction: invocation input flows in
// on one, invocation output flows back on another.
type PacketStream = <-chan NamedPacket

// New creates a fresh Transaction over g, with one NodeInstance per node in
// the graph's arena order (so NodeInstance index == schematic.NodeIndex).
func New(g *schematic.Graph, seed int64) *Transaction {
	id := uuid.New()
	tx := &Transaction{
		ID:     id,
		Graph:  g,
		rng:        rand.New(rand.NewSource(seed)),
		Stats:      NewTransactionStatistics(id),
		Output:     make(chan NamedPacket, 64),
		outputDone: map[string]bool{},
	}
	for _, n := range g.Nodes() {
		tx.instances = append(tx.instances, newNodeInstance(n))
	}
	tx.Touch()
	tx.Stats.Mark("new")
	return tx
}

// Instance returns the node instance at idx.
func (tx *Transaction) Instance(idx schematic.NodeIndex) *NodeInstance {
	return tx.instances[idx]
}

// Touch resets the watchdog idle clock; called whenever the transaction
// makes forward progress (a packet is pushed, a handler completes, ...).
func (tx *Transaction) Touch() {
	tx.lastActivity.Store(time.Now().UnixNano())
}

// IdleFor reports how long it has been since the last Touch.
func (tx *Transaction) IdleFor() time.Duration {
	return time.Since(time.Unix(0, tx.lastActivity.Load()))
}

// Finished reports whether MarkFinished has already been called for this
// transaction (by the event loop on completion or by the watchdog on a
// hang), so a late watchdog check does not report it again.
func (tx *Transaction) Finished() bool { return tx.finished.Load() }

// MarkFinished flags the transaction as finished; returns false if it was
// already finished (the caller must then not close Output again).
func (tx *Transaction) MarkFinished() bool { return tx.finished.CompareAndSwap(false, true) }

// Seed returns a value derived from the transaction's private RNG, used to
// prime inherent-data nodes deterministically per transaction.
func (tx *Transaction) Seed() uint64 { return tx.rng.Uint64() }

// Done reports whether every input port of the schematic's Output sentinel
// has permanently closed empty: nothing more will ever arrive for the
// caller to read.
func (tx *Transaction) Done() bool {
	out := tx.Instance(schematic.OutputNodeIndex)
	for _, b := range out.Inputs {
		if b.Status() != buffer.DoneClosed || b.Len() > 0 {
			return false
		}
	}
	return true
}

// PushInput pushes p onto the input port buffer at ref, which must name an
// input port (ref.Direction == schematic.In).
func (tx *Transaction) PushInput(ref schematic.PortRef, p packet.Packet) (buffer.PushResult, error) {
	if ref.Direction != schematic.In {
		return 0, fmt.Errorf("runtime: PushInput given a non-input port ref %s", ref)
	}
	inst := tx.Instance(ref.NodeIndex)
	b, ok := inst.Buffer(ref.PortIndex)
	if !ok {
		return 0, fmt.Errorf("runtime: node %q has no input port %d", inst.Node.Name, ref.PortIndex)
	}
	tx.Touch()
	return b.Push(p), nil
}

// RouteResult is one downstream delivery produced by Route.
type RouteResult struct {
	To     schematic.PortRef
	Result buffer.PushResult
}

// Route delivers p to every input port connected downstream of the output
// port from, implementing the output fan-out a single component write can
// trigger.
func (tx *Transaction) Route(from schematic.PortRef, p packet.Packet) ([]RouteResult, error) {
	downstream, err := tx.Graph.DownstreamOf(from)
	if err != nil {
		return nil, err
	}
	results := make([]RouteResult, 0, len(downstream))
	for _, to := range downstream {
		res, err := tx.PushInput(to, p)
		if err != nil {
			return results, err
		}
		results = append(results, RouteResult{To: to, Result: res})
	}
	return results, nil
}

// FanOutError implements component-error propagation: it emits a single
// component-error packet followed by Done on every declared output port of
// the failing node, fanning each one out to its downstream connections.
// This matches how the original interpreter treats a handler failure: not a
// single generic "error" port, every output the node ever declared.
func (tx *Transaction) FanOutError(nodeIdx schematic.NodeIndex, code, msg string) ([]RouteResult, error) {
	inst := tx.Instance(nodeIdx)
	var all []RouteResult
	for _, port := range inst.Node.Outputs() {
		for _, p := range []packet.Packet{packet.NewError(code, msg), packet.NewDone()} {
			results, err := tx.Route(port.Ref, p)
			if err != nil {
				return all, err
			}
			all = append(all, results...)
		}
	}
	return all, nil
}

// TakeOutputs drains every currently-available packet from the schematic's
// Output sentinel input buffers, pairing each with its declared port name
// for the external invocation stream, and appends a Done NamedPacket for
// any port that has just permanently closed empty (once per port, per
// transaction): the caller sees a well-formed Done per output port, not
// just a channel that quietly stops sending on that port.
func (tx *Transaction) TakeOutputs() []NamedPacket {
	out := tx.Instance(schematic.OutputNodeIndex)
	var packets []NamedPacket
	for _, port := range out.Node.Inputs() {
		b, ok := out.Buffer(port.Ref.PortIndex)
		if !ok {
			continue
		}
		for {
			p, ok := b.Take()
			if !ok {
				break
			}
			packets = append(packets, NamedPacket{Port: port.Name, Packet: p})
		}
		if b.Status() == buffer.DoneClosed && !tx.outputDone[port.Name] {
			tx.outputDone[port.Name] = true
			packets = append(packets, NamedPacket{Port: port.Name, Packet: packet.NewDone()})
		}
	}
	return packets
}

// FlushOutputs drains every newly available Output-sentinel packet —
// including each port's synthesized Done once it permanently closes — and
// sends every one to the caller-facing Output channel. The send blocks:
// Output is sized generously (64) but has no reader-side timeout, so a
// caller that falls behind stalls this call, and because FlushOutputs
// always runs on the event loop goroutine, a stalled caller stalls the
// whole transaction, not just its own read.
func (tx *Transaction) FlushOutputs() {
	for _, np := range tx.TakeOutputs() {
		tx.Output <- np
	}
}

// EmitRaw writes directly to the caller-facing stream, bypassing routing.
// Used by the watchdog to surface a synthetic "transaction hung" error that
// has no originating node or port.
func (tx *Transaction) EmitRaw(np NamedPacket) {
	select {
	case tx.Output <- np:
	default:
	}
}

// CloseOutput closes the caller-facing stream. Safe to call only once the
// transaction is finished.
func (tx *Transaction) CloseOutput() { close(tx.Output) }

// TakeHandlerInputs gathers one packet per input port for a ready,
// not-currently-dispatched node and marks it dispatched. It returns false
// if the node is not ready or already has an invocation in flight. A port
// with nothing queued contributes a Done packet instead, so the handler
// can observe that input's closure even while a sibling port still has
// data. If no port contributed real data this round, every input has now
// been seen closed empty at least once and the instance is marked
// exhausted: this was its last possible dispatch.
func (tx *Transaction) TakeHandlerInputs(idx schematic.NodeIndex) (map[string]packet.Packet, bool) {
	inst := tx.Instance(idx)
	if inst.Dispatched() || !inst.Ready() {
		return nil, false
	}
	payload := make(map[string]packet.Packet, len(inst.Node.Inputs()))
	sawData := false
	for _, port := range inst.Node.Inputs() {
		b, ok := inst.Buffer(port.Ref.PortIndex)
		if !ok {
			continue
		}
		if p, ok := b.Take(); ok {
			payload[port.Name] = p
			sawData = true
		} else {
			payload[port.Name] = packet.NewDone()
		}
	}
	inst.MarkDispatched()
	if !sawData {
		inst.MarkExhausted()
	}
	return payload, true
}
