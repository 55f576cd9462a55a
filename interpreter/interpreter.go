// Package interpreter drives compiled schematics: a single-threaded
// cooperative event loop turns port-buffer readiness into component
// handler invocations, routes their output back through the graph, and
// streams results to the caller, one isolated Transaction per invocation.
package interpreter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowmesh/flowmesh/log"
	"github.com/flowmesh/flowmesh/packet"
	"github.com/flowmesh/flowmesh/runtime"
	"github.com/flowmesh/flowmesh/signature"
)

// Config carries the runtime tunables that belong to the interpreter
// itself, as opposed to any particular schematic or handler.
type Config struct {
	// QueueDepth bounds the event loop's pending-event channel.
	QueueDepth int
	// Logger receives the loop's diagnostic output; defaults to the
	// package-level default logger.
	Logger log.Logger
	// IdleBudget is how long a transaction may go without forward progress
	// before the watchdog declares it hung. Zero disables the watchdog.
	IdleBudget time.Duration
	// WatchdogInterval is how often the watchdog sweeps active transactions.
	WatchdogInterval time.Duration
}

// DefaultConfig returns the tunables used when Build is called without an
// explicit Config.
func DefaultConfig() Config {
	return Config{
		QueueDepth:       256,
		Logger:           log.GetDefaultLogger(),
		IdleBudget:       30 * time.Second,
		WatchdogInterval: time.Second,
	}
}

// Interpreter is the external-facing handle onto a resolved, validated
// program: a named set of schematics plus their signature registry and
// component handlers, ready to invoke.
type Interpreter struct {
	network  *signature.Network
	registry signature.Registry
	loop     *EventLoop
	cancel   context.CancelFunc
}

// Build resolves self-referencing schematic signatures, validates net
// against reg, starts the event loop, and returns a ready Interpreter. It
// fails closed: any validation error means nothing runs. handlers are not
// checked here; a node with no registered handler fails at run time with a
// MissingHandler error fanned out to its output ports.
func Build(net *signature.Network, reg signature.Registry, handlers HandlerMap, cfg Config) (*Interpreter, error) {
	if cfg.QueueDepth == 0 {
		cfg = DefaultConfig()
	}
	resolved, err := signature.ResolveSelfSignatures(net, reg)
	if err != nil {
		return nil, err
	}
	if invalid := signature.Validate(net, resolved, cfg.Logger); len(invalid) > 0 {
		return nil, signature.CombineInvalid(invalid)
	}

	ctx, cancel := context.WithCancel(context.Background())
	loop := NewEventLoop(handlers, resolved, cfg.Logger, cfg.QueueDepth)
	go loop.Run(ctx)
	if cfg.IdleBudget > 0 {
		wd := NewWatchdog(loop, cfg.IdleBudget, cfg.WatchdogInterval)
		go wd.Run(ctx)
	}

	return &Interpreter{network: net, registry: resolved, loop: loop, cancel: cancel}, nil
}

// Signature looks up the derived, self-namespace signature of one
// schematic by name.
func (i *Interpreter) Signature(schematicName string) (signature.OperationSignature, bool) {
	return i.registry.Lookup(signature.SelfNamespace, schematicName)
}

// NamedPacket pairs a packet with the name of the input or output port it
// belongs to. Alias of runtime.NamedPacket for callers of this package.
type NamedPacket = runtime.NamedPacket

// Invoke starts a new, isolated transaction executing the named schematic
// and returns its id plus a PacketStream of results, closed once the
// transaction is done.
//
// input is itself a PacketStream: an arbitrary sequence of (port, packet)
// pairs, not one packet per port. Invoke forwards every packet it reads
// from input to the matching declared input port, in the order it arrives,
// for as long as the caller keeps sending — a port's Done signal is just
// another packet on that same stream, read in-band rather than implied by
// the stream ending. Once input closes, Invoke synthesizes Done on any
// declared input port that never saw one, so the schematic is never left
// waiting on a port the caller silently stopped feeding.
func (i *Interpreter) Invoke(schematicName string, input runtime.PacketStream) (uuid.UUID, runtime.PacketStream, error) {
	graph, ok := i.network.Get(schematicName)
	if !ok {
		return uuid.Nil, nil, fmt.Errorf("interpreter: unknown schematic %q", schematicName)
	}

	tx := runtime.New(graph, int64(uuid.New().ID()))
	i.loop.register(tx)
	i.loop.queue <- Event{Kind: TxStart, TxID: tx.ID}

	go func() {
		closed := map[string]bool{}
		for np := range input {
			ref, ok := graph.Input().FindOutput(np.Port)
			if !ok {
				i.loop.logger.Warn("interpreter: invoke %q: input stream named unknown port %q", schematicName, np.Port)
				continue
			}
			if np.Packet.IsDone() {
				closed[np.Port] = true
			}
			i.loop.Enqueue(Event{Kind: Delivered, TxID: tx.ID, Port: ref.Ref, Data: np.Packet})
		}
		for _, port := range graph.Input().Outputs() {
			if closed[port.Name] {
				continue
			}
			i.loop.Enqueue(Event{Kind: Delivered, TxID: tx.ID, Port: port.Ref, Data: packet.NewDone()})
		}
	}()

	return tx.ID, tx.Output, nil
}

// InvokeArgs is a convenience wrapper over Invoke for the common case of a
// single fixed packet per input port: it builds the equivalent PacketStream
// (each packet immediately followed by Done) and closes it before
// returning, so it is only appropriate for callers with no further input to
// stream in after the initial call.
func (i *Interpreter) InvokeArgs(schematicName string, args map[string]packet.Packet) (uuid.UUID, runtime.PacketStream, error) {
	ch := make(chan runtime.NamedPacket, 2*len(args))
	for name, p := range args {
		ch <- runtime.NamedPacket{Port: name, Packet: p}
		ch <- runtime.NamedPacket{Port: name, Packet: packet.NewDone()}
	}
	close(ch)
	return i.Invoke(schematicName, ch)
}

// Shutdown stops accepting new events and waits (bounded by ctx) for
// in-flight handler goroutines to finish.
func (i *Interpreter) Shutdown(ctx context.Context) error {
	i.cancel()
	done := make(chan struct{})
	go func() {
		i.loop.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
