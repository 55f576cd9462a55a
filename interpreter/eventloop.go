package interpreter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowmesh/flowmesh/buffer"
	"github.com/flowmesh/flowmesh/log"
	"github.com/flowmesh/flowmesh/packet"
	"github.com/flowmesh/flowmesh/schematic"
	"github.com/flowmesh/flowmesh/signature"

	"github.com/flowmesh/flowmesh/runtime"
)

// EventLoop is the single-threaded cooperative scheduler: one goroutine
// drains its event queue and is the only code path ever allowed to mutate
// Transaction/NodeInstance/PortBuffer state. Component handlers run as
// background goroutines that only ever enqueue further events, never touch
// that state directly, so the loop needs no locks of its own.
type EventLoop struct {
	queue    chan Event
	handlers HandlerMap
	reg      signature.Registry
	logger   log.Logger

	mu  sync.Mutex // guards txs; the watchdog goroutine reads and unregisters entries too
	txs map[uuid.UUID]*runtime.Transaction

	wg   sync.WaitGroup
	done chan struct{}
}

// NewEventLoop creates a loop bound to a handler map and signature
// registry, with queue capacity for depth pending events.
func NewEventLoop(handlers HandlerMap, reg signature.Registry, logger log.Logger, depth int) *EventLoop {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &EventLoop{
		queue:    make(chan Event, depth),
		handlers: handlers,
		reg:      reg,
		logger:   logger,
		txs:      map[uuid.UUID]*runtime.Transaction{},
		done:     make(chan struct{}),
	}
}

// Run drains the event queue until Close is processed or ctx is canceled.
// It is meant to be called in its own goroutine; Build starts it.
func (l *EventLoop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-l.queue:
			if !ok {
				return
			}
			if evt.Kind == Close {
				// Handle whatever was already queued behind Close, then stop.
				for {
					select {
					case pending := <-l.queue:
						if pending.Kind != Close {
							l.handle(ctx, pending)
						}
						continue
					default:
					}
					return
				}
			}
			l.handle(ctx, evt)
		}
	}
}

// Stopped reports a channel closed once Run has returned.
func (l *EventLoop) Stopped() <-chan struct{} { return l.done }

// Enqueue posts an event to the loop. Safe to call concurrently.
func (l *EventLoop) Enqueue(evt Event) { l.queue <- evt }

// register adds a transaction the loop will service.
func (l *EventLoop) register(tx *runtime.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs[tx.ID] = tx
}

func (l *EventLoop) unregister(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.txs, id)
}

// lookup finds an active transaction; used both by the loop goroutine and
// by the watchdog goroutine (read-only, guarded by mu).
func (l *EventLoop) lookup(id uuid.UUID) (*runtime.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.txs[id]
	return tx, ok
}

func (l *EventLoop) handle(ctx context.Context, evt Event) {
	tx, ok := l.lookup(evt.TxID)
	if !ok {
		if evt.Kind != Close {
			l.logger.Warn("event %v for unknown transaction %s", evt.Kind, evt.TxID)
		}
		return
	}

	switch evt.Kind {
	case TxStart:
		l.startSources(ctx, tx)
	case PortData:
		l.checkReady(ctx, tx, evt.Port.NodeIndex)
	case NodeReady:
		l.dispatchNode(ctx, tx, evt.Node)
	case Delivered:
		l.deliver(ctx, tx, evt.Port, evt.Data)
	case HandlerDone:
		l.handlerDone(ctx, tx, evt.Node)
	case HandlerError:
		l.handlerError(tx, evt.Node, evt.ErrCode, evt.ErrMsg)
	case TxOutput:
		l.finishTx(tx)
	case TxDone:
		l.finishTx(tx)
	}
}

// startSources primes every Inherent node by routing a value and then Done
// from its "seed" and "timestamp" output ports (when declared) directly to
// their downstream connections: these nodes never run a handler of their
// own, they only inject data into the graph. Other output ports of an
// Inherent node are not primed. The Input sentinel is fed by Invoke's input
// goroutine, not here.
func (l *EventLoop) startSources(ctx context.Context, tx *runtime.Transaction) {
	for _, n := range tx.Graph.Nodes() {
		if n.Kind != schematic.KindInherent {
			continue
		}
		if seedPort, ok := n.FindOutput("seed"); ok {
			l.routeAndFollowUp(tx, seedPort.Ref, packet.NewData("u64", uint64ToBytes(tx.Seed())))
			l.routeAndFollowUp(tx, seedPort.Ref, packet.NewDone())
		}
		if tsPort, ok := n.FindOutput("timestamp"); ok {
			l.routeAndFollowUp(tx, tsPort.Ref, packet.NewData("u64", uint64ToBytes(uint64(time.Now().UnixMilli()))))
			l.routeAndFollowUp(tx, tsPort.Ref, packet.NewDone())
		}
	}
	// Nodes with no declared input ports (pure sources besides Input
	// itself, or zero-arg operations) are ready from the start.
	for _, n := range tx.Graph.Nodes() {
		if n.Kind != schematic.KindExternal {
			continue
		}
		if len(n.Inputs()) == 0 {
			l.dispatchNode(ctx, tx, n.Index())
		}
	}
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

// checkReady dispatches a node once every declared input port is ready.
func (l *EventLoop) checkReady(ctx context.Context, tx *runtime.Transaction, idx schematic.NodeIndex) {
	inst := tx.Instance(idx)
	if inst.Node.Kind == schematic.KindOutput {
		l.Enqueue(Event{Kind: TxOutput, TxID: tx.ID})
		return
	}
	if inst.Dispatched() || !inst.Ready() {
		return
	}
	l.Enqueue(Event{Kind: NodeReady, TxID: tx.ID, Node: idx})
}

// dispatchNode invokes a ready node's handler in the background. The
// background goroutine only ever sends further events back to this loop;
// it never mutates tx itself.
func (l *EventLoop) dispatchNode(ctx context.Context, tx *runtime.Transaction, idx schematic.NodeIndex) {
	inst := tx.Instance(idx)
	inputs, ok := tx.TakeHandlerInputs(idx)
	if !ok {
		return
	}
	node := inst.Node
	// final is true only for the dispatch that found nothing left to take
	// on any input: the node's last possible invocation. Only then does a
	// naturally-closing stream mean the node itself is done with that
	// output port forever — an earlier round's stream closing just means
	// that round is done, not the node, since it may be dispatched again.
	final := inst.Exhausted()

	h, ok := l.handlers.Lookup(node.Ref.Namespace, node.Ref.Name)
	if !ok {
		l.Enqueue(Event{Kind: HandlerError, TxID: tx.ID, Node: idx, ErrCode: "missing-handler", ErrMsg: newRuntimeError(MissingHandler, "%s::%s", node.Ref.Namespace, node.Ref.Name).Error()})
		return
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		stream, err := h.Handle(ctx, node.Ref.Name, inputs, nil)
		if err != nil {
			l.Enqueue(Event{Kind: HandlerError, TxID: tx.ID, Node: idx, ErrCode: "handler-error", ErrMsg: err.Error()})
			return
		}
		doneSent := map[string]bool{}
		for {
			var out Output
			var open bool
			select {
			case <-ctx.Done():
				return
			case out, open = <-stream:
			}
			if !open {
				break
			}
			ref, ok := node.FindOutput(out.Port)
			if !ok {
				l.logger.Warn("handler for %s::%s produced unknown output port %q", node.Ref.Namespace, node.Ref.Name, out.Port)
				continue
			}
			if out.Packet.IsDone() {
				doneSent[out.Port] = true
			}
			l.Enqueue(Event{Kind: Delivered, TxID: tx.ID, Port: ref.Ref, Data: out.Packet})
		}
		if final {
			// This was the node's last invocation: synthesize Done on every
			// declared output port the handler did not already close itself.
			for _, port := range node.Outputs() {
				if doneSent[port.Name] {
					continue
				}
				l.Enqueue(Event{Kind: Delivered, TxID: tx.ID, Port: port.Ref, Data: packet.NewDone()})
			}
		}
		l.Enqueue(Event{Kind: HandlerDone, TxID: tx.ID, Node: idx})
	}()
}

// deliver routes one packet a handler produced to its downstream
// connections and follows up with PortData for whichever ones newly became
// ready.
func (l *EventLoop) deliver(ctx context.Context, tx *runtime.Transaction, from schematic.PortRef, p packet.Packet) {
	l.routeAndFollowUp(tx, from, p)
}

func (l *EventLoop) routeAndFollowUp(tx *runtime.Transaction, from schematic.PortRef, p packet.Packet) {
	results, err := tx.Route(from, p)
	if err != nil {
		l.logger.Error("routing from %s: %v", from, err)
		return
	}
	for _, r := range results {
		if r.To.NodeIndex == schematic.OutputNodeIndex {
			// Every packet that reaches the Output sentinel — including a
			// Done that lands on an already-nonempty buffer, which Push
			// reports as Consumed rather than Buffered — can be the one
			// that finally makes the transaction done, so always recheck.
			l.queue <- Event{Kind: TxOutput, TxID: tx.ID}
			continue
		}
		if r.Result != buffer.Buffered {
			continue
		}
		l.queue <- Event{Kind: PortData, TxID: tx.ID, Port: r.To}
	}
}

// handlerDone clears a node's in-flight flag once its handler invocation
// has finished and immediately rechecks its readiness: packets may have
// piled up on its inputs while it was busy, and a node is dispatched again
// for every such batch until TakeHandlerInputs finds nothing left to take,
// at which point it marks itself exhausted and checkReady stops short.
func (l *EventLoop) handlerDone(ctx context.Context, tx *runtime.Transaction, idx schematic.NodeIndex) {
	tx.Instance(idx).ClearDispatched()
	l.checkReady(ctx, tx, idx)
	l.finishTx(tx)
}

func (l *EventLoop) handlerError(tx *runtime.Transaction, idx schematic.NodeIndex, code, msg string) {
	if _, err := tx.FanOutError(idx, code, msg); err != nil {
		l.logger.Error("fanning out error from node %d: %v", idx, err)
	}
	l.Enqueue(Event{Kind: TxOutput, TxID: tx.ID})
}

func (l *EventLoop) finishTx(tx *runtime.Transaction) {
	tx.FlushOutputs()
	if !tx.Done() {
		return
	}
	if tx.MarkFinished() {
		tx.CloseOutput()
	}
	l.unregister(tx.ID)
}

// Wait blocks until every in-flight handler goroutine has returned.
func (l *EventLoop) Wait() { l.wg.Wait() }
