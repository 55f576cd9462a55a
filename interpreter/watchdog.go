package interpreter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flowmesh/flowmesh/packet"
	"github.com/flowmesh/flowmesh/runtime"
)

// Watchdog periodically checks every registered transaction against an idle
// budget and force-fails any that have made no forward progress within it.
// A hang is reported directly on the transaction's output stream, bypassing
// the graph entirely: unlike a component's own failure (fanned out through
// FanOutError to every declared output port) a hang has no originating node,
// so there is nothing to route through.
type Watchdog struct {
	loop       *EventLoop
	idleBudget time.Duration
	interval   time.Duration
}

// NewWatchdog creates a watchdog that polls loop every interval and
// considers a transaction hung once it has been idle past idleBudget.
func NewWatchdog(loop *EventLoop, idleBudget, interval time.Duration) *Watchdog {
	return &Watchdog{loop: loop, idleBudget: idleBudget, interval: interval}
}

// Run polls until ctx is canceled. Meant to be started in its own goroutine
// alongside the event loop.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.loop.Stopped():
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *Watchdog) sweep() {
	w.loop.mu.Lock()
	ids := make([]uuid.UUID, 0, len(w.loop.txs))
	for id := range w.loop.txs {
		ids = append(ids, id)
	}
	w.loop.mu.Unlock()

	for _, id := range ids {
		tx, ok := w.loop.lookup(id)
		if !ok {
			continue
		}
		w.check(tx)
	}
}

// check inspects one transaction and, if it has exceeded the idle budget
// without finishing, emits a synthetic hang error straight onto its output
// stream and force-finishes it.
func (w *Watchdog) check(tx *runtime.Transaction) {
	if tx.Finished() {
		return
	}
	if tx.IdleFor() < w.idleBudget {
		return
	}
	err := newRuntimeError(TransactionHung, "transaction %s idle for %s, exceeding budget %s", tx.ID, tx.IdleFor(), w.idleBudget)
	tx.EmitRaw(runtime.NamedPacket{
		Port:   "",
		Packet: packet.NewError("transaction-hung", err.Error()),
	})
	if tx.MarkFinished() {
		tx.CloseOutput()
	}
	w.loop.unregister(tx.ID)
}
