// Package buffer implements the per-port packet queue each node instance
// reads from: a FIFO with a monotonic status (Open, DoneOpen, DoneClosed)
// that the scheduler uses to decide when a node is ready to run and when a
// transaction as a whole has finished.
package buffer

import (
	"sync"

	"github.com/flowmesh/flowmesh/packet"
)

// Status is the lifecycle stage of one port's buffer. It only ever moves
// forward: Open -> DoneOpen -> DoneClosed.
type Status int

const (
	// Open accepts data packets and has not yet seen a Done signal.
	Open Status = iota
	// DoneOpen has seen its Done signal but still holds unread data ahead
	// of it.
	DoneOpen
	// DoneClosed has seen Done and been fully drained; no further reads
	// will ever return data.
	DoneClosed
)

func (s Status) String() string {
	switch s {
	case Open:
		return "Open"
	case DoneOpen:
		return "DoneOpen"
	case DoneClosed:
		return "DoneClosed"
	default:
		return "UnknownStatus"
	}
}

// PushResult tells the caller of Push whether this push requires a
// dispatch to the event loop.
type PushResult int

const (
	// Consumed means the port was already ready before this push (data
	// waiting or already DoneClosed); no new event needs to be raised.
	Consumed PushResult = iota
	// Buffered means this push is what made the port newly ready; the
	// caller must dispatch a PortData/NodeReady event.
	Buffered
)

// PortBuffer is one input port's packet queue.
type PortBuffer struct {
	mu        sync.Mutex
	queue     []packet.Packet
	status    Status
	nextIndex uint64
}

// New creates an empty, Open port buffer.
func New() *PortBuffer { return &PortBuffer{status: Open} }

// Push appends a packet, assigning it the next monotonic index for this
// port. A Done signal updates status instead of being queued as data. The
// return value tells the caller whether this push is the one that made the
// port transition from not-ready to ready.
func (b *PortBuffer) Push(p packet.Packet) PushResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasReady := b.readyLocked()
	p.Index = b.nextIndex
	b.nextIndex++

	if p.IsDone() {
		if b.status == Open {
			b.status = DoneOpen
		}
		if len(b.queue) == 0 {
			b.status = DoneClosed
		}
	} else {
		b.queue = append(b.queue, p)
	}

	if !wasReady && b.readyLocked() {
		return Buffered
	}
	return Consumed
}

// Take pops the oldest queued data packet. Draining the last packet while
// status is DoneOpen advances it to DoneClosed.
func (b *PortBuffer) Take() (packet.Packet, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return packet.Packet{}, false
	}
	p := b.queue[0]
	b.queue = b.queue[1:]
	if len(b.queue) == 0 && b.status == DoneOpen {
		b.status = DoneClosed
	}
	return p, true
}

func (b *PortBuffer) readyLocked() bool {
	return len(b.queue) > 0 || b.status == DoneClosed
}

// Ready reports whether this port currently has data to read, or has
// permanently closed empty (both count as "ready" for node dispatch: the
// node either gets a packet or learns its input will never arrive).
func (b *PortBuffer) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readyLocked()
}

// Status returns the current lifecycle stage.
func (b *PortBuffer) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// IsClosed reports whether the port has permanently finished (DoneClosed).
func (b *PortBuffer) IsClosed() bool { return b.Status() == DoneClosed }

// Len reports the number of unread data packets currently queued.
func (b *PortBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
