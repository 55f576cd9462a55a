// Package packet defines the unit of data exchanged between nodes in a
// running schematic: a typed data packet, a typed error packet, or one of
// the three stream-control signals (Done, OpenBracket, CloseBracket).
package packet

import "fmt"

// Signal marks stream-control packets that carry no payload of their own.
type Signal int

const (
	// SignalNone means the packet is not a signal (it is Data or Error).
	SignalNone Signal = iota
	// SignalDone marks the final packet on a port for the lifetime of a
	// transaction; no further packets may follow it.
	SignalDone
	// SignalOpenBracket opens a nested group of packets on a port (used by
	// components that stream a sub-list of values down a single port).
	SignalOpenBracket
	// SignalCloseBracket closes the most recently opened group.
	SignalCloseBracket
)

func (s Signal) String() string {
	switch s {
	case SignalDone:
		return "Done"
	case SignalOpenBracket:
		return "OpenBracket"
	case SignalCloseBracket:
		return "CloseBracket"
	default:
		return "None"
	}
}

// Kind discriminates the three payload shapes a Packet can carry.
type Kind int

const (
	// KindData carries an encoded value plus its type tag.
	KindData Kind = iota
	// KindError carries a component-reported failure in place of a value.
	KindError
	// KindSignal carries no value; Signal names which control marker it is.
	KindSignal
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "Data"
	case KindError:
		return "Error"
	case KindSignal:
		return "Signal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Flags carries out-of-band bits that ride alongside a packet without being
// part of its payload, e.g. whether the packet failed to decode
// (FlagInvalid).
type Flags uint8

const (
	// FlagInvalid marks a packet that failed to decode per its TypeTag.
	FlagInvalid Flags = 1 << iota
)

// Packet is one message travelling through a single port. Index is
// assigned by the port buffer it is pushed onto and is monotonically
// increasing per port, per transaction; it lets downstream consumers detect
// gaps or reordering.
type Packet struct {
	Kind    Kind
	Signal  Signal
	Flags   Flags
	Index   uint64
	TypeTag string
	Data    []byte
	ErrCode string
	ErrMsg  string
}

// NewData builds a data packet carrying an already-encoded value.
func NewData(typeTag string, data []byte) Packet {
	return Packet{Kind: KindData, TypeTag: typeTag, Data: data}
}

// NewError builds a component-error packet. ErrCode is a short machine
// identifier ("panic", "invalid-input", ...); ErrMsg is human-readable.
func NewError(code, msg string) Packet {
	return Packet{Kind: KindError, ErrCode: code, ErrMsg: msg}
}

// NewDone builds a Done signal packet.
func NewDone() Packet { return Packet{Kind: KindSignal, Signal: SignalDone} }

// NewOpenBracket builds an OpenBracket signal packet.
func NewOpenBracket() Packet { return Packet{Kind: KindSignal, Signal: SignalOpenBracket} }

// NewCloseBracket builds a CloseBracket signal packet.
func NewCloseBracket() Packet { return Packet{Kind: KindSignal, Signal: SignalCloseBracket} }

// IsDone reports whether this packet is the Done signal.
func (p Packet) IsDone() bool { return p.Kind == KindSignal && p.Signal == SignalDone }

// IsError reports whether this packet carries a component error.
func (p Packet) IsError() bool { return p.Kind == KindError }

// IsData reports whether this packet carries a decodable value.
func (p Packet) IsData() bool { return p.Kind == KindData }

func (p Packet) String() string {
	switch p.Kind {
	case KindData:
		return fmt.Sprintf("Data(#%d, %s, %d bytes)", p.Index, p.TypeTag, len(p.Data))
	case KindError:
		return fmt.Sprintf("Error(#%d, %s: %s)", p.Index, p.ErrCode, p.ErrMsg)
	default:
		return fmt.Sprintf("Signal(#%d, %s)", p.Index, p.Signal)
	}
}
