package domain

import "time"

type EventKind int

const (
	InterfaceDown EventKind = iota + 1
	PeersDisconnected
	PeersReconnected
	APIUnreachable
)

func (k EventKind) String() string {
	switch k {
	case InterfaceDown:
		return "interface_down"
	case PeersDisconnected:
		return "peers_disconnected"
	case PeersReconnected:
		return "peers_reconnected"
	case APIUnreachable:
		return "api_unreachable"
	default:
		return "unknown"
	}
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event is a notification produced by a poll cycle.
// Peers is set for peer events, Failures for APIUnreachable.
type Event struct {
	Kind     EventKind `json:"kind"`
	Peers    []string  `json:"peers,omitempty"`
	Failures int       `json:"failures,omitempty"`
}

// EventRecord is an Event as kept by the status board.
type EventRecord struct {
	Event
	At       time.Time `json:"at"`
	Notified bool      `json:"notified"`
}
