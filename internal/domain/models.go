package domain

import "sort"

// PeerRecord is one peer entry as reported by the dashboard API.
type PeerRecord struct {
	Name      string `json:"name"`
	Handshake string `json:"latest_handshake"`
	Status    string `json:"status"`
}

// Document is the decoded getConfigurationInfo response for one poll.
type Document struct {
	InterfaceUp bool         `json:"interface_up"`
	Peers       []PeerRecord `json:"peers"`
}

// Snapshot is the normalized connectivity state of one poll cycle.
// Peers is always empty when InterfaceUp is false.
type Snapshot struct {
	InterfaceUp bool            `json:"interface_up"`
	Peers       map[string]bool `json:"peers"`
}

// InitialSnapshot is the "previous" state before the first successful poll:
// the interface counts as up and no peer has been seen yet.
func InitialSnapshot() Snapshot {
	return Snapshot{InterfaceUp: true, Peers: map[string]bool{}}
}

// InterfaceDownSnapshot returns the snapshot for a down interface.
func InterfaceDownSnapshot() Snapshot {
	return Snapshot{InterfaceUp: false, Peers: map[string]bool{}}
}

// Connected counts connected peers.
func (s Snapshot) Connected() int {
	n := 0
	for _, up := range s.Peers {
		if up {
			n++
		}
	}
	return n
}

// PeerNames returns the peer names in lexical order.
func (s Snapshot) PeerNames() []string {
	names := make([]string, 0, len(s.Peers))
	for name := range s.Peers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy so callers can hand the snapshot to other goroutines.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{InterfaceUp: s.InterfaceUp, Peers: make(map[string]bool, len(s.Peers))}
	for k, v := range s.Peers {
		out.Peers[k] = v
	}
	return out
}
