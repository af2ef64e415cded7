// Package alert decides which notifications a poll cycle produces and
// renders them as email text.
package alert

import (
	"sort"

	"github.com/hamed0406/wgwatch/internal/domain"
)

// Detect compares two consecutive snapshots. It only reports edges: a state
// that persists across cycles yields nothing. Peers unseen in prev count as
// previously connected, so a newly appearing peer never raises a reconnect.
func Detect(prev, cur domain.Snapshot) []domain.Event {
	var events []domain.Event

	if !cur.InterfaceUp {
		if prev.InterfaceUp {
			events = append(events, domain.Event{Kind: domain.InterfaceDown})
		}
		return events
	}

	var down, up []string
	for name, connected := range cur.Peers {
		was, seen := prev.Peers[name]
		if !seen {
			was = true
		}
		switch {
		case was && !connected:
			down = append(down, name)
		case !was && connected:
			up = append(up, name)
		}
	}

	if len(down) > 0 {
		sort.Strings(down)
		events = append(events, domain.Event{Kind: domain.PeersDisconnected, Peers: down})
	}
	if len(up) > 0 {
		sort.Strings(up)
		events = append(events, domain.Event{Kind: domain.PeersReconnected, Peers: up})
	}
	return events
}
