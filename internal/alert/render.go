package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/hamed0406/wgwatch/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// Render builds the subject and plain-text body for ev. snap is the snapshot
// of the cycle that produced ev and is listed in peer notifications.
func Render(ev domain.Event, configName string, snap domain.Snapshot, at time.Time) (string, string) {
	ts := at.Format(timeLayout)
	var b strings.Builder

	switch ev.Kind {
	case domain.InterfaceDown:
		fmt.Fprintf(&b, "WireGuard interface %s is DOWN.\n\n", configName)
		fmt.Fprintf(&b, "Time: %s\n", ts)
		b.WriteString("Status: Interface not running\n\n")
		b.WriteString("Please check the WireGuard service immediately.\n")
		return "WireGuard Interface Down - " + configName, b.String()

	case domain.PeersDisconnected:
		fmt.Fprintf(&b, "WireGuard peer(s) have disconnected from %s.\n\n", configName)
		fmt.Fprintf(&b, "Time: %s\n", ts)
		fmt.Fprintf(&b, "Disconnected peers: %s\n\n", strings.Join(ev.Peers, ", "))
		writePeers(&b, snap)
		return "WireGuard Peer(s) Disconnected - " + configName, b.String()

	case domain.PeersReconnected:
		fmt.Fprintf(&b, "WireGuard peer(s) have reconnected to %s.\n\n", configName)
		fmt.Fprintf(&b, "Time: %s\n", ts)
		fmt.Fprintf(&b, "Reconnected peers: %s\n\n", strings.Join(ev.Peers, ", "))
		writePeers(&b, snap)
		return "WireGuard Peer(s) Reconnected - " + configName, b.String()

	case domain.APIUnreachable:
		b.WriteString("Unable to monitor WireGuard connections due to API failures.\n\n")
		fmt.Fprintf(&b, "Time: %s\n", ts)
		fmt.Fprintf(&b, "Consecutive failures: %d\n", ev.Failures)
		fmt.Fprintf(&b, "Configuration: %s\n\n", configName)
		b.WriteString("Please check:\n")
		b.WriteString("1. WireGuard Dashboard API is running\n")
		b.WriteString("2. API key is valid\n")
		b.WriteString("3. Network connectivity\n\n")
		b.WriteString("Monitoring will continue automatically.\n")
		return "WireGuard Monitoring Alert - API Unavailable - " + configName, b.String()
	}

	fmt.Fprintf(&b, "Time: %s\nEvent: %s\n", ts, ev.Kind)
	return "WireGuard Monitor - " + configName, b.String()
}

// TestMessage is the body sent by the -test-email mode.
func TestMessage(configName string, at time.Time) (string, string) {
	body := fmt.Sprintf("This is a test notification from the WireGuard monitor.\n\nTime: %s\nConfiguration: %s\n",
		at.Format(timeLayout), configName)
	return "WireGuard Monitor Test - " + configName, body
}

func writePeers(b *strings.Builder, snap domain.Snapshot) {
	b.WriteString("Current peer status:\n")
	for _, name := range snap.PeerNames() {
		status := "Disconnected"
		if snap.Peers[name] {
			status = "Connected"
		}
		fmt.Fprintf(b, "  - %s: %s\n", name, status)
	}
}
