// Package analyzer reduces a status document to a connectivity snapshot.
package analyzer

import (
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/wgwatch/internal/domain"
	"github.com/hamed0406/wgwatch/internal/handshake"
)

type Options struct {
	MonitoredPeers   []string
	MonitorAll       bool
	HandshakeTimeout time.Duration
}

type Analyzer struct {
	logger *zap.Logger
	opts   Options
	now    func() time.Time
}

func New(logger *zap.Logger, opts Options) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger, opts: opts, now: time.Now}
}

// WithClock replaces the clock used to age absolute timestamps.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze applies the peer selection and handshake rules to doc.
// Monitored names missing from doc are left out of the snapshot.
func (a *Analyzer) Analyze(doc *domain.Document) domain.Snapshot {
	if doc == nil || !doc.InterfaceUp {
		return domain.InterfaceDownSnapshot()
	}
	snap := domain.Snapshot{InterfaceUp: true, Peers: map[string]bool{}}
	if len(doc.Peers) == 0 {
		a.logger.Warn("analyzer_no_peers_found")
		return snap
	}

	var selected func(name string) bool
	switch {
	case len(a.opts.MonitoredPeers) > 0:
		want := make(map[string]bool, len(a.opts.MonitoredPeers))
		for _, n := range a.opts.MonitoredPeers {
			want[n] = true
		}
		selected = func(name string) bool { return want[name] }
	case a.opts.MonitorAll:
		selected = func(string) bool { return true }
	default:
		a.logger.Warn("analyzer_no_peers_selected",
			zap.String("hint", "set MONITORED_PEERS or MONITOR_ALL_PEERS=true"))
		return snap
	}

	now := a.now()
	for _, p := range doc.Peers {
		if !selected(p.Name) {
			continue
		}
		connected := handshake.IsConnected(p.Handshake, p.Status, a.opts.HandshakeTimeout, now)
		snap.Peers[p.Name] = connected
		a.logPeer(p, connected, now)
	}

	for _, n := range a.opts.MonitoredPeers {
		if _, ok := snap.Peers[n]; !ok {
			a.logger.Debug("analyzer_monitored_peer_absent", zap.String("peer", n))
		}
	}
	return snap
}

func (a *Analyzer) logPeer(p domain.PeerRecord, connected bool, now time.Time) {
	age, format := handshake.Age(p.Handshake, now)
	switch {
	case format == handshake.FormatUnrecognized:
		a.logger.Warn("analyzer_handshake_unrecognized",
			zap.String("peer", p.Name),
			zap.String("handshake", p.Handshake),
			zap.String("status", p.Status),
			zap.Bool("connected", connected),
		)
	case connected:
		return
	case format == handshake.FormatNone:
		a.logger.Warn("analyzer_peer_no_handshake",
			zap.String("peer", p.Name),
			zap.String("status", p.Status),
		)
	default:
		a.logger.Warn("analyzer_peer_disconnected",
			zap.String("peer", p.Name),
			zap.Duration("handshake_age", age.Round(time.Second)),
			zap.String("status", p.Status),
		)
	}
}
