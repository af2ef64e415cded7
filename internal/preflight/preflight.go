// Package preflight checks a configuration end to end without sending
// any notification.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"go.uber.org/multierr"

	"github.com/hamed0406/wgwatch/internal/config"
	"github.com/hamed0406/wgwatch/internal/domain"
	"github.com/hamed0406/wgwatch/internal/probe"
	"github.com/hamed0406/wgwatch/internal/scheduler"
)

// Verifier dials the mail relay and authenticates without sending.
type Verifier interface {
	Verify(ctx context.Context) error
}

type Deps struct {
	Fetcher  scheduler.Fetcher
	Analyzer scheduler.Analyzer
	Mail     Verifier
	// Probes run against the API URL and the SMTP relay address.
	Probes *probe.MultiChecker
}

// ErrFailed is returned when at least one check failed.
var ErrFailed = errors.New("preflight failed")

// Run prints one line per check to out. Every check runs even when an
// earlier one failed; the returned error wraps ErrFailed and each cause.
func Run(ctx context.Context, cfg config.Config, d Deps, out io.Writer) error {
	p := printer{out: out}

	if err := cfg.Validate(); err != nil {
		p.fail("configuration: " + err.Error())
		return errors.Join(ErrFailed, err)
	}
	p.ok(fmt.Sprintf("configuration valid (config=%s, %d recipient(s))", cfg.ConfigName, len(cfg.ToEmails)))
	if len(cfg.MonitoredPeers) == 0 && !cfg.MonitorAllPeers {
		p.warn("MONITORED_PEERS empty and MONITOR_ALL_PEERS=false; no peer will be tracked")
	}

	var errs error
	if d.Probes != nil {
		smtpAddr := net.JoinHostPort(cfg.SMTPServer, strconv.Itoa(cfg.SMTPPort))
		for _, target := range []string{cfg.APIURL, smtpAddr} {
			results := d.Probes.Run(ctx, target)
			for _, r := range results {
				if r.Success {
					p.ok(r.String())
				}
			}
			for _, r := range probe.Failed(results) {
				p.fail(r.String())
				errs = multierr.Append(errs, fmt.Errorf("%s %s: %s", r.Name, r.Target, r.Message))
			}
		}
	}

	if d.Fetcher != nil {
		doc, err := d.Fetcher.FetchStatus(ctx)
		if err != nil {
			p.fail("dashboard API: " + err.Error())
			errs = multierr.Append(errs, err)
		} else {
			p.ok(fmt.Sprintf("dashboard API reachable (%d peer record(s))", len(doc.Peers)))
			if d.Analyzer != nil {
				printSnapshot(p, d.Analyzer.Analyze(doc))
			}
		}
	}

	if d.Mail != nil {
		if err := d.Mail.Verify(ctx); err != nil {
			p.fail("smtp login: " + err.Error())
			errs = multierr.Append(errs, err)
		} else {
			p.ok("smtp login accepted by " + cfg.SMTPServer)
		}
	}

	if errs != nil {
		p.fail("preflight failed")
		return errors.Join(ErrFailed, errs)
	}
	p.ok("preflight passed")
	return nil
}

func printSnapshot(p printer, s domain.Snapshot) {
	if !s.InterfaceUp {
		p.warn("interface is down")
		return
	}
	p.ok(fmt.Sprintf("interface up, %d/%d monitored peer(s) connected", s.Connected(), len(s.Peers)))
	for _, name := range s.PeerNames() {
		state := "disconnected"
		if s.Peers[name] {
			state = "connected"
		}
		fmt.Fprintf(p.out, "    %s: %s\n", name, state)
	}
}

type printer struct{ out io.Writer }

func (p printer) ok(msg string)   { fmt.Fprintln(p.out, "✔", msg) }
func (p printer) warn(msg string) { fmt.Fprintln(p.out, "⚠", msg) }
func (p printer) fail(msg string) { fmt.Fprintln(p.out, "✖", msg) }
