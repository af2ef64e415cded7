package preflight

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/wgwatch/internal/config"
	"github.com/hamed0406/wgwatch/internal/domain"
	"github.com/hamed0406/wgwatch/internal/probe"
)

type fakeFetcher struct {
	doc *domain.Document
	err error
}

func (f fakeFetcher) FetchStatus(ctx context.Context) (*domain.Document, error) { return f.doc, f.err }

type fakeAnalyzer struct{ snap domain.Snapshot }

func (f fakeAnalyzer) Analyze(doc *domain.Document) domain.Snapshot { return f.snap }

type fakeVerifier struct{ err error }

func (f fakeVerifier) Verify(ctx context.Context) error { return f.err }

type fakeProbe struct{ fail string }

func (f fakeProbe) Check(ctx context.Context, target string) probe.CheckResult {
	if target == f.fail {
		return probe.CheckResult{Name: "TCP", Target: target, Message: "connection refused"}
	}
	return probe.CheckResult{Name: "TCP", Target: target, Success: true, Message: "connected"}
}

func validConfig() config.Config {
	return config.Config{
		APIURL:            "http://127.0.0.1:10086/api",
		APIKey:            "k",
		ConfigName:        "wg0",
		SMTPServer:        "smtp.example.com",
		SMTPPort:          587,
		SMTPUsername:      "u",
		SMTPPassword:      "p",
		FromEmail:         "wg@example.com",
		ToEmails:          []string{"ops@example.com"},
		CheckInterval:     time.Minute,
		ConnectionTimeout: time.Second,
		MaxRetries:        1,
		HandshakeTimeout:  5 * time.Minute,
		MonitorAllPeers:   true,
	}
}

func TestRun_AllChecksPass(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), validConfig(), Deps{
		Fetcher:  fakeFetcher{doc: &domain.Document{InterfaceUp: true, Peers: []domain.PeerRecord{{Name: "alice"}}}},
		Analyzer: fakeAnalyzer{snap: domain.Snapshot{InterfaceUp: true, Peers: map[string]bool{"alice": true}}},
		Mail:     fakeVerifier{},
		Probes:   probe.NewMultiChecker(fakeProbe{}),
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out.String())
	}
	for _, want := range []string{"✔ configuration valid", "1/1 monitored peer(s) connected", "alice: connected", "✔ preflight passed"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_InvalidConfigStopsEarly(t *testing.T) {
	cfg := validConfig()
	cfg.APIKey = ""
	var out bytes.Buffer
	called := false
	err := Run(context.Background(), cfg, Deps{Mail: verifierFunc(func() { called = true })}, &out)

	var missing *config.MissingError
	if !errors.Is(err, ErrFailed) || !errors.As(err, &missing) {
		t.Fatalf("want ErrFailed wrapping MissingError, got %v", err)
	}
	if called {
		t.Fatal("no check should run with an invalid configuration")
	}
}

func TestRun_ContinuesAfterFailures(t *testing.T) {
	cfg := validConfig()
	var out bytes.Buffer
	smtpErr := errors.New("535 auth failed")
	err := Run(context.Background(), cfg, Deps{
		Fetcher: fakeFetcher{err: errors.New("connection refused")},
		Mail:    fakeVerifier{err: smtpErr},
		Probes:  probe.NewMultiChecker(fakeProbe{fail: "smtp.example.com:587"}),
	}, &out)

	if !errors.Is(err, ErrFailed) || !errors.Is(err, smtpErr) {
		t.Fatalf("want combined failure, got %v", err)
	}
	s := out.String()
	for _, want := range []string{"✔ TCP http://127.0.0.1:10086/api", "✖ TCP smtp.example.com:587", "✖ dashboard API", "✖ smtp login", "✖ preflight failed"} {
		if !strings.Contains(s, want) {
			t.Fatalf("output missing %q:\n%s", want, s)
		}
	}
}

type verifierFunc func()

func (f verifierFunc) Verify(ctx context.Context) error { f(); return nil }
