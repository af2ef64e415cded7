package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/wgwatch/internal/alert"
	"github.com/hamed0406/wgwatch/internal/domain"
	"github.com/hamed0406/wgwatch/internal/metrics"
	"github.com/hamed0406/wgwatch/internal/notify"
	"github.com/hamed0406/wgwatch/internal/repo"
)

// FailureAlertThreshold is the number of consecutive failed polls that
// triggers an API-unreachable alert. The counter restarts after each alert.
const FailureAlertThreshold = 3

type Fetcher interface {
	FetchStatus(ctx context.Context) (*domain.Document, error)
}

type Analyzer interface {
	Analyze(doc *domain.Document) domain.Snapshot
}

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

type MonitorConfig struct {
	ConfigName string
	Interval   time.Duration
}

// Cycle describes what one poll did.
type Cycle struct {
	ID       string
	OK       bool
	Snapshot domain.Snapshot
	Events   []domain.Event
	Failures int
}

// Monitor runs poll cycles one after another. It is not safe for
// concurrent use; all of its state belongs to the goroutine calling Run.
type Monitor struct {
	logger   *zap.Logger
	fetcher  Fetcher
	analyzer Analyzer
	notifier notify.Notifier
	cfg      MonitorConfig

	// optional
	Metrics *metrics.Metrics
	Store   repo.StatusStore
	Sleep   SleepFunc
	Now     func() time.Time

	prev     domain.Snapshot
	failures int
}

func NewMonitor(
	logger *zap.Logger,
	fetcher Fetcher,
	analyzer Analyzer,
	notifier notify.Notifier,
	cfg MonitorConfig,
) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Monitor{
		logger:   logger,
		fetcher:  fetcher,
		analyzer: analyzer,
		notifier: notifier,
		cfg:      cfg,
		Sleep:    sleepCtx,
		Now:      time.Now,
		prev:     domain.InitialSnapshot(),
	}
}

// Run polls until ctx is cancelled. Cancellation is a normal stop and
// returns nil; a failed cycle never ends the loop.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor_started",
		zap.String("config_name", m.cfg.ConfigName),
		zap.Duration("interval", m.cfg.Interval),
	)
	for {
		_, _ = m.RunOnce(ctx)
		if ctx.Err() != nil {
			break
		}
		if err := m.Sleep(ctx, m.cfg.Interval); err != nil {
			break
		}
	}
	m.logger.Info("monitor_stopped")
	return nil
}

// RunOnce performs exactly one poll cycle. The returned error is the fetch
// failure, if any; notification problems are logged, not returned.
func (m *Monitor) RunOnce(ctx context.Context) (Cycle, error) {
	c := Cycle{ID: uuid.NewString()}
	log := m.logger.With(zap.String("cycle_id", c.ID))

	start := m.Now()
	doc, err := m.fetcher.FetchStatus(ctx)
	elapsed := m.Now().Sub(start).Seconds()

	if err != nil {
		if ctx.Err() != nil {
			log.Info("monitor_cycle_cancelled")
			return c, ctx.Err()
		}
		m.failures++
		c.Failures = m.failures
		log.Error("monitor_fetch_failed", zap.Int("consecutive_failures", m.failures), zap.Error(err))
		m.record(log, func() error { return m.Store.RecordFailure(ctx, c.Failures, err, m.Now()) })

		if m.failures >= FailureAlertThreshold {
			c.Events = []domain.Event{{Kind: domain.APIUnreachable, Failures: m.failures}}
			m.failures = 0
		}
		m.Metrics.ObservePoll(false, elapsed, m.failures)
		m.dispatch(ctx, log, c.Events, m.prev)
		return c, err
	}

	m.failures = 0
	snap := m.analyzer.Analyze(doc)
	c.OK = true
	c.Snapshot = snap
	c.Events = alert.Detect(m.prev, snap)

	m.Metrics.ObservePoll(true, elapsed, 0)
	m.Metrics.ObserveSnapshot(snap)
	m.record(log, func() error { return m.Store.RecordSuccess(ctx, snap, m.Now()) })

	if snap.InterfaceUp {
		log.Info("monitor_cycle_ok",
			zap.Bool("interface_up", true),
			zap.Int("peers_connected", snap.Connected()),
			zap.Int("peers_total", len(snap.Peers)),
		)
	} else {
		log.Warn("monitor_cycle_ok", zap.Bool("interface_up", false))
	}

	m.dispatch(ctx, log, c.Events, snap)
	m.prev = snap
	return c, nil
}

func (m *Monitor) dispatch(ctx context.Context, log *zap.Logger, events []domain.Event, snap domain.Snapshot) {
	for _, ev := range events {
		at := m.Now()
		subject, body := alert.Render(ev, m.cfg.ConfigName, snap, at)
		err := m.notifier.Send(ctx, subject, body)
		m.Metrics.ObserveNotification(ev.Kind, err)
		if err != nil {
			log.Error("notify_failed", zap.Stringer("kind", ev.Kind), zap.Strings("peers", ev.Peers), zap.Error(err))
		} else {
			log.Info("notify_sent", zap.Stringer("kind", ev.Kind), zap.Strings("peers", ev.Peers))
		}
		rec := domain.EventRecord{Event: ev, At: at, Notified: err == nil}
		m.record(log, func() error { return m.Store.AppendEvent(ctx, rec) })
	}
}

func (m *Monitor) record(log *zap.Logger, fn func() error) {
	if m.Store == nil {
		return
	}
	if err := fn(); err != nil {
		log.Warn("monitor_store_error", zap.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
