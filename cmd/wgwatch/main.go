package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/wgwatch/internal/alert"
	"github.com/hamed0406/wgwatch/internal/analyzer"
	"github.com/hamed0406/wgwatch/internal/config"
	"github.com/hamed0406/wgwatch/internal/httpapi"
	"github.com/hamed0406/wgwatch/internal/logging"
	"github.com/hamed0406/wgwatch/internal/metrics"
	"github.com/hamed0406/wgwatch/internal/notify"
	"github.com/hamed0406/wgwatch/internal/preflight"
	"github.com/hamed0406/wgwatch/internal/probe"
	"github.com/hamed0406/wgwatch/internal/repo/memory"
	"github.com/hamed0406/wgwatch/internal/scheduler"
	"github.com/hamed0406/wgwatch/internal/wgapi"
)

const shutdownGrace = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env-file", config.DefaultEnvFile, "optional KEY=VALUE file read before the environment")
	once := flag.Bool("once", false, "run a single poll cycle and exit")
	testEmail := flag.Bool("test-email", false, "send a test email and exit")
	testConfig := flag.Bool("test-config", false, "check configuration, API and SMTP without alerting, then exit")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		printConfigError(err)
		return 1
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := wgapi.NewClient(logger, wgapi.Options{
		BaseURL:    cfg.APIURL,
		APIKey:     cfg.APIKey,
		KeyHeader:  cfg.APIKeyHeader,
		ConfigName: cfg.ConfigName,
		Attempts:   cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.ConnectionTimeout,
	})
	if err != nil {
		logger.Error("wgapi_client", zap.Error(err))
		return 1
	}
	an := analyzer.New(logger, analyzer.Options{
		MonitoredPeers:   cfg.MonitoredPeers,
		MonitorAll:       cfg.MonitorAllPeers,
		HandshakeTimeout: cfg.HandshakeTimeout,
	})
	email, err := notify.NewEmail(logger, notify.EmailOptions{
		Host:     cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.FromEmail,
		To:       cfg.ToEmails,
	})
	if err != nil {
		logger.Error("smtp_client", zap.Error(err))
		return 1
	}

	switch {
	case *testConfig:
		err := preflight.Run(ctx, cfg, preflight.Deps{
			Fetcher:  client,
			Analyzer: an,
			Mail:     email,
			Probes:   probe.NewMultiChecker(probe.NewDNSChecker(), probe.NewTCPChecker(cfg.ConnectionTimeout)),
		}, os.Stdout)
		if err != nil {
			return 1
		}
		return 0

	case *testEmail:
		subject, body := alert.TestMessage(cfg.ConfigName, time.Now())
		if err := email.Send(ctx, subject, body); err != nil {
			logger.Error("test_email_failed", zap.Error(err))
			return 1
		}
		logger.Info("test_email_sent", zap.Strings("to", cfg.ToEmails))
		return 0
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	store := memory.New()

	mon := scheduler.NewMonitor(logger, client, an,
		notify.Multi{email, notify.NewLog(logger)},
		scheduler.MonitorConfig{ConfigName: cfg.ConfigName, Interval: cfg.CheckInterval},
	)
	mon.Metrics = metrics.New(reg)
	mon.Store = store

	logger.Info("wgwatch_starting",
		zap.String("api_url", client.Endpoint()),
		zap.String("config_name", cfg.ConfigName),
		zap.Duration("check_interval", cfg.CheckInterval),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Strings("monitored_peers", cfg.MonitoredPeers),
		zap.Bool("monitor_all_peers", cfg.MonitorAllPeers),
	)

	if *once {
		if _, err := mon.RunOnce(ctx); err != nil {
			return 1
		}
		return 0
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mon.Run(gctx) })

	if cfg.StatusAddr != "" {
		api := httpapi.NewServer(logger, store, reg, cfg.ConfigName)
		api.TrustedProxies = cfg.StatusTrustedProxies
		srv := &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           api.Router(cfg.StatusAPIKeys, cfg.StatusRPM, cfg.StatusBurst),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("status_api_listen", zap.String("addr", cfg.StatusAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status api: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("wgwatch_stopped", zap.Error(err))
		return 1
	}
	logger.Info("wgwatch_stopped")
	return 0
}

func printConfigError(err error) {
	var missing *config.MissingError
	var invalid *config.InvalidError
	switch {
	case errors.As(err, &missing):
		fmt.Fprintln(os.Stderr, "✖ missing required configuration:")
		for _, s := range missing.Settings {
			fmt.Fprintln(os.Stderr, "   -", s)
		}
		fmt.Fprintln(os.Stderr, "set them in the environment or in the -env-file")
	case errors.As(err, &invalid):
		fmt.Fprintln(os.Stderr, "✖ invalid configuration:")
		for _, f := range invalid.Fields {
			fmt.Fprintln(os.Stderr, "   -", f)
		}
	default:
		fmt.Fprintln(os.Stderr, "✖ configuration:", err)
	}
}
