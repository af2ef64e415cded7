// Package wgapi fetches configuration status from the WireGuard dashboard API.
package wgapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/wgwatch/internal/domain"
)

const maxBodyBytes = 8 << 20

type Options struct {
	BaseURL    string
	APIKey     string
	KeyHeader  string
	ConfigName string
	Attempts   int
	RetryDelay time.Duration
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	logger   *zap.Logger
	http     *http.Client
	endpoint string
	opts     Options
}

func NewClient(logger *zap.Logger, opts Options) (*Client, error) {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.KeyHeader == "" {
		opts.KeyHeader = "wg-dashboard-apikey"
	}
	u, err := url.Parse(opts.BaseURL + "/getConfigurationInfo")
	if err != nil {
		return nil, fmt.Errorf("wgapi: bad base url: %w", err)
	}
	q := u.Query()
	q.Set("configurationName", opts.ConfigName)
	u.RawQuery = q.Encode()

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{logger: logger, http: hc, endpoint: u.String(), opts: opts}, nil
}

// Endpoint is the fully qualified status URL.
func (c *Client) Endpoint() string { return c.endpoint }

// FetchStatus makes up to Attempts requests, waiting RetryDelay between
// them. Cancelling ctx aborts both the request and the wait.
func (c *Client) FetchStatus(ctx context.Context) (*domain.Document, error) {
	var (
		doc     *domain.Document
		attempt int
		lastErr error
	)
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(uint(c.opts.Attempts)),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			return c.opts.RetryDelay
		}),
	)
	err := r.Do(func() error {
		attempt++
		d, err := c.fetchOnce(ctx)
		if err != nil {
			c.logger.Warn("wgapi_attempt_failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.opts.Attempts),
				zap.Error(err),
			)
			lastErr = err
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		if lastErr == nil || ctx.Err() != nil {
			lastErr = err
		}
		return nil, &FetchError{Attempts: attempt, Err: lastErr}
	}
	return doc, nil
}

func (c *Client) fetchOnce(ctx context.Context) (*domain.Document, error) {
	tctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(tctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(c.opts.KeyHeader, c.opts.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(body)}
	}
	return decodeDocument(body)
}

func snippet(b []byte) string {
	const n = 200
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
