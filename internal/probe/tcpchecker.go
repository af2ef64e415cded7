package probe

import (
	"context"
	"net"
	"net/url"
	"time"
)

// TCPChecker opens and closes a TCP connection to the target.
type TCPChecker struct {
	Timeout time.Duration
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TCPChecker{Timeout: timeout}
}

// Check accepts host:port or an http(s) URL (default ports applied).
func (c *TCPChecker) Check(ctx context.Context, target string) CheckResult {
	addr := dialAddr(target)
	start := time.Now()
	d := net.Dialer{Timeout: c.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	latency := time.Since(start).Seconds() * 1000
	if err != nil {
		return CheckResult{Name: "TCP", Target: addr, Success: false, Message: err.Error(), LatencyMS: latency}
	}
	_ = conn.Close()
	return CheckResult{Name: "TCP", Target: addr, Success: true, Message: "connected", LatencyMS: latency}
}

func dialAddr(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return target
	}
	if u.Port() != "" {
		return u.Host
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port)
}
