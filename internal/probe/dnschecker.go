package probe

import (
	"context"
	"net"
	"net/url"
	"time"
)

type DNSChecker struct{}

func NewDNSChecker() *DNSChecker {
	return &DNSChecker{}
}

// Check accepts a URL, a host:port pair or a bare host.
func (d *DNSChecker) Check(ctx context.Context, target string) CheckResult {
	start := time.Now()
	host := extractHost(target)
	dns := CheckDNS(ctx, host)

	msg := dns.Class
	if dns.ResolverError != "" {
		msg += ": " + dns.ResolverError
	}
	return CheckResult{
		Name:      "DNS",
		Target:    host,
		Success:   dns.Class == "RESOLVES" || dns.Class == "LITERAL_IP",
		Message:   msg,
		LatencyMS: time.Since(start).Seconds() * 1000,
	}
}

func extractHost(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	if h, _, err := net.SplitHostPort(raw); err == nil {
		return h
	}
	return raw
}
