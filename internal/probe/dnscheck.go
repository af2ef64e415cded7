package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

type DNSStatus struct {
	Domain        string
	HasAOrAAAA    bool
	IPs           []net.IP
	CNAME         string
	Class         string // "NXDOMAIN" | "RESOLVES" | "SERVFAIL_or_TIMEOUT" | "INVALID_NAME" | "LITERAL_IP"
	ResolverError string
}

var dnsTimeout = 3 * time.Second

func CheckDNS(ctx context.Context, domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = "INVALID_NAME"
		return s
	}
	if ip := net.ParseIP(s.Domain); ip != nil {
		s.HasAOrAAAA = true
		s.IPs = []net.IP{ip}
		s.Class = "LITERAL_IP"
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()
	r := &net.Resolver{} // OS resolver

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.HasAOrAAAA = true
		s.IPs = ips
		s.Class = "RESOLVES"
	} else if err != nil {
		var de *net.DNSError
		s.ResolverError = err.Error()
		s.Class = "SERVFAIL_or_TIMEOUT"
		if errors.As(err, &de) && de.IsNotFound {
			s.Class = "NXDOMAIN"
		}
	}

	if cname, err := r.LookupCNAME(ctx, s.Domain); err == nil && !strings.EqualFold(cname, s.Domain+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}
	if s.Class == "" {
		s.Class = "NXDOMAIN"
	}
	return s
}
