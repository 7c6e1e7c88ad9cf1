// Package dnsresolver answers A-record lookups with miekg/dns against one
// configured nameserver.
package dnsresolver

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"securbot/internal/ports"
)

const (
	DefaultTimeout = 2 * time.Second
	fallbackServer = "8.8.8.8:53"
)

// Resolver satisfies ports.Resolver.
type Resolver struct {
	Server  string
	Timeout time.Duration
	client  *dns.Client
}

func New(server string, timeout time.Duration) *Resolver {
	if server == "" {
		server = DefaultServer()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		Server:  server,
		Timeout: timeout,
		client:  &dns.Client{Net: "udp", Timeout: timeout},
	}
}

// DefaultServer returns the first nameserver of /etc/resolv.conf, or a public
// resolver when none is configured.
func DefaultServer() string {
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		return fallbackServer
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port)
}

// LookupA returns the IPv4 addresses of name. Every failure is a *ports.LookupError.
func (r *Resolver) LookupA(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeA)
	msg.RecursionDesired = true

	in, _, err := r.client.ExchangeContext(ctx, msg, r.Server)
	if err != nil {
		return nil, &ports.LookupError{Op: "dns", Name: name, Kind: classifyExchangeError(ctx, err), Err: err}
	}

	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, &ports.LookupError{Op: "dns", Name: name, Kind: ports.LookupNotFound}
	default:
		return nil, &ports.LookupError{
			Op:   "dns",
			Name: name,
			Kind: ports.LookupServerFailure,
			Err:  errors.New(dns.RcodeToString[in.Rcode]),
		}
	}

	var addrs []string
	seen := make(map[string]bool)
	for _, rr := range in.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		ip := a.A.String()
		if !seen[ip] {
			seen[ip] = true
			addrs = append(addrs, ip)
		}
	}
	if len(addrs) == 0 {
		return nil, &ports.LookupError{Op: "dns", Name: name, Kind: ports.LookupNotFound}
	}
	return addrs, nil
}

func classifyExchangeError(ctx context.Context, err error) ports.LookupKind {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ports.LookupTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ports.LookupTimeout
	}
	if strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return ports.LookupTimeout
	}
	return ports.LookupUnavailable
}
