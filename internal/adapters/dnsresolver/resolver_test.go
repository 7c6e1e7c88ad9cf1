package dnsresolver

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securbot/internal/ports"
)

// startServer runs an in-process nameserver answering from zone. Names listed
// in servfail answer SERVFAIL, names in silent are never answered.
func startServer(t *testing.T, zone map[string][]string, servfail, silent map[string]bool) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
			name := req.Question[0].Name
			if silent[name] {
				return
			}
			resp := new(dns.Msg)
			resp.SetReply(req)
			switch {
			case servfail[name]:
				resp.Rcode = dns.RcodeServerFailure
			case zone[name] != nil:
				for _, ip := range zone[name] {
					resp.Answer = append(resp.Answer, &dns.A{
						Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
						A:   net.ParseIP(ip),
					})
				}
			default:
				resp.Rcode = dns.RcodeNameError
			}
			_ = w.WriteMsg(resp)
		}),
	}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestLookupA(t *testing.T) {
	addr := startServer(t,
		map[string][]string{"bank-example1.com.": {"192.0.2.10", "192.0.2.11", "192.0.2.10"}},
		map[string]bool{"broken.com.": true},
		map[string]bool{"slow.com.": true},
	)
	r := New(addr, 300*time.Millisecond)
	ctx := context.Background()

	ips, err := r.LookupA(ctx, "bank-example1.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.10", "192.0.2.11"}, ips)

	tests := []struct {
		name string
		kind ports.LookupKind
	}{
		{"missing.com", ports.LookupNotFound},
		{"broken.com", ports.LookupServerFailure},
		{"slow.com", ports.LookupTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.LookupA(ctx, tt.name)
			var le *ports.LookupError
			require.True(t, errors.As(err, &le), "got %v", err)
			assert.Equal(t, tt.kind, le.Kind)
			assert.True(t, ports.IsNoSignal(err))
		})
	}
}

func TestNewDefaults(t *testing.T) {
	r := New("10.0.0.1:53", 0)
	assert.Equal(t, DefaultTimeout, r.Timeout)
	assert.Equal(t, "10.0.0.1:53", r.Server)
}
