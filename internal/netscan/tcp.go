// Package netscan implements the per-port probing pipeline: TCP connect,
// TLS handshake, banner read, HTTP exchange, and service identification.
package netscan

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/likexian/doh"
	"github.com/likexian/doh/dns"
	"github.com/projectdiscovery/fastdialer/fastdialer"

	"github.com/svcscan/svcscan/internal/model"
)

// Connector resolves hostnames and establishes TCP connections bounded by a
// deadline, deriving a model.HostState from the socket outcome.
type Connector struct {
	dialer    *fastdialer.Dialer
	dohClient *doh.DoH
}

// NewConnector builds a Connector backed by fastdialer, which owns its own
// hosts-file/cache/resolver stack.
func NewConnector() (*Connector, error) {
	opts := fastdialer.DefaultOptions
	opts.EnableFallback = true
	opts.MaxRetries = 1
	opts.HostsFile = true
	opts.ResolversFile = true
	opts.BaseResolvers = []string{
		"1.1.1.1:53", "1.0.0.1:53",
		"8.8.8.8:53", "8.8.4.4:53",
	}
	opts.WithDialerHistory = true

	dialer, err := fastdialer.NewDialer(opts)
	if err != nil {
		return nil, err
	}

	return &Connector{
		dialer:    dialer,
		dohClient: doh.Use(doh.CloudflareProvider, doh.GoogleProvider),
	}, nil
}

// Close releases the underlying dialer and DoH client.
func (c *Connector) Close() {
	if c.dialer != nil {
		c.dialer.Close()
	}
	if c.dohClient != nil {
		c.dohClient.Close()
	}
}

// Resolve performs IPv4 resolution for target, retrying once through
// fastdialer's own resolver stack and, failing that, once more through a
// DNS-over-HTTPS fallback query before giving up.
func (c *Connector) Resolve(ctx context.Context, target string) ([]net.IP, error) {
	if ip := net.ParseIP(target); ip != nil {
		return []net.IP{ip}, nil
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		data, err := c.dialer.GetDNSData(target)
		if err == nil && len(data.A) > 0 {
			ips := make([]net.IP, 0, len(data.A))
			for _, s := range data.A {
				if ip := net.ParseIP(s); ip != nil {
					ips = append(ips, ip)
				}
			}
			if len(ips) > 0 {
				return ips, nil
			}
		}
		lastErr = err
	}

	if c.dohClient != nil {
		rsp, err := c.dohClient.Query(ctx, dns.Domain(target), dns.TypeA)
		if err == nil && len(rsp.Answer) > 0 {
			var ips []net.IP
			for _, a := range rsp.Answer {
				if ip := net.ParseIP(a.Data); ip != nil {
					ips = append(ips, ip)
				}
			}
			if len(ips) > 0 {
				return ips, nil
			}
		}
		if lastErr == nil {
			lastErr = err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no A records returned")
	}
	return nil, &model.ResolveError{Target: target, Cause: lastErr}
}

// Connect resolves target and attempts a TCP connect to (target, port)
// bounded by timeout. On success it returns the live connection and
// model.StateOpen. On failure it classifies the outcome per section 4.3 of
// the design and returns a nil connection with the derived state.
func (c *Connector) Connect(ctx context.Context, target string, port model.Port, timeout time.Duration) (net.Conn, model.HostState, error) {
	if _, err := c.Resolve(ctx, target); err != nil {
		return nil, model.StateUnknown, err
	}

	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hostPort := net.JoinHostPort(target, strconv.Itoa(int(port)))
	conn, err := c.dialer.Dial(dctx, "tcp", hostPort)
	if err == nil {
		return conn, model.StateOpen, nil
	}

	kind := classifyDialErr(err)
	state := model.StateUnknown
	if kind == model.IoRefused || kind == model.IoReset {
		state = model.StateClosed
	}
	return nil, state, &model.IoError{Endpoint: hostPort, Kind: kind, Message: err.Error()}
}

// classifyDialErr maps a dial error into the IoKind taxonomy of section 4.3:
// refused/reset indicate a closed port, timeout/would_block/unknown do not
// distinguish a closed port from an unreachable one.
func classifyDialErr(err error) model.IoKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.IoTimeout
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "refused"):
		return model.IoRefused
	case strings.Contains(msg, "reset by peer"), strings.Contains(msg, "connection reset"):
		return model.IoReset
	case strings.Contains(msg, "would block"), strings.Contains(msg, "temporarily unavailable"):
		return model.IoWouldBlock
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return model.IoTimeout
	default:
		return model.IoUnknown
	}
}
