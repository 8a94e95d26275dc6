package dnscheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mdns "github.com/miekg/dns"
)

var (
	// ErrNotFound is returned for NXDOMAIN and for answers that contain no
	// records of the requested type. It is terminal and never retried.
	ErrNotFound = errors.New("dnscheck: no records found")

	// ErrServFail is returned after the retry budget is exhausted on
	// transient resolver failures (timeout, SERVFAIL).
	ErrServFail = errors.New("dnscheck: resolver failure")
)

// MX is one mail-exchange answer.
type MX struct {
	Host     string
	Priority uint16
}

// Resolver issues the DNS queries the verification engine needs.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupMX(ctx context.Context, name string) ([]MX, error)
	LookupCNAME(ctx context.Context, name string) (string, error)
}

// ResolverConfig tunes the live resolver client.
type ResolverConfig struct {
	// Nameservers to query, e.g. "8.8.8.8:53". If empty, servers from
	// /etc/resolv.conf are used, falling back to public DNS.
	Nameservers []string
	// Timeout per individual query. Default 5s.
	Timeout time.Duration
	// Retries on transient failure. Default 2.
	Retries int
}

// Client is the live Resolver backed by github.com/miekg/dns.
type Client struct {
	cfg    ResolverConfig
	client *mdns.Client
}

func NewClient(cfg ResolverConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Retries == 0 {
		cfg.Retries = 2
	}
	if len(cfg.Nameservers) == 0 {
		cfg.Nameservers = systemNameservers()
	}

	return &Client{
		cfg:    cfg,
		client: &mdns.Client{Timeout: cfg.Timeout},
	}
}

func systemNameservers() []string {
	conf, err := mdns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return []string{"8.8.8.8:53", "1.1.1.1:53"}
	}

	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		if !strings.Contains(s, ":") {
			s = s + ":53"
		}
		servers = append(servers, s)
	}
	return servers
}

// query performs a DNS query with bounded retries. NXDOMAIN is terminal;
// timeouts and SERVFAIL are retried against each configured nameserver.
func (c *Client) query(ctx context.Context, name string, qtype uint16) (*mdns.Msg, error) {
	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn(name), qtype)
	m.RecursionDesired = true

	var lastErr error

	for i := 0; i <= c.cfg.Retries; i++ {
		for _, server := range c.cfg.Nameservers {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			resp, _, err := c.client.ExchangeContext(ctx, m, server)
			if err != nil {
				lastErr = fmt.Errorf("dns query failed: %w", err)
				continue
			}

			switch resp.Rcode {
			case mdns.RcodeSuccess:
				return resp, nil
			case mdns.RcodeNameError: // NXDOMAIN
				return nil, ErrNotFound
			case mdns.RcodeServerFailure:
				lastErr = ErrServFail
				continue
			default:
				lastErr = fmt.Errorf("dns: unexpected rcode %s", mdns.RcodeToString[resp.Rcode])
				continue
			}
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrServFail
}

func (c *Client) LookupTXT(ctx context.Context, name string) ([]string, error) {
	resp, err := c.query(ctx, name, mdns.TypeTXT)
	if err != nil {
		return nil, err
	}

	var records []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*mdns.TXT); ok {
			// TXT records may be split into multiple character strings,
			// join them per RFC 7208 Section 3.3
			records = append(records, strings.Join(txt.Txt, ""))
		}
	}

	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

func (c *Client) LookupMX(ctx context.Context, name string) ([]MX, error) {
	resp, err := c.query(ctx, name, mdns.TypeMX)
	if err != nil {
		return nil, err
	}

	var records []MX
	for _, rr := range resp.Answer {
		if mx, ok := rr.(*mdns.MX); ok {
			records = append(records, MX{Host: mx.Mx, Priority: mx.Preference})
		}
	}

	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

func (c *Client) LookupCNAME(ctx context.Context, name string) (string, error) {
	resp, err := c.query(ctx, name, mdns.TypeCNAME)
	if err != nil {
		return "", err
	}

	for _, rr := range resp.Answer {
		if cname, ok := rr.(*mdns.CNAME); ok {
			return cname.Target, nil
		}
	}
	return "", ErrNotFound
}
