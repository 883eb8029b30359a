package mailcheck

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Checker answers "could mail plausibly be delivered to this address's
// domain". Deliverable means the domain has at least one MX record, or
// failing that an A record (bare-A mail hosts still exist).
type Checker interface {
	Deliverable(ctx context.Context, email string) bool
}

type Resolver struct {
	client  *dns.Client
	servers []string
	cache   map[string]bool
}

func NewResolver() *Resolver {
	return &Resolver{
		client:  &dns.Client{Timeout: time.Second * 5},
		servers: []string{"8.8.8.8:53", "1.1.1.1:53"},
		cache:   map[string]bool{},
	}
}

func (r *Resolver) Deliverable(ctx context.Context, email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(parts[1]))
	if domain == "" {
		return false
	}

	if ok, cached := r.cache[domain]; cached {
		return ok
	}

	ok := r.hasRecord(ctx, domain, dns.TypeMX) || r.hasRecord(ctx, domain, dns.TypeA)
	r.cache[domain] = ok
	if !ok {
		slog.DebugContext(ctx, "domain has no MX or A record", "domain", domain)
	}
	return ok
}

func (r *Resolver) hasRecord(ctx context.Context, domain string, qtype uint16) bool {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qtype)
	msg.RecursionDesired = true

	for _, server := range r.servers {
		resp, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			continue
		}
		if resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0 {
			return true
		}
	}
	return false
}
