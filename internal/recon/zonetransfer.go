package recon

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	axfrDialTimeout = 10 * time.Second
	axfrReadTimeout = 30 * time.Second
)

// NSLookup resolves the nameservers of a domain.
type NSLookup func(ctx context.Context, domain string) ([]*net.NS, error)

// AXFRSource attempts a DNS zone transfer against each authoritative
// nameserver. It is an opt-in fallback; most nameservers refuse AXFR.
type AXFRSource struct {
	LookupNS    NSLookup
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

// Name implements SubdomainSource.
func (s *AXFRSource) Name() string { return "axfr" }

// Query returns the qualifying owner names of every zone that transferred.
func (s *AXFRSource) Query(ctx context.Context, domain string) ([]string, error) {
	lookup := s.LookupNS
	if lookup == nil {
		lookup = net.DefaultResolver.LookupNS
	}

	nameservers, err := lookup(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("NS lookup for %s: %w", domain, err)
	}
	if len(nameservers) == 0 {
		return nil, fmt.Errorf("no NS records for %s", domain)
	}

	set := newHostSet(domain)
	transferred := 0
	for _, ns := range nameservers {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rrs, err := s.transfer(domain, strings.TrimSuffix(ns.Host, "."))
		if err != nil {
			// Refusal is the normal case.
			continue
		}
		transferred++
		for _, name := range zoneOwnerNames(rrs) {
			set.add(name)
		}
	}

	if transferred == 0 {
		return nil, fmt.Errorf("zone transfer refused by all %d nameservers of %s", len(nameservers), domain)
	}
	return set.list(), nil
}

// transfer performs AXFR against a single nameserver.
func (s *AXFRSource) transfer(domain, nameserver string) ([]dns.RR, error) {
	t := &dns.Transfer{
		DialTimeout: durationOr(s.DialTimeout, axfrDialTimeout),
		ReadTimeout: durationOr(s.ReadTimeout, axfrReadTimeout),
	}

	msg := new(dns.Msg)
	msg.SetAxfr(dns.Fqdn(domain))

	channel, err := t.In(msg, net.JoinHostPort(nameserver, "53"))
	if err != nil {
		return nil, fmt.Errorf("AXFR to %s: %w", nameserver, err)
	}

	var rrs []dns.RR
	for envelope := range channel {
		if envelope.Error != nil {
			return nil, fmt.Errorf("AXFR envelope from %s: %w", nameserver, envelope.Error)
		}
		rrs = append(rrs, envelope.RR...)
	}
	return rrs, nil
}

// zoneOwnerNames returns the owner name of each record without the trailing dot.
func zoneOwnerNames(rrs []dns.RR) []string {
	names := make([]string, 0, len(rrs))
	for _, rr := range rrs {
		names = append(names, strings.TrimSuffix(rr.Header().Name, "."))
	}
	return names
}
