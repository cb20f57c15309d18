package recon

import (
	"context"
	"fmt"
	"net"
)

// Resolver implements engine.HostResolver over a net.Resolver. Only A records
// are used; IPv6 targets are out of scope.
type Resolver struct {
	Resolver *net.Resolver
}

// LookupIPv4 returns the host's IPv4 addresses, or the host itself when it is
// an IPv4 literal.
func (r *Resolver) LookupIPv4(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() == nil {
			return nil, fmt.Errorf("%s: IPv6 targets are not supported", host)
		}
		return []string{ip.String()}, nil
	}

	res := r.Resolver
	if res == nil {
		res = net.DefaultResolver
	}
	ips, err := res.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, ip.String())
	}
	addrs = deduplicateStrings(addrs)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%s: no IPv4 addresses", host)
	}
	return addrs, nil
}

func deduplicateStrings(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	var out []string
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
