package engine

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/miekg/dns"
)

// Target is a validated scan target.
type Target struct {
	Host string // lowercase hostname or IPv4 literal, no port
	URL  string // URL fetched for tech and header checks
}

// ParseTarget accepts a bare hostname or an http(s) URL.
// Bare hostnames are fetched over plain HTTP.
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("%w: empty target", ErrInvalidTarget)
	}

	rawURL := raw
	if !strings.HasPrefix(strings.ToLower(raw), "http://") && !strings.HasPrefix(strings.ToLower(raw), "https://") {
		rawURL = "http://" + raw
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if !validHost(host) {
		return Target{}, fmt.Errorf("%w: %q is not a hostname or IPv4 address", ErrInvalidTarget, raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	return Target{Host: host, URL: u.String()}, nil
}

// validHost accepts an IPv4 literal or a DNS name whose labels are
// alphanumerics, '-' and '_' and do not start or end with '-'.
func validHost(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.To4() != nil
	}
	if _, ok := dns.IsDomainName(host); !ok {
		return false
	}
	for _, label := range dns.SplitDomainName(host) {
		if label == "" || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		if strings.ContainsFunc(label, notHostChar) {
			return false
		}
	}
	return true
}

// notHostChar rejects the escapes and 8-bit bytes dns.IsDomainName allows.
func notHostChar(c rune) bool {
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_')
}
