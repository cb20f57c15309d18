package recon

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vulnverified/nexus/internal/engine"
	"github.com/vulnverified/nexus/internal/logging"
)

// SubdomainSource is one external provider of hostnames for a domain.
type SubdomainSource interface {
	Name() string
	Query(ctx context.Context, domain string) ([]string, error)
}

// Discoverer implements engine.SubdomainDiscoverer as an ordered fallback chain:
// sources are queried one at a time and the first non-empty result wins.
type Discoverer struct {
	Sources []SubdomainSource
	Log     logrus.FieldLogger
}

// Discover queries the sources in order. Failures and empty results fall
// through to the next source; if every source comes up empty the Discovery has
// no hosts. Attempts lists exactly the sources that were queried.
func (d *Discoverer) Discover(ctx context.Context, domain string) engine.Discovery {
	domain = normalizeHost(domain)
	log := d.logger().WithField("domain", domain)
	disc := engine.Discovery{Hosts: []string{}, Attempts: []engine.SourceAttempt{}}

	for _, src := range d.Sources {
		if ctx.Err() != nil {
			log.WithError(ctx.Err()).Warn("subdomain discovery cancelled")
			break
		}

		attempt := engine.SourceAttempt{Source: src.Name()}
		hosts, err := src.Query(ctx, domain)
		if err != nil {
			attempt.Err = err.Error()
			disc.Attempts = append(disc.Attempts, attempt)
			log.WithError(err).WithField("source", src.Name()).Warn("subdomain source failed")
			continue
		}

		set := newHostSet(domain)
		for _, h := range hosts {
			set.add(h)
		}
		found := set.list()
		attempt.Found = len(found)
		disc.Attempts = append(disc.Attempts, attempt)
		log.WithFields(logrus.Fields{"source": src.Name(), "found": len(found)}).Debug("subdomain source answered")

		if len(found) > 0 {
			sort.Strings(found)
			disc.Hosts = found
			return disc
		}
	}

	return disc
}

func (d *Discoverer) logger() logrus.FieldLogger {
	if d.Log != nil {
		return d.Log
	}
	return logging.Discard()
}

// QualifiesFor reports whether host belongs to domain: it must be domain itself
// or a subdomain of it, and must not carry a wildcard.
func QualifiesFor(host, domain string) bool {
	if host == "" || strings.Contains(host, "*") {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func normalizeHost(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}

// hostSet collects qualifying hostnames in first-seen order.
type hostSet struct {
	domain string
	seen   map[string]bool
	hosts  []string
}

func newHostSet(domain string) *hostSet {
	return &hostSet{domain: normalizeHost(domain), seen: make(map[string]bool)}
}

func (s *hostSet) add(name string) {
	host := normalizeHost(name)
	if !QualifiesFor(host, s.domain) || s.seen[host] {
		return
	}
	s.seen[host] = true
	s.hosts = append(s.hosts, host)
}

func (s *hostSet) list() []string {
	if s.hosts == nil {
		return []string{}
	}
	return s.hosts
}
