package recon

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
	"github.com/vulnverified/nexus/internal/engine"
	"github.com/vulnverified/nexus/internal/logging"
	"github.com/vulnverified/nexus/pkg/ports"
)

// DefaultProbeTimeout bounds each connect attempt.
const DefaultProbeTimeout = 500 * time.Millisecond

// TCPProber implements engine.PortProber with a plain IPv4 TCP connect.
type TCPProber struct {
	Timeout time.Duration
}

// Probe reports whether a connection to host:port succeeded within the timeout.
// Refusals, timeouts and resolution failures all count as closed.
func (p *TCPProber) Probe(ctx context.Context, host string, port uint16) bool {
	dialer := net.Dialer{Timeout: durationOr(p.Timeout, DefaultProbeTimeout)}
	conn, err := dialer.DialContext(ctx, "tcp4", net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Scanner implements engine.PortScanner over a port catalog.
type Scanner struct {
	Catalog  []ports.PortSpec // defaults to ports.Catalog
	Prober   engine.PortProber
	Resolver engine.HostResolver
	Log      logrus.FieldLogger
}

// Scan resolves host once and probes every catalog entry concurrently. The
// result holds one entry per catalog entry in descending priority order. A host
// that does not resolve yields an all-closed result.
func (s *Scanner) Scan(ctx context.Context, host string) []engine.PortResult {
	specs := ports.ByPriority(s.catalog())
	log := s.logger().WithField("host", host)

	addrs, err := s.resolver().LookupIPv4(ctx, host)
	if err != nil || len(addrs) == 0 {
		log.WithError(err).Debug("host did not resolve, reporting all ports closed")
		results := make([]engine.PortResult, len(specs))
		for i, spec := range specs {
			results[i] = resultFor(spec, engine.StatusClosed)
		}
		return results
	}
	ip := addrs[0]

	mapper := iter.Mapper[ports.PortSpec, engine.PortResult]{MaxGoroutines: len(specs)}
	results := mapper.Map(specs, func(spec *ports.PortSpec) engine.PortResult {
		if s.prober().Probe(ctx, ip, spec.Port) {
			return resultFor(*spec, engine.StatusOpen)
		}
		return resultFor(*spec, engine.StatusClosed)
	})

	log.WithField("ip", ip).Debug("port scan complete")
	return results
}

func (s *Scanner) catalog() []ports.PortSpec {
	if s.Catalog != nil {
		return s.Catalog
	}
	return ports.Catalog
}

func (s *Scanner) prober() engine.PortProber {
	if s.Prober != nil {
		return s.Prober
	}
	return &TCPProber{}
}

func (s *Scanner) resolver() engine.HostResolver {
	if s.Resolver != nil {
		return s.Resolver
	}
	return &Resolver{}
}

func (s *Scanner) logger() logrus.FieldLogger {
	if s.Log != nil {
		return s.Log
	}
	return logging.Discard()
}

func resultFor(spec ports.PortSpec, status engine.PortStatus) engine.PortResult {
	return engine.PortResult{
		Port:     spec.Port,
		Service:  spec.Service,
		Status:   status,
		Priority: spec.Priority,
	}
}
