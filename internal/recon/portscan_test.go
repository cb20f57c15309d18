package recon

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vulnverified/nexus/internal/engine"
	"github.com/vulnverified/nexus/pkg/ports"
)

type staticResolver struct {
	addrs []string
	err   error
}

func (r staticResolver) LookupIPv4(ctx context.Context, host string) ([]string, error) {
	return r.addrs, r.err
}

type countingProber struct {
	open  map[uint16]bool
	calls atomic.Int32
}

func (p *countingProber) Probe(ctx context.Context, host string, port uint16) bool {
	p.calls.Add(1)
	return p.open[port]
}

func listen(t *testing.T) (net.Listener, uint16) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return ln, uint16(ln.Addr().(*net.TCPAddr).Port)
}

func TestTCPProber_OpenPort(t *testing.T) {
	ln, port := listen(t)
	defer ln.Close()

	p := &TCPProber{Timeout: 2 * time.Second}
	if !p.Probe(context.Background(), "127.0.0.1", port) {
		t.Errorf("port %d should be open", port)
	}
}

func TestTCPProber_ClosedPort(t *testing.T) {
	ln, port := listen(t)
	ln.Close()

	p := &TCPProber{Timeout: 500 * time.Millisecond}
	if p.Probe(context.Background(), "127.0.0.1", port) {
		t.Errorf("port %d should be closed", port)
	}
}

func TestScan_RealListener(t *testing.T) {
	ln, open := listen(t)
	defer ln.Close()
	ln2, closed := listen(t)
	ln2.Close()

	s := &Scanner{
		Catalog: []ports.PortSpec{
			{Port: closed, Service: "Closed", Priority: 10},
			{Port: open, Service: "Open", Priority: 50},
		},
		Prober:   &TCPProber{Timeout: time.Second},
		Resolver: staticResolver{addrs: []string{"127.0.0.1"}},
	}

	results := s.Scan(context.Background(), "localhost")
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Port != open || results[0].Status != engine.StatusOpen || results[0].Service != "Open" {
		t.Errorf("results[0] = %+v, want open port first", results[0])
	}
	if results[1].Port != closed || results[1].Status != engine.StatusClosed {
		t.Errorf("results[1] = %+v, want closed port", results[1])
	}
}

func TestScan_CatalogOrderAndLength(t *testing.T) {
	p := &countingProber{open: map[uint16]bool{443: true, 22: true}}
	s := &Scanner{Prober: p, Resolver: staticResolver{addrs: []string{"10.0.0.1"}}}

	results := s.Scan(context.Background(), "example.com")
	if len(results) != len(ports.Catalog) {
		t.Fatalf("got %d results, want %d", len(results), len(ports.Catalog))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Priority > results[i-1].Priority {
			t.Errorf("results not in descending priority at %d: %d > %d", i, results[i].Priority, results[i-1].Priority)
		}
	}
	if results[0].Port != 80 || results[1].Port != 443 {
		t.Errorf("first entries = %d,%d, want 80,443", results[0].Port, results[1].Port)
	}
	if p.calls.Load() != int32(len(ports.Catalog)) {
		t.Errorf("probe calls = %d, want %d", p.calls.Load(), len(ports.Catalog))
	}

	openCount := 0
	for _, r := range results {
		if r.Open() {
			openCount++
			if r.Port != 443 && r.Port != 22 {
				t.Errorf("unexpected open port %d", r.Port)
			}
		}
	}
	if openCount != 2 {
		t.Errorf("open = %d, want 2", openCount)
	}
}

func TestScan_UnresolvableHostAllClosed(t *testing.T) {
	p := &countingProber{open: map[uint16]bool{80: true}}
	s := &Scanner{Prober: p, Resolver: staticResolver{err: errors.New("no such host")}}

	for run := 0; run < 2; run++ {
		results := s.Scan(context.Background(), "nonexistent.invalid")
		if len(results) != len(ports.Catalog) {
			t.Fatalf("run %d: got %d results, want %d", run, len(results), len(ports.Catalog))
		}
		for _, r := range results {
			if r.Status != engine.StatusClosed {
				t.Errorf("run %d: port %d = %s, want Closed", run, r.Port, r.Status)
			}
		}
	}
	if p.calls.Load() != 0 {
		t.Errorf("prober called %d times for unresolvable host", p.calls.Load())
	}
}
