package recon

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubSource struct {
	name  string
	hosts []string
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Query(ctx context.Context, domain string) ([]string, error) {
	s.calls++
	return s.hosts, s.err
}

func TestDiscover_FirstSourceWins(t *testing.T) {
	first := &stubSource{name: "crt.sh", hosts: []string{"b.example.com", "a.example.com"}}
	second := &stubSource{name: "hackertarget", hosts: []string{"c.example.com"}}

	d := &Discoverer{Sources: []SubdomainSource{first, second}}
	disc := d.Discover(context.Background(), "example.com")

	if strings.Join(disc.Hosts, ",") != "a.example.com,b.example.com" {
		t.Errorf("hosts = %v, want sorted first-source hosts", disc.Hosts)
	}
	if second.calls != 0 {
		t.Errorf("second source called %d times, want 0", second.calls)
	}
	if len(disc.Attempts) != 1 || disc.Attempts[0].Source != "crt.sh" || disc.Attempts[0].Found != 2 {
		t.Errorf("attempts = %+v", disc.Attempts)
	}
}

func TestDiscover_FallsBackOnError(t *testing.T) {
	first := &stubSource{name: "crt.sh", err: errors.New("timeout")}
	second := &stubSource{name: "hackertarget", hosts: []string{"a.example.com", "b.example.com"}}

	d := &Discoverer{Sources: []SubdomainSource{first, second}}
	disc := d.Discover(context.Background(), "example.com")

	if strings.Join(disc.Hosts, ",") != "a.example.com,b.example.com" {
		t.Errorf("hosts = %v", disc.Hosts)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d,%d, want 1,1", first.calls, second.calls)
	}
	if len(disc.Attempts) != 2 {
		t.Fatalf("got %d attempts, want 2", len(disc.Attempts))
	}
	if !disc.Attempts[0].Failed() || disc.Attempts[0].Err != "timeout" {
		t.Errorf("first attempt = %+v, want failed with timeout", disc.Attempts[0])
	}
	if disc.Attempts[1].Failed() {
		t.Errorf("second attempt should not be failed: %+v", disc.Attempts[1])
	}
}

func TestDiscover_FallsBackOnEmpty(t *testing.T) {
	first := &stubSource{name: "crt.sh", hosts: []string{}}
	second := &stubSource{name: "hackertarget", hosts: []string{"a.example.com", "b.example.com"}}

	d := &Discoverer{Sources: []SubdomainSource{first, second}}
	disc := d.Discover(context.Background(), "example.com")

	if len(disc.Hosts) != 2 || disc.Hosts[0] != "a.example.com" || disc.Hosts[1] != "b.example.com" {
		t.Errorf("hosts = %v, want exactly [a.example.com b.example.com]", disc.Hosts)
	}
	if second.calls != 1 {
		t.Errorf("second source called %d times, want 1", second.calls)
	}
}

func TestDiscover_OnlyUnqualifiedHostsCountsAsEmpty(t *testing.T) {
	first := &stubSource{name: "crt.sh", hosts: []string{"*.example.com", "example.org", "notexample.com"}}
	second := &stubSource{name: "hackertarget", hosts: []string{"www.example.com"}}

	d := &Discoverer{Sources: []SubdomainSource{first, second}}
	disc := d.Discover(context.Background(), "example.com")

	if len(disc.Hosts) != 1 || disc.Hosts[0] != "www.example.com" {
		t.Errorf("hosts = %v, want [www.example.com]", disc.Hosts)
	}
	if disc.Attempts[0].Found != 0 {
		t.Errorf("first attempt found = %d, want 0", disc.Attempts[0].Found)
	}
}

func TestDiscover_AllSourcesFail(t *testing.T) {
	first := &stubSource{name: "crt.sh", err: errors.New("503")}
	second := &stubSource{name: "hackertarget", err: errors.New("quota")}

	d := &Discoverer{Sources: []SubdomainSource{first, second}}
	disc := d.Discover(context.Background(), "example.com")

	if disc.Hosts == nil || len(disc.Hosts) != 0 {
		t.Errorf("hosts = %#v, want empty non-nil slice", disc.Hosts)
	}
	if len(disc.Attempts) != 2 || !disc.Attempts[0].Failed() || !disc.Attempts[1].Failed() {
		t.Errorf("attempts = %+v, want two failures", disc.Attempts)
	}
}

func TestDiscover_DeduplicatesAndNormalizes(t *testing.T) {
	src := &stubSource{name: "crt.sh", hosts: []string{"WWW.example.com", "www.example.com.", " www.example.com ", "api.example.com"}}

	d := &Discoverer{Sources: []SubdomainSource{src}}
	disc := d.Discover(context.Background(), "Example.COM")

	if strings.Join(disc.Hosts, ",") != "api.example.com,www.example.com" {
		t.Errorf("hosts = %v", disc.Hosts)
	}
}

func TestDiscover_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &stubSource{name: "crt.sh", hosts: []string{"a.example.com"}}
	d := &Discoverer{Sources: []SubdomainSource{src}}
	disc := d.Discover(ctx, "example.com")

	if src.calls != 0 {
		t.Errorf("source called %d times after cancel", src.calls)
	}
	if len(disc.Hosts) != 0 || len(disc.Attempts) != 0 {
		t.Errorf("disc = %+v, want empty", disc)
	}
}

func TestQualifiesFor(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"www.example.com", true},
		{"a.b.example.com", true},
		{"notexample.com", false},
		{"example.com.evil.net", false},
		{"*.example.com", false},
		{"foo*.example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := QualifiesFor(tt.host, "example.com"); got != tt.want {
			t.Errorf("QualifiesFor(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}
