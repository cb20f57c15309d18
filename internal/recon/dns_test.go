package recon

import (
	"context"
	"testing"
)

func TestLookupIPv4_Literal(t *testing.T) {
	addrs, err := (&Resolver{}).LookupIPv4(context.Background(), "192.0.2.10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(addrs) != 1 || addrs[0] != "192.0.2.10" {
		t.Errorf("addrs = %v", addrs)
	}
}

func TestLookupIPv4_RejectsIPv6(t *testing.T) {
	if _, err := (&Resolver{}).LookupIPv4(context.Background(), "::1"); err == nil {
		t.Fatal("expected error for IPv6 literal")
	}
}

func TestDeduplicateStrings(t *testing.T) {
	got := deduplicateStrings([]string{"a", "b", "a", "c", "b"})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("got %v, want [a b c]", got)
	}
}
