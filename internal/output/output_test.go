package output

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/vulnverified/nexus/internal/engine"
)

func sampleReport() *engine.ScanReport {
	r := &engine.ScanReport{
		Target:       "example.com",
		Addresses:    []string{"93.184.216.34"},
		Technologies: []string{"Nginx", "PHP"},
		Server:       "nginx/1.18.0",
		PoweredBy:    "PHP/8.1",
		Ports: []engine.PortResult{
			{Port: 80, Service: "HTTP", Status: engine.StatusOpen, Priority: 100},
			{Port: 3389, Service: "RDP", Status: engine.StatusClosed, Priority: 70},
		},
		Risk: engine.RiskAssessment{
			Score:          45,
			HeadersChecked: true,
			Findings: []engine.RiskFinding{
				{Description: "Missing Security Header: X-Frame-Options", Weight: 15},
			},
		},
		Warnings: []string{"crt.sh: timeout"},
	}
	for i := 0; i < 15; i++ {
		r.Subdomains = append(r.Subdomains, fmt.Sprintf("h%02d.example.com", i))
	}
	return r
}

func TestWriteReport_NoColor(t *testing.T) {
	var buf bytes.Buffer
	WriteReport(&buf, sampleReport(), true)
	out := buf.String()

	for _, want := range []string{
		"Technology stack",
		"  Nginx",
		"Server: nginx/1.18.0",
		"Port | Service | Status | Priority",
		"80   | HTTP    | Open   | 100",
		"3389 | RDP     | Closed | 70",
		"  h11.example.com",
		"... (3 more, truncated)",
		"Target: example.com",
		"Addresses: 93.184.216.34",
		"Subdomains: 15 discovered",
		"Open ports: 1 of 2 probed",
		"Risk score: 45/100 (High)",
		"[-] Missing Security Header: X-Frame-Options (+15)",
		"! crt.sh: timeout",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "h12.example.com") {
		t.Error("subdomains past the render cap should not be listed")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("no-color output contains ANSI escapes")
	}
}

func TestWriteReport_Unreachable(t *testing.T) {
	r := sampleReport()
	r.Technologies = []string{engine.TargetUnreachable}
	r.FetchError = "fetch http://example.com: refused"
	r.Risk = engine.RiskAssessment{}
	r.Subdomains = nil

	var buf bytes.Buffer
	WriteReport(&buf, r, true)
	out := buf.String()

	for _, want := range []string{
		"Target Unreachable",
		"fetch failed: fetch http://example.com: refused",
		"security headers not checked",
		"No subdomains found",
		"Risk score: 0/100 (Low)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Server:") {
		t.Error("banner lines should be omitted when the fetch failed")
	}
}

func TestWritePorts_Empty(t *testing.T) {
	var buf bytes.Buffer
	WritePorts(&buf, nil, true)
	if !strings.Contains(buf.String(), "No ports probed.") {
		t.Errorf("got %q", buf.String())
	}
}

func TestProgress_SilentAndVerbose(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false, false, true)
	p.Stage(1, 3, "Collecting")
	p.Detail("hidden")
	p.Warn("crt.sh failed")

	out := buf.String()
	if !strings.Contains(out, "[1/3] Collecting") || !strings.Contains(out, "! crt.sh failed") {
		t.Errorf("unexpected progress output %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("detail should only print in verbose mode")
	}

	buf.Reset()
	silent := NewProgress(&buf, true, true, true)
	silent.Stage(1, 3, "x")
	silent.Warn("y")
	silent.Complete()
	if buf.Len() != 0 {
		t.Errorf("silent progress wrote %q", buf.String())
	}
}

func TestWriteJSON_Indents(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]int{"score": 45}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "{\n  \"score\": 45\n}\n" {
		t.Errorf("got %q", buf.String())
	}
}
