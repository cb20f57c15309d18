// Package engine assembles nexus scan reports from the individual recon stages.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Placeholder labels used when a stage has nothing to report.
const (
	UnknownStack      = "Unknown Stack"
	TargetUnreachable = "Target Unreachable"
	UnknownBanner     = "Unknown"
)

// SubdomainRenderCap is the number of subdomains a rendered report lists.
const SubdomainRenderCap = 12

// ErrInvalidTarget is returned when the target string is empty or not a hostname.
var ErrInvalidTarget = errors.New("invalid target")

// FetchError reports that the primary HTTP fetch against a target failed.
// It is distinct from "nothing detected": no header or tech check could run.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PortStatus is the outcome of a single connect probe.
type PortStatus string

const (
	StatusOpen   PortStatus = "Open"
	StatusClosed PortStatus = "Closed"
)

// PortResult is the probe outcome for one catalog entry.
type PortResult struct {
	Port     uint16     `json:"port"`
	Service  string     `json:"service"`
	Status   PortStatus `json:"status"`
	Priority int        `json:"priority"`
}

// Open reports whether the probe connected.
func (p PortResult) Open() bool { return p.Status == StatusOpen }

// Response is the part of an HTTP response the fingerprinting and risk checks read.
type Response struct {
	URL        string            `json:"url"`
	StatusCode int               `json:"status_code"`
	Header     http.Header       `json:"headers"`
	Body       string            `json:"-"`
	Cookies    map[string]string `json:"cookies,omitempty"`
	Title      string            `json:"title,omitempty"`
}

// HeaderValue returns the first value of the named header, matched case-insensitively.
func (r *Response) HeaderValue(name string) string {
	if vals, ok := r.header(name); ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// HasHeader reports whether the named header is present, even if empty.
func (r *Response) HasHeader(name string) bool {
	_, ok := r.header(name)
	return ok
}

func (r *Response) header(name string) ([]string, bool) {
	if r == nil || r.Header == nil {
		return nil, false
	}
	if vals, ok := r.Header[http.CanonicalHeaderKey(name)]; ok {
		return vals, true
	}
	for key, vals := range r.Header {
		if strings.EqualFold(key, name) {
			return vals, true
		}
	}
	return nil, false
}

// SourceAttempt records one query against a subdomain source.
type SourceAttempt struct {
	Source string `json:"source"`
	Found  int    `json:"found"`
	Err    string `json:"error,omitempty"`
}

// Failed reports whether the source errored.
func (a SourceAttempt) Failed() bool { return a.Err != "" }

// Discovery is the outcome of subdomain discovery plus the sources that were tried.
type Discovery struct {
	Hosts    []string        `json:"hosts"`
	Attempts []SourceAttempt `json:"attempts"`
}

// RiskLevel classifies a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// LevelFor maps a score to its level.
func LevelFor(score int) RiskLevel {
	switch {
	case score > 75:
		return RiskCritical
	case score > 40:
		return RiskHigh
	case score > 20:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskFinding is one triggered check.
type RiskFinding struct {
	Description string `json:"description"`
	Weight      int    `json:"weight"`
}

// RiskAssessment is the scored result of all risk checks.
// HeadersChecked is false when no response was available for the header checks.
type RiskAssessment struct {
	Score          int           `json:"score"`
	Findings       []RiskFinding `json:"findings"`
	HeadersChecked bool          `json:"headers_checked"`
}

// Level is derived from Score on every call.
func (a RiskAssessment) Level() RiskLevel { return LevelFor(a.Score) }

// MarshalJSON adds the derived level to the encoded assessment.
func (a RiskAssessment) MarshalJSON() ([]byte, error) {
	type plain RiskAssessment
	findings := a.Findings
	if findings == nil {
		findings = []RiskFinding{}
	}
	p := plain(a)
	p.Findings = findings
	return json.Marshal(struct {
		plain
		Level RiskLevel `json:"level"`
	}{plain: p, Level: a.Level()})
}

// ScanReport is the aggregate output of one Build call.
type ScanReport struct {
	ID                string          `json:"id"`
	Target            string          `json:"target"`
	URL               string          `json:"url"`
	ScannedAt         time.Time       `json:"scanned_at"`
	DurationSecs      float64         `json:"duration_secs"`
	Addresses         []string        `json:"addresses"`
	Subdomains        []string        `json:"subdomains"`
	SubdomainAttempts []SourceAttempt `json:"subdomain_attempts"`
	Ports             []PortResult    `json:"ports"`
	Technologies      []string        `json:"technologies"`
	Server            string          `json:"server"`
	PoweredBy         string          `json:"powered_by"`
	Title             string          `json:"title,omitempty"`
	Risk              RiskAssessment  `json:"risk"`
	FetchError        string          `json:"fetch_error,omitempty"`
	Warnings          []string        `json:"warnings,omitempty"`
}

// OpenPorts returns the open entries of Ports in scan order.
func (r *ScanReport) OpenPorts() []PortResult {
	var open []PortResult
	for _, p := range r.Ports {
		if p.Open() {
			open = append(open, p)
		}
	}
	return open
}

// RenderedSubdomains returns at most SubdomainRenderCap subdomains. When more were
// discovered, a marker line is appended and truncated is true.
func (r *ScanReport) RenderedSubdomains() (lines []string, truncated bool) {
	if len(r.Subdomains) <= SubdomainRenderCap {
		return append([]string(nil), r.Subdomains...), false
	}
	lines = append([]string(nil), r.Subdomains[:SubdomainRenderCap]...)
	lines = append(lines, fmt.Sprintf("... (%d more, truncated)", len(r.Subdomains)-SubdomainRenderCap))
	return lines, true
}

// SubdomainDiscoverer finds subdomains of a domain. It never fails; an empty
// Discovery means no source produced results.
type SubdomainDiscoverer interface {
	Discover(ctx context.Context, domain string) Discovery
}

// PortScanner probes the port catalog against a host.
type PortScanner interface {
	Scan(ctx context.Context, host string) []PortResult
}

// PortProber attempts a single bounded TCP connect.
type PortProber interface {
	Probe(ctx context.Context, host string, port uint16) bool
}

// HostResolver resolves a host to its IPv4 addresses.
type HostResolver interface {
	LookupIPv4(ctx context.Context, host string) ([]string, error)
}

// TargetFetcher performs the primary HTTP GET against a target URL.
type TargetFetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// TechFingerprinter maps a response to technology labels. It always returns
// at least one label.
type TechFingerprinter interface {
	Fingerprint(resp *Response) []string
}

// RiskAssessor scores a response and port results. A nil response skips
// the header checks.
type RiskAssessor interface {
	Assess(resp *Response, ports []PortResult) RiskAssessment
	CriticalPorts() []uint16
}

// ProgressReporter is called by the engine to report stage progress.
type ProgressReporter interface {
	Stage(num, total int, msg string)
	Detail(msg string)
	Warn(msg string)
}
