package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/iter"
	"github.com/vulnverified/nexus/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Stages holds the injectable stage implementations.
type Stages struct {
	Discoverer    SubdomainDiscoverer
	Scanner       PortScanner
	Prober        PortProber
	Resolver      HostResolver // optional, fills ScanReport.Addresses
	Fetcher       TargetFetcher
	Fingerprinter TechFingerprinter
	Assessor      RiskAssessor
}

const totalStages = 3

// Build runs every stage against target and merges the outputs into one report.
// Stage failures are replaced with placeholders; the only error is ErrInvalidTarget.
func Build(ctx context.Context, target string, stages Stages, progress ProgressReporter) (*ScanReport, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = nopProgress{}
	}

	report := &ScanReport{
		ID:        uuid.NewString(),
		Target:    t.Host,
		URL:       t.URL,
		ScannedAt: time.Now(),
		Addresses: []string{},
	}

	// Stage 1: discovery, port scan and fetch share nothing, so run them together.
	progress.Stage(1, totalStages, fmt.Sprintf("Collecting subdomains, ports and HTTP metadata for %s...", t.Host))

	// The scan probes the first resolved address, so Addresses names the IP scanned.
	scanHost := t.Host
	if stages.Resolver != nil {
		if addrs, err := stages.Resolver.LookupIPv4(ctx, t.Host); err == nil && len(addrs) > 0 {
			report.Addresses = addrs
			scanHost = addrs[0]
		}
	}

	var (
		discovery Discovery
		results   []PortResult
		resp      *Response
		fetchErr  error
	)
	// Stage failures are absorbed below, so no goroutine returns an error.
	var g errgroup.Group
	g.Go(func() error {
		discovery = stages.Discoverer.Discover(ctx, t.Host)
		return nil
	})
	g.Go(func() error {
		results = stages.Scanner.Scan(ctx, scanHost)
		return nil
	})
	g.Go(func() error {
		resp, fetchErr = fetchTarget(ctx, stages.Fetcher, t.URL)
		return nil
	})
	_ = g.Wait()

	report.Subdomains = discovery.Hosts
	if report.Subdomains == nil {
		report.Subdomains = []string{}
	}
	report.SubdomainAttempts = discovery.Attempts
	for _, a := range discovery.Attempts {
		if a.Failed() {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", a.Source, a.Err))
		}
	}
	report.Ports = results
	progress.Detail(fmt.Sprintf("Found %d subdomains, %d open ports", len(report.Subdomains), len(report.OpenPorts())))

	// Stage 2: fingerprinting, only on a successful fetch.
	if fetchErr != nil {
		progress.Warn(fetchErr.Error())
		report.FetchError = fetchErr.Error()
		report.Technologies = []string{TargetUnreachable}
	} else {
		progress.Stage(2, totalStages, "Fingerprinting technologies...")
		report.Technologies = stages.Fingerprinter.Fingerprint(resp)
		report.Server = bannerOrUnknown(resp.HeaderValue("Server"))
		report.PoweredBy = bannerOrUnknown(resp.HeaderValue("X-Powered-By"))
		report.Title = resp.Title
		progress.Detail(fmt.Sprintf("Identified %d technologies", len(report.Technologies)))
	}

	// Stage 3: risk scoring. The catalog scan already probed the critical ports.
	progress.Stage(3, totalStages, "Scoring risk...")
	report.Risk = stages.Assessor.Assess(resp, results)
	progress.Detail(fmt.Sprintf("Risk score %d (%s)", report.Risk.Score, report.Risk.Level()))

	report.DurationSecs = time.Since(report.ScannedAt).Seconds()
	return report, nil
}

// DetectTech fetches target and fingerprints the response.
// A failed fetch returns a *FetchError instead of labels.
func DetectTech(ctx context.Context, target string, stages Stages) (Target, []string, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return Target{}, nil, err
	}
	resp, err := fetchTarget(ctx, stages.Fetcher, t.URL)
	if err != nil {
		return t, nil, err
	}
	return t, stages.Fingerprinter.Fingerprint(resp), nil
}

// AssessTarget fetches target, probes the critical ports and scores the result.
// On a failed fetch the port checks still run: the partial assessment is
// returned together with the *FetchError.
func AssessTarget(ctx context.Context, target string, stages Stages) (Target, RiskAssessment, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return Target{}, RiskAssessment{}, err
	}

	var (
		resp     *Response
		fetchErr error
		critical []PortResult
		wg       conc.WaitGroup
	)
	wg.Go(func() { resp, fetchErr = fetchTarget(ctx, stages.Fetcher, t.URL) })
	wg.Go(func() { critical = ProbePorts(ctx, stages.Prober, t.Host, stages.Assessor.CriticalPorts()) })
	wg.Wait()

	assessment := stages.Assessor.Assess(resp, critical)
	return t, assessment, fetchErr
}

// ProbePorts probes each port independently and returns results in input order.
func ProbePorts(ctx context.Context, prober PortProber, host string, list []uint16) []PortResult {
	mapper := iter.Mapper[uint16, PortResult]{MaxGoroutines: len(list)}
	return mapper.Map(list, func(port *uint16) PortResult {
		result := PortResult{Port: *port, Status: StatusClosed}
		if spec, ok := ports.Lookup(*port); ok {
			result.Service = spec.Service
			result.Priority = spec.Priority
		}
		if prober.Probe(ctx, host, *port) {
			result.Status = StatusOpen
		}
		return result
	})
}

func fetchTarget(ctx context.Context, fetcher TargetFetcher, url string) (*Response, error) {
	resp, err := fetcher.Fetch(ctx, url)
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &FetchError{URL: url, Err: err}
	}
	return resp, nil
}

func bannerOrUnknown(v string) string {
	if v == "" {
		return UnknownBanner
	}
	return v
}

type nopProgress struct{}

func (nopProgress) Stage(int, int, string) {}
func (nopProgress) Detail(string)          {}
func (nopProgress) Warn(string)            {}
