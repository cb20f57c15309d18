// Package risk scores a target from missing security headers and exposed
// critical ports.
package risk

import (
	"fmt"

	"github.com/vulnverified/nexus/internal/engine"
)

const (
	// HeaderWeight is added for each missing security header.
	HeaderWeight = 15
	// PortWeight is added for each open critical port.
	PortWeight = 20
	// MaxScore caps the summed weights.
	MaxScore = 100
)

// SecurityHeaders must be present on the target response.
var SecurityHeaders = []string{"X-Frame-Options", "X-XSS-Protection", "Strict-Transport-Security"}

// CriticalPorts must not be reachable.
var CriticalPorts = []uint16{21, 22, 3389}

// observation is what the checks evaluate: an optional response and the set of
// open ports.
type observation struct {
	resp *engine.Response
	open map[uint16]bool
}

type check struct {
	finding   string
	weight    int
	needsResp bool
	triggered func(obs observation) bool
}

// checks is built once from SecurityHeaders and CriticalPorts, in that order.
var checks = buildChecks()

func buildChecks() []check {
	var out []check
	for _, h := range SecurityHeaders {
		header := h
		out = append(out, check{
			finding:   fmt.Sprintf("Missing Security Header: %s", header),
			weight:    HeaderWeight,
			needsResp: true,
			triggered: func(obs observation) bool { return !obs.resp.HasHeader(header) },
		})
	}
	for _, p := range CriticalPorts {
		port := p
		out = append(out, check{
			finding:   fmt.Sprintf("Critical Port Open: %d", port),
			weight:    PortWeight,
			triggered: func(obs observation) bool { return obs.open[port] },
		})
	}
	return out
}

// Scorer implements engine.RiskAssessor.
type Scorer struct{}

// CriticalPorts implements engine.RiskAssessor.
func (Scorer) CriticalPorts() []uint16 {
	return append([]uint16(nil), CriticalPorts...)
}

// Assess evaluates every check in order and sums the triggered weights, capped
// at MaxScore. With a nil response the header checks are skipped and the
// assessment reports HeadersChecked=false. Ports outside CriticalPorts are
// ignored, so a full catalog scan can be passed as is.
func (Scorer) Assess(resp *engine.Response, results []engine.PortResult) engine.RiskAssessment {
	obs := observation{resp: resp, open: make(map[uint16]bool)}
	for _, r := range results {
		if r.Open() {
			obs.open[r.Port] = true
		}
	}

	assessment := engine.RiskAssessment{
		Findings:       []engine.RiskFinding{},
		HeadersChecked: resp != nil,
	}
	score := 0
	for _, c := range checks {
		if c.needsResp && resp == nil {
			continue
		}
		if !c.triggered(obs) {
			continue
		}
		score += c.weight
		assessment.Findings = append(assessment.Findings, engine.RiskFinding{
			Description: c.finding,
			Weight:      c.weight,
		})
	}

	assessment.Score = clamp(score)
	return assessment
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
