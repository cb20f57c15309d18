package recon

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	hackertargetURLFormat  = "https://api.hackertarget.com/hostsearch/?q=%s"
	hackertargetTimeout    = 30 * time.Second
	hackertargetMaxBody    = 5 * 1024 * 1024 // 5MB
	hackertargetRetryDelay = 2 * time.Second
	hackertargetRateMsg    = "API count exceeded"
)

// HackertargetSource queries the HackerTarget host search API.
type HackertargetSource struct {
	URLFormat  string
	UserAgent  string
	Timeout    time.Duration
	RetryDelay time.Duration
	Client     *http.Client
}

// Name implements SubdomainSource.
func (s *HackertargetSource) Name() string { return "hackertarget" }

// Query returns qualifying hostnames from the "host,ip" listing for domain.
func (s *HackertargetSource) Query(ctx context.Context, domain string) ([]string, error) {
	req := sourceRequest{
		name:       "hackertarget",
		url:        fmt.Sprintf(stringOr(s.URLFormat, hackertargetURLFormat), domain),
		userAgent:  s.UserAgent,
		timeout:    durationOr(s.Timeout, hackertargetTimeout),
		retryDelay: durationOr(s.RetryDelay, hackertargetRetryDelay),
		maxBody:    hackertargetMaxBody,
		client:     s.Client,
	}

	raw, err := req.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("hackertarget fetch for %s: %w", domain, err)
	}

	body := string(raw)
	// HackerTarget answers 200 with a plain text message when the quota is used up.
	if strings.Contains(body, hackertargetRateMsg) {
		return nil, fmt.Errorf("hackertarget: %s", hackertargetRateMsg)
	}

	return parseHackertargetResponse(body, domain), nil
}

// parseHackertargetResponse parses the plain-text "host,ip" response format.
// Lines without a comma are not records and are skipped.
func parseHackertargetResponse(body, domain string) []string {
	set := newHostSet(domain)
	for _, line := range strings.Split(body, "\n") {
		host, _, ok := strings.Cut(strings.TrimSpace(line), ",")
		if !ok {
			continue
		}
		set.add(host)
	}
	return set.list()
}
