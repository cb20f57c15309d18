package recon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	otxURLFormat  = "https://otx.alienvault.com/api/v1/indicators/domain/%s/passive_dns"
	otxTimeout    = 15 * time.Second
	otxMaxBody    = 10 * 1024 * 1024 // 10MB
	otxRetryDelay = 3 * time.Second
)

type otxResponse struct {
	PassiveDNS []json.RawMessage `json:"passive_dns"`
}

type otxEntry struct {
	Hostname string `json:"hostname"`
}

// OTXSource queries AlienVault OTX passive DNS. It is an opt-in fallback after
// the default sources.
type OTXSource struct {
	URLFormat  string
	UserAgent  string
	Timeout    time.Duration
	RetryDelay time.Duration
	Client     *http.Client
}

// Name implements SubdomainSource.
func (s *OTXSource) Name() string { return "otx" }

// Query returns qualifying hostnames seen in passive DNS for domain.
func (s *OTXSource) Query(ctx context.Context, domain string) ([]string, error) {
	req := sourceRequest{
		name:       "otx",
		url:        fmt.Sprintf(stringOr(s.URLFormat, otxURLFormat), domain),
		userAgent:  s.UserAgent,
		accept:     "application/json",
		timeout:    durationOr(s.Timeout, otxTimeout),
		retryDelay: durationOr(s.RetryDelay, otxRetryDelay),
		maxBody:    otxMaxBody,
		client:     s.Client,
	}

	body, err := req.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("otx fetch for %s: %w", domain, err)
	}
	return parseOTXResponse(body, domain)
}

// parseOTXResponse extracts hostnames from the OTX passive DNS JSON response.
func parseOTXResponse(body []byte, domain string) ([]string, error) {
	var resp otxResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("otx JSON parse: %w", err)
	}

	set := newHostSet(domain)
	for _, item := range resp.PassiveDNS {
		var entry otxEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		set.add(entry.Hostname)
	}
	return set.list(), nil
}
