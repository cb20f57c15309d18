// Package recon implements the nexus reconnaissance stages: subdomain sources,
// port probing, the target fetch and technology fingerprinting.
package recon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	crtshURLFormat  = "https://crt.sh/?q=%%25.%s&output=json"
	crtshTimeout    = 60 * time.Second
	crtshMaxBody    = 50 * 1024 * 1024 // 50MB
	crtshRetryDelay = 3 * time.Second
)

type crtshEntry struct {
	NameValue string `json:"name_value"`
}

// CrtshSource queries crt.sh Certificate Transparency logs.
type CrtshSource struct {
	URLFormat  string // one %s verb for the domain; defaults to the public endpoint
	UserAgent  string
	Timeout    time.Duration
	RetryDelay time.Duration
	Client     *http.Client
}

// Name implements SubdomainSource.
func (s *CrtshSource) Name() string { return "crt.sh" }

// Query returns qualifying hostnames from the certificates logged for domain.
func (s *CrtshSource) Query(ctx context.Context, domain string) ([]string, error) {
	req := sourceRequest{
		name:       "crt.sh",
		url:        fmt.Sprintf(stringOr(s.URLFormat, crtshURLFormat), domain),
		userAgent:  s.UserAgent,
		accept:     "application/json",
		timeout:    durationOr(s.Timeout, crtshTimeout),
		retryDelay: durationOr(s.RetryDelay, crtshRetryDelay),
		maxBody:    crtshMaxBody,
		client:     s.Client,
	}

	body, err := req.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("crt.sh fetch for %s: %w", domain, err)
	}
	return parseCrtshResponse(body, domain)
}

// parseCrtshResponse decodes each array element on its own so that one
// malformed entry does not discard the batch.
func parseCrtshResponse(body []byte, domain string) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("crt.sh JSON parse for %s: %w", domain, err)
	}

	set := newHostSet(domain)
	for _, item := range raw {
		var entry crtshEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		// name_value can contain multiple names separated by newlines.
		for _, name := range strings.Split(entry.NameValue, "\n") {
			set.add(name)
		}
	}
	return set.list(), nil
}
