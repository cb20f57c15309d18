package recon

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vulnverified/nexus/internal/engine"
	"golang.org/x/net/html"
)

const (
	// DefaultFetchTimeout bounds the primary fetch against a target.
	DefaultFetchTimeout = 5 * time.Second
	fetchMaxBody        = 1024 * 1024 // 1MB for title + fingerprinting
	fetchMaxRedirects   = 5
)

// Fetcher implements engine.TargetFetcher. Certificate verification is
// disabled: targets often serve self-signed or mismatched certificates.
type Fetcher struct {
	UserAgent string
	client    *http.Client
}

// NewFetcher returns a Fetcher whose requests time out after timeout.
func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		UserAgent: userAgent,
		client: &http.Client{
			Timeout: durationOr(timeout, DefaultFetchTimeout),
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= fetchMaxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// Fetch GETs url and captures status, headers, cookies, title and up to 1MB
// of body. Transport failures come back as *engine.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*engine.Response, error) {
	client := f.client
	if client == nil {
		client = NewFetcher(f.UserAgent, 0).client
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &engine.FetchError{URL: url, Err: err}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &engine.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	// A truncated body is still usable for fingerprinting.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBody))

	cookies := make(map[string]string)
	for _, c := range resp.Cookies() {
		cookies[c.Name] = c.Value
	}

	return &engine.Response{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       string(body),
		Cookies:    cookies,
		Title:      extractTitle(body),
	}, nil
}

// extractTitle returns the text of the first <title> element.
func extractTitle(body []byte) string {
	z := html.NewTokenizer(strings.NewReader(string(body)))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if z.Next() == html.TextToken {
				return strings.TrimSpace(string(z.Text()))
			}
			return ""
		}
	}
}
