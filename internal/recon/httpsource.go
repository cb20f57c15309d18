package recon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var errRateLimited = errors.New("rate limited (429)")

// sourceRequest describes one GET against an external subdomain source.
type sourceRequest struct {
	name       string
	url        string
	userAgent  string
	accept     string
	timeout    time.Duration
	retryDelay time.Duration
	maxBody    int64
	client     *http.Client
}

// fetch performs the request, retrying once after retryDelay unless the
// source rate limited us.
func (r sourceRequest) fetch(ctx context.Context) ([]byte, error) {
	body, err := r.do(ctx)
	if err == nil {
		return body, nil
	}
	if errors.Is(err, errRateLimited) || ctx.Err() != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.retryDelay):
	}

	return r.do(ctx)
}

func (r sourceRequest) do(ctx context.Context) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}

	client := r.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%s %w", r.name, errRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", r.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", r.name, err)
	}
	return body, nil
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
