// Package download fetches mirror pages and story media over plain HTTP.
package download

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/ratelimit"

	"github.com/stupside/storyfetch/internal/app"
)

// Client is an HTTP client with the download settings applied: user agent,
// optional TLS-trust bypass, a request rate limit and retries with backoff.
type Client struct {
	http    *http.Client
	cfg     app.DownloadConfig
	limiter ratelimit.Limiter
}

// NewClient creates a Client from the download settings.
func NewClient(cfg app.DownloadConfig) *Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: cfg.Insecure}, //nolint:gosec // opt-in for mirrors with broken certificates
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.RatePerSecond > 0 {
		limiter = ratelimit.New(cfg.RatePerSecond)
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: gzhttp.Transport(base),
		},
		cfg:     cfg,
		limiter: limiter,
	}
}

// Fetch GETs a page and returns its body as text.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return string(body), nil
}

// do sends a request, retrying on transport errors, 429 and 5xx. On success
// the caller owns the response body. A non-retryable status is an error.
func (c *Client) do(ctx context.Context, method, rawURL string, header http.Header) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt)
			slog.DebugContext(ctx, "download: retrying", "url", rawURL, "attempt", attempt, "wait", wait, "error", lastErr)

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}

		resp, err := c.once(ctx, method, rawURL, header)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%s %s: status %d", method, rawURL, resp.StatusCode)
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("%s %s: status %d", method, rawURL, resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.cfg.Retries+1, lastErr)
}

// once sends a single request without retrying.
func (c *Client) once(ctx context.Context, method, rawURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}

	c.limiter.Take()
	return c.http.Do(req)
}

// backoff returns the wait before the given retry attempt: backoff_min doubled
// per attempt, capped at backoff_max, with +/-20% jitter.
func (c *Client) backoff(attempt int) time.Duration {
	lo, hi := c.cfg.BackoffMin, c.cfg.BackoffMax
	if lo <= 0 {
		return 0
	}

	d := lo << (attempt - 1)
	if d > hi || d <= 0 {
		d = hi
	}

	jitter := time.Duration((rand.Float64() - 0.5) * 0.4 * float64(d))
	return max(d+jitter, lo)
}
