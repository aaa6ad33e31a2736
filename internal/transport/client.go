// Package transport wraps the booking site's HTTP session: a shared
// cookie jar, mandatory browser-like headers, and the 503-only retry
// contract. It does not interpret response bodies — parsing is the
// caller's concern (xmlx/htmlx).
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"go.uber.org/zap"
)

// Error taxonomy. Transport/ServiceUnavailable/Forbidden are the
// categories this package can produce. Parse failures surface as the
// plain wrapped errors htmlx/xmlx return, and configuration errors are
// domain.ErrConfiguration; none of those are re-exported here.
var (
	ErrTransport          = errors.New("transport: request failed")
	ErrServiceUnavailable = errors.New("transport: service unavailable")
	ErrForbidden          = errors.New("transport: forbidden, headers likely missing or rejected")
)

const (
	userAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	maxAttempts = 3
)

// Client holds one session's worth of state: a persistent cookie jar
// shared across every request to the host, deliberately, because
// cookies reduce interrogation overhead on repeated probes.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *zap.Logger
	sem     chan struct{} // optional concurrency limiter, nil = unlimited
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithMaxConcurrentScrapes bounds the number of in-flight Do calls
// across every caller sharing this Client, mirroring the semaphore
// pattern the teacher uses to cap fan-out during a bulk sync.
func WithMaxConcurrentScrapes(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.sem = make(chan struct{}, n)
		}
	}
}

// WithTimeout overrides the underlying client's request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient builds a Client with a fresh cookie jar bound to baseURL.
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("transport: create cookie jar: %w", err)
	}

	c := &Client{
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do sends req, setting the mandatory User-Agent and Referer headers,
// retrying only on HTTP 503 with backoff delays of 1s and 2s before
// attempts 2 and 3 (2 retries, 3 attempts total). A 403 fails fast with
// ErrForbidden; any other non-2xx status or a transport-level error
// fails fast with ErrTransport.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.sem != nil {
		select {
		case c.sem <- struct{}{}:
			defer func() { <-c.sem }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL+"/")

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := rewindBody(req); err != nil {
				return nil, fmt.Errorf("%w: rewind body for retry: %v", ErrTransport, err)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}

		switch resp.StatusCode {
		case http.StatusServiceUnavailable:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: attempt %d/%d", ErrServiceUnavailable, attempt, maxAttempts)
			if attempt == maxAttempts {
				return nil, lastErr
			}
			c.logger.Warn("503 from booking site, retrying",
				zap.Int("attempt", attempt),
				zap.String("url", req.URL.String()),
			)
			if err := sleep(ctx, backoffDelay(attempt)); err != nil {
				return nil, err
			}
			continue
		case http.StatusForbidden:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %s", ErrForbidden, req.URL.String())
		default:
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: unexpected status %d from %s", ErrTransport, resp.StatusCode, req.URL.String())
			}
			return resp, nil
		}
	}
	return nil, lastErr
}

// rewindBody resets req.Body ahead of a retry. The first attempt's Do
// call drains and closes the original body, so a 503 retry without
// this would resend every POST pulldown request with an empty form —
// req.GetBody is populated automatically for the strings.Reader/
// bytes.Reader bodies scraper.go builds, and is nil for bodyless GETs.
func rewindBody(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return err
	}
	req.Body = body
	return nil
}

// backoffDelay returns 2^(attempt-1) seconds after failed attempt
// `attempt`: 1s before attempt 2 and 2s before attempt 3. With
// maxAttempts = 3 no longer delay is ever used.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
