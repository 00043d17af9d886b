// Package fetch retrieves raw feed payloads.
//
// Every feed gets its own time budget. A slow or broken feed yields an
// error for that feed alone; FetchAll never lets one failure cancel or
// delay the others beyond their own timeout.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abelbrown/marketpulse/internal/model"
)

const (
	// DefaultTimeout is the per-feed budget.
	DefaultTimeout = 2500 * time.Millisecond
	// DefaultMaxBody caps how much of a feed payload is read.
	DefaultMaxBody = 4 << 20
	// DefaultUserAgent identifies marketpulse to publishers.
	DefaultUserAgent = "Mozilla/5.0 (compatible; marketpulse/1.0; +https://github.com/abelbrown/marketpulse)"
)

// ErrStatus is wrapped by Fetch when a feed answers with a non-2xx status.
var ErrStatus = errors.New("unexpected HTTP status")

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves feed payloads.
type Fetcher struct {
	client    Doer
	timeout   time.Duration
	userAgent string
	maxBody   int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the default HTTP client.
func WithClient(d Doer) Option {
	return func(f *Fetcher) { f.client = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBody caps the bytes read from one feed.
func WithMaxBody(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// NewFetcher creates a Fetcher with the given per-feed timeout.
func NewFetcher(timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	f := &Fetcher{
		client:    &http.Client{},
		timeout:   timeout,
		userAgent: DefaultUserAgent,
		maxBody:   DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Timeout returns the per-feed budget.
func (f *Fetcher) Timeout() time.Duration {
	return f.timeout
}

// Fetch performs one GET for src bounded by the per-feed timeout.
func (f *Fetcher) Fetch(ctx context.Context, src model.FeedSource) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	return body, nil
}

// StatusError reports a non-2xx response. It matches ErrStatus with errors.Is.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d %s", ErrStatus, e.Code, http.StatusText(e.Code))
}

// Is makes errors.Is(err, ErrStatus) true.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}
