// Package collyfetcher implements snapshot.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// Config controls collector behavior.
type Config struct {
	// UserAgent is sent with every request.
	UserAgent string
	// Timeout bounds one request end to end. Zero means no timeout, which
	// preserves the behavior of letting an unresponsive webcam block the
	// schedule.
	Timeout time.Duration
	// InsecureTLS skips certificate verification. Several webcams in the
	// wild serve expired certificates.
	InsecureTLS bool
	// MaxBodyBytes caps the response body. Zero keeps the collector default.
	MaxBodyBytes int
}

// Fetcher performs single HTTP GETs through a Colly collector.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false), colly.IgnoreRobotsTxt())
	transport := newHTTPTransport(cfg.InsecureTLS)
	c.WithTransport(transport)
	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET and returns the response body. Non-2xx
// statuses, transport faults, malformed URLs and short bodies are all
// errors; the caller sees no partial data.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var (
		body     []byte
		fetchErr error
	)

	collector := f.baseCollector.Clone()
	recorder := newDeclaredLengthTransport(f.transport)
	collector.WithTransport(recorder)
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	if f.cfg.MaxBodyBytes > 0 {
		collector.MaxBodySize = f.cfg.MaxBodyBytes
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return nil, err
	}
	if declared := recorder.declared; declared >= 0 && int64(len(body)) < declared {
		return nil, fmt.Errorf("truncated response from %s: got %d of %d bytes", rawURL, len(body), declared)
	}
	return body, nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit %s: %w", url, err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("response from %s: %w", url, *fetchErr)
		}
		return nil
	}
}

// declaredLengthTransport records the Content-Length declared by the last
// response on a request chain. net/http consumes the header into
// resp.ContentLength before response callbacks see it, and the collector
// silently caps bodies at MaxBodySize, so this is the only place the declared
// length can be observed. A fresh instance is used per Fetch; the value is
// read only after the visit completes.
type declaredLengthTransport struct {
	base     http.RoundTripper
	declared int64
}

func newDeclaredLengthTransport(base http.RoundTripper) *declaredLengthTransport {
	return &declaredLengthTransport{base: base, declared: -1}
}

func (t *declaredLengthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if resp != nil {
		t.declared = resp.ContentLength
	}
	return resp, err
}

func newHTTPTransport(insecureTLS bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: insecureTLS, //nolint:gosec // explicit opt-in for webcams with broken certs
		},
	}
}
