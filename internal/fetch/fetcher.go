package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/agobrik/webtesttool-sub001/internal/cache"
	"github.com/agobrik/webtesttool-sub001/internal/config"
	"github.com/agobrik/webtesttool-sub001/internal/scanerr"
)

// Response is the result of a fetch, whether served from the network or
// from the cache.
type Response struct {
	// URL is the URL the response was fetched from.
	URL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Headers contains the response headers.
	Headers http.Header

	// Body is the response body, bounded by the configured maximum size.
	Body []byte

	// ContentType is the response MIME type.
	ContentType string

	// Size is the body size in bytes.
	Size int64

	// FetchedAt is when the resource was originally fetched.
	FetchedAt time.Time

	// FromCache reports whether the response was served from the cache.
	FromCache bool

	// Duration is the wall-clock time the fetch took.
	Duration time.Duration
}

// Header returns the first value of the named response header.
func (r *Response) Header(name string) string {
	return r.Headers.Get(name)
}

// Fetcher performs HTTP requests on behalf of the crawler and the
// assessment modules.
//
// Design decision: We require an external http.Client rather than building
// one because:
//  1. Transport configuration (timeouts, proxies, TLS) is the caller's policy
//  2. Tests can inject httptest clients directly
//  3. One client is shared so connection pooling works across components
type Fetcher struct {
	// client is the underlying HTTP client.
	client *http.Client

	// store is the response cache. Nil disables caching.
	store *cache.Manager

	// auth is the authentication configuration applied to every request.
	auth config.Auth

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize limits how many body bytes are read per response.
	maxBodySize int64

	// delay is the minimum interval between requests to the same host.
	delay time.Duration

	// limiters holds one rate limiter per host, created on first use.
	limiters map[string]*rate.Limiter

	// mutex protects limiters.
	mutex sync.Mutex

	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCache enables response caching through the given manager.
func WithCache(store *cache.Manager) Option {
	return func(f *Fetcher) {
		f.store = store
	}
}

// WithAuth sets the authentication applied to every outgoing request.
func WithAuth(auth config.Auth) Option {
	return func(f *Fetcher) {
		f.auth = auth
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size to read.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithCrawlDelay sets the minimum interval between requests to one host.
// Zero disables throttling.
func WithCrawlDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.delay = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher using the given HTTP client.
func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
		delay:       config.DefaultCrawlDelay,
		limiters:    make(map[string]*rate.Limiter),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Get fetches the URL with the GET method.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	return f.Do(ctx, http.MethodGet, rawURL, nil)
}

// Do performs a request. GET responses with 2xx status codes are cached;
// other methods always hit the network.
//
// A 429 response is returned alongside a rate-limit error carrying the
// server's Retry-After hint, so callers can both record the response and
// back off.
func (f *Fetcher) Do(ctx context.Context, method, rawURL string, body []byte) (*Response, error) {
	header := f.requestHeader()

	fp := cache.NewFingerprint(method, rawURL, body, header)
	cacheable := method == http.MethodGet && f.store != nil

	if cacheable {
		if p, ok := f.store.Get(ctx, fp); ok {
			return &Response{
				URL:         rawURL,
				StatusCode:  p.StatusCode,
				Headers:     p.Headers,
				Body:        p.Body,
				ContentType: p.ContentType,
				Size:        p.Size,
				FetchedAt:   p.FetchedAt,
				FromCache:   true,
			}, nil
		}
	}

	if err := f.wait(ctx, rawURL); err != nil {
		return nil, err
	}

	start := time.Now()

	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, scanerr.NewConfiguration("invalid request URL", err)
	}
	for name, values := range header {
		req.Header[name] = values
	}
	if f.auth.Type == "basic" {
		req.SetBasicAuth(f.auth.Username, f.auth.Password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, classify(rawURL, err)
	}

	r := &Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		Body:        respBody,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int64(len(respBody)),
		FetchedAt:   start,
		Duration:    time.Since(start),
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return r, scanerr.NewRateLimit(rawURL, parseRetryAfter(resp.Header.Get("Retry-After")))
	}

	if cacheable && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		f.store.Set(ctx, fp, cache.Payload{
			URL:         cache.NormalizeURL(rawURL),
			StatusCode:  r.StatusCode,
			Headers:     r.Headers,
			Body:        r.Body,
			ContentType: r.ContentType,
			Size:        r.Size,
			FetchedAt:   r.FetchedAt,
		}, 0)
	}

	return r, nil
}

// Stats returns cache effectiveness counters, or zeros when caching is off.
func (f *Fetcher) Stats() cache.Stats {
	if f.store == nil {
		return cache.Stats{}
	}
	return f.store.Stats()
}

// requestHeader builds the headers sent with every request, including the
// authentication header when one is configured. Basic auth is applied on
// the request itself because http.Request encodes the credentials.
func (f *Fetcher) requestHeader() http.Header {
	header := make(http.Header)
	header.Set("User-Agent", f.userAgent)
	header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	switch f.auth.Type {
	case "bearer":
		header.Set("Authorization", "Bearer "+f.auth.Token)
	case "header":
		if f.auth.HeaderName != "" {
			header.Set(f.auth.HeaderName, f.auth.HeaderValue)
		}
	}

	return header
}

// wait blocks until the per-host rate limiter admits the request.
func (f *Fetcher) wait(ctx context.Context, rawURL string) error {
	if f.delay <= 0 {
		return nil
	}

	host := hostOf(rawURL)

	f.mutex.Lock()
	limiter, ok := f.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(f.delay), 1)
		f.limiters[host] = limiter
	}
	f.mutex.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return classify(rawURL, err)
	}
	return nil
}

// hostOf extracts the host (with port) from a raw URL for limiter keying.
func hostOf(rawURL string) string {
	rest := rawURL
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return strings.ToLower(rest)
}

// parseRetryAfter parses a Retry-After header value. Both the seconds form
// and the HTTP-date form are accepted; anything else yields zero.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// classify maps a transport error onto the scan error taxonomy.
func classify(rawURL string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return scanerr.NewNetwork(scanerr.CodeDNS, rawURL, err)
	}

	var certErr *tls.CertificateVerificationError
	var unknownAuthErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuthErr) || errors.As(err, &hostnameErr) {
		return scanerr.NewNetwork(scanerr.CodeTLS, rawURL, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return scanerr.NewNetwork(scanerr.CodeTimeout, rawURL, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return scanerr.NewNetwork(scanerr.CodeTimeout, rawURL, err)
	}

	return scanerr.NewNetwork(scanerr.CodeConnection, rawURL, err)
}
