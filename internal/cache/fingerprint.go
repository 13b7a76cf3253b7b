package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Fingerprint identifies a logical request. Two requests that differ only
// cosmetically (query parameter order, default ports, fragments) produce
// the same fingerprint; requests that differ semantically (method, body,
// auth headers) produce different ones.
type Fingerprint string

// fingerprintHeaders is the subset of request headers that changes the
// meaning of a response and therefore participates in the fingerprint.
// Everything else (User-Agent, tracing headers, ...) is ignored.
var fingerprintHeaders = []string{
	"Accept",
	"Authorization",
	"Content-Type",
	"Cookie",
}

// NewFingerprint derives the fingerprint for a request.
// The body may be nil for body-less methods.
func NewFingerprint(method, rawURL string, body []byte, header http.Header) Fingerprint {
	h := sha256.New()

	h.Write([]byte(strings.ToUpper(method)))
	h.Write([]byte{'\n'})
	h.Write([]byte(NormalizeURL(rawURL)))
	h.Write([]byte{'\n'})

	if len(body) > 0 {
		bodySum := sha256.Sum256(body)
		h.Write(bodySum[:])
	}
	h.Write([]byte{'\n'})

	for _, name := range fingerprintHeaders {
		if header == nil {
			break
		}
		values := header.Values(name)
		if len(values) == 0 {
			continue
		}
		sorted := make([]string, len(values))
		copy(sorted, values)
		sort.Strings(sorted)
		h.Write([]byte(name))
		h.Write([]byte{':'})
		h.Write([]byte(strings.Join(sorted, ",")))
		h.Write([]byte{'\n'})
	}

	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// NormalizeURL canonicalizes a URL for identity comparison:
// lowercased scheme and host, default ports stripped, fragment removed,
// empty path replaced by "/", and query parameters sorted by key.
//
// Design decision: Query sorting is safe because parameter order carries
// no meaning in practice, while the same page is routinely linked with
// parameters in different orders. Parameter names and values are never
// altered, so semantically significant differences survive.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Strip default ports
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}

	if u.Path == "" {
		u.Path = "/"
	}

	// url.Values.Encode sorts by key, which is exactly the canonical
	// form we want.
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}

	return u.String()
}

// Payload is the cached representation of a fetched resource.
type Payload struct {
	// URL is the normalized URL the payload was fetched from.
	// Kept alongside the opaque fingerprint so Clear(pattern) can match.
	URL string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// Headers contains the response headers.
	Headers http.Header

	// Body is the response body.
	Body []byte

	// ContentType is the response MIME type.
	ContentType string

	// Size is the body size in bytes.
	Size int64

	// FetchedAt is when the resource was fetched from the network.
	FetchedAt time.Time
}

// Stats reports aggregate cache effectiveness counters.
type Stats struct {
	Hits    int64
	Misses  int64
	Writes  int64
	HitRate float64
}
