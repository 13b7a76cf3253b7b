package scanerr

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a scanner failure. The set is closed: every error the
// core produces carries exactly one of these kinds.
type Kind int

const (
	// KindConfiguration indicates an invalid or missing required
	// configuration field. Fatal; aborts before the scan starts.
	KindConfiguration Kind = iota

	// KindNetwork indicates a connection, DNS, TLS, or timeout failure.
	// Recorded per page; fatal only when it prevents reaching the seed URL.
	KindNetwork

	// KindAuthentication indicates a rejected credential.
	// Fatal for auth-dependent modules only.
	KindAuthentication

	// KindScan indicates a general crawl failure, such as an unreachable
	// target.
	KindScan

	// KindRateLimit indicates the target is actively throttling requests.
	// Triggers backoff, never abort.
	KindRateLimit

	// KindModule indicates a module failed during execution.
	// Isolated to that module, never fatal to the scan.
	KindModule
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindScan:
		return "scan"
	case KindRateLimit:
		return "rate_limit"
	case KindModule:
		return "module"
	default:
		return "unknown"
	}
}

// Error codes for machine dispatch within a kind.
const (
	// CodeTargetUnreachable marks a scan failure caused by the seed URL
	// being unreachable (connection refused, DNS failure, timeout).
	CodeTargetUnreachable = "SCAN_TARGET_UNREACHABLE"

	// Network failure variants.
	CodeDNS        = "NETWORK_DNS"
	CodeTLS        = "NETWORK_TLS"
	CodeTimeout    = "NETWORK_TIMEOUT"
	CodeConnection = "NETWORK_CONNECTION"
)

// Error is the structured error value used throughout the core.
// It carries a Kind for dispatch, an optional machine-readable Code,
// the URL the failure relates to, and the wrapped underlying cause.
type Error struct {
	// Kind is the failure class.
	Kind Kind

	// Code refines the kind for machine dispatch (e.g. CodeTimeout).
	Code string

	// URL is the request or page URL the failure relates to, if any.
	URL string

	// Msg is a short human-readable description.
	Msg string

	// RetryAfter is the backoff hint for rate-limit errors.
	RetryAfter time.Duration

	// Err is the wrapped underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	switch {
	case e.URL != "" && e.Err != nil:
		return fmt.Sprintf("%s (%s): %v", msg, e.URL, e.Err)
	case e.URL != "":
		return fmt.Sprintf("%s (%s)", msg, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	default:
		return msg
	}
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfiguration creates a fatal configuration error.
func NewConfiguration(msg string, cause error) *Error {
	return &Error{Kind: KindConfiguration, Msg: msg, Err: cause}
}

// NewNetwork creates a network error for the given URL with a variant code.
func NewNetwork(code, url string, cause error) *Error {
	return &Error{Kind: KindNetwork, Code: code, URL: url, Msg: "network failure", Err: cause}
}

// NewAuthentication creates an authentication error.
func NewAuthentication(url string, cause error) *Error {
	return &Error{Kind: KindAuthentication, URL: url, Msg: "authentication rejected", Err: cause}
}

// NewScan creates a general scan error with a machine-readable code.
func NewScan(code, url string, cause error) *Error {
	return &Error{Kind: KindScan, Code: code, URL: url, Msg: "scan failure", Err: cause}
}

// NewRateLimit creates a rate-limit error carrying the backoff hint.
func NewRateLimit(url string, retryAfter time.Duration) *Error {
	return &Error{
		Kind:       KindRateLimit,
		URL:        url,
		Msg:        "target is rate limiting requests",
		RetryAfter: retryAfter,
	}
}

// NewModule creates a module execution error.
func NewModule(moduleName string, cause error) *Error {
	return &Error{Kind: KindModule, Msg: "module " + moduleName + " failed", Err: cause}
}

// IsKind reports whether err (or any error in its chain) is a scanner
// error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// HasCode reports whether err (or any error in its chain) is a scanner
// error carrying the given code.
func HasCode(err error, code string) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// AsError extracts the scanner error from an error chain.
// Returns nil if the chain contains no *Error.
func AsError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return nil
}
