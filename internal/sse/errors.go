package sse

import "fmt"

// TransportError is a network-level or HTTP failure. Transient: the retry
// policy may try the request again.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sse transport error: status %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("sse transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transient marks the error as retryable.
func (e *TransportError) Transient() bool { return true }

// DecodeError is a malformed response body (broken JSONP envelope, invalid
// JSON, error page, unexpected shape). Transient at the page level since the
// upstream sometimes serves interstitial error pages.
type DecodeError struct {
	Snippet string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("sse decode error: %v (body: %.120s)", e.Err, e.Snippet)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Transient marks the error as retryable.
func (e *DecodeError) Transient() bool { return true }

// SchemaError is a single record failing normalization. Not transient and
// not fatal: the record is skipped and counted.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "sse schema error: " + e.Reason
}
