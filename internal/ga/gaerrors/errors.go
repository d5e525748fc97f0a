// Package gaerrors holds the sentinel error taxonomy for the Google
// Analytics adapters. It lives in a leaf package so domain packages can
// classify adapter errors without importing the adapters themselves.
package gaerrors

import "errors"

var (
	// ErrAuth indicates the credentials were rejected (401/403).
	ErrAuth = errors.New("analytics auth error")
	// ErrQuotaExceeded indicates the API rate limit was hit (429).
	ErrQuotaExceeded = errors.New("analytics quota exceeded")
	// ErrInvalidRequest indicates a malformed query, e.g. an unknown
	// metric name (400).
	ErrInvalidRequest = errors.New("invalid analytics request")
	// ErrNetwork covers transport failures that are none of the above.
	ErrNetwork = errors.New("analytics network error")
)
