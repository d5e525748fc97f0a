package registry

import "errors"

var (
	// ErrDiscoveryFailed indicates the Admin API could not enumerate
	// properties (auth failure, network failure, or empty discovery).
	ErrDiscoveryFailed = errors.New("property discovery failed")
	// ErrPropertyNotFound indicates no property exists with the given ID.
	ErrPropertyNotFound = errors.New("property not found")
)
