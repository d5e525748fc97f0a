package resolver

import "errors"

// ErrPropertyNotFound indicates no candidate scored above the threshold.
var ErrPropertyNotFound = errors.New("no matching property")
