package query

import (
	"context"
	"errors"

	"github.com/gamulti/ga-multi-mcp/internal/domain/registry"
	"github.com/gamulti/ga-multi-mcp/internal/domain/resolver"
	"github.com/gamulti/ga-multi-mcp/internal/ga/gaerrors"
)

// ErrQueryFailed indicates the Data API rejected or failed a report.
var ErrQueryFailed = errors.New("query failed")

// errorKind classifies an error into the per-result taxonomy used in batch
// output.
func errorKind(err error) string {
	switch {
	case errors.Is(err, resolver.ErrPropertyNotFound):
		return "PROPERTY_NOT_FOUND"
	case errors.Is(err, registry.ErrDiscoveryFailed):
		return "DISCOVERY_FAILED"
	case errors.Is(err, gaerrors.ErrQuotaExceeded):
		return "QUOTA_EXCEEDED"
	case errors.Is(err, gaerrors.ErrInvalidRequest):
		return "INVALID_REQUEST"
	case errors.Is(err, gaerrors.ErrAuth):
		return "AUTH_ERROR"
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	default:
		return "QUERY_FAILED"
	}
}
