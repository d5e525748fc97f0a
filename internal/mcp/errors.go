package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/gamulti/ga-multi-mcp/internal/dates"
	"github.com/gamulti/ga-multi-mcp/internal/domain/query"
	"github.com/gamulti/ga-multi-mcp/internal/domain/registry"
	"github.com/gamulti/ga-multi-mcp/internal/domain/resolver"
	"github.com/gamulti/ga-multi-mcp/internal/ga"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes with recovery hints the
// agent can act on.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, dates.ErrUnparseable):
		return &APIError{Code: "UNPARSEABLE_DATE", Message: err.Error(),
			RecoveryHint: "Use YYYY-MM-DD, 'today', 'yesterday', or 'NdaysAgo'"}
	case errors.Is(err, resolver.ErrPropertyNotFound), errors.Is(err, registry.ErrPropertyNotFound):
		return &APIError{Code: "PROPERTY_NOT_FOUND", Message: err.Error(),
			RecoveryHint: "Use search_properties to find the right name, or list_properties to see all"}
	case errors.Is(err, registry.ErrDiscoveryFailed):
		return &APIError{Code: "DISCOVERY_FAILED", Message: err.Error(),
			RecoveryHint: "Check service account credentials and GA4 property permissions"}
	case errors.Is(err, ga.ErrQuotaExceeded):
		return &APIError{Code: "QUOTA_EXCEEDED", Message: err.Error(),
			RecoveryHint: "Wait before retrying; repeated identical queries are served from cache"}
	case errors.Is(err, ga.ErrInvalidRequest):
		return &APIError{Code: "INVALID_REQUEST", Message: err.Error(),
			RecoveryHint: "Check metric and dimension names with get_property_metadata"}
	case errors.Is(err, ga.ErrAuth):
		return &APIError{Code: "AUTH_ERROR", Message: err.Error(),
			RecoveryHint: "Verify the service account has access to this property"}
	case errors.Is(err, context.DeadlineExceeded):
		return &APIError{Code: "TIMEOUT", Message: err.Error(),
			RecoveryHint: "Narrow the date range or reduce dimensions, then retry"}
	case errors.Is(err, query.ErrQueryFailed):
		return &APIError{Code: "QUERY_FAILED", Message: err.Error()}
	default:
		return &APIError{Code: "INTERNAL", Message: err.Error()}
	}
}
