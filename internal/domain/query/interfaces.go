package query

import (
	"context"

	"github.com/gamulti/ga-multi-mcp/internal/domain/resolver"
)

// DataAPI runs GA4 Data API reports. Implemented by the Google Analytics
// Data API adapter.
type DataAPI interface {
	RunReport(ctx context.Context, req ReportRequest) (*Report, error)
	RunRealtimeReport(ctx context.Context, req RealtimeRequest) (*Report, error)
	GetMetadata(ctx context.Context, propertyID string) (*Metadata, error)
}

// Resolver is the property resolution surface the orchestrator consumes.
type Resolver interface {
	Resolve(ctx context.Context, query string, threshold float64) ([]resolver.Match, error)
	Search(ctx context.Context, query string, maxResults int) ([]resolver.Match, error)
}

var _ Resolver = (*resolver.Service)(nil)
