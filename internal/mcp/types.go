package mcp

import (
	"github.com/gamulti/ga-multi-mcp/internal/domain/query"
	"github.com/gamulti/ga-multi-mcp/internal/domain/registry"
	"github.com/gamulti/ga-multi-mcp/internal/domain/resolver"
)

type ListPropertiesParams struct {
	ForceRefresh bool `json:"force_refresh,omitempty" jsonschema:"Bypass the cache and rediscover properties from the Admin API"`
}

type ListPropertiesResult struct {
	Properties []registry.Property `json:"properties"`
	Count      int                 `json:"count"`
}

type SearchPropertiesParams struct {
	Query      string `json:"query" jsonschema:"Search query (property name, partial name, or keyword)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum matches to return (default 5)"`
}

type SearchPropertiesResult struct {
	Query     string           `json:"query"`
	Matches   []resolver.Match `json:"matches"`
	Count     int              `json:"count"`
	BestMatch *resolver.Match  `json:"best_match,omitempty"`
}

type QueryAnalyticsParams struct {
	Property   string         `json:"property" jsonschema:"Property name, ID, or alias (fuzzy matching supported)"`
	Metrics    []string       `json:"metrics" jsonschema:"Metrics to query (e.g. activeUsers, sessions)"`
	StartDate  string         `json:"start_date" jsonschema:"Start date (YYYY-MM-DD, today, yesterday, 7daysAgo, last week, ...)"`
	EndDate    string         `json:"end_date" jsonschema:"End date (same formats as start_date)"`
	Dimensions []string       `json:"dimensions,omitempty" jsonschema:"Dimensions to group by (e.g. date, country)"`
	Filters    []query.Filter `json:"filters,omitempty" jsonschema:"Filter conditions [{field, operator, value}]"`
	OrderBy    *query.OrderBy `json:"order_by,omitempty" jsonschema:"Ordering {field, desc}"`
	Limit      int64          `json:"limit,omitempty" jsonschema:"Maximum rows to return (default 1000)"`
}

type QueryMultipleParams struct {
	Properties []string `json:"properties" jsonschema:"Property names or IDs to query"`
	Metrics    []string `json:"metrics" jsonschema:"Metrics to query across all properties"`
	StartDate  string   `json:"start_date" jsonschema:"Start date for all queries"`
	EndDate    string   `json:"end_date" jsonschema:"End date for all queries"`
	Dimensions []string `json:"dimensions,omitempty" jsonschema:"Optional dimensions for grouping"`
}

type PropertyMetadataParams struct {
	Property string `json:"property" jsonschema:"Property name or ID"`
}

type QueryRealtimeParams struct {
	Property   string   `json:"property" jsonschema:"Property name or ID"`
	Metrics    []string `json:"metrics,omitempty" jsonschema:"Metrics to query (default: activeUsers)"`
	Dimensions []string `json:"dimensions,omitempty" jsonschema:"Dimensions for grouping"`
	Limit      int64    `json:"limit,omitempty" jsonschema:"Maximum rows (default 100)"`
}

type CacheStatusParams struct{}

type ClearCacheParams struct {
	Pattern string `json:"pattern,omitempty" jsonschema:"Only clear keys containing this substring (e.g. metadata:, properties)"`
}

type ClearCacheResult struct {
	ClearedEntries int    `json:"cleared_entries"`
	Pattern        string `json:"pattern,omitempty"`
	Message        string `json:"message"`
}
