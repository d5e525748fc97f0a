package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gamulti/ga-multi-mcp/internal/cache"
	"github.com/gamulti/ga-multi-mcp/internal/domain/query"
)

const defaultSearchResults = 5

// registerTools wires every tool onto the server. Handlers are thin: decode
// params, call the domain service, map errors to the MCP taxonomy.
func registerTools(server *sdkmcp.Server, svcs Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name: "list_properties",
		Description: "List all accessible GA4 properties. Use this first to discover " +
			"available properties before querying.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params ListPropertiesParams) (*sdkmcp.CallToolResult, ListPropertiesResult, error) {
		props, err := svcs.Registry.ListProperties(ctx, params.ForceRefresh)
		if err != nil {
			return nil, ListPropertiesResult{}, MapError(err)
		}
		return nil, ListPropertiesResult{Properties: props, Count: len(props)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name: "search_properties",
		Description: "Search for properties by name with fuzzy matching. Use this when " +
			"unsure of the exact property name; matches come back ranked by confidence.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params SearchPropertiesParams) (*sdkmcp.CallToolResult, SearchPropertiesResult, error) {
		maxResults := params.MaxResults
		if maxResults <= 0 {
			maxResults = defaultSearchResults
		}
		matches, err := svcs.Resolver.Search(ctx, params.Query, maxResults)
		if err != nil {
			return nil, SearchPropertiesResult{}, MapError(err)
		}
		result := SearchPropertiesResult{Query: params.Query, Matches: matches, Count: len(matches)}
		if len(matches) > 0 {
			result.BestMatch = &matches[0]
		}
		return nil, result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name: "query_analytics",
		Description: "Query GA4 analytics data for a single property. Supports fuzzy " +
			"property matching, natural language dates, filtering, and ordering.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params QueryAnalyticsParams) (*sdkmcp.CallToolResult, query.QueryResult, error) {
		dateRange, err := svcs.Dates.ParseRange(params.StartDate, params.EndDate)
		if err != nil {
			return nil, query.QueryResult{}, MapError(err)
		}
		result, err := svcs.Queries.QuerySingle(ctx, query.SingleQuery{
			PropertyRef: params.Property,
			Metrics:     params.Metrics,
			Dimensions:  params.Dimensions,
			Range:       dateRange,
			Filters:     params.Filters,
			OrderBy:     params.OrderBy,
			Limit:       params.Limit,
		})
		if err != nil {
			return nil, query.QueryResult{}, MapError(err)
		}
		return nil, *result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name: "query_multiple_properties",
		Description: "Query the same metrics across several GA4 properties and compare. " +
			"Per-property failures are reported inline; the rest of the batch still returns.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params QueryMultipleParams) (*sdkmcp.CallToolResult, query.MultiResult, error) {
		dateRange, err := svcs.Dates.ParseRange(params.StartDate, params.EndDate)
		if err != nil {
			return nil, query.MultiResult{}, MapError(err)
		}
		result, err := svcs.Queries.QueryMultiple(ctx, query.MultiQuery{
			PropertyRefs: params.Properties,
			Metrics:      params.Metrics,
			Dimensions:   params.Dimensions,
			Range:        dateRange,
		})
		if err != nil {
			return nil, query.MultiResult{}, MapError(err)
		}
		return nil, *result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name: "get_property_metadata",
		Description: "Get available dimensions and metrics for a GA4 property, including " +
			"custom definitions. Use this to discover what data exists before querying.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params PropertyMetadataParams) (*sdkmcp.CallToolResult, query.MetadataResult, error) {
		result, err := svcs.Queries.GetMetadata(ctx, params.Property)
		if err != nil {
			return nil, query.MetadataResult{}, MapError(err)
		}
		return nil, *result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name: "query_realtime",
		Description: "Query real-time GA4 data from the last 30 minutes. Useful for " +
			"monitoring live traffic; results are never cached.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params QueryRealtimeParams) (*sdkmcp.CallToolResult, query.RealtimeResult, error) {
		result, err := svcs.Queries.QueryRealtime(ctx, query.RealtimeQuery{
			PropertyRef: params.Property,
			Metrics:     params.Metrics,
			Dimensions:  params.Dimensions,
			Limit:       params.Limit,
		})
		if err != nil {
			return nil, query.RealtimeResult{}, MapError(err)
		}
		return nil, *result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name: "get_cache_status",
		Description: "Show cached entries with their age and expiry. Useful for " +
			"understanding API call patterns during debugging.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params CacheStatusParams) (*sdkmcp.CallToolResult, cache.Status, error) {
		return nil, svcs.Queries.CacheStatus(), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name: "clear_cache",
		Description: "Clear cached data to force fresh retrieval from the GA4 API. " +
			"Clears everything, or only keys matching a pattern.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, params ClearCacheParams) (*sdkmcp.CallToolResult, ClearCacheResult, error) {
		cleared := svcs.Queries.ClearCache(params.Pattern)
		if params.Pattern == "" {
			svcs.Registry.InvalidateCache()
		}
		message := fmt.Sprintf("Cleared %d cache entries", cleared)
		if params.Pattern != "" {
			message = fmt.Sprintf("Cleared %d cache entries matching %q", cleared, params.Pattern)
		}
		return nil, ClearCacheResult{ClearedEntries: cleared, Pattern: params.Pattern, Message: message}, nil
	})
}
