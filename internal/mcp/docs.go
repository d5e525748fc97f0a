package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `ga-multi-mcp provides access to Google Analytics 4 data across multiple
properties. It supports fuzzy property name matching, natural language dates,
and multi-property comparisons.

Start by using list_properties to discover available GA4 properties,
then use query_analytics to fetch data.

Workflow:
1) Discover: list_properties (or search_properties when unsure of a name).
2) Inspect: get_property_metadata to see which metrics/dimensions a property has.
3) Query: query_analytics for one property, query_multiple_properties to compare.
4) Live traffic: query_realtime (last 30 minutes, never cached).
5) Debugging: get_cache_status / clear_cache when you need fresh data.

Property references are forgiving: numeric IDs, display names, aliases, and
near-misses all resolve. A failed resolution returns suggestions.

Dates accept YYYY-MM-DD, MM/DD/YYYY, 'today', 'yesterday', 'NdaysAgo',
'last week', 'this month', 'ytd', 'last year', and similar.

Common metrics: activeUsers, sessions, screenPageViews, eventCount, bounceRate
Common dimensions: date, country, city, deviceCategory, browser, pagePath

Docs (read on demand):
- ga4://docs/index (what to read when)
- ga4://docs/querying (metrics, dimensions, filters, ordering)
- ga4://docs/dates (the full date expression grammar)
- ga4://docs/multi-property (comparing properties and reading summaries)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "ga4://docs/index",
		Name:        "docs_index",
		Title:       "ga-multi-mcp docs index",
		Description: "Entry point for agent-facing docs: what exists and what to read when.",
		Content: `# ga-multi-mcp: Agent Docs Index

Keep your baseline context small and load deeper docs only when needed.

## Quick start (no deep docs)

1. ` + "`list_properties`" + ` to see what you can query.
2. ` + "`query_analytics`" + ` with a property name, metrics, and a date range.
3. If a property name doesn't resolve, use ` + "`search_properties`" + `.
4. If a metric is rejected, use ` + "`get_property_metadata`" + ` to see what exists.

## Docs (read on demand)

- ` + "`ga4://docs/querying`" + ` — metrics, dimensions, filters, ordering, limits.
- ` + "`ga4://docs/dates`" + ` — every accepted date expression.
- ` + "`ga4://docs/multi-property`" + ` — batch queries, partial failures, and totals.

## Capabilities & intentional limitations

- Query results are cached briefly; identical queries inside the window cost no API calls.
- Realtime queries are never cached.
- Cross-property totals are summed from returned rows, so with dimensions and
  row limits they cover the returned rows, not necessarily the full dataset.
`,
	},
	{
		URI:         "ga4://docs/querying",
		Name:        "docs_querying",
		Title:       "Querying guide",
		Description: "How to build query_analytics calls: metrics, dimensions, filters, ordering.",
		Content: `# Querying guide

## Metrics and dimensions

Metrics are measurements (activeUsers, sessions, screenPageViews, eventCount,
bounceRate). Dimensions group rows (date, country, deviceCategory, pagePath).
Every property supports the standard set; custom definitions vary, so check
` + "`get_property_metadata`" + ` when unsure.

## Filters

Each filter is ` + "`{field, operator, value}`" + `. String operators: eq, contains,
begins_with, ends_with, regexp. Numeric operators: gt, lt, eq. Use in_list with
an array value to match several exact strings.

Multiple filters combine with AND.

## Ordering and limits

` + "`order_by: {field, desc}`" + ` sorts by a metric or dimension. ` + "`limit`" + `
defaults to 1000 rows. For top-N questions, combine a descending metric order
with a small limit.

## Reading results

Rows come back as objects keyed by dimension and metric name, with metric
values already coerced to numbers. ` + "`property_match`" + ` tells you how the
property reference resolved and with what confidence.
`,
	},
	{
		URI:         "ga4://docs/dates",
		Name:        "docs_dates",
		Title:       "Date expressions",
		Description: "The full grammar accepted by start_date and end_date.",
		Content: `# Date expressions

All date parameters accept:

- Absolute: ` + "`2026-08-01`" + ` (ISO), ` + "`08/01/2026`" + ` (MM/DD/YYYY)
- Relative days: ` + "`today`" + `, ` + "`yesterday`" + `, ` + "`7daysAgo`" + `, ` + "`30daysAgo`" + `
- Relative weeks/months: ` + "`2weeksAgo`" + `, ` + "`3monthsAgo`" + ` (a month is 30 days)
- Periods: ` + "`last week`" + ` / ` + "`this week`" + ` (weeks start Monday),
  ` + "`last month`" + ` / ` + "`this month`" + `, ` + "`ytd`" + `, ` + "`last year`" + `

The start date must not be after the end date. Unparseable expressions fail
with UNPARSEABLE_DATE and never guess.
`,
	},
	{
		URI:         "ga4://docs/multi-property",
		Name:        "docs_multi_property",
		Title:       "Multi-property comparisons",
		Description: "How query_multiple_properties batches, fails partially, and totals.",
		Content: `# Multi-property comparisons

` + "`query_multiple_properties`" + ` runs the same query against each listed
property concurrently and returns results in the order you listed them.

## Partial failure

One property failing (bad name, permissions, quota) never aborts the batch.
The failing entry carries an ` + "`error_kind`" + ` and message; the other entries
are unaffected. Check ` + "`summary.properties_successful`" + ` against
` + "`summary.properties_queried`" + `.

## Totals

` + "`summary.totals`" + ` sums each metric across the rows of every successful
property. Failed properties contribute nothing. With dimensions or row limits
in play the sum covers returned rows only, which is why the summary carries
` + "`totals_source: row_sum`" + `.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
