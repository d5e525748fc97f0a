package query

import (
	"github.com/gamulti/ga-multi-mcp/internal/dates"
)

// Filter is a dimension filter condition passed through to the Data API.
// Operator is one of EXACT, CONTAINS, BEGINS_WITH, ENDS_WITH, REGEXP,
// GREATER_THAN, LESS_THAN, EQUAL, IN_LIST.
type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// OrderBy orders report rows by a metric or dimension field.
type OrderBy struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// ReportRequest is the Data API report input for one property.
type ReportRequest struct {
	PropertyID string
	Metrics    []string
	Dimensions []string
	Range      dates.Range
	Filters    []Filter
	OrderBy    *OrderBy
	Limit      int64
}

// RealtimeRequest is the Data API realtime report input.
type RealtimeRequest struct {
	PropertyID string
	Metrics    []string
	Dimensions []string
	Limit      int64
}

// Report is a normalized tabular Data API response. Metric values in Rows
// are coerced to int64 or float64 when numeric; otherwise they stay strings.
type Report struct {
	PropertyID string           `json:"property_id"`
	Dimensions []string         `json:"dimensions"`
	Metrics    []string         `json:"metrics"`
	Rows       []map[string]any `json:"rows"`
	RowCount   int              `json:"row_count"`
	// TotalRows is the API-reported total before limit truncation.
	TotalRows int64 `json:"total_rows"`
}

// FieldInfo describes one available dimension or metric.
type FieldInfo struct {
	APIName     string `json:"api_name"`
	UIName      string `json:"ui_name"`
	Description string `json:"description"`
	Custom      bool   `json:"custom"`
}

// Metadata lists the dimensions and metrics available on a property.
type Metadata struct {
	PropertyID       string      `json:"property_id"`
	Dimensions       []FieldInfo `json:"dimensions"`
	Metrics          []FieldInfo `json:"metrics"`
	CustomDimensions []FieldInfo `json:"custom_dimensions"`
	CustomMetrics    []FieldInfo `json:"custom_metrics"`
}

// MatchInfo reports how a property reference was resolved.
type MatchInfo struct {
	Confidence float64 `json:"confidence"`
	MatchedOn  string  `json:"matched_on"`
}

// ResultError is a contained per-property failure inside a batch.
type ResultError struct {
	Kind    string `json:"error_kind"`
	Message string `json:"message"`
}

// QueryResult is the per-property outcome of an orchestrated query. Either
// Rows is populated or Error is set; a populated Error excludes the result
// from batch totals.
type QueryResult struct {
	PropertyID   string           `json:"property_id"`
	PropertyName string           `json:"property_name"`
	Match        *MatchInfo       `json:"property_match,omitempty"`
	DateRange    dates.Range      `json:"date_range"`
	RangeLabel   string           `json:"date_range_description,omitempty"`
	Dimensions   []string         `json:"dimensions,omitempty"`
	Metrics      []string         `json:"metrics,omitempty"`
	Rows         []map[string]any `json:"rows,omitempty"`
	RowCount     int              `json:"row_count"`
	TotalRows    int64            `json:"total_rows,omitempty"`
	Error        *ResultError     `json:"error,omitempty"`
}

// SingleQuery is the input to QuerySingle.
type SingleQuery struct {
	PropertyRef string
	Metrics     []string
	Dimensions  []string
	Range       dates.Range
	Filters     []Filter
	OrderBy     *OrderBy
	Limit       int64
}

// MultiQuery is the input to QueryMultiple.
type MultiQuery struct {
	PropertyRefs []string
	Metrics      []string
	Dimensions   []string
	Range        dates.Range
}

// Summary aggregates a batch of per-property results.
type Summary struct {
	PropertiesQueried    int                `json:"properties_queried"`
	PropertiesSucceeded  int                `json:"properties_successful"`
	Totals               map[string]float64 `json:"totals"`
	// TotalsSource documents that totals are summed from the returned row
	// sets: when the API truncates rows via limit, totals reflect the
	// returned rows only.
	TotalsSource string `json:"totals_source"`
}

// MultiResult is the outcome of QueryMultiple. Results preserves the order
// of the input property references.
type MultiResult struct {
	DateRange  dates.Range   `json:"date_range"`
	RangeLabel string        `json:"date_range_description,omitempty"`
	Metrics    []string      `json:"metrics,omitempty"`
	Dimensions []string      `json:"dimensions,omitempty"`
	Results    []QueryResult `json:"results"`
	Summary    Summary       `json:"summary"`
}

// RealtimeQuery is the input to QueryRealtime.
type RealtimeQuery struct {
	PropertyRef string
	Metrics     []string
	Dimensions  []string
	Limit       int64
}

// RealtimeResult is a realtime report plus resolution info.
type RealtimeResult struct {
	PropertyID      string           `json:"property_id"`
	PropertyName    string           `json:"property_name"`
	LookbackMinutes int              `json:"lookback_minutes"`
	Dimensions      []string         `json:"dimensions,omitempty"`
	Metrics         []string         `json:"metrics,omitempty"`
	Rows            []map[string]any `json:"rows,omitempty"`
	RowCount        int              `json:"row_count"`
}

// MetadataResult is property metadata plus resolution info.
type MetadataResult struct {
	PropertyID       string      `json:"property_id"`
	PropertyName     string      `json:"property_name"`
	Dimensions       []FieldInfo `json:"dimensions,omitempty"`
	Metrics          []FieldInfo `json:"metrics,omitempty"`
	CustomDimensions []FieldInfo `json:"custom_dimensions,omitempty"`
	CustomMetrics    []FieldInfo `json:"custom_metrics,omitempty"`
	TotalDimensions  int         `json:"total_dimensions"`
	TotalMetrics     int         `json:"total_metrics"`
}
