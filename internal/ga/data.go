package ga

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"

	"github.com/gamulti/ga-multi-mcp/internal/domain/query"
)

// DataClient runs GA4 reports through the Analytics Data API.
type DataClient struct {
	svc *analyticsdata.Service
}

// NewDataClient builds a Data API client from service-account JSON
// credentials.
func NewDataClient(ctx context.Context, credentialsPath string) (*DataClient, error) {
	svc, err := analyticsdata.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(analyticsdata.AnalyticsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing analytics data client: %w", err)
	}
	return &DataClient{svc: svc}, nil
}

// RunReport executes a standard report and normalizes the tabular response.
func (c *DataClient) RunReport(ctx context.Context, req query.ReportRequest) (*query.Report, error) {
	apiReq := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{{
			StartDate: req.Range.Start,
			EndDate:   req.Range.End,
		}},
		Limit: req.Limit,
	}
	for _, m := range req.Metrics {
		apiReq.Metrics = append(apiReq.Metrics, &analyticsdata.Metric{Name: m})
	}
	for _, d := range req.Dimensions {
		apiReq.Dimensions = append(apiReq.Dimensions, &analyticsdata.Dimension{Name: d})
	}
	if len(req.Filters) > 0 {
		apiReq.DimensionFilter = buildFilterExpression(req.Filters)
	}
	if req.OrderBy != nil {
		apiReq.OrderBys = []*analyticsdata.OrderBy{buildOrderBy(*req.OrderBy, req.Metrics)}
	}

	resp, err := c.svc.Properties.RunReport("properties/"+req.PropertyID, apiReq).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	report := &query.Report{PropertyID: req.PropertyID, TotalRows: resp.RowCount}
	for _, h := range resp.DimensionHeaders {
		report.Dimensions = append(report.Dimensions, h.Name)
	}
	for _, h := range resp.MetricHeaders {
		report.Metrics = append(report.Metrics, h.Name)
	}
	report.Rows = normalizeRows(report.Dimensions, report.Metrics, resp.Rows)
	report.RowCount = len(report.Rows)
	return report, nil
}

// RunRealtimeReport executes a realtime report over the last 30 minutes.
func (c *DataClient) RunRealtimeReport(ctx context.Context, req query.RealtimeRequest) (*query.Report, error) {
	apiReq := &analyticsdata.RunRealtimeReportRequest{Limit: req.Limit}
	for _, m := range req.Metrics {
		apiReq.Metrics = append(apiReq.Metrics, &analyticsdata.Metric{Name: m})
	}
	for _, d := range req.Dimensions {
		apiReq.Dimensions = append(apiReq.Dimensions, &analyticsdata.Dimension{Name: d})
	}

	resp, err := c.svc.Properties.RunRealtimeReport("properties/"+req.PropertyID, apiReq).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	report := &query.Report{PropertyID: req.PropertyID, TotalRows: resp.RowCount}
	for _, h := range resp.DimensionHeaders {
		report.Dimensions = append(report.Dimensions, h.Name)
	}
	for _, h := range resp.MetricHeaders {
		report.Metrics = append(report.Metrics, h.Name)
	}
	report.Rows = normalizeRows(report.Dimensions, report.Metrics, resp.Rows)
	report.RowCount = len(report.Rows)
	return report, nil
}

// GetMetadata fetches the available dimensions and metrics for a property,
// split into standard and custom definitions.
func (c *DataClient) GetMetadata(ctx context.Context, propertyID string) (*query.Metadata, error) {
	resp, err := c.svc.Properties.GetMetadata("properties/" + propertyID + "/metadata").Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	meta := &query.Metadata{PropertyID: propertyID}
	for _, d := range resp.Dimensions {
		info := query.FieldInfo{
			APIName:     d.ApiName,
			UIName:      d.UiName,
			Description: d.Description,
			Custom:      d.CustomDefinition,
		}
		if d.CustomDefinition {
			meta.CustomDimensions = append(meta.CustomDimensions, info)
		} else {
			meta.Dimensions = append(meta.Dimensions, info)
		}
	}
	for _, m := range resp.Metrics {
		info := query.FieldInfo{
			APIName:     m.ApiName,
			UIName:      m.UiName,
			Description: m.Description,
			Custom:      m.CustomDefinition,
		}
		if m.CustomDefinition {
			meta.CustomMetrics = append(meta.CustomMetrics, info)
		} else {
			meta.Metrics = append(meta.Metrics, info)
		}
	}
	return meta, nil
}

// normalizeRows flattens API rows into header-keyed maps, coercing metric
// values to int64/float64 when numeric.
func normalizeRows(dimHeaders, metricHeaders []string, rows []*analyticsdata.Row) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		data := make(map[string]any, len(dimHeaders)+len(metricHeaders))
		for i, dv := range row.DimensionValues {
			if i < len(dimHeaders) {
				data[dimHeaders[i]] = dv.Value
			}
		}
		for i, mv := range row.MetricValues {
			if i < len(metricHeaders) {
				data[metricHeaders[i]] = coerceMetricValue(mv.Value)
			}
		}
		out = append(out, data)
	}
	return out
}

func coerceMetricValue(value string) any {
	if strings.Contains(value, ".") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	} else if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	return value
}

func buildFilterExpression(filters []query.Filter) *analyticsdata.FilterExpression {
	if len(filters) == 1 {
		return &analyticsdata.FilterExpression{Filter: buildFilter(filters[0])}
	}
	exprs := make([]*analyticsdata.FilterExpression, 0, len(filters))
	for _, f := range filters {
		exprs = append(exprs, &analyticsdata.FilterExpression{Filter: buildFilter(f)})
	}
	return &analyticsdata.FilterExpression{
		AndGroup: &analyticsdata.FilterExpressionList{Expressions: exprs},
	}
}

func buildFilter(f query.Filter) *analyticsdata.Filter {
	out := &analyticsdata.Filter{FieldName: f.Field}
	op := strings.ToUpper(f.Operator)

	switch op {
	case "EXACT", "CONTAINS", "BEGINS_WITH", "ENDS_WITH", "REGEXP":
		matchType := op
		if op == "REGEXP" {
			matchType = "FULL_REGEXP"
		}
		out.StringFilter = &analyticsdata.StringFilter{
			MatchType: matchType,
			Value:     fmt.Sprintf("%v", f.Value),
		}
	case "GREATER_THAN", "LESS_THAN", "EQUAL":
		out.NumericFilter = &analyticsdata.NumericFilter{
			Operation: op,
			Value:     &analyticsdata.NumericValue{DoubleValue: toFloat(f.Value)},
		}
	case "IN_LIST":
		out.InListFilter = &analyticsdata.InListFilter{Values: toStrings(f.Value)}
	default:
		// Unknown operators fall back to exact string matching rather than
		// failing the whole query.
		out.StringFilter = &analyticsdata.StringFilter{
			MatchType: "EXACT",
			Value:     fmt.Sprintf("%v", f.Value),
		}
	}
	return out
}

func buildOrderBy(o query.OrderBy, metrics []string) *analyticsdata.OrderBy {
	for _, m := range metrics {
		if m == o.Field {
			return &analyticsdata.OrderBy{
				Desc:   o.Desc,
				Metric: &analyticsdata.MetricOrderBy{MetricName: o.Field},
			}
		}
	}
	return &analyticsdata.OrderBy{
		Desc:      o.Desc,
		Dimension: &analyticsdata.DimensionOrderBy{DimensionName: o.Field},
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

func toStrings(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}
