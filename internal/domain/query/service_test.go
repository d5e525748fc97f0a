package query_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gamulti/ga-multi-mcp/internal/cache"
	"github.com/gamulti/ga-multi-mcp/internal/dates"
	"github.com/gamulti/ga-multi-mcp/internal/domain/query"
	"github.com/gamulti/ga-multi-mcp/internal/domain/registry"
	"github.com/gamulti/ga-multi-mcp/internal/domain/resolver"
	"github.com/stretchr/testify/require"
)

type resolverStub struct {
	props []registry.Property
}

func (r resolverStub) Resolve(ctx context.Context, q string, threshold float64) ([]resolver.Match, error) {
	for _, p := range r.props {
		if p.NumericID == q || p.CleanName == registry.CleanName(q) {
			return []resolver.Match{{Property: p, Confidence: 1.0, MatchedOn: "exact_name"}}, nil
		}
	}
	return nil, nil
}

func (r resolverStub) Search(ctx context.Context, q string, maxResults int) ([]resolver.Match, error) {
	var out []resolver.Match
	for _, p := range r.props {
		out = append(out, resolver.Match{Property: p, Confidence: 0.5, MatchedOn: "fuzzy"})
	}
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

type dataStub struct {
	reportCalls   atomic.Int64
	realtimeCalls atomic.Int64
	metadataCalls atomic.Int64

	reportFn   func(ctx context.Context, req query.ReportRequest) (*query.Report, error)
	realtimeFn func(ctx context.Context, req query.RealtimeRequest) (*query.Report, error)
	metadataFn func(ctx context.Context, propertyID string) (*query.Metadata, error)
}

func (d *dataStub) RunReport(ctx context.Context, req query.ReportRequest) (*query.Report, error) {
	d.reportCalls.Add(1)
	return d.reportFn(ctx, req)
}

func (d *dataStub) RunRealtimeReport(ctx context.Context, req query.RealtimeRequest) (*query.Report, error) {
	d.realtimeCalls.Add(1)
	return d.realtimeFn(ctx, req)
}

func (d *dataStub) GetMetadata(ctx context.Context, propertyID string) (*query.Metadata, error) {
	d.metadataCalls.Add(1)
	return d.metadataFn(ctx, propertyID)
}

func prop(id, name string) registry.Property {
	return registry.Property{
		NumericID:    id,
		ResourceName: "properties/" + id,
		DisplayName:  name,
		AccountID:    "1",
		CleanName:    registry.CleanName(name),
	}
}

var testRange = dates.Range{Start: "2026-08-01", End: "2026-08-07"}

func sessionsReport(req query.ReportRequest, sessions int64) *query.Report {
	return &query.Report{
		PropertyID: req.PropertyID,
		Metrics:    req.Metrics,
		Dimensions: req.Dimensions,
		Rows: []map[string]any{
			{"sessions": sessions},
		},
		RowCount:  1,
		TotalRows: 1,
	}
}

func newService(res query.Resolver, data query.DataAPI, opts query.Options) *query.Service {
	return query.NewService(res, data, cache.New(), dates.NewParser(nil), opts, nil)
}

func TestQuerySingle_IdempotentWithinTTL(t *testing.T) {
	ctx := context.Background()
	res := resolverStub{props: []registry.Property{prop("111", "My Blog")}}
	data := &dataStub{reportFn: func(_ context.Context, req query.ReportRequest) (*query.Report, error) {
		return sessionsReport(req, 42), nil
	}}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute})

	q := query.SingleQuery{PropertyRef: "My Blog", Metrics: []string{"sessions"}, Range: testRange}

	first, err := svc.QuerySingle(ctx, q)
	require.NoError(t, err)
	second, err := svc.QuerySingle(ctx, q)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int64(1), data.reportCalls.Load(), "second call must be served from cache")
}

func TestQuerySingle_DifferentArgsMissCache(t *testing.T) {
	ctx := context.Background()
	res := resolverStub{props: []registry.Property{prop("111", "My Blog")}}
	data := &dataStub{reportFn: func(_ context.Context, req query.ReportRequest) (*query.Report, error) {
		return sessionsReport(req, 42), nil
	}}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute})

	_, err := svc.QuerySingle(ctx, query.SingleQuery{PropertyRef: "111", Metrics: []string{"sessions"}, Range: testRange})
	require.NoError(t, err)
	_, err = svc.QuerySingle(ctx, query.SingleQuery{PropertyRef: "111", Metrics: []string{"activeUsers"}, Range: testRange})
	require.NoError(t, err)

	require.Equal(t, int64(2), data.reportCalls.Load())
}

func TestQuerySingle_ResolutionFailureSkipsDataAPI(t *testing.T) {
	ctx := context.Background()
	res := resolverStub{props: []registry.Property{prop("111", "My Blog")}}
	data := &dataStub{reportFn: func(_ context.Context, req query.ReportRequest) (*query.Report, error) {
		return sessionsReport(req, 1), nil
	}}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute})

	_, err := svc.QuerySingle(ctx, query.SingleQuery{PropertyRef: "nonexistent", Metrics: []string{"sessions"}, Range: testRange})
	require.ErrorIs(t, err, resolver.ErrPropertyNotFound)
	require.Contains(t, err.Error(), "My Blog", "error should carry suggestions")
	require.Equal(t, int64(0), data.reportCalls.Load())
}

func TestQueryMultiple_PartialFailureInInputOrder(t *testing.T) {
	ctx := context.Background()
	res := resolverStub{props: []registry.Property{prop("111", "My Blog")}}
	data := &dataStub{reportFn: func(_ context.Context, req query.ReportRequest) (*query.Report, error) {
		return sessionsReport(req, 42), nil
	}}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute})

	out, err := svc.QueryMultiple(ctx, query.MultiQuery{
		PropertyRefs: []string{"My Blog", "no such property"},
		Metrics:      []string{"sessions"},
		Range:        testRange,
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)

	require.Nil(t, out.Results[0].Error)
	require.Equal(t, "111", out.Results[0].PropertyID)

	require.NotNil(t, out.Results[1].Error)
	require.Equal(t, "PROPERTY_NOT_FOUND", out.Results[1].Error.Kind)
	require.Equal(t, "no such property", out.Results[1].PropertyName)

	require.Equal(t, 2, out.Summary.PropertiesQueried)
	require.Equal(t, 1, out.Summary.PropertiesSucceeded)
	require.Equal(t, float64(42), out.Summary.Totals["sessions"])
	require.Equal(t, "row_sum", out.Summary.TotalsSource)
}

func TestQueryMultiple_OrderIndependentOfCompletion(t *testing.T) {
	ctx := context.Background()
	props := []registry.Property{prop("111", "Site A"), prop("222", "Site B"), prop("333", "Site C")}
	res := resolverStub{props: props}
	data := &dataStub{reportFn: func(_ context.Context, req query.ReportRequest) (*query.Report, error) {
		// The first property answers slowest.
		if req.PropertyID == "111" {
			time.Sleep(30 * time.Millisecond)
		}
		return sessionsReport(req, 10), nil
	}}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute, MaxConcurrent: 3})

	out, err := svc.QueryMultiple(ctx, query.MultiQuery{
		PropertyRefs: []string{"Site A", "Site B", "Site C"},
		Metrics:      []string{"sessions"},
		Range:        testRange,
	})
	require.NoError(t, err)
	require.Equal(t, "111", out.Results[0].PropertyID)
	require.Equal(t, "222", out.Results[1].PropertyID)
	require.Equal(t, "333", out.Results[2].PropertyID)
}

func TestQueryMultiple_TotalsSumFullRowSetNumericOnly(t *testing.T) {
	ctx := context.Background()
	res := resolverStub{props: []registry.Property{prop("111", "Site A"), prop("222", "Site B")}}
	data := &dataStub{reportFn: func(_ context.Context, req query.ReportRequest) (*query.Report, error) {
		return &query.Report{
			PropertyID: req.PropertyID,
			Metrics:    req.Metrics,
			Rows: []map[string]any{
				{"sessions": int64(10), "bounceRate": 0.5, "label": "n/a"},
				{"sessions": int64(5), "bounceRate": 0.25, "label": "n/a"},
			},
			RowCount: 2,
		}, nil
	}}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute})

	out, err := svc.QueryMultiple(ctx, query.MultiQuery{
		PropertyRefs: []string{"Site A", "Site B"},
		Metrics:      []string{"sessions", "bounceRate", "label"},
		Range:        testRange,
	})
	require.NoError(t, err)
	require.Equal(t, float64(30), out.Summary.Totals["sessions"])
	require.Equal(t, 1.5, out.Summary.Totals["bounceRate"])
	require.Equal(t, float64(0), out.Summary.Totals["label"], "non-numeric metric stays at zero")
}

func TestQueryMultiple_TimeoutContainedPerProperty(t *testing.T) {
	ctx := context.Background()
	res := resolverStub{props: []registry.Property{prop("111", "Site A"), prop("222", "Site B")}}
	data := &dataStub{reportFn: func(callCtx context.Context, req query.ReportRequest) (*query.Report, error) {
		if req.PropertyID == "111" {
			<-callCtx.Done()
			return nil, callCtx.Err()
		}
		return sessionsReport(req, 7), nil
	}}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute, Timeout: 20 * time.Millisecond})

	out, err := svc.QueryMultiple(ctx, query.MultiQuery{
		PropertyRefs: []string{"Site A", "Site B"},
		Metrics:      []string{"sessions"},
		Range:        testRange,
	})
	require.NoError(t, err, "a per-property timeout must not fail the batch")
	require.NotNil(t, out.Results[0].Error)
	require.Equal(t, "TIMEOUT", out.Results[0].Error.Kind)
	require.Nil(t, out.Results[1].Error)
	require.Equal(t, float64(7), out.Summary.Totals["sessions"])
}

func TestQueryMultiple_QueryFailureExcludedFromTotals(t *testing.T) {
	ctx := context.Background()
	res := resolverStub{props: []registry.Property{prop("111", "Site A"), prop("222", "Site B")}}
	data := &dataStub{reportFn: func(_ context.Context, req query.ReportRequest) (*query.Report, error) {
		if req.PropertyID == "222" {
			return nil, errors.New("backend exploded")
		}
		return sessionsReport(req, 3), nil
	}}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute})

	out, err := svc.QueryMultiple(ctx, query.MultiQuery{
		PropertyRefs: []string{"Site A", "Site B"},
		Metrics:      []string{"sessions"},
		Range:        testRange,
	})
	require.NoError(t, err)
	require.Equal(t, "QUERY_FAILED", out.Results[1].Error.Kind)
	require.Equal(t, float64(3), out.Summary.Totals["sessions"])
}

func TestGetMetadata_CachedUnderPropertyTTL(t *testing.T) {
	ctx := context.Background()
	res := resolverStub{props: []registry.Property{prop("111", "My Blog")}}
	data := &dataStub{metadataFn: func(_ context.Context, propertyID string) (*query.Metadata, error) {
		return &query.Metadata{
			PropertyID: propertyID,
			Dimensions: []query.FieldInfo{{APIName: "date"}},
			Metrics:    []query.FieldInfo{{APIName: "sessions"}},
			CustomMetrics: []query.FieldInfo{
				{APIName: "customEvent:signups", Custom: true},
			},
		}, nil
	}}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute, PropertyTTL: time.Hour})

	first, err := svc.GetMetadata(ctx, "My Blog")
	require.NoError(t, err)
	require.Equal(t, "My Blog", first.PropertyName)
	require.Equal(t, 1, first.TotalDimensions)
	require.Equal(t, 2, first.TotalMetrics)

	_, err = svc.GetMetadata(ctx, "111")
	require.NoError(t, err)
	require.Equal(t, int64(1), data.metadataCalls.Load())
}

func TestQueryRealtime_DefaultsToActiveUsers(t *testing.T) {
	ctx := context.Background()
	res := resolverStub{props: []registry.Property{prop("111", "My Blog")}}
	var gotMetrics []string
	data := &dataStub{realtimeFn: func(_ context.Context, req query.RealtimeRequest) (*query.Report, error) {
		gotMetrics = req.Metrics
		return &query.Report{
			PropertyID: req.PropertyID,
			Metrics:    req.Metrics,
			Rows:       []map[string]any{{"activeUsers": int64(12)}},
			RowCount:   1,
		}, nil
	}}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute})

	out, err := svc.QueryRealtime(ctx, query.RealtimeQuery{PropertyRef: "My Blog"})
	require.NoError(t, err)
	require.Equal(t, []string{"activeUsers"}, gotMetrics)
	require.Equal(t, 30, out.LookbackMinutes)

	// Realtime results are never cached.
	_, err = svc.QueryRealtime(ctx, query.RealtimeQuery{PropertyRef: "My Blog"})
	require.NoError(t, err)
	require.Equal(t, int64(2), data.realtimeCalls.Load())
}

func TestClearCache_ThenStatusEmpty(t *testing.T) {
	ctx := context.Background()
	res := resolverStub{props: []registry.Property{prop("111", "My Blog")}}
	data := &dataStub{reportFn: func(_ context.Context, req query.ReportRequest) (*query.Report, error) {
		return sessionsReport(req, 1), nil
	}}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute})

	_, err := svc.QuerySingle(ctx, query.SingleQuery{PropertyRef: "111", Metrics: []string{"sessions"}, Range: testRange})
	require.NoError(t, err)
	require.NotZero(t, svc.CacheStatus().EntryCount)

	cleared := svc.ClearCache("")
	require.Equal(t, 1, cleared)
	require.Equal(t, 0, svc.CacheStatus().EntryCount)
}

func TestClearCache_PatternScoped(t *testing.T) {
	ctx := context.Background()
	res := resolverStub{props: []registry.Property{prop("111", "My Blog")}}
	data := &dataStub{
		reportFn: func(_ context.Context, req query.ReportRequest) (*query.Report, error) {
			return sessionsReport(req, 1), nil
		},
		metadataFn: func(_ context.Context, propertyID string) (*query.Metadata, error) {
			return &query.Metadata{PropertyID: propertyID}, nil
		},
	}
	svc := newService(res, data, query.Options{QueryTTL: time.Minute, PropertyTTL: time.Hour})

	_, err := svc.QuerySingle(ctx, query.SingleQuery{PropertyRef: "111", Metrics: []string{"sessions"}, Range: testRange})
	require.NoError(t, err)
	_, err = svc.GetMetadata(ctx, "111")
	require.NoError(t, err)

	cleared := svc.ClearCache("metadata:")
	require.Equal(t, 1, cleared)
	require.Equal(t, 1, svc.CacheStatus().EntryCount)
}
