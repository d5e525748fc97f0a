package query

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gamulti/ga-multi-mcp/internal/cache"
	"github.com/gamulti/ga-multi-mcp/internal/dates"
	"github.com/gamulti/ga-multi-mcp/internal/domain/resolver"
)

const realtimeLookbackMinutes = 30

// Options tunes the orchestrator.
type Options struct {
	// QueryTTL caches report results; PropertyTTL caches metadata.
	QueryTTL    time.Duration
	PropertyTTL time.Duration
	// DefaultLimit applies when a query gives no row limit.
	DefaultLimit int64
	// Timeout bounds each external Data API call.
	Timeout time.Duration
	// MaxConcurrent bounds the multi-property fan-out.
	MaxConcurrent int
	// FuzzyThreshold is the minimum confidence for property resolution.
	FuzzyThreshold float64
}

// Service fans logical queries out to GA4 properties, memoizing results and
// containing per-property failures.
type Service struct {
	resolver Resolver
	data     DataAPI
	cache    *cache.Cache
	parser   *dates.Parser
	opts     Options
	logger   *slog.Logger
}

// NewService creates a query orchestrator. The cache instance is shared
// with the registry; keys are namespaced to avoid collisions.
func NewService(res Resolver, data DataAPI, c *cache.Cache, parser *dates.Parser, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 1000
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 8
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.FuzzyThreshold <= 0 {
		opts.FuzzyThreshold = 0.6
	}
	if parser == nil {
		parser = dates.NewParser(nil)
	}
	return &Service{resolver: res, data: data, cache: c, parser: parser, opts: opts, logger: logger}
}

// QuerySingle resolves one property reference and runs a report for it.
// Resolution failure returns before the Data API is contacted. Within the
// query TTL window, identical requests are served from cache without a
// second Data API call.
func (s *Service) QuerySingle(ctx context.Context, q SingleQuery) (*QueryResult, error) {
	match, err := s.resolveRef(ctx, q.PropertyRef)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}

	req := ReportRequest{
		PropertyID: match.Property.NumericID,
		Metrics:    q.Metrics,
		Dimensions: q.Dimensions,
		Range:      q.Range,
		Filters:    q.Filters,
		OrderBy:    q.OrderBy,
		Limit:      limit,
	}

	key := queryCacheKey(req)
	if cached, ok := s.cache.Get(key); ok {
		if result, ok := cached.(QueryResult); ok {
			return &result, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	report, err := s.data.RunReport(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: property %s (%s): %w",
			ErrQueryFailed, match.Property.DisplayName, match.Property.NumericID, err)
	}

	result := QueryResult{
		PropertyID:   match.Property.NumericID,
		PropertyName: match.Property.DisplayName,
		Match:        &MatchInfo{Confidence: match.Confidence, MatchedOn: match.MatchedOn},
		DateRange:    q.Range,
		RangeLabel:   s.parser.Describe(q.Range),
		Dimensions:   report.Dimensions,
		Metrics:      report.Metrics,
		Rows:         report.Rows,
		RowCount:     report.RowCount,
		TotalRows:    report.TotalRows,
	}

	s.cache.Set(key, result, s.opts.QueryTTL)
	return &result, nil
}

// QueryMultiple runs the same query against each property reference
// concurrently. A single property's failure (unresolvable name, Data API
// error, timeout) is recorded on its QueryResult and excluded from totals;
// it never aborts the batch. Results come back in input order.
func (s *Service) QueryMultiple(ctx context.Context, q MultiQuery) (*MultiResult, error) {
	batchID := uuid.NewString()
	s.logger.Debug("multi-property query", "batch_id", batchID,
		"properties", len(q.PropertyRefs), "metrics", strings.Join(q.Metrics, ","))

	results := make([]QueryResult, len(q.PropertyRefs))

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrent)
	for i, ref := range q.PropertyRefs {
		g.Go(func() error {
			results[i] = s.queryOne(ctx, ref, q)
			return nil
		})
	}
	// Goroutines never return errors; failures are contained per result.
	_ = g.Wait()

	summary := Summary{
		PropertiesQueried: len(q.PropertyRefs),
		Totals:            make(map[string]float64, len(q.Metrics)),
		TotalsSource:      "row_sum",
	}
	for _, m := range q.Metrics {
		summary.Totals[m] = 0
	}
	for i := range results {
		if results[i].Error != nil {
			s.logger.Debug("property query failed", "batch_id", batchID,
				"property", q.PropertyRefs[i], "error_kind", results[i].Error.Kind)
			continue
		}
		summary.PropertiesSucceeded++
		addRowTotals(summary.Totals, q.Metrics, results[i].Rows)
	}

	return &MultiResult{
		DateRange:  q.Range,
		RangeLabel: s.parser.Describe(q.Range),
		Metrics:    q.Metrics,
		Dimensions: q.Dimensions,
		Results:    results,
		Summary:    summary,
	}, nil
}

// queryOne produces the per-property result for a batch, folding any
// failure into the result's Error field.
func (s *Service) queryOne(ctx context.Context, ref string, q MultiQuery) QueryResult {
	result, err := s.QuerySingle(ctx, SingleQuery{
		PropertyRef: ref,
		Metrics:     q.Metrics,
		Dimensions:  q.Dimensions,
		Range:       q.Range,
	})
	if err != nil {
		return QueryResult{
			PropertyName: ref,
			DateRange:    q.Range,
			Metrics:      q.Metrics,
			Dimensions:   q.Dimensions,
			Error:        &ResultError{Kind: errorKind(err), Message: err.Error()},
		}
	}
	return *result
}

// addRowTotals sums numeric metric values across a full returned row set.
// Non-numeric values are skipped rather than erroring the batch.
func addRowTotals(totals map[string]float64, metrics []string, rows []map[string]any) {
	for _, row := range rows {
		for _, m := range metrics {
			switch v := row[m].(type) {
			case int64:
				totals[m] += float64(v)
			case float64:
				totals[m] += v
			}
		}
	}
}

// GetMetadata returns the dimensions and metrics available on a property,
// cached under the property TTL.
func (s *Service) GetMetadata(ctx context.Context, propertyRef string) (*MetadataResult, error) {
	match, err := s.resolveRef(ctx, propertyRef)
	if err != nil {
		return nil, err
	}

	key := "metadata:" + match.Property.NumericID
	var meta *Metadata
	if cached, ok := s.cache.Get(key); ok {
		if m, ok := cached.(*Metadata); ok {
			meta = m
		}
	}
	if meta == nil {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
		meta, err = s.data.GetMetadata(callCtx, match.Property.NumericID)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata for %s: %w", ErrQueryFailed, match.Property.DisplayName, err)
		}
		s.cache.Set(key, meta, s.opts.PropertyTTL)
	}

	return &MetadataResult{
		PropertyID:       match.Property.NumericID,
		PropertyName:     match.Property.DisplayName,
		Dimensions:       meta.Dimensions,
		Metrics:          meta.Metrics,
		CustomDimensions: meta.CustomDimensions,
		CustomMetrics:    meta.CustomMetrics,
		TotalDimensions:  len(meta.Dimensions) + len(meta.CustomDimensions),
		TotalMetrics:     len(meta.Metrics) + len(meta.CustomMetrics),
	}, nil
}

// QueryRealtime reports on the last 30 minutes of activity. Realtime data
// is never cached; a TTL would misrepresent the sliding window.
func (s *Service) QueryRealtime(ctx context.Context, q RealtimeQuery) (*RealtimeResult, error) {
	match, err := s.resolveRef(ctx, q.PropertyRef)
	if err != nil {
		return nil, err
	}

	metrics := q.Metrics
	if len(metrics) == 0 {
		metrics = []string{"activeUsers"}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	report, err := s.data.RunRealtimeReport(callCtx, RealtimeRequest{
		PropertyID: match.Property.NumericID,
		Metrics:    metrics,
		Dimensions: q.Dimensions,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: realtime report for %s: %w", ErrQueryFailed, match.Property.DisplayName, err)
	}

	return &RealtimeResult{
		PropertyID:      match.Property.NumericID,
		PropertyName:    match.Property.DisplayName,
		LookbackMinutes: realtimeLookbackMinutes,
		Dimensions:      report.Dimensions,
		Metrics:         report.Metrics,
		Rows:            report.Rows,
		RowCount:        report.RowCount,
	}, nil
}

// CacheStatus exposes the shared cache contents for diagnostics.
func (s *Service) CacheStatus() cache.Status {
	return s.cache.Status()
}

// ClearCache removes cached entries, optionally only those whose key
// contains pattern, and returns how many were removed.
func (s *Service) ClearCache(pattern string) int {
	if pattern == "" {
		return s.cache.Clear()
	}
	return s.cache.InvalidatePattern(pattern)
}

// resolveRef resolves a property reference to its best match. A miss is
// reported with "did you mean" suggestions so the agent can recover.
func (s *Service) resolveRef(ctx context.Context, ref string) (resolver.Match, error) {
	matches, err := s.resolver.Resolve(ctx, ref, s.opts.FuzzyThreshold)
	if err != nil {
		return resolver.Match{}, err
	}
	if len(matches) == 0 {
		return resolver.Match{}, s.notFound(ctx, ref)
	}
	return matches[0], nil
}

func (s *Service) notFound(ctx context.Context, ref string) error {
	suggestions, _ := s.resolver.Search(ctx, ref, 3)
	if len(suggestions) == 0 {
		return fmt.Errorf("%w: %q (no similar properties; try list_properties)", resolver.ErrPropertyNotFound, ref)
	}
	names := make([]string, 0, len(suggestions))
	for _, m := range suggestions {
		names = append(names, m.Property.DisplayName)
	}
	return fmt.Errorf("%w: %q (did you mean: %s? try search_properties)",
		resolver.ErrPropertyNotFound, ref, strings.Join(names, ", "))
}

// queryCacheKey fingerprints a report request so identical queries share a
// cache entry.
func queryCacheKey(req ReportRequest) string {
	payload, _ := json.Marshal(struct {
		Metrics    []string    `json:"m"`
		Dimensions []string    `json:"d"`
		Range      dates.Range `json:"r"`
		Filters    []Filter    `json:"f,omitempty"`
		OrderBy    *OrderBy    `json:"o,omitempty"`
		Limit      int64       `json:"l"`
	}{req.Metrics, req.Dimensions, req.Range, req.Filters, req.OrderBy, req.Limit})
	sum := sha256.Sum256(payload)
	return "query:" + req.PropertyID + ":" + hex.EncodeToString(sum[:8])
}
