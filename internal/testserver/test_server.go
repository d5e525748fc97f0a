package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/gamulti/ga-multi-mcp/internal/cache"
	"github.com/gamulti/ga-multi-mcp/internal/dates"
	"github.com/gamulti/ga-multi-mcp/internal/domain/query"
	"github.com/gamulti/ga-multi-mcp/internal/domain/registry"
	"github.com/gamulti/ga-multi-mcp/internal/domain/resolver"
	"github.com/gamulti/ga-multi-mcp/internal/mcp"
)

// FakeAdmin stands in for the Analytics Admin API during tests.
type FakeAdmin struct {
	Properties []registry.Property
	Err        error
}

func (f *FakeAdmin) ListAccessibleProperties(ctx context.Context) ([]registry.Property, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Properties, nil
}

// FakeData stands in for the Analytics Data API during tests. Unset
// functions answer with a small fixed report.
type FakeData struct {
	ReportFn   func(ctx context.Context, req query.ReportRequest) (*query.Report, error)
	RealtimeFn func(ctx context.Context, req query.RealtimeRequest) (*query.Report, error)
	MetadataFn func(ctx context.Context, propertyID string) (*query.Metadata, error)
}

func (f *FakeData) RunReport(ctx context.Context, req query.ReportRequest) (*query.Report, error) {
	if f.ReportFn != nil {
		return f.ReportFn(ctx, req)
	}
	return &query.Report{
		PropertyID: req.PropertyID,
		Metrics:    req.Metrics,
		Dimensions: req.Dimensions,
		Rows:       []map[string]any{{"sessions": int64(100)}},
		RowCount:   1,
		TotalRows:  1,
	}, nil
}

func (f *FakeData) RunRealtimeReport(ctx context.Context, req query.RealtimeRequest) (*query.Report, error) {
	if f.RealtimeFn != nil {
		return f.RealtimeFn(ctx, req)
	}
	return &query.Report{
		PropertyID: req.PropertyID,
		Metrics:    req.Metrics,
		Rows:       []map[string]any{{"activeUsers": int64(5)}},
		RowCount:   1,
	}, nil
}

func (f *FakeData) GetMetadata(ctx context.Context, propertyID string) (*query.Metadata, error) {
	if f.MetadataFn != nil {
		return f.MetadataFn(ctx, propertyID)
	}
	return &query.Metadata{
		PropertyID: propertyID,
		Dimensions: []query.FieldInfo{{APIName: "date", UIName: "Date"}},
		Metrics:    []query.FieldInfo{{APIName: "sessions", UIName: "Sessions"}},
	}, nil
}

// Options tunes the assembled server.
type Options struct {
	Aliases        map[string][]string
	FuzzyThreshold float64
	QueryTTL       time.Duration
	PropertyTTL    time.Duration
}

// TestServer wires the full service stack over fake GA clients and exposes
// it through both an HTTP endpoint and an in-process MCP session.
type TestServer struct {
	Server    *httptest.Server
	MCPServer *sdkmcp.Server
	Admin     *FakeAdmin
	Data      *FakeData
	Cache     *cache.Cache
}

func New(t *testing.T, admin *FakeAdmin, data *FakeData, opts Options) *TestServer {
	t.Helper()

	if admin == nil {
		admin = &FakeAdmin{}
	}
	if data == nil {
		data = &FakeData{}
	}
	if opts.FuzzyThreshold <= 0 {
		opts.FuzzyThreshold = 0.6
	}
	if opts.QueryTTL <= 0 {
		opts.QueryTTL = 5 * time.Minute
	}
	if opts.PropertyTTL <= 0 {
		opts.PropertyTTL = time.Hour
	}

	sharedCache := cache.New()
	parser := dates.NewParser(nil)

	registrySvc := registry.NewService(admin, sharedCache, opts.PropertyTTL, nil)
	resolverSvc := resolver.NewService(registrySvc, opts.FuzzyThreshold, opts.Aliases, nil)
	querySvc := query.NewService(resolverSvc, data, sharedCache, parser, query.Options{
		QueryTTL:       opts.QueryTTL,
		PropertyTTL:    opts.PropertyTTL,
		FuzzyThreshold: opts.FuzzyThreshold,
	}, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Registry: registrySvc,
			Resolver: resolverSvc,
			Queries:  querySvc,
			Dates:    parser,
		},
	})

	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{Stateless: true},
	)
	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	server := httptest.NewServer(router)

	t.Cleanup(server.Close)

	return &TestServer{
		Server:    server,
		MCPServer: mcpServer,
		Admin:     admin,
		Data:      data,
		Cache:     sharedCache,
	}
}

// Connect opens an in-process client session against the server.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()

	serverSession, err := ts.MCPServer.Connect(context.Background(), serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	clientSession, err := client.Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = clientSession.Close()
		_ = serverSession.Wait()
	})

	return clientSession
}
