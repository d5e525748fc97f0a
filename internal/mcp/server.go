package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gamulti/ga-multi-mcp/internal/cache"
	"github.com/gamulti/ga-multi-mcp/internal/dates"
	"github.com/gamulti/ga-multi-mcp/internal/domain/query"
	"github.com/gamulti/ga-multi-mcp/internal/domain/registry"
	"github.com/gamulti/ga-multi-mcp/internal/domain/resolver"
)

// RegistryService defines property discovery operations needed by MCP.
type RegistryService interface {
	ListProperties(ctx context.Context, forceRefresh bool) ([]registry.Property, error)
	InvalidateCache()
}

// ResolverService defines property search operations needed by MCP.
type ResolverService interface {
	Search(ctx context.Context, query string, maxResults int) ([]resolver.Match, error)
}

// QueryService defines reporting operations needed by MCP.
type QueryService interface {
	QuerySingle(ctx context.Context, q query.SingleQuery) (*query.QueryResult, error)
	QueryMultiple(ctx context.Context, q query.MultiQuery) (*query.MultiResult, error)
	GetMetadata(ctx context.Context, propertyRef string) (*query.MetadataResult, error)
	QueryRealtime(ctx context.Context, q query.RealtimeQuery) (*query.RealtimeResult, error)
	CacheStatus() cache.Status
	ClearCache(pattern string) int
}

// Services contains all domain services needed by MCP.
type Services struct {
	Registry RegistryService
	Resolver ResolverService
	Queries  QueryService
	Dates    *dates.Parser
}

// Config contains server configuration.
type Config struct {
	Services Services
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Services.Dates == nil {
		cfg.Services.Dates = dates.NewParser(nil)
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "ga-multi-mcp",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
