package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gamulti/ga-multi-mcp/internal/cache"
)

// listCacheKey is the fixed cache key for the discovered property list.
const listCacheKey = "properties:list"

// Service discovers and caches the list of accessible GA4 properties.
type Service struct {
	admin  AdminAPI
	cache  *cache.Cache
	ttl    time.Duration
	logger *slog.Logger
	flight singleflight.Group
}

// NewService creates a property registry backed by the given Admin API
// client and cache. ttl controls how long a discovered list stays fresh.
func NewService(admin AdminAPI, c *cache.Cache, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{admin: admin, cache: c, ttl: ttl, logger: logger}
}

// ListProperties returns the accessible GA4 properties, serving from cache
// when fresh. forceRefresh bypasses the cache read but still repopulates it.
//
// A failed or empty discovery is never cached, so a transient Admin API
// outage does not stick for a full TTL window.
func (s *Service) ListProperties(ctx context.Context, forceRefresh bool) ([]Property, error) {
	if !forceRefresh {
		if cached, ok := s.cache.Get(listCacheKey); ok {
			if props, ok := cached.([]Property); ok {
				return props, nil
			}
		}
	}

	// Concurrent misses collapse into one discovery call.
	result, err, _ := s.flight.Do(listCacheKey, func() (any, error) {
		return s.discover(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Property), nil
}

func (s *Service) discover(ctx context.Context) ([]Property, error) {
	props, err := s.admin.ListAccessibleProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscoveryFailed, err)
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: no accessible GA4 properties for the configured credentials", ErrDiscoveryFailed)
	}

	s.cache.Set(listCacheKey, props, s.ttl)
	s.logger.Info("discovered GA4 properties", "count", len(props))
	return props, nil
}

// GetProperty looks up a property by its exact numeric ID, triggering
// discovery if the list is not yet loaded.
func (s *Service) GetProperty(ctx context.Context, id string) (Property, error) {
	props, err := s.ListProperties(ctx, false)
	if err != nil {
		return Property{}, err
	}
	for _, p := range props {
		if p.NumericID == id {
			return p, nil
		}
	}
	return Property{}, fmt.Errorf("%w: %s", ErrPropertyNotFound, id)
}

// InvalidateCache drops the cached property list so the next call
// rediscovers.
func (s *Service) InvalidateCache() {
	s.cache.Invalidate(listCacheKey)
}
