package registry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gamulti/ga-multi-mcp/internal/cache"
	"github.com/gamulti/ga-multi-mcp/internal/domain/registry"
	"github.com/stretchr/testify/require"
)

type adminStub struct {
	calls atomic.Int64
	fn    func(ctx context.Context) ([]registry.Property, error)
}

func (a *adminStub) ListAccessibleProperties(ctx context.Context) ([]registry.Property, error) {
	a.calls.Add(1)
	return a.fn(ctx)
}

func sampleProperties() []registry.Property {
	return []registry.Property{
		{NumericID: "111", ResourceName: "properties/111", DisplayName: "My Blog", AccountID: "1", CleanName: "myblog"},
		{NumericID: "222", ResourceName: "properties/222", DisplayName: "My App", AccountID: "1", CleanName: "myapp"},
	}
}

func TestListProperties_CachesDiscovery(t *testing.T) {
	ctx := context.Background()
	admin := &adminStub{fn: func(context.Context) ([]registry.Property, error) {
		return sampleProperties(), nil
	}}
	svc := registry.NewService(admin, cache.New(), time.Hour, nil)

	first, err := svc.ListProperties(ctx, false)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.ListProperties(ctx, false)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, int64(1), admin.calls.Load(), "second call should be served from cache")
}

func TestListProperties_ForceRefreshRepopulates(t *testing.T) {
	ctx := context.Background()
	admin := &adminStub{fn: func(context.Context) ([]registry.Property, error) {
		return sampleProperties(), nil
	}}
	svc := registry.NewService(admin, cache.New(), time.Hour, nil)

	_, err := svc.ListProperties(ctx, false)
	require.NoError(t, err)

	_, err = svc.ListProperties(ctx, true)
	require.NoError(t, err)
	require.Equal(t, int64(2), admin.calls.Load())

	// The refresh repopulated the cache.
	_, err = svc.ListProperties(ctx, false)
	require.NoError(t, err)
	require.Equal(t, int64(2), admin.calls.Load())
}

func TestListProperties_FailureNotCached(t *testing.T) {
	ctx := context.Background()
	fail := true
	admin := &adminStub{fn: func(context.Context) ([]registry.Property, error) {
		if fail {
			return nil, errors.New("permission denied")
		}
		return sampleProperties(), nil
	}}
	svc := registry.NewService(admin, cache.New(), time.Hour, nil)

	_, err := svc.ListProperties(ctx, false)
	require.ErrorIs(t, err, registry.ErrDiscoveryFailed)

	// A transient failure must not be sticky: the next call retries.
	fail = false
	props, err := svc.ListProperties(ctx, false)
	require.NoError(t, err)
	require.Len(t, props, 2)
}

func TestListProperties_EmptyDiscoveryIsFailure(t *testing.T) {
	ctx := context.Background()
	admin := &adminStub{fn: func(context.Context) ([]registry.Property, error) {
		return nil, nil
	}}
	svc := registry.NewService(admin, cache.New(), time.Hour, nil)

	_, err := svc.ListProperties(ctx, false)
	require.ErrorIs(t, err, registry.ErrDiscoveryFailed)
	require.Equal(t, int64(1), admin.calls.Load())

	// Nothing was cached.
	_, err = svc.ListProperties(ctx, false)
	require.ErrorIs(t, err, registry.ErrDiscoveryFailed)
	require.Equal(t, int64(2), admin.calls.Load())
}

func TestGetProperty(t *testing.T) {
	ctx := context.Background()
	admin := &adminStub{fn: func(context.Context) ([]registry.Property, error) {
		return sampleProperties(), nil
	}}
	svc := registry.NewService(admin, cache.New(), time.Hour, nil)

	prop, err := svc.GetProperty(ctx, "222")
	require.NoError(t, err)
	require.Equal(t, "My App", prop.DisplayName)

	_, err = svc.GetProperty(ctx, "999")
	require.ErrorIs(t, err, registry.ErrPropertyNotFound)
}

func TestCleanName(t *testing.T) {
	require.Equal(t, "myblog", registry.CleanName("My Blog"))
	require.Equal(t, "acmestoreeu", registry.CleanName("ACME Store (EU)"))
	require.Len(t, registry.CleanName("a very long display name that keeps going and going"), 30)
}
