package eventqueue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorageGetSetRemove(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	_, ok, err := storage.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, storage.Set(ctx, "k", "v1"))
	require.NoError(t, storage.Set(ctx, "k", "v2"))
	value, ok, err := storage.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", value)

	require.NoError(t, storage.Remove(ctx, "k"))
	require.NoError(t, storage.Remove(ctx, "k"))
	_, ok, err = storage.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStorageZeroValue(t *testing.T) {
	var storage MemoryStorage
	require.NoError(t, storage.Set(context.Background(), "k", "v"))
	value, ok, err := storage.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", value)
}

func TestResolverCachesProviderResult(t *testing.T) {
	durable := NewMemoryStorage()
	calls := 0
	resolver := NewResolver(func(context.Context) (Storage, error) {
		calls++
		return durable, nil
	}, nil)

	first := resolver.Resolve(context.Background())
	second := resolver.Resolve(context.Background())

	require.Same(t, durable, first)
	require.Same(t, first, second)
	require.Equal(t, 1, calls)
}

func TestResolverFallsBackToMemory(t *testing.T) {
	cases := []struct {
		name     string
		provider Provider
	}{
		{name: "no provider", provider: nil},
		{name: "unavailable", provider: func(context.Context) (Storage, error) { return nil, ErrStorageUnavailable }},
		{name: "provider error", provider: func(context.Context) (Storage, error) { return nil, errors.New("boom") }},
		{name: "nil storage", provider: func(context.Context) (Storage, error) { return nil, nil }},
		{name: "static nil", provider: StaticProvider(nil)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			resolver := NewResolver(tc.provider, nil)
			storage := resolver.Resolve(context.Background())
			require.IsType(t, &MemoryStorage{}, storage)
			require.Same(t, storage, resolver.Resolve(context.Background()))
		})
	}
}

func TestResolverFallbackIsNotRetried(t *testing.T) {
	calls := 0
	resolver := NewResolver(func(context.Context) (Storage, error) {
		calls++
		return nil, ErrStorageUnavailable
	}, nil)

	resolver.Resolve(context.Background())
	resolver.Resolve(context.Background())

	require.Equal(t, 1, calls)
}

func TestResolverResetForcesReresolution(t *testing.T) {
	ctx := context.Background()
	calls := 0
	resolver := NewResolver(func(context.Context) (Storage, error) {
		calls++
		return nil, ErrStorageUnavailable
	}, nil)

	first := resolver.Resolve(ctx)
	require.NoError(t, first.Set(ctx, DefaultStorageKey, `[]`))

	resolver.Reset()
	second := resolver.Resolve(ctx)

	require.Equal(t, 2, calls)
	require.NotSame(t, first, second)
	_, ok, err := second.Get(ctx, DefaultStorageKey)
	require.NoError(t, err)
	require.False(t, ok, "fallback contents must not survive a reset")
}
