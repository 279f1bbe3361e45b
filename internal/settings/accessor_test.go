package settings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_cart/storefront/internal/domain"
	pkgerrors "github.com/fjod/go_cart/storefront/internal/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	m      sync.RWMutex
	values map[string]json.RawMessage
	err    error
	calls  atomic.Int32
	gate   chan struct{}
}

// GetSetting reads the value first and then waits on gate, so a gated
// fetch returns what the store held when the request arrived.
func (m *mockFetcher) GetSetting(_ context.Context, key string) (json.RawMessage, error) {
	m.calls.Add(1)
	m.m.RLock()
	v, err := m.values[key], m.err
	m.m.RUnlock()
	if m.gate != nil {
		<-m.gate
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (m *mockFetcher) set(key string, v json.RawMessage) {
	m.m.Lock()
	defer m.m.Unlock()
	m.values[key] = v
}

type mockCache struct {
	m      sync.RWMutex
	values map[string]json.RawMessage
	err    error
}

func (m *mockCache) Get(_ context.Context, key string) (json.RawMessage, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(_ context.Context, key string, value json.RawMessage) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.values[key] = value
	return m.err
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.values, key)
	return m.err
}

func (m *mockCache) has(key string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.values[key]
	return ok
}

func storeFetcher() *mockFetcher {
	return &mockFetcher{values: map[string]json.RawMessage{
		StoreKey: json.RawMessage(`{"currency":"USD","codEnabled":true,"returnWindowDays":14}`),
	}}
}

func TestAccessor_ConcurrentCallersShareOneFetch(t *testing.T) {
	fetcher := storeFetcher()
	fetcher.gate = make(chan struct{})
	a := NewAccessor(fetcher, nil, nil, nil)

	const callers = 20
	var wg sync.WaitGroup
	results := make([]json.RawMessage, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := a.Get(context.Background(), StoreKey)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	// give the other callers time to join the pending fetch
	time.Sleep(50 * time.Millisecond)
	close(fetcher.gate)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for _, v := range results {
		assert.JSONEq(t, `{"currency":"USD","codEnabled":true,"returnWindowDays":14}`, string(v))
	}
}

func TestAccessor_MemoizesAfterFirstFetch(t *testing.T) {
	fetcher := storeFetcher()
	a := NewAccessor(fetcher, nil, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := a.Get(context.Background(), StoreKey)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestAccessor_FailureIsNotMemoized(t *testing.T) {
	fetcher := storeFetcher()
	fetcher.err = pkgerrors.New(pkgerrors.CodeNetworkUnknown, "unreachable")
	a := NewAccessor(fetcher, nil, nil, nil)

	_, err := a.Get(context.Background(), StoreKey)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNetworkUnknown))

	fetcher.m.Lock()
	fetcher.err = nil
	fetcher.m.Unlock()

	_, err = a.Get(context.Background(), StoreKey)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestAccessor_ServesFromCache(t *testing.T) {
	fetcher := storeFetcher()
	cache := &mockCache{values: map[string]json.RawMessage{"banner": json.RawMessage(`"sale"`)}}
	a := NewAccessor(fetcher, cache, nil, nil)

	v, err := a.Get(context.Background(), "banner")
	require.NoError(t, err)
	assert.Equal(t, `"sale"`, string(v))
	assert.Equal(t, int32(0), fetcher.calls.Load())
}

func TestAccessor_PopulatesCache(t *testing.T) {
	fetcher := storeFetcher()
	cache := &mockCache{values: map[string]json.RawMessage{}}
	a := NewAccessor(fetcher, cache, nil, nil)

	_, err := a.Get(context.Background(), StoreKey)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return cache.has(StoreKey) }, time.Second, 10*time.Millisecond)
}

func TestAccessor_CacheErrorFallsThroughToStore(t *testing.T) {
	fetcher := storeFetcher()
	cache := &mockCache{values: map[string]json.RawMessage{}, err: errors.New("redis down")}
	a := NewAccessor(fetcher, cache, nil, nil)

	_, err := a.Get(context.Background(), StoreKey)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestAccessor_Invalidate(t *testing.T) {
	fetcher := storeFetcher()
	cache := &mockCache{values: map[string]json.RawMessage{}}
	a := NewAccessor(fetcher, cache, nil, nil)
	ctx := context.Background()

	_, err := a.Get(ctx, StoreKey)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return cache.has(StoreKey) }, time.Second, 10*time.Millisecond)

	a.Invalidate(ctx, StoreKey)
	assert.False(t, cache.has(StoreKey))

	_, err = a.Get(ctx, StoreKey)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestAccessor_InvalidateDuringFetchDropsStaleValue(t *testing.T) {
	fetcher := &mockFetcher{values: map[string]json.RawMessage{"banner": json.RawMessage(`"old"`)}}
	fetcher.gate = make(chan struct{})
	cache := &mockCache{values: map[string]json.RawMessage{}}
	a := NewAccessor(fetcher, cache, nil, nil)
	ctx := context.Background()

	done := make(chan json.RawMessage, 1)
	go func() {
		v, err := a.Get(ctx, "banner")
		assert.NoError(t, err)
		done <- v
	}()
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	fetcher.set("banner", json.RawMessage(`"new"`))
	a.Invalidate(ctx, "banner")
	close(fetcher.gate)

	// the in-flight caller still gets its answer
	assert.Equal(t, `"old"`, string(<-done))
	assert.Never(t, func() bool { return cache.has("banner") }, 100*time.Millisecond, 10*time.Millisecond)

	v, err := a.Get(ctx, "banner")
	require.NoError(t, err)
	assert.Equal(t, `"new"`, string(v))
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestAccessor_Store(t *testing.T) {
	a := NewAccessor(storeFetcher(), nil, nil, nil)

	s, err := a.Store(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StoreSettings{Currency: "USD", CODEnabled: true, ReturnWindowDays: 14}, s)
}

func TestAccessor_StoreMalformed(t *testing.T) {
	fetcher := &mockFetcher{values: map[string]json.RawMessage{StoreKey: json.RawMessage(`[1,2]`)}}
	a := NewAccessor(fetcher, nil, nil, nil)

	_, err := a.Store(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeServerRejected))
}

func TestAccessor_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	fetcher := storeFetcher()
	first := NewAccessor(fetcher, NewRedisCache(client, time.Minute), nil, nil)
	_, err := first.Get(context.Background(), StoreKey)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return mr.Exists(cacheKey(StoreKey)) }, time.Second, 10*time.Millisecond)

	// a second process reads through the shared cache
	second := NewAccessor(fetcher, NewRedisCache(client, time.Minute), nil, nil)
	s, err := second.Store(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USD", s.Currency)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}
