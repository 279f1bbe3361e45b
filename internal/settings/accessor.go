package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	pkgerrors "github.com/fjod/go_cart/storefront/internal/errors"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const StoreKey = "store"

// Fetcher reads one setting from the store API.
type Fetcher interface {
	GetSetting(ctx context.Context, key string) (json.RawMessage, error)
}

// Accessor memoizes settings for the life of the process. At most one fetch
// per key is in flight; concurrent callers share its result.
type Accessor struct {
	fetcher Fetcher
	cache   Cache
	log     *logger.Logger
	metrics *metrics.Metrics
	sfg     singleflight.Group

	mu   sync.RWMutex
	memo map[string]json.RawMessage
	// bumped by Invalidate; a fetch started under an older generation is not kept
	gens map[string]uint64
}

// NewAccessor builds an accessor; cache may be nil.
func NewAccessor(fetcher Fetcher, cache Cache, log *logger.Logger, m *metrics.Metrics) *Accessor {
	return &Accessor{
		fetcher: fetcher,
		cache:   cache,
		log:     log,
		metrics: m,
		memo:    map[string]json.RawMessage{},
		gens:    map[string]uint64{},
	}
}

func (a *Accessor) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if v, ok := a.memoized(key); ok {
		a.metrics.SettingsRead("memo")
		return v, nil
	}

	v, err, _ := a.sfg.Do(key, func() (interface{}, error) {
		if v, ok := a.memoized(key); ok {
			a.metrics.SettingsRead("memo")
			return v, nil
		}
		gen := a.generation(key)

		if a.cache != nil {
			v, err := a.cache.Get(ctx, key)
			if err == nil {
				a.metrics.SettingsRead("cache")
				a.remember(key, gen, v)
				return v, nil
			}
			if !errors.Is(err, ErrCacheMiss) {
				a.log.Warn(ctx, "settings cache get failed", err) // continue to the store
			}
		}

		v, err := a.fetcher.GetSetting(ctx, key)
		if err != nil {
			return nil, err
		}
		a.metrics.SettingsRead("remote")
		if !a.remember(key, gen, v) {
			a.log.Debug(ctx, fmt.Sprintf("setting %s invalidated during fetch, not kept", key))
			return v, nil
		}

		if a.cache != nil {
			go func() {
				setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := a.cache.Set(setCtx, key, v); err != nil {
					a.log.Warn(setCtx, "settings cache set failed", err)
					return
				}
				// an Invalidate that raced the write must not leave the old value behind
				if a.generation(key) != gen {
					if err := a.cache.Delete(setCtx, key); err != nil {
						a.log.Warn(setCtx, "settings cache invalidate failed", err)
					}
				}
			}()
		}
		return v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", key, err)
	}
	return v.(json.RawMessage), nil
}

// Invalidate forgets key in both levels. A fetch already in flight still
// answers its callers but its value is not kept.
func (a *Accessor) Invalidate(ctx context.Context, key string) {
	a.mu.Lock()
	delete(a.memo, key)
	a.gens[key]++
	a.mu.Unlock()
	a.sfg.Forget(key)

	if a.cache == nil {
		return
	}
	if err := a.cache.Delete(ctx, key); err != nil {
		a.log.Warn(ctx, "settings cache invalidate failed", err)
	}
}

// Store decodes the storewide settings.
func (a *Accessor) Store(ctx context.Context) (domain.StoreSettings, error) {
	raw, err := a.Get(ctx, StoreKey)
	if err != nil {
		return domain.StoreSettings{}, err
	}
	var s domain.StoreSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.StoreSettings{}, pkgerrors.Wrap(pkgerrors.CodeServerRejected, err, pkgerrors.GenericFailureMessage)
	}
	return s, nil
}

func (a *Accessor) memoized(key string) (json.RawMessage, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.memo[key]
	return v, ok
}

func (a *Accessor) generation(key string) uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.gens[key]
}

// remember keeps v unless key was invalidated since gen was read.
func (a *Accessor) remember(key string, gen uint64, v json.RawMessage) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gens[key] != gen {
		return false
	}
	a.memo[key] = v
	return true
}
