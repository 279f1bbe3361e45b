package settings

import (
	"context"
	"encoding/json"
	"errors"
)

// Cache is the shared second level behind the in-process memo.
type Cache interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
