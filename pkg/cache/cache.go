// Package cache stores small byte blobs between CLI invocations.
//
// The CLI keeps two kinds of entries here: the subtree clipboard, which has
// to survive from one `mindmap copy` to the next `mindmap paste`, and
// rendered exports, which are keyed by a hash of the map content so an
// unchanged map is not rendered twice.
//
// Two implementations are provided: [FileCache] for the CLI and [NullCache]
// for tests or when caching is disabled.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrCacheMiss is returned by [GetJSON] when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a key/value store for opaque bytes.
type Cache interface {
	// Get returns the data stored under key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes the entry under key into v.
// It returns [ErrCacheMiss] when there is no entry.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, v)
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
