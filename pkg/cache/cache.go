// Package cache stores computed layouts and rendered artifacts.
//
// Laying out a model is deterministic, so results can be reused whenever the
// same model is laid out with the same options. The package provides the
// [Cache] interface, a [Keyer] that derives content-addressed keys, and
// several backends:
//
//   - [FileCache]: one file per entry, for the CLI
//   - [RedisCache]: shared cache for several layout servers
//   - [MongoCache]: persistent store with server-side expiry
//   - [NullCache]: caching disabled
//
// # Usage
//
//	c, err := cache.NewFileCache(dir)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	key := cache.NewDefaultKeyer().LayoutKey(cache.Hash(modelJSON), opts)
//	if data, ok, _ := c.Get(ctx, key); ok {
//	    return data, nil
//	}
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long layouts stay cached unless configured otherwise.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry. Get reports a miss as
// (nil, false, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}
