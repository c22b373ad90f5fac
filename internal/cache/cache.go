// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aocrecs/internal/logging"
	"github.com/tomtom215/aocrecs/internal/metrics"
)

// Cache is the cache-first front over a Backend. A nil *Cache disables
// caching: Do always calls through.
type Cache struct {
	backend    Backend
	defaultTTL time.Duration
}

// New wraps backend. A nil backend yields a nil *Cache.
func New(backend Backend, defaultTTL time.Duration) *Cache {
	if backend == nil {
		return nil
	}
	return &Cache{backend: backend, defaultTTL: defaultTTL}
}

// Close releases the backend.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.backend.Close()
}

// Do returns the cached value for (namespace, params) or computes it with
// fn and stores it for ttl (the default TTL when zero). The bool reports a
// cache hit. Backend failures are logged and never fail the call.
func Do[T any](ctx context.Context, c *Cache, namespace string, ttl time.Duration, params any, fn func(context.Context) (T, error)) (T, bool, error) {
	if c == nil {
		v, err := fn(ctx)
		return v, false, err
	}

	key := GenerateKey(namespace, params)
	if data, ok, err := c.backend.Get(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache read failed")
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			metrics.RecordCacheLookup(namespace, true)
			return v, true, nil
		}
		logging.Ctx(ctx).Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	}
	metrics.RecordCacheLookup(namespace, false)

	v, err := fn(ctx)
	if err != nil {
		return v, false, err
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache encode failed")
		return v, false, nil
	}
	if err := c.backend.Set(ctx, key, data, ttl); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return v, false, nil
}

// GenerateKey creates a cache key from a namespace and parameters.
func GenerateKey(namespace string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", namespace, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", namespace, hash[:16])
}
