// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

// Package cache memoizes query results.
//
// Results are serialized with go-json and stored in one of three backends:
// an in-process LRU (default), Redis (shared between replicas) or Badger (an
// on-disk cache that survives restarts). Do provides the cache-first flow
// used by the search, odds and report services.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/aocrecs/internal/config"
)

// Backend stores opaque values with a TTL.
type Backend interface {
	// Get returns the value and true when present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Close() error
}

// NewBackend builds the backend selected in cfg. The "none" backend
// returns nil, which disables caching.
func NewBackend(ctx context.Context, cfg *config.CacheConfig) (Backend, error) {
	switch cfg.Backend {
	case config.CacheMemory, "":
		return NewMemory(DefaultMemoryCapacity), nil
	case config.CacheRedis:
		return NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case config.CacheBadger:
		return NewBadger(cfg.BadgerPath)
	case config.CacheNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*Redis)(nil)
	_ Backend = (*Badger)(nil)
)
