// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package database

import (
	"context"
	"fmt"
	"io"

	"github.com/tomtom215/aocrecs/internal/config"
	"github.com/tomtom215/aocrecs/internal/logging"
)

type backend interface {
	Querier
	io.Closer
	Ping(ctx context.Context) error
}

// Store is the Querier handed to the rest of the application.
type Store struct {
	Querier
	backend backend
	name    string
	breaker *Breaker
}

// Open connects the configured backend and wraps it with instrumentation
// and, when enabled, a circuit breaker.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	var b backend
	var err error
	switch cfg.Backend {
	case config.BackendPostgres:
		b, err = NewPostgres(ctx, cfg)
	case config.BackendDuckDB:
		b, err = NewDuckDB(ctx, cfg)
	default:
		return nil, fmt.Errorf("database: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	s := newStore(cfg.Backend, b, cfg)
	logging.Info().
		Str("backend", cfg.Backend).
		Bool("breaker", cfg.Breaker.Enabled).
		Dur("query_timeout", cfg.QueryTimeout).
		Msg("Match store ready")
	return s, nil
}

func newStore(name string, b backend, cfg *config.DatabaseConfig) *Store {
	s := &Store{backend: b, name: name}
	var q Querier = NewInstrumented(name, b, cfg.QueryTimeout)
	if cfg.Breaker.Enabled {
		s.breaker = NewBreaker("store-"+name, q, cfg.Breaker)
		q = s.breaker
	}
	s.Querier = q
	return s
}

// Backend names the underlying store.
func (s *Store) Backend() string {
	return s.name
}

// Ping checks the backend directly, bypassing the breaker so health
// checks can observe recovery.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// BreakerState is "closed", "half-open", "open" or "disabled".
func (s *Store) BreakerState() string {
	if s.breaker == nil {
		return "disabled"
	}
	return s.breaker.State().String()
}

// Close releases the backend.
func (s *Store) Close() error {
	closeWithLog(s.backend, "match store")
	return nil
}
