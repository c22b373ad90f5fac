// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/aocrecs/internal/config"
)

// Postgres queries the live match database through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool and pings it.
func NewPostgres(ctx context.Context, cfg *config.DatabaseConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// FetchAll implements Querier.
func (p *Postgres) FetchAll(ctx context.Context, sql string, args map[string]any) ([]Row, error) {
	rows, err := p.pool.Query(ctx, sql, pgx.NamedArgs(args))
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("postgres: collect rows: %w", err)
	}

	out := make([]Row, len(maps))
	for i, m := range maps {
		for k, v := range m {
			m[k] = normalizePgValue(v)
		}
		out[i] = Row(m)
	}
	return out, nil
}

// FetchOne implements Querier.
func (p *Postgres) FetchOne(ctx context.Context, sql string, args map[string]any) (Row, error) {
	return firstRow(p.FetchAll(ctx, sql, args))
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// normalizePgValue converts pgx's generic decodings of numeric and interval
// columns to plain Go values.
func normalizePgValue(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		if !t.Valid {
			return nil
		}
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Interval:
		if !t.Valid {
			return nil
		}
		days := int64(t.Months)*30 + int64(t.Days)
		return time.Duration(t.Microseconds)*time.Microsecond + time.Duration(days)*24*time.Hour
	case []any:
		for i := range t {
			t[i] = normalizePgValue(t[i])
		}
		return t
	default:
		return v
	}
}
