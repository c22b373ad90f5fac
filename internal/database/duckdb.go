// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"runtime"
	"time"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/aocrecs/internal/config"
)

// DuckDB queries a read-only snapshot of the match database.
type DuckDB struct {
	conn *sql.DB
}

// NewDuckDB opens the snapshot at cfg.DuckDBPath in read-only mode.
func NewDuckDB(ctx context.Context, cfg *config.DatabaseConfig) (*DuckDB, error) {
	threads := cfg.DuckDBThreads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	// Extensions are never needed for snapshot reads; auto-loading can hang
	// in restricted networks.
	connStr := fmt.Sprintf("%s?access_mode=read_only&threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.DuckDBPath, threads)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("duckdb: open: %w", err)
	}
	conn.SetMaxOpenConns(threads)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("duckdb: ping: %w", err)
	}
	return &DuckDB{conn: conn}, nil
}

// FetchAll implements Querier.
func (d *DuckDB) FetchAll(ctx context.Context, query string, args map[string]any) ([]Row, error) {
	rewritten, named, err := toDuckDB(query, args)
	if err != nil {
		return nil, err
	}

	rows, err := d.conn.QueryContext(ctx, rewritten, named...)
	if err != nil {
		return nil, fmt.Errorf("duckdb: query: %w", err)
	}
	defer closeQuietly(rows)

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("duckdb: columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("duckdb: scan: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = normalizeDuckValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("duckdb: rows: %w", err)
	}
	return out, nil
}

// FetchOne implements Querier.
func (d *DuckDB) FetchOne(ctx context.Context, query string, args map[string]any) (Row, error) {
	return firstRow(d.FetchAll(ctx, query, args))
}

// Ping checks the snapshot is readable.
func (d *DuckDB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (d *DuckDB) Close() error {
	return d.conn.Close()
}

func normalizeDuckValue(v any) any {
	switch t := v.(type) {
	case duckdb.Interval:
		days := int64(t.Months)*30 + int64(t.Days)
		return time.Duration(t.Micros)*time.Microsecond + time.Duration(days)*24*time.Hour
	case duckdb.Decimal:
		if t.Value == nil {
			return nil
		}
		f := new(big.Float).SetInt(t.Value)
		f.Quo(f, new(big.Float).SetFloat64(pow10(int(t.Scale))))
		out, _ := f.Float64()
		return out
	case *big.Int:
		if t.IsInt64() {
			return t.Int64()
		}
		out, _ := new(big.Float).SetInt(t).Float64()
		return out
	case []any:
		for i := range t {
			t[i] = normalizeDuckValue(t[i])
		}
		return t
	default:
		return v
	}
}

func pow10(n int) float64 {
	f := 1.0
	for range n {
		f *= 10
	}
	return f
}
