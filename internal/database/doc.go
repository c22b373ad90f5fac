// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

/*
Package database is the read-only data layer over the match database.

Every query goes through Querier, which takes SQL with @name binds and a
map of arguments and returns rows as column maps:

	rows, err := store.FetchAll(ctx,
	    `SELECT id FROM matches WHERE map_name = ANY(@maps)`,
	    map[string]any{"maps": []string{"Arabia"}})

Two backends implement it:

  - Postgres (pgx pool, pgx.NamedArgs): the live match database
  - DuckDB (duckdb-go): a read-only snapshot file; binds are rewritten to
    positional parameters and ANY(@x) becomes list_contains

Open layers the chosen backend as

	Store -> Breaker (sony/gobreaker, optional) -> Instrumented -> backend

Instrumented applies the per-query timeout and records Prometheus latency
and error metrics. The breaker fails fast with ErrStoreUnavailable once the
backend keeps failing; ErrNoRows and caller cancellations do not count as
failures.

Row accessors (Int64, NullableString, Duration, ...) normalize driver types
so services never switch on backend-specific values.

Search SQL is compiled in the query subpackage.
*/
package database
