// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package database

import (
	"database/sql"
	"fmt"
	"regexp"
)

var (
	anyPattern      = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_.]*) = ANY\(@([A-Za-z_][A-Za-z0-9_]*)\)`)
	bindPattern     = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)`)
	intervalPattern = regexp.MustCompile(`::interval\(\d+\)`)
)

// toDuckDB rewrites Postgres-dialect SQL with @name binds into DuckDB SQL
// with $name binds, returning the named arguments it references in order
// of first use.
//
//	x = ANY(@ids)      -> list_contains($ids, x)
//	t::interval(0)     -> t::interval
func toDuckDB(query string, args map[string]any) (string, []any, error) {
	query = anyPattern.ReplaceAllString(query, "list_contains(@$2, $1)")
	query = intervalPattern.ReplaceAllString(query, "::interval")

	var named []any
	seen := map[string]bool{}
	for _, m := range bindPattern.FindAllStringSubmatch(query, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		v, ok := args[name]
		if !ok {
			return "", nil, fmt.Errorf("duckdb: missing value for bind %q", name)
		}
		named = append(named, sql.Named(name, v))
	}

	return bindPattern.ReplaceAllString(query, "$$$1"), named, nil
}
