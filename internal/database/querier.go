// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package database

import (
	"context"
	"errors"
)

// ErrNoRows is returned by FetchOne when the query produced nothing.
var ErrNoRows = errors.New("database: no rows")

// Querier runs parameterized queries. args maps bind names (without the
// leading @) to values.
type Querier interface {
	FetchAll(ctx context.Context, sql string, args map[string]any) ([]Row, error)
	FetchOne(ctx context.Context, sql string, args map[string]any) (Row, error)
}

// firstRow adapts a FetchAll result to FetchOne semantics.
func firstRow(rows []Row, err error) (Row, error) {
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows[0], nil
}
