// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package database

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/aocrecs/internal/logging"
	"github.com/tomtom215/aocrecs/internal/metrics"
)

// Instrumented bounds each query by a timeout and records latency and
// errors per backend.
type Instrumented struct {
	next    Querier
	backend string
	timeout time.Duration
}

// NewInstrumented wraps next. A zero timeout disables the deadline.
func NewInstrumented(backend string, next Querier, timeout time.Duration) *Instrumented {
	return &Instrumented{next: next, backend: backend, timeout: timeout}
}

// FetchAll implements Querier.
func (q *Instrumented) FetchAll(ctx context.Context, sql string, args map[string]any) ([]Row, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := q.next.FetchAll(ctx, sql, args)
	q.observe(ctx, "fetch_all", start, err)
	return rows, err
}

// FetchOne implements Querier.
func (q *Instrumented) FetchOne(ctx context.Context, sql string, args map[string]any) (Row, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	row, err := q.next.FetchOne(ctx, sql, args)
	if errors.Is(err, ErrNoRows) {
		q.observe(ctx, "fetch_one", start, nil)
		return nil, err
	}
	q.observe(ctx, "fetch_one", start, err)
	return row, err
}

func (q *Instrumented) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, q.timeout)
}

func (q *Instrumented) observe(ctx context.Context, operation string, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.RecordStoreQuery(q.backend, operation, elapsed, err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("backend", q.backend).
			Str("operation", operation).
			Dur("duration", elapsed).
			Msg("Store query failed")
	}
}
