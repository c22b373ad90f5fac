// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package database

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/aocrecs/internal/config"
	"github.com/tomtom215/aocrecs/internal/logging"
	"github.com/tomtom215/aocrecs/internal/metrics"
)

// ErrStoreUnavailable is returned while the breaker rejects requests.
var ErrStoreUnavailable = errors.New("database: store unavailable")

// Breaker wraps a Querier with a circuit breaker. Cancellations and empty
// results do not count as failures.
//
// The breaker uses real time for its interval and timeout; tests exercise
// it with short durations rather than a fake clock.
type Breaker struct {
	next Querier
	cb   *gobreaker.CircuitBreaker[[]Row]
	name string
}

// NewBreaker creates a breaker named name in front of next.
func NewBreaker(name string, next Querier, cfg config.BreakerConfig) *Breaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker[[]Row](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= threshold
			if trip {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoRows) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Breaker{next: next, cb: cb, name: name}
}

// FetchAll implements Querier.
func (b *Breaker) FetchAll(ctx context.Context, sql string, args map[string]any) ([]Row, error) {
	return b.execute(func() ([]Row, error) {
		return b.next.FetchAll(ctx, sql, args)
	})
}

// FetchOne implements Querier.
func (b *Breaker) FetchOne(ctx context.Context, sql string, args map[string]any) (Row, error) {
	rows, err := b.execute(func() ([]Row, error) {
		row, err := b.next.FetchOne(ctx, sql, args)
		if err != nil {
			return nil, err
		}
		return []Row{row}, nil
	})
	return firstRow(rows, err)
}

// State reports the breaker state for health checks.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) execute(fn func() ([]Row, error)) ([]Row, error) {
	rows, err := b.cb.Execute(fn)
	if err != nil && !errors.Is(err, ErrNoRows) {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return rows, err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
