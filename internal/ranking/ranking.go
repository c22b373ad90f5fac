// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

// Package ranking builds meta-ladder standings and monthly reports.
//
// A meta ladder ranks every rated user by the rating they finished their
// most recent match with. Monthly reports compare one month against the
// previous one with Diff.
package ranking

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/aocrecs/internal/cache"
	"github.com/tomtom215/aocrecs/internal/database"
)

// CollectionStarted is the first month with recorded matches.
var CollectionStarted = Month{Year: 2019, Month: time.May}

// ErrInvalidMonth is returned for months outside the collected range.
var ErrInvalidMonth = errors.New("ranking: invalid month")

// Month is a calendar month.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Previous returns the month before m.
func (m Month) Previous() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	return m.Year < o.Year || (m.Year == o.Year && m.Month < o.Month)
}

// Validate rejects months before collection started and months that are
// not over yet, so only completed months are ever reported and cached.
func (m Month) Validate(now time.Time) error {
	if m.Month < time.January || m.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidMonth, m.Month)
	}
	current := Month{Year: now.Year(), Month: now.Month()}
	if m.Before(CollectionStarted) || !m.Before(current) {
		return fmt.Errorf("%w: %d-%02d", ErrInvalidMonth, m.Year, m.Month)
	}
	return nil
}

func (m Month) binds() map[string]any {
	return map[string]any{"year": m.Year, "month": int(m.Month)}
}

// User identifies a ranked account.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PlatformID string `json:"platform_id"`
}

func displayName(r database.Row) string {
	if name := r.String("user_name"); name != "" {
		return name
	}
	return r.String("name")
}

// Service answers ladder and report queries.
type Service struct {
	store     database.Querier
	cache     *cache.Cache
	ladderTTL time.Duration
	reportTTL time.Duration
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache memoizes ladder computations for ladderTTL and reports for
// reportTTL.
func WithCache(c *cache.Cache, ladderTTL, reportTTL time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ladderTTL = ladderTTL
		s.reportTTL = reportTTL
	}
}

// WithClock overrides the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service.
func NewService(store database.Querier, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
