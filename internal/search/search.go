// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

// Package search executes match searches compiled by the query package.
//
// Hits runs the page and count queries of one search concurrently and
// caches the pair under the request parameters. MatchFlags answers the
// other direction: given one match, which players raised which evidence
// flags and when.
package search

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/aocrecs/internal/cache"
	"github.com/tomtom215/aocrecs/internal/database"
	"github.com/tomtom215/aocrecs/internal/database/query"
	"github.com/tomtom215/aocrecs/internal/logging"
	"github.com/tomtom215/aocrecs/internal/metrics"
)

// Params is a search request.
type Params struct {
	Criteria query.CriteriaGroup `json:"criteria"`
	Flags    []string            `json:"flags,omitempty"`
	Order    []string            `json:"order,omitempty"`
	Offset   int                 `json:"offset" validate:"gte=0"`
	Limit    int                 `json:"limit" validate:"gte=0"`
}

// Hits is one page of matching match ids and the total count.
type Hits struct {
	Count    int64   `json:"count"`
	MatchIDs []int64 `json:"match_ids"`
}

// Flag describes a flag a search may require. Evidence flags are also
// reported per player by MatchFlags.
type Flag struct {
	Alias    string `json:"alias"`
	Name     string `json:"name"`
	Evidence bool   `json:"evidence"`
}

// Evidence is one occurrence of a flagged behaviour.
type Evidence struct {
	Timestamp time.Duration `json:"timestamp"`
	Value     *string       `json:"value"`
}

// PlayerFlag is a flag raised for one player of a match.
type PlayerFlag struct {
	Number   int        `json:"number"`
	Type     string     `json:"type"`
	Name     string     `json:"name"`
	Count    int        `json:"count"`
	Evidence []Evidence `json:"evidence"`
}

// evidenceConcurrency bounds the evidence queries one match lookup runs at
// once so a single request cannot drain the store pool.
const evidenceConcurrency = 4

// Service runs searches against a store.
type Service struct {
	builder *query.SearchBuilder
	store   database.Querier
	cache   *cache.Cache
	ttl     time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithCache memoizes hits for ttl.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// NewService creates a Service.
func NewService(builder *query.SearchBuilder, store database.Querier, opts ...Option) *Service {
	s := &Service{builder: builder, store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hits runs the page and count queries for p concurrently. Invalid criteria
// are reported before the store is touched.
func (s *Service) Hits(ctx context.Context, p Params) (*Hits, error) {
	compiled, err := s.builder.Build(p.Criteria, p.Flags, p.Order, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}

	hits, cached, err := cache.Do(ctx, s.cache, "search", s.ttl, p, func(ctx context.Context) (*Hits, error) {
		return s.run(ctx, compiled)
	})
	if err != nil {
		return nil, err
	}
	if !cached {
		for _, f := range p.Flags {
			metrics.SearchFlagJoins.WithLabelValues(f).Inc()
		}
	}
	logging.Ctx(ctx).Debug().
		Int64("count", hits.Count).
		Int("page", len(hits.MatchIDs)).
		Bool("cached", cached).
		Msg("Search executed")
	return hits, nil
}

func (s *Service) run(ctx context.Context, cs *query.CompiledSearch) (*Hits, error) {
	var (
		page  []database.Row
		count database.Row
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = s.store.FetchAll(gctx, cs.PageSQL, cs.Args)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.store.FetchOne(gctx, cs.CountSQL, cs.Args)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := &Hits{Count: count.Int64("count"), MatchIDs: make([]int64, len(page))}
	for i, r := range page {
		hits.MatchIDs[i] = r.Int64("id")
	}
	return hits, nil
}

// Flags lists the flags searches may require, in catalog order.
func (s *Service) Flags() []Flag {
	fragments := s.builder.Registry().Flags()
	out := make([]Flag, len(fragments))
	for i, f := range fragments {
		out[i] = Flag{Alias: f.Alias, Name: f.Name, Evidence: f.Evidence}
	}
	return out
}

// MatchFlags runs every evidence flag against one match and reports, per
// player, the flags raised with their timestamped evidence. Players are in
// number order; flags keep catalog order within a player.
func (s *Service) MatchFlags(ctx context.Context, matchID int64) ([]PlayerFlag, error) {
	key := struct {
		MatchID int64 `json:"match_id"`
	}{matchID}
	out, _, err := cache.Do(ctx, s.cache, "match_flags", s.ttl, key, func(ctx context.Context) ([]PlayerFlag, error) {
		queries, err := s.builder.Registry().EvidenceQueries([]int64{matchID})
		if err != nil {
			return nil, err
		}

		results := make([][]database.Row, len(queries))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(evidenceConcurrency)
		for i, q := range queries {
			g.Go(func() error {
				rows, err := s.store.FetchAll(gctx, q.SQL, q.Args)
				if err != nil {
					return fmt.Errorf("flag %s: %w", q.Flag.Alias, err)
				}
				results[i] = rows
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("match %d flags: %w", matchID, err)
		}

		flags := []PlayerFlag{}
		for i, q := range queries {
			byPlayer := map[int]int{}
			for _, r := range results[i] {
				number := r.Int("number")
				idx, ok := byPlayer[number]
				if !ok {
					idx = len(flags)
					byPlayer[number] = idx
					flags = append(flags, PlayerFlag{Number: number, Type: q.Flag.Alias, Name: q.Flag.Name})
				}
				flags[idx].Count++
				flags[idx].Evidence = append(flags[idx].Evidence, Evidence{
					Timestamp: r.Duration("timestamp"),
					Value:     r.NullableString("value"),
				})
			}
		}
		slices.SortStableFunc(flags, func(a, b PlayerFlag) int { return a.Number - b.Number })
		return flags, nil
	})
	return out, err
}
