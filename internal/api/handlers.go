// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package api

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tomtom215/aocrecs/internal/blob"
	"github.com/tomtom215/aocrecs/internal/config"
	"github.com/tomtom215/aocrecs/internal/odds"
	"github.com/tomtom215/aocrecs/internal/participants"
	"github.com/tomtom215/aocrecs/internal/ranking"
	"github.com/tomtom215/aocrecs/internal/search"
)

// Searcher runs match searches.
type Searcher interface {
	Hits(ctx context.Context, p search.Params) (*search.Hits, error)
	Flags() []search.Flag
	MatchFlags(ctx context.Context, matchID int64) ([]search.PlayerFlag, error)
}

// OddsComputer computes matchup odds.
type OddsComputer interface {
	Compute(ctx context.Context, req odds.Request) (odds.Result, error)
}

// SeriesLoader loads tournament series and events.
type SeriesLoader interface {
	Series(ctx context.Context, id string) (*participants.Series, error)
	Events(ctx context.Context) ([]participants.EventSummary, error)
	Event(ctx context.Context, id string) (*participants.EventDetail, error)
}

// Ranker answers ladder and report queries.
type Ranker interface {
	Ranks(ctx context.Context, platformID string, ladderID int64, limit int) ([]ranking.LadderRank, error)
	UserRank(ctx context.Context, userID, platformID string, ladderID int64) (*ranking.LadderRank, error)
	Streak(ctx context.Context, userID, platformID string, ladderID int64) (*int, error)
	Ladders(ctx context.Context, platformID string, ladderIDs []int64) ([]ranking.Ladder, error)
	MetaRanks(ctx context.Context, userID, platformID string, ladderIDs []int64) ([]ranking.MetaRank, error)
	RateByDay(ctx context.Context, userID, platformID string, ladderID int64) ([]ranking.DailyRate, error)
	AvailableReports() []ranking.Month
	Rankings(ctx context.Context, platformID string, ladderID int64, month ranking.Month, limit int) ([]ranking.Ranked[ranking.Standing], error)
	PopularMaps(ctx context.Context, month ranking.Month, limit int) ([]ranking.Ranked[ranking.MapShare], error)
	MostImprovement(ctx context.Context, platformID string, ladderID int64, month ranking.Month, limit int) ([]ranking.Improvement, error)
	Summary(ctx context.Context, month ranking.Month, limit int) (*ranking.Report, error)
}

// Archiver packages recs for download.
type Archiver interface {
	Archive(ctx context.Context, fileID int64) (*blob.Archive, error)
}

// HealthChecker reports store health.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Backend() string
	BreakerState() string
}

// Services are the dependencies of the HTTP handlers. Downloads may be nil
// when no storage is configured.
type Services struct {
	Search       Searcher
	Odds         OddsComputer
	Participants SeriesLoader
	Ranking      Ranker
	Downloads    Archiver
	Health       HealthChecker
}

// Handler serves the JSON API.
type Handler struct {
	svc       Services
	config    *config.Config
	startTime time.Time
	draining  atomic.Bool
}

// NewHandler creates a Handler.
func NewHandler(svc Services, cfg *config.Config) *Handler {
	return &Handler{svc: svc, config: cfg, startTime: time.Now()}
}

// StartDraining makes readiness fail so load balancers stop routing here
// while in-flight requests finish.
func (h *Handler) StartDraining() {
	h.draining.Store(true)
}
