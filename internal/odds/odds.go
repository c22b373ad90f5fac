// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

// Package odds computes empirical win rates for a proposed matchup.
//
// A matchup is a list of teams. For each scenario (teams, teams on a map,
// teams with their civilizations, ...) the engine finds every recorded match
// in which each team's exact member set played together on one side, then
// counts how often each team's member set was exactly the winning set.
package odds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/aocrecs/internal/cache"
	"github.com/tomtom215/aocrecs/internal/database"
	"github.com/tomtom215/aocrecs/internal/logging"
	"github.com/tomtom215/aocrecs/internal/metrics"
)

// ErrInvalidRequest marks malformed matchups.
var ErrInvalidRequest = errors.New("odds: invalid request")

// Scenario names one odds computation.
type Scenario string

// Scenarios, in the order they are computed.
const (
	ScenarioTeams                 Scenario = "teams"
	ScenarioTeamsAndMap           Scenario = "teams_and_map"
	ScenarioTeamsAndCivilizations Scenario = "teams_and_civilizations"
	ScenarioCivilizations         Scenario = "civilizations"
	ScenarioCivilizationsAndMap   Scenario = "civilizations_and_map"
)

// Member is one player slot in a proposed team.
type Member struct {
	UserID         string `json:"user_id" validate:"required"`
	CivilizationID *int64 `json:"civilization_id,omitempty"`
	Winner         bool   `json:"winner"`
}

// Request describes a matchup. TypeID is a pointer because 0 (random map)
// is a valid game type that must still be stated explicitly.
type Request struct {
	Teams   [][]Member `json:"teams" validate:"required,min=1,dive,min=1,dive"`
	TypeID  *int64     `json:"type_id" validate:"required"`
	MapName *string    `json:"map_name,omitempty"`
}

// TeamOdds is one team's record within a scenario.
type TeamOdds struct {
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Percent float64 `json:"percent"`
}

// Result maps each computed scenario to per-team odds in request team
// order. A nil slice means too few matches to say anything.
type Result map[Scenario][]TeamOdds

type scenario struct {
	name      Scenario
	users     bool
	civs      bool
	mapFilter bool
}

// Engine computes odds against a match store.
type Engine struct {
	store database.Querier
	cache *cache.Cache
	ttl   time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache memoizes each scenario for ttl.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.ttl = ttl
	}
}

// NewEngine creates an engine.
func NewEngine(store database.Querier, opts ...Option) *Engine {
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scenarios lists the scenarios applicable to req.
func Scenarios(req Request) []Scenario {
	plans := plan(req)
	out := make([]Scenario, len(plans))
	for i, p := range plans {
		out[i] = p.name
	}
	return out
}

func plan(req Request) []scenario {
	plans := []scenario{{name: ScenarioTeams, users: true}}
	hasMap := req.MapName != nil
	if hasMap {
		plans = append(plans, scenario{name: ScenarioTeamsAndMap, users: true, mapFilter: true})
	}
	multiCiv := distinctCivilizations(req.Teams) > 1
	if multiCiv {
		plans = append(plans,
			scenario{name: ScenarioTeamsAndCivilizations, users: true, civs: true},
			scenario{name: ScenarioCivilizations, civs: true},
		)
	}
	if hasMap && multiCiv {
		plans = append(plans, scenario{name: ScenarioCivilizationsAndMap, civs: true, mapFilter: true})
	}
	return plans
}

// distinctCivilizations counts distinct civilizations, or 0 when any member
// has none so civilization scenarios are skipped.
func distinctCivilizations(teams [][]Member) int {
	civs := map[int64]bool{}
	for _, team := range teams {
		for _, m := range team {
			if m.CivilizationID == nil {
				return 0
			}
			civs[*m.CivilizationID] = true
		}
	}
	return len(civs)
}

// Validate checks the matchup shape.
func (r Request) Validate() error {
	if len(r.Teams) == 0 {
		return fmt.Errorf("%w: no teams", ErrInvalidRequest)
	}
	if r.TypeID == nil {
		return fmt.Errorf("%w: type_id is required", ErrInvalidRequest)
	}
	for i, team := range r.Teams {
		if len(team) == 0 {
			return fmt.Errorf("%w: team %d is empty", ErrInvalidRequest, i)
		}
		for j, m := range team {
			if m.UserID == "" {
				return fmt.Errorf("%w: team %d member %d has no user_id", ErrInvalidRequest, i, j)
			}
		}
	}
	return nil
}

// Compute runs every applicable scenario concurrently. Any scenario failure
// fails the whole call.
func (e *Engine) Compute(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	plans := plan(req)
	results := make([][]TeamOdds, len(plans))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range plans {
		g.Go(func() error {
			res, _, err := cache.Do(gctx, e.cache, "odds", e.ttl, scenarioKey{Scenario: p.name, Request: req},
				func(ctx context.Context) ([]TeamOdds, error) {
					return e.scenario(ctx, req, p)
				})
			if err != nil {
				return fmt.Errorf("odds: scenario %s: %w", p.name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(Result, len(plans))
	for i, p := range plans {
		out[p.name] = results[i]
	}
	logging.Ctx(ctx).Debug().
		Int("scenarios", len(plans)).
		Dur("duration", time.Since(start)).
		Msg("Computed odds")
	return out, nil
}

type scenarioKey struct {
	Scenario Scenario `json:"scenario"`
	Request  Request  `json:"request"`
}

func (e *Engine) scenario(ctx context.Context, req Request, p scenario) ([]TeamOdds, error) {
	q := buildQuery(req, p)
	rows, err := e.store.FetchAll(ctx, q.sql, q.args)
	if err != nil {
		return nil, err
	}

	outcomes := make([]outcome, len(rows))
	for i, r := range rows {
		outcomes[i] = outcome{
			matchID: r.Int64("id"),
			winner:  r.Bool("winner"),
			key:     r.String("member_key"),
		}
	}

	res := reduce(outcomes, q.teamKeys)
	metrics.RecordOddsScenario(string(p.name), res == nil)
	return res, nil
}
