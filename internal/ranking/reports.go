// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package ranking

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/aocrecs/internal/cache"
	"github.com/tomtom215/aocrecs/internal/database"
)

// MapShare is a map's share of the matches played in a month.
type MapShare struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

// Improvement is a user's rating gain over a month.
type Improvement struct {
	Rank     int   `json:"rank"`
	User     User  `json:"user"`
	MinRate  int64 `json:"min_rate"`
	MaxRate  int64 `json:"max_rate"`
	DiffRate int64 `json:"diff_rate"`
	Count    int64 `json:"count"`
	Wins     int64 `json:"wins"`
	Losses   int64 `json:"losses"`
}

// MatchCount is a user ranked by matches played.
type MatchCount struct {
	Rank  int   `json:"rank"`
	User  User  `json:"user"`
	Count int64 `json:"count"`
}

// Report summarizes one month.
type Report struct {
	Year            int                `json:"year"`
	Month           int                `json:"month"`
	TotalMatches    int64              `json:"total_matches"`
	TotalPlayers    int64              `json:"total_players"`
	MostMatches     []MatchCount       `json:"most_matches"`
	PopularMaps     []Ranked[MapShare] `json:"popular_maps"`
	LongestMatchIDs []int64            `json:"longest_match_ids"`
}

const (
	inMonth = `extract(year FROM matches.played) = @year AND extract(month FROM matches.played) = @month`

	totalMatchesSQL = `SELECT count(*) AS count FROM matches WHERE ` + inMonth

	totalPlayersSQL = `SELECT count(DISTINCT players.user_id) AS count
FROM matches JOIN players ON matches.id = players.match_id
WHERE ` + inMonth

	mostMatchesSQL = `SELECT players.user_id, players.platform_id, players.user_name, count(matches.id) AS count
FROM players JOIN matches ON players.match_id = matches.id
WHERE players.user_id != '' AND ` + inMonth + `
GROUP BY players.user_id, players.platform_id, players.user_name
ORDER BY count(matches.id) DESC
LIMIT @limit`

	popularMapsSQL = `SELECT matches.map_name AS name, count(matches.map_name) AS count
FROM matches
WHERE ` + inMonth + `
GROUP BY matches.map_name
ORDER BY count(matches.map_name) DESC, matches.map_name`

	longestMatchesSQL = `SELECT matches.id FROM matches WHERE ` + inMonth + ` ORDER BY matches.duration DESC LIMIT @limit`

	improvementSQL = `SELECT max(players.user_id) AS user_id, max(players.user_name) AS user_name, max(players.name) AS name,
	min(players.rate_snapshot) AS min_rate, max(players.rate_snapshot) AS max_rate,
	max(players.rate_snapshot) - min(players.rate_snapshot) AS diff_rate,
	count(matches.id) AS count,
	sum(CASE WHEN players.winner IS TRUE THEN 1 ELSE 0 END) AS wins,
	sum(CASE WHEN players.winner IS TRUE THEN 0 ELSE 1 END) AS losses
FROM matches JOIN players ON matches.id = players.match_id
WHERE ` + inMonth + `
	AND players.user_id != '' AND players.rate_snapshot > 0
	AND matches.ladder_id = @ladder_id AND matches.platform_id = @platform_id
GROUP BY players.user_id
HAVING sum(CASE WHEN players.winner IS TRUE THEN 1 ELSE 0 END) > sum(CASE WHEN players.winner IS TRUE THEN 0 ELSE 1 END)
ORDER BY max(players.rate_snapshot) - min(players.rate_snapshot) DESC
LIMIT @limit`
)

type reportKey struct {
	PlatformID string `json:"platform_id,omitempty"`
	LadderID   int64  `json:"ladder_id,omitempty"`
	Month      Month  `json:"month"`
	Limit      int    `json:"limit"`
}

// AvailableReports lists every completed month since collection started,
// newest first.
func (s *Service) AvailableReports() []Month {
	now := s.now()
	current := Month{Year: now.Year(), Month: now.Month()}
	var out []Month
	for m := CollectionStarted; m.Before(current); {
		out = append(out, m)
		if m.Month == 12 {
			m = Month{Year: m.Year + 1, Month: 1}
		} else {
			m = Month{Year: m.Year, Month: m.Month + 1}
		}
	}
	slices.Reverse(out)
	return out
}

// Rankings returns the top limit standings of a ladder over month, with
// each user's movement since the previous month.
func (s *Service) Rankings(ctx context.Context, platformID string, ladderID int64, month Month, limit int) ([]Ranked[Standing], error) {
	if err := month.Validate(s.now()); err != nil {
		return nil, err
	}
	prev := month.Previous()

	var current, previous []Standing
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.standings(gctx, platformID, ladderID, &month)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.standings(gctx, platformID, ladderID, &prev)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	current = current[:min(max(limit, 0), len(current))]
	return slices.Collect(Diff(current, previous, func(st Standing) string { return st.User.ID })), nil
}

// PopularMaps returns the limit most played maps of month, with each map's
// movement since the previous month.
func (s *Service) PopularMaps(ctx context.Context, month Month, limit int) ([]Ranked[MapShare], error) {
	if err := month.Validate(s.now()); err != nil {
		return nil, err
	}
	key := reportKey{Month: month, Limit: limit}
	out, _, err := cache.Do(ctx, s.cache, "report_maps", s.reportTTL, key, func(ctx context.Context) ([]Ranked[MapShare], error) {
		var current, previous []MapShare
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			current, err = s.mapShares(gctx, month)
			return err
		})
		g.Go(func() error {
			var err error
			previous, err = s.mapShares(gctx, month.Previous())
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		current = current[:min(max(limit, 0), len(current))]
		return slices.Collect(Diff(current, previous, func(m MapShare) string { return m.Name })), nil
	})
	return out, err
}

func (s *Service) mapShares(ctx context.Context, month Month) ([]MapShare, error) {
	rows, err := s.store.FetchAll(ctx, popularMapsSQL, month.binds())
	if err != nil {
		return nil, fmt.Errorf("popular maps: %w", err)
	}
	return computeShares(rows), nil
}

func computeShares(rows []database.Row) []MapShare {
	var total int64
	for _, r := range rows {
		total += r.Int64("count")
	}
	out := make([]MapShare, len(rows))
	for i, r := range rows {
		out[i] = MapShare{Name: r.String("name"), Count: r.Int64("count")}
		if total > 0 {
			out[i].Percent = float64(out[i].Count) / float64(total)
		}
	}
	return out
}

// MostImprovement ranks users with a winning record in month by how far
// their rating climbed.
func (s *Service) MostImprovement(ctx context.Context, platformID string, ladderID int64, month Month, limit int) ([]Improvement, error) {
	if err := month.Validate(s.now()); err != nil {
		return nil, err
	}
	key := reportKey{PlatformID: platformID, LadderID: ladderID, Month: month, Limit: limit}
	out, _, err := cache.Do(ctx, s.cache, "report_improvement", s.reportTTL, key, func(ctx context.Context) ([]Improvement, error) {
		args := month.binds()
		args["platform_id"] = platformID
		args["ladder_id"] = ladderID
		args["limit"] = max(limit, 0)

		rows, err := s.store.FetchAll(ctx, improvementSQL, args)
		if err != nil {
			return nil, fmt.Errorf("most improvement: %w", err)
		}
		out := make([]Improvement, len(rows))
		for i, r := range rows {
			out[i] = Improvement{
				Rank:     i + 1,
				User:     User{ID: r.String("user_id"), Name: displayName(r), PlatformID: platformID},
				MinRate:  r.Int64("min_rate"),
				MaxRate:  r.Int64("max_rate"),
				DiffRate: r.Int64("diff_rate"),
				Count:    r.Int64("count"),
				Wins:     r.Int64("wins"),
				Losses:   r.Int64("losses"),
			}
		}
		return out, nil
	})
	return out, err
}

// Summary builds the monthly report.
func (s *Service) Summary(ctx context.Context, month Month, limit int) (*Report, error) {
	if err := month.Validate(s.now()); err != nil {
		return nil, err
	}
	key := reportKey{Month: month, Limit: limit}
	out, _, err := cache.Do(ctx, s.cache, "report_summary", s.reportTTL, key, func(ctx context.Context) (*Report, error) {
		args := month.binds()
		limited := month.binds()
		limited["limit"] = max(limit, 0)

		var (
			matches, players database.Row
			most, maps, long []database.Row
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) { matches, err = s.store.FetchOne(gctx, totalMatchesSQL, args); return })
		g.Go(func() (err error) { players, err = s.store.FetchOne(gctx, totalPlayersSQL, args); return })
		g.Go(func() (err error) { most, err = s.store.FetchAll(gctx, mostMatchesSQL, limited); return })
		g.Go(func() (err error) { maps, err = s.store.FetchAll(gctx, popularMapsSQL, args); return })
		g.Go(func() (err error) { long, err = s.store.FetchAll(gctx, longestMatchesSQL, limited); return })
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("monthly report %d-%02d: %w", month.Year, month.Month, err)
		}

		report := &Report{
			Year:            month.Year,
			Month:           int(month.Month),
			TotalMatches:    matches.Int64("count"),
			TotalPlayers:    players.Int64("count"),
			MostMatches:     make([]MatchCount, len(most)),
			LongestMatchIDs: make([]int64, len(long)),
		}
		for i, r := range most {
			name := r.String("user_name")
			report.MostMatches[i] = MatchCount{
				Rank:  i + 1,
				User:  User{ID: r.String("user_id"), Name: name, PlatformID: r.String("platform_id")},
				Count: r.Int64("count"),
			}
		}
		shares := computeShares(maps)
		shares = shares[:min(max(limit, 0), len(shares))]
		report.PopularMaps = slices.Collect(Diff(shares, nil, func(m MapShare) string { return m.Name }))
		for i, r := range long {
			report.LongestMatchIDs[i] = r.Int64("id")
		}
		return report, nil
	})
	return out, err
}
