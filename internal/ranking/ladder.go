// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package ranking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/aocrecs/internal/cache"
	"github.com/tomtom215/aocrecs/internal/database"
)

// Standing is a user's latest rating on a ladder.
type Standing struct {
	User   User  `json:"user"`
	Rating int64 `json:"rating"`
}

// LadderRank is a standing at its position on the ladder.
type LadderRank struct {
	Rank     int   `json:"rank"`
	Rating   int64 `json:"rating"`
	User     User  `json:"user"`
	LadderID int64 `json:"ladder_id"`
}

// Ladder is a platform ladder.
type Ladder struct {
	ID         int64  `json:"id"`
	PlatformID string `json:"platform_id"`
	Name       string `json:"name"`
}

// MetaRank is a user's position on one ladder of a cross-ladder lookup.
type MetaRank struct {
	Ladder Ladder `json:"ladder"`
	Rank   int    `json:"rank"`
	Rating int64  `json:"rating"`
	User   User   `json:"user"`
}

// DailyRate is the best rating a user finished a match with on one day.
type DailyRate struct {
	Date   string `json:"date"`
	Rating int64  `json:"rating"`
}

// The inner query picks each user's most recent rated match; an optional
// month filter is spliced in before its GROUP BY.
const (
	standingsHead = `SELECT players.user_id, players.name, players.user_name, players.rate_after AS rating
FROM players
JOIN matches ON players.match_id = matches.id
JOIN (
	SELECT players.user_id, max(matches.played) AS maxdate
	FROM players JOIN matches ON players.match_id = matches.id
	WHERE players.platform_id = @platform_id AND players.rate_after > 0 AND matches.ladder_id = @ladder_id`

	monthFilter = `
	AND extract(year FROM matches.played) = @year AND extract(month FROM matches.played) = @month`

	standingsTail = `
	GROUP BY players.user_id
) AS latest ON players.user_id = latest.user_id AND matches.played = latest.maxdate
WHERE matches.platform_id = @platform_id AND matches.ladder_id = @ladder_id AND players.rate_after > 0
ORDER BY players.rate_after DESC`

	streakSQL = `SELECT (CASE WHEN players.winner IS TRUE THEN count(players.match_id) ELSE -1 * count(players.match_id) END) AS streak
FROM players JOIN matches ON matches.id = players.match_id
WHERE matches.played > (
	SELECT max(matches.played) AS boundary
	FROM matches JOIN players ON matches.id = players.match_id
	WHERE players.user_id = @user_id AND matches.platform_id = @platform_id AND matches.ladder_id = @ladder_id
	GROUP BY players.winner
	ORDER BY max(matches.played)
	LIMIT 1
) AND players.user_id = @user_id AND matches.platform_id = @platform_id AND matches.ladder_id = @ladder_id
GROUP BY players.winner
LIMIT 1`

	rateByDaySQL = `SELECT CAST(matches.played AS DATE) AS day, max(players.rate_after) AS rating
FROM players JOIN matches ON players.match_id = matches.id
WHERE players.user_id = @user_id AND players.platform_id = @platform_id AND matches.ladder_id = @ladder_id
	AND matches.played IS NOT NULL AND matches.played >= @since AND matches.played < @until
GROUP BY CAST(matches.played AS DATE)
ORDER BY day`

	laddersSQL = `SELECT id, platform_id, name FROM ladders WHERE platform_id = @platform_id AND id = ANY(@ladder_ids) ORDER BY id`
)

type standingsKey struct {
	PlatformID string `json:"platform_id"`
	LadderID   int64  `json:"ladder_id"`
	Month      *Month `json:"month,omitempty"`
}

// standings ranks every rated user on a ladder, optionally only over
// matches played in month.
func (s *Service) standings(ctx context.Context, platformID string, ladderID int64, month *Month) ([]Standing, error) {
	key := standingsKey{PlatformID: platformID, LadderID: ladderID, Month: month}
	out, _, err := cache.Do(ctx, s.cache, "ladder", s.ladderTTL, key, func(ctx context.Context) ([]Standing, error) {
		sql := standingsHead
		args := map[string]any{"platform_id": platformID, "ladder_id": ladderID}
		if month != nil {
			sql += monthFilter
			for k, v := range month.binds() {
				args[k] = v
			}
		}
		sql += standingsTail

		rows, err := s.store.FetchAll(ctx, sql, args)
		if err != nil {
			return nil, fmt.Errorf("ladder standings: %w", err)
		}
		standings := make([]Standing, len(rows))
		for i, r := range rows {
			standings[i] = Standing{
				User:   User{ID: r.String("user_id"), Name: displayName(r), PlatformID: platformID},
				Rating: r.Int64("rating"),
			}
		}
		return standings, nil
	})
	return out, err
}

// Ranks returns the top limit standings of a ladder.
func (s *Service) Ranks(ctx context.Context, platformID string, ladderID int64, limit int) ([]LadderRank, error) {
	standings, err := s.standings(ctx, platformID, ladderID, nil)
	if err != nil {
		return nil, err
	}
	standings = standings[:min(max(limit, 0), len(standings))]
	out := make([]LadderRank, len(standings))
	for i, st := range standings {
		out[i] = LadderRank{Rank: i + 1, Rating: st.Rating, User: st.User, LadderID: ladderID}
	}
	return out, nil
}

// UserRank returns userID's position on a ladder, or nil when unranked.
func (s *Service) UserRank(ctx context.Context, userID, platformID string, ladderID int64) (*LadderRank, error) {
	standings, err := s.standings(ctx, platformID, ladderID, nil)
	if err != nil {
		return nil, err
	}
	for i, st := range standings {
		if st.User.ID == userID {
			return &LadderRank{Rank: i + 1, Rating: st.Rating, User: st.User, LadderID: ladderID}, nil
		}
	}
	return nil, nil
}

// Streak returns userID's current run on a ladder: positive for wins,
// negative for losses, nil when there is no history.
func (s *Service) Streak(ctx context.Context, userID, platformID string, ladderID int64) (*int, error) {
	args := map[string]any{"user_id": userID, "platform_id": platformID, "ladder_id": ladderID}
	row, err := s.store.FetchOne(ctx, streakSQL, args)
	if errors.Is(err, database.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ladder streak: %w", err)
	}
	streak := row.Int("streak")
	return &streak, nil
}

// Ladders lists the requested ladders of a platform.
func (s *Service) Ladders(ctx context.Context, platformID string, ladderIDs []int64) ([]Ladder, error) {
	rows, err := s.store.FetchAll(ctx, laddersSQL, map[string]any{"platform_id": platformID, "ladder_ids": ladderIDs})
	if err != nil {
		return nil, fmt.Errorf("list ladders: %w", err)
	}
	out := make([]Ladder, len(rows))
	for i, r := range rows {
		out[i] = Ladder{ID: r.Int64("id"), PlatformID: r.String("platform_id"), Name: r.String("name")}
	}
	return out, nil
}

// MetaRanks returns userID's position on each requested ladder of a
// platform. Ladders the user is unranked on are left out.
func (s *Service) MetaRanks(ctx context.Context, userID, platformID string, ladderIDs []int64) ([]MetaRank, error) {
	ladders, err := s.Ladders(ctx, platformID, ladderIDs)
	if err != nil {
		return nil, err
	}
	out := []MetaRank{}
	for _, l := range ladders {
		rank, err := s.UserRank(ctx, userID, platformID, l.ID)
		if err != nil {
			return nil, err
		}
		if rank == nil {
			continue
		}
		out = append(out, MetaRank{Ladder: l, Rank: rank.Rank, Rating: rank.Rating, User: rank.User})
	}
	return out, nil
}

type rateKey struct {
	UserID     string `json:"user_id"`
	PlatformID string `json:"platform_id"`
	LadderID   int64  `json:"ladder_id"`
	Until      string `json:"until"`
}

// RateByDay returns userID's daily peak rating on a ladder from the start
// of collection up to, but not including, today.
func (s *Service) RateByDay(ctx context.Context, userID, platformID string, ladderID int64) ([]DailyRate, error) {
	now := s.now().UTC()
	until := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	key := rateKey{UserID: userID, PlatformID: platformID, LadderID: ladderID, Until: until.Format(time.DateOnly)}

	out, _, err := cache.Do(ctx, s.cache, "rate_by_day", s.ladderTTL, key, func(ctx context.Context) ([]DailyRate, error) {
		rows, err := s.store.FetchAll(ctx, rateByDaySQL, map[string]any{
			"user_id":     userID,
			"platform_id": platformID,
			"ladder_id":   ladderID,
			"since":       time.Date(CollectionStarted.Year, CollectionStarted.Month, 1, 0, 0, 0, 0, time.UTC),
			"until":       until,
		})
		if err != nil {
			return nil, fmt.Errorf("rate by day: %w", err)
		}
		rates := make([]DailyRate, len(rows))
		for i, r := range rows {
			rates[i] = DailyRate{Date: r.Time("day").Format(time.DateOnly), Rating: r.Int64("rating")}
		}
		return rates, nil
	})
	return out, err
}
