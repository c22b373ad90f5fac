// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package participants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/aocrecs/internal/cache"
	"github.com/tomtom215/aocrecs/internal/database"
)

// ErrSeriesNotFound is returned when no series has the requested id.
var ErrSeriesNotFound = errors.New("series not found")

// User is a recorded account appearing on a side.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PlatformID string `json:"platform_id"`
}

// Event is the event a tournament belongs to.
type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tournament is the tournament a series was played in.
type Tournament struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Event Event  `json:"event"`
}

// Series is a bracket series with its inferred sides.
type Series struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Played       *time.Time    `json:"played"`
	Tournament   Tournament    `json:"tournament"`
	Participants []Participant `json:"participants"`
	MatchIDs     []int64       `json:"match_ids"`
	Sides        []Side        `json:"sides"`
}

const (
	seriesSQL = `SELECT series.id, series.played, series_metadata.name,
	tournaments.id AS tournament_id, tournaments.name AS tournament_name,
	events.id AS event_id, events.name AS event_name
FROM series
JOIN rounds ON series.round_id = rounds.id
JOIN series_metadata ON series.id = series_metadata.series_id
JOIN tournaments ON rounds.tournament_id = tournaments.id
JOIN events ON tournaments.event_id = events.id
WHERE series.id = @id`

	participantsSQL = `SELECT name, score, winner FROM participants WHERE series_id = @id`

	playersSQL = `SELECT matches.id AS match_id, matches.platform_id AS match_platform_id,
	matches.winning_team_id, players.team_id, players.name, players.user_id,
	players.user_name, players.platform_id
FROM matches
JOIN players ON players.match_id = matches.id
WHERE matches.series_id = @id
ORDER BY matches.id, players.number`
)

// Service loads series and their sides, and the events they belong to.
type Service struct {
	store database.Querier
	cache *cache.Cache
	ttl   time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithCache memoizes event listings for ttl. Series are never cached.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// NewService creates a Service over store.
func NewService(store database.Querier, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Series loads a series, its bracket participants and recorded matches, and
// resolves which players formed each side.
func (s *Service) Series(ctx context.Context, id string) (*Series, error) {
	args := map[string]any{"id": id}
	var (
		header database.Row
		parts  []database.Row
		rows   []database.Row
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		header, err = s.store.FetchOne(gctx, seriesSQL, args)
		return err
	})
	g.Go(func() error {
		var err error
		parts, err = s.store.FetchAll(gctx, participantsSQL, args)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.store.FetchAll(gctx, playersSQL, args)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, id)
		}
		return nil, fmt.Errorf("load series %s: %w", id, err)
	}

	series := &Series{
		ID:     header.String("id"),
		Name:   header.String("name"),
		Played: nullableTime(header, "played"),
		Tournament: Tournament{
			ID:   header.Int64("tournament_id"),
			Name: header.String("tournament_name"),
			Event: Event{
				ID:   header.String("event_id"),
				Name: header.String("event_name"),
			},
		},
		Participants: make([]Participant, 0, len(parts)),
	}
	for _, p := range parts {
		series.Participants = append(series.Participants, Participant{
			Name:   p.String("name"),
			Score:  p.NullableFloat64("score"),
			Winner: p.NullableBool("winner"),
		})
	}

	matches := groupMatches(rows)
	series.MatchIDs = make([]int64, len(matches))
	for i, m := range matches {
		series.MatchIDs[i] = m.ID
	}
	series.Sides = Sides(matches, series.Participants)
	return series, nil
}

// Sides resolves the sides of matches and attaches the recorded accounts of
// each side. Players without an account are left out of Users.
func Sides(matches []Match, external []Participant) []Side {
	users := map[string]User{}
	for _, m := range matches {
		for _, p := range m.Players {
			name := p.UserName
			if name == "" {
				name = p.Name
			}
			users[p.UserID] = User{ID: p.UserID, Name: name, PlatformID: p.PlatformID}
		}
	}

	sides := Resolve(matches, external)
	for i := range sides {
		sides[i].Users = []User{}
		for _, id := range sides[i].UserIDs {
			if id == "" {
				continue
			}
			sides[i].Users = append(sides[i].Users, users[id])
		}
	}
	return sides
}

// groupMatches folds player rows, ordered by match, into matches with
// their teams and winning team.
func groupMatches(rows []database.Row) []Match {
	var (
		matches []Match
		winners []*int64
	)
	teamIndex := map[int64]int{}

	for _, r := range rows {
		matchID := r.Int64("match_id")
		if len(matches) == 0 || matches[len(matches)-1].ID != matchID {
			matches = append(matches, Match{ID: matchID, PlatformID: r.String("match_platform_id")})
			winners = append(winners, r.NullableInt64("winning_team_id"))
			clear(teamIndex)
		}
		m := &matches[len(matches)-1]

		p := Player{
			Name:       r.String("name"),
			UserID:     r.String("user_id"),
			UserName:   r.String("user_name"),
			PlatformID: r.String("platform_id"),
		}
		m.Players = append(m.Players, p)

		teamID := r.Int64("team_id")
		idx, ok := teamIndex[teamID]
		if !ok {
			idx = len(m.Teams)
			teamIndex[teamID] = idx
			m.Teams = append(m.Teams, Team{ID: teamID})
		}
		m.Teams[idx].Players = append(m.Teams[idx].Players, p)
	}

	for i := range matches {
		if winners[i] == nil {
			continue
		}
		for j := range matches[i].Teams {
			if matches[i].Teams[j].ID == *winners[i] {
				matches[i].WinningTeam = &matches[i].Teams[j]
				break
			}
		}
	}
	return matches
}

func nullableTime(r database.Row, column string) *time.Time {
	if r[column] == nil {
		return nil
	}
	t := r.Time(column)
	return &t
}
