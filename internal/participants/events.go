// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package participants

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/aocrecs/internal/cache"
	"github.com/tomtom215/aocrecs/internal/database"
)

// ErrEventNotFound is returned when no event has the requested id.
var ErrEventNotFound = errors.New("event not found")

// EventSummary is one entry of the event list.
type EventSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Year int    `json:"year"`
}

// SeriesSummary is a series as listed under its tournament.
type SeriesSummary struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Played       *time.Time    `json:"played"`
	Participants []Participant `json:"participants"`
}

// EventTournament is a tournament of an event with its series.
type EventTournament struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Series []SeriesSummary `json:"series"`
}

// EventMap is how often a map was played at an event.
type EventMap struct {
	Name          string  `json:"name"`
	MatchCount    int64   `json:"match_count"`
	PlayedPercent float64 `json:"played_percent"`
}

// EventDetail is an event with its bracket and map usage.
type EventDetail struct {
	EventSummary
	Tournaments []EventTournament `json:"tournaments"`
	Maps        []EventMap        `json:"maps"`
}

const (
	eventsSQL = `SELECT id, name, year FROM events ORDER BY year, name`

	eventSQL = `SELECT id, name, year FROM events WHERE id = @event_id`

	eventTournamentsSQL = `SELECT id, name FROM tournaments WHERE event_id = @event_id ORDER BY id`

	eventSeriesSQL = `SELECT series.id, series.played, series_metadata.name, rounds.tournament_id
FROM series
JOIN rounds ON series.round_id = rounds.id
JOIN tournaments ON rounds.tournament_id = tournaments.id
JOIN series_metadata ON series.id = series_metadata.series_id
WHERE tournaments.event_id = @event_id
ORDER BY series.id`

	eventParticipantsSQL = `SELECT participants.series_id, participants.name, participants.score, participants.winner
FROM participants
JOIN series ON participants.series_id = series.id
JOIN rounds ON series.round_id = rounds.id
JOIN tournaments ON rounds.tournament_id = tournaments.id
WHERE tournaments.event_id = @event_id
ORDER BY participants.series_id, participants.name`

	eventMapsSQL = `SELECT map_name, count(*) AS matches
FROM matches
WHERE event_id = @event_id
GROUP BY map_name
ORDER BY count(*) DESC, map_name`
)

// Events lists every event, oldest first.
func (s *Service) Events(ctx context.Context) ([]EventSummary, error) {
	out, _, err := cache.Do(ctx, s.cache, "events", s.ttl, nil, func(ctx context.Context) ([]EventSummary, error) {
		rows, err := s.store.FetchAll(ctx, eventsSQL, nil)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		events := make([]EventSummary, len(rows))
		for i, r := range rows {
			events[i] = eventSummary(r)
		}
		return events, nil
	})
	return out, err
}

// Event loads an event with its tournaments, their series and bracket
// participants, and the maps played.
func (s *Service) Event(ctx context.Context, id string) (*EventDetail, error) {
	key := struct {
		ID string `json:"id"`
	}{id}
	out, _, err := cache.Do(ctx, s.cache, "event", s.ttl, key, func(ctx context.Context) (*EventDetail, error) {
		return s.loadEvent(ctx, id)
	})
	return out, err
}

func (s *Service) loadEvent(ctx context.Context, id string) (*EventDetail, error) {
	args := map[string]any{"event_id": id}
	var (
		header                              database.Row
		tournaments, series, parts, mapRows []database.Row
	)

	g, gctx := errgroup.WithContext(ctx)
	fetch := func(sql string, dst *[]database.Row) func() error {
		return func() error {
			rows, err := s.store.FetchAll(gctx, sql, args)
			*dst = rows
			return err
		}
	}
	g.Go(func() error {
		var err error
		header, err = s.store.FetchOne(gctx, eventSQL, args)
		return err
	})
	g.Go(fetch(eventTournamentsSQL, &tournaments))
	g.Go(fetch(eventSeriesSQL, &series))
	g.Go(fetch(eventParticipantsSQL, &parts))
	g.Go(fetch(eventMapsSQL, &mapRows))
	if err := g.Wait(); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		return nil, fmt.Errorf("load event %s: %w", id, err)
	}

	bySeries := map[string][]Participant{}
	for _, p := range parts {
		sid := p.String("series_id")
		bySeries[sid] = append(bySeries[sid], Participant{
			Name:   p.String("name"),
			Score:  p.NullableFloat64("score"),
			Winner: p.NullableBool("winner"),
		})
	}
	byTournament := map[int64][]SeriesSummary{}
	for _, r := range series {
		sid := r.String("id")
		ps := bySeries[sid]
		if ps == nil {
			ps = []Participant{}
		}
		tid := r.Int64("tournament_id")
		byTournament[tid] = append(byTournament[tid], SeriesSummary{
			ID:           sid,
			Name:         r.String("name"),
			Played:       nullableTime(r, "played"),
			Participants: ps,
		})
	}

	event := &EventDetail{
		EventSummary: eventSummary(header),
		Tournaments:  make([]EventTournament, len(tournaments)),
		Maps:         make([]EventMap, len(mapRows)),
	}
	for i, r := range tournaments {
		tid := r.Int64("id")
		ss := byTournament[tid]
		if ss == nil {
			ss = []SeriesSummary{}
		}
		event.Tournaments[i] = EventTournament{ID: tid, Name: r.String("name"), Series: ss}
	}

	var total int64
	for _, r := range mapRows {
		total += r.Int64("matches")
	}
	for i, r := range mapRows {
		n := r.Int64("matches")
		event.Maps[i] = EventMap{Name: r.String("map_name"), MatchCount: n, PlayedPercent: percent(n, total)}
	}
	return event, nil
}

func eventSummary(r database.Row) EventSummary {
	return EventSummary{ID: r.String("id"), Name: r.String("name"), Year: r.Int("year")}
}

// percent rounds n/total to two decimals.
func percent(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*100) / 100
}
