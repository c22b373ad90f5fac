// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

//go:build integration

package search

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/tomtom215/aocrecs/internal/config"
	"github.com/tomtom215/aocrecs/internal/database"
	"github.com/tomtom215/aocrecs/internal/database/query"
	"github.com/tomtom215/aocrecs/internal/participants"
	"github.com/tomtom215/aocrecs/internal/testinfra"
)

// Match 1 has a fast castle by Hera and feudal archers by TheViper; match 2
// has neither. Both belong to series s1 of Hidden Cup 3.
const tournamentSeed = `
INSERT INTO platforms VALUES ('de', 'Definitive Edition');
INSERT INTO events VALUES ('hc3', 'Hidden Cup 3', 2020);
INSERT INTO tournaments VALUES (3, 'hc3', 'Main Event');
INSERT INTO rounds VALUES (1, 3, 'Grand Final');
INSERT INTO series VALUES ('s1', 1, '2020-03-01');
INSERT INTO series_metadata VALUES ('s1', 'Hera vs TheViper');
INSERT INTO participants VALUES ('s1', 'Hera', 2, true), ('s1', 'TheViper', 0, false);
INSERT INTO matches (id, map_name, played, platform_id, event_id, tournament_id, series_id, winning_team_id) VALUES
	(1, 'Arabia', '2020-03-01 12:00', 'de', 'hc3', 3, 's1', 1),
	(2, 'Arena',  '2020-03-01 13:00', 'de', 'hc3', 3, 's1', 1);
INSERT INTO players (match_id, number, user_id, name, team_id, winner, platform_id) VALUES
	(1, 1, 'u1', 'Hera', 1, true, 'de'),
	(1, 2, 'u2', 'TheViper', 2, false, 'de'),
	(2, 1, 'u1', 'Hera', 1, true, 'de'),
	(2, 2, 'u2', 'TheViper', 2, false, 'de');
INSERT INTO research (match_id, player_number, technology_id, started, finished) VALUES
	(1, 1, 101, '00:10:00', '00:15:00'),
	(1, 1, 102, '00:15:30', '00:18:10'),
	(1, 2, 101, '00:11:00', '00:14:00'),
	(1, 2, 102, '00:22:00', '00:25:00'),
	(2, 1, 101, '00:10:00', '00:13:00'),
	(2, 1, 102, '00:20:00', '00:23:00');
INSERT INTO object_instances (match_id, instance_id, initial_object_id, initial_class_id, initial_player_number, created) VALUES
	(1, 500, 4, 70, 2, '00:16:00'),
	(1, 501, 4, 70, 2, '00:16:30'),
	(2, 500, 4, 70, 2, '00:30:00');
`

func TestFlags_Integration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := testinfra.NewPostgresContainer(ctx, testinfra.WithSeed(tournamentSeed))
	if err != nil {
		t.Fatalf("Failed to start postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, pg.Container)

	store, err := database.Open(ctx, &config.DatabaseConfig{Backend: config.BackendPostgres, URL: pg.URL})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	svc := NewService(query.NewSearchBuilder(query.MustFlagRegistry(query.DefaultFlags()...)), store)

	t.Run("search by flag", func(t *testing.T) {
		tests := []struct {
			name    string
			params  Params
			wantIDs []int64
		}{
			{"fast castle", Params{Flags: []string{"fast_castle"}, Limit: 10}, []int64{1}},
			{"archers", Params{Flags: []string{"archers"}, Limit: 10}, []int64{1}},
			{
				name: "archers outside the subset",
				params: Params{
					Criteria: query.CriteriaGroup{query.TableMatches: {"map_name": {Values: "Arena"}}},
					Flags:    []string{"archers"},
					Limit:    10,
				},
				wantIDs: []int64{},
			},
			{"no flag", Params{Order: []string{"id"}, Limit: 10}, []int64{1, 2}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				hits, err := svc.Hits(ctx, tt.params)
				if err != nil {
					t.Fatalf("Hits() error = %v", err)
				}
				if !slices.Equal(hits.MatchIDs, tt.wantIDs) {
					t.Errorf("Expected ids %v, got %v", tt.wantIDs, hits.MatchIDs)
				}
			})
		}
	})

	t.Run("match evidence", func(t *testing.T) {
		flags, err := svc.MatchFlags(ctx, 1)
		if err != nil {
			t.Fatalf("MatchFlags() error = %v", err)
		}
		var fastCastle *PlayerFlag
		for i := range flags {
			if flags[i].Type == "archers" {
				t.Errorf("Expected no evidence for a filter-only flag, got %+v", flags[i])
			}
			if flags[i].Type == "fast_castle" {
				fastCastle = &flags[i]
			}
		}
		if fastCastle == nil || fastCastle.Number != 1 || fastCastle.Count != 1 {
			t.Fatalf("Expected one fast castle for player 1, got %+v", flags)
		}
		if got := fastCastle.Evidence[0].Timestamp; got != 15*time.Minute+30*time.Second {
			t.Errorf("Expected castle click at 15:30, got %v", got)
		}
	})

	t.Run("series", func(t *testing.T) {
		series, err := participants.NewService(store).Series(ctx, "s1")
		if err != nil {
			t.Fatalf("Series() error = %v", err)
		}
		if series.Name != "Hera vs TheViper" || series.Tournament.Event.ID != "hc3" {
			t.Errorf("Unexpected series header %+v", series)
		}
		if !slices.Equal(series.MatchIDs, []int64{1, 2}) {
			t.Errorf("Expected matches [1 2], got %v", series.MatchIDs)
		}
		if len(series.Participants) != 2 || len(series.Sides) != 2 {
			t.Errorf("Expected two participants and sides, got %+v", series.Sides)
		}
	})

	t.Run("event", func(t *testing.T) {
		event, err := participants.NewService(store).Event(ctx, "hc3")
		if err != nil {
			t.Fatalf("Event() error = %v", err)
		}
		if len(event.Tournaments) != 1 || len(event.Tournaments[0].Series) != 1 {
			t.Fatalf("Expected one tournament with one series, got %+v", event.Tournaments)
		}
		if len(event.Maps) != 2 || event.Maps[0].PlayedPercent != 0.5 {
			t.Errorf("Unexpected maps %+v", event.Maps)
		}
	})
}
