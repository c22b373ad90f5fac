// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package database

import (
	"database/sql"
	"reflect"
	"testing"
)

func TestToDuckDB(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		args      map[string]any
		wantSQL   string
		wantNamed []any
	}{
		{
			name:    "any becomes list_contains",
			query:   "SELECT 1 FROM players WHERE players.civilization_id = ANY(@players_civilization_id) AND matches.team_size = @team_size",
			args:    map[string]any{"players_civilization_id": []int64{5}, "team_size": "1v1"},
			wantSQL: "SELECT 1 FROM players WHERE list_contains($players_civilization_id, players.civilization_id) AND matches.team_size = $team_size",
			wantNamed: []any{
				sql.Named("players_civilization_id", []int64{5}),
				sql.Named("team_size", "1v1"),
			},
		},
		{
			name:      "interval precision dropped and binds deduplicated",
			query:     "SELECT x.finished::interval(0) AS ts FROM x WHERE a = @v OR b = @v",
			args:      map[string]any{"v": 1, "unused": 2},
			wantSQL:   "SELECT x.finished::interval AS ts FROM x WHERE a = $v OR b = $v",
			wantNamed: []any{sql.Named("v", 1)},
		},
		{
			name:    "no binds",
			query:   "SELECT count(*) AS count FROM matches",
			wantSQL: "SELECT count(*) AS count FROM matches",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, named, err := toDuckDB(tt.query, tt.args)
			if err != nil {
				t.Fatalf("toDuckDB() error = %v", err)
			}
			if got != tt.wantSQL {
				t.Errorf("Expected %q, got %q", tt.wantSQL, got)
			}
			if !reflect.DeepEqual(named, tt.wantNamed) {
				t.Errorf("Expected args %#v, got %#v", tt.wantNamed, named)
			}
		})
	}
}

func TestToDuckDBMissingBind(t *testing.T) {
	if _, _, err := toDuckDB("SELECT @nope", nil); err == nil {
		t.Error("Expected error for missing bind value")
	}
}
