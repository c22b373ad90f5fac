// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package query

import "testing"

func TestWhereBuilder(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		wb := NewWhereBuilder()
		clause, args := wb.Build()
		if clause != "1=1" {
			t.Errorf("Expected 1=1, got %q", clause)
		}
		if len(args) != 0 {
			t.Errorf("Expected no args, got %v", args)
		}
		if wb.Where() != "" {
			t.Errorf("Expected empty WHERE, got %q", wb.Where())
		}
		if !wb.IsEmpty() {
			t.Error("Expected builder to be empty")
		}
	})

	t.Run("combined", func(t *testing.T) {
		wb := NewWhereBuilder().
			AddClause("matches.type_id = @type_id", "type_id", 0).
			Add(Predicate{SQL: "matches.map_name = ANY(@map)", Bind: "map", Value: []string{"Arabia"}}).
			AddClause("matches.rated IS TRUE", "", nil).
			AddArgs("players.team_id BETWEEN @lo AND @hi", map[string]any{"lo": 1, "hi": 2})

		clause, args := wb.Build()
		want := "matches.type_id = @type_id AND matches.map_name = ANY(@map) AND matches.rated IS TRUE AND players.team_id BETWEEN @lo AND @hi"
		if clause != want {
			t.Errorf("Expected %q, got %q", want, clause)
		}
		if wb.Where() != " WHERE "+want {
			t.Errorf("Expected WHERE prefix, got %q", wb.Where())
		}
		if len(args) != 4 {
			t.Errorf("Expected 4 args, got %d", len(args))
		}
		if wb.Count() != 4 {
			t.Errorf("Expected 4 clauses, got %d", wb.Count())
		}
	})

	t.Run("args are copied", func(t *testing.T) {
		wb := NewWhereBuilder().AddClause("a = @a", "a", 1)
		args := wb.Args()
		args["a"] = 2
		if wb.Args()["a"] != 1 {
			t.Error("Expected builder args to be unaffected by caller mutation")
		}
	})
}

func TestBindHelpers(t *testing.T) {
	if got := BindName("players.civilization_id"); got != "players_civilization_id" {
		t.Errorf("Expected players_civilization_id, got %q", got)
	}
	if got := Placeholder("x"); got != "@x" {
		t.Errorf("Expected @x, got %q", got)
	}
	if got := Suffixed("user_ids", 2); got != "user_ids_2" {
		t.Errorf("Expected user_ids_2, got %q", got)
	}
}
