// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package query

import (
	"strings"
	"testing"
)

func constSQL(sql string) func(FlagScope) string {
	return func(FlagScope) string { return sql }
}

func TestNewFlagRegistry(t *testing.T) {
	tests := []struct {
		name    string
		flags   []FlagFragment
		wantErr bool
	}{
		{"valid", []FlagFragment{{Alias: "a_1", Render: constSQL("SELECT 1 AS match_id")}}, false},
		{"bad alias", []FlagFragment{{Alias: "x) AS y; --", Render: constSQL("")}}, true},
		{"uppercase alias", []FlagFragment{{Alias: "Fast", Render: constSQL("")}}, true},
		{"no renderer", []FlagFragment{{Alias: "a"}}, true},
		{"duplicate", []FlagFragment{
			{Alias: "a", Render: constSQL("")},
			{Alias: "a", Render: constSQL("")},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFlagRegistry(tt.flags...)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFlagRegistryOrder(t *testing.T) {
	r := MustFlagRegistry(
		FlagFragment{Alias: "b", Render: constSQL("")},
		FlagFragment{Alias: "a", Render: constSQL("")},
	)
	flags := r.Flags()
	if len(flags) != 2 || flags[0].Alias != "b" || flags[1].Alias != "a" {
		t.Errorf("Expected registration order [b a], got %v", flags)
	}
	if _, ok := r.Lookup("c"); ok {
		t.Error("Expected lookup of c to fail")
	}
}

func TestRenderRejectsMisuse(t *testing.T) {
	subset := func() string { return "SELECT 1 AS id" }

	undeclared := FlagFragment{
		Alias:  "sneaky",
		Render: func(s FlagScope) string { return s.MatchSubset() },
	}
	if _, err := render(undeclared, subset); err == nil {
		t.Error("Expected error for undeclared subset use")
	}

	unknownBind := FlagFragment{
		Alias:  "typo",
		Values: map[string]any{"limit": 1},
		Render: func(s FlagScope) string { return "SELECT " + s.Bind("limt") },
	}
	if _, err := render(unknownBind, subset); err == nil {
		t.Error("Expected error for undeclared bind")
	}
}

func TestRenderSkipsSubsetWhenUndeclared(t *testing.T) {
	called := false
	f := FlagFragment{Alias: "plain", Render: constSQL("SELECT 1 AS match_id")}
	if _, err := render(f, func() string { called = true; return "" }); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("Expected subset not to be computed")
	}
}

func TestDefaultFlagsRender(t *testing.T) {
	reg := MustFlagRegistry(DefaultFlags()...)
	subset := func() string { return "SELECT DISTINCT matches.id AS id FROM matches" }

	want := []string{
		"deer_pushes", "daut_castles", "castle_drops", "boar_steals", "sheep_steals",
		"lost_to_boar", "lost_to_predator", "lost_research", "bad_boar_lure", "scout_war",
		"trushes", "fast_castle", "badaboom", "castle_race", "market_usage",
		"archers", "skirms", "scouts",
	}
	flags := reg.Flags()
	if len(flags) != len(want) {
		t.Fatalf("Expected %d flags, got %d", len(want), len(flags))
	}

	for i, f := range flags {
		if f.Alias != want[i] {
			t.Errorf("Expected flag %d to be %s, got %s", i, want[i], f.Alias)
		}
		if f.Name == "" {
			t.Errorf("Expected %s to have a display name", f.Alias)
		}
		rf, err := render(f, subset)
		if err != nil {
			t.Errorf("render(%s) error = %v", f.Alias, err)
			continue
		}
		if !strings.Contains(rf.SQL, "match_id") {
			t.Errorf("Expected %s to select match_id", f.Alias)
		}
		for bind := range rf.Args {
			if !strings.HasSuffix(bind, "_"+f.Alias) {
				t.Errorf("Expected %s bind %q to carry the alias suffix", f.Alias, bind)
			}
			if !strings.Contains(rf.SQL, "@"+bind) {
				t.Errorf("Expected %s to reference @%s", f.Alias, bind)
			}
		}
		if f.NeedsMatchSubset != strings.Contains(rf.SQL, subset()) {
			t.Errorf("Expected %s subset use to match its declaration", f.Alias)
		}
		if f.Evidence != strings.Contains(rf.SQL, "AS timestamp") {
			t.Errorf("Expected %s to select a timestamp only when it reports evidence", f.Alias)
		}
	}
}

func TestTrainedUnitFlags(t *testing.T) {
	reg := MustFlagRegistry(DefaultFlags()...)
	subset := func() string { return "SELECT DISTINCT matches.id AS id FROM matches" }

	tests := []struct {
		alias string
		units []int64
	}{
		{"archers", []int64{4}},
		{"skirms", []int64{7}},
		{"scouts", []int64{448}},
	}
	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			f, ok := reg.Lookup(tt.alias)
			if !ok {
				t.Fatalf("Expected %s in the catalog", tt.alias)
			}
			if f.Evidence || !f.NeedsMatchSubset {
				t.Errorf("Expected a subset flag without evidence, got %+v", f)
			}
			rf, err := render(f, subset)
			if err != nil {
				t.Fatalf("render() error = %v", err)
			}
			units, ok := rf.Args["unit_ids_"+tt.alias].([]int64)
			if !ok || len(units) != 1 || units[0] != tt.units[0] {
				t.Errorf("Expected units %v, got %v", tt.units, rf.Args["unit_ids_"+tt.alias])
			}
			if rf.Args["before_tech_"+tt.alias] != 102 {
				t.Errorf("Expected castle age cutoff, got %v", rf.Args["before_tech_"+tt.alias])
			}
			for _, want := range []string{
				"JOIN (" + subset() + ") AS sq ON oi.match_id = sq.id",
				"research.technology_id = @before_tech_" + tt.alias,
				"HAVING count(DISTINCT oi.initial_object_id) = 1",
			} {
				if !strings.Contains(rf.SQL, want) {
					t.Errorf("Expected %q in %s", want, rf.SQL)
				}
			}
		})
	}
}

func TestEvidenceQueries(t *testing.T) {
	reg := MustFlagRegistry(DefaultFlags()...)
	queries, err := reg.EvidenceQueries([]int64{7})
	if err != nil {
		t.Fatalf("EvidenceQueries() error = %v", err)
	}

	evidence := 0
	for _, f := range reg.Flags() {
		if f.Evidence {
			evidence++
		}
	}
	if len(queries) != evidence || evidence == len(reg.Flags()) {
		t.Fatalf("Expected %d evidence queries out of %d flags, got %d", evidence, len(reg.Flags()), len(queries))
	}

	for _, q := range queries {
		if !q.Flag.Evidence {
			t.Errorf("Expected only evidence flags, got %s", q.Flag.Alias)
		}
		ids, ok := q.Args[EvidenceMatchesBind].([]int64)
		if !ok || len(ids) != 1 || ids[0] != 7 {
			t.Errorf("Expected %s restricted to match 7, got %v", q.Flag.Alias, q.Args[EvidenceMatchesBind])
		}
		if !strings.HasSuffix(q.SQL, "AS inside WHERE inside.match_id = ANY(@evidence_match_ids) ORDER BY inside.timestamp") {
			t.Errorf("Unexpected evidence wrapper for %s: %s", q.Flag.Alias, q.SQL)
		}
		if q.Flag.NeedsMatchSubset && !strings.Contains(q.SQL, "WHERE matches.id = ANY(@evidence_match_ids)") {
			t.Errorf("Expected %s subset restricted to the requested matches", q.Flag.Alias)
		}
	}
}
