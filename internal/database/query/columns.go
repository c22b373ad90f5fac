// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package query

import "sort"

// Searchable tables, in the order their criteria are compiled.
const (
	TablePlayers = "players"
	TableFiles   = "files"
	TableMatches = "matches"
)

var tableOrder = []string{TablePlayers, TableFiles, TableMatches}

// searchColumns is the closed set of identifiers a search may reference.
var searchColumns = map[string]map[string]bool{
	TableMatches: set(
		"id", "map_name", "played", "added", "duration", "rated", "diplomacy_type", "team_size",
		"type_id", "platform_id", "ladder_id", "dataset_id", "dataset_version", "version",
		"game_version", "save_version", "build", "rms_seed", "rms_custom", "mirror", "cheats",
		"population_limit", "lock_teams", "postgame", "has_playback", "speed_id", "starting_age_id",
		"map_size_id", "difficulty_id", "event_id", "tournament_id", "series_id", "winning_team_id",
	),
	TablePlayers: set(
		"user_id", "user_name", "name", "number", "team_id", "civilization_id", "color_id",
		"winner", "mvp", "human", "platform_id", "rate_snapshot", "rate_before", "rate_after",
		"score", "military_score", "economy_score", "technology_score", "society_score",
	),
	TableFiles: set(
		"id", "hash", "original_filename", "size", "language", "encoding", "owner_number",
	),
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// IsSearchable reports whether table.column may be interpolated.
func IsSearchable(table, column string) bool {
	return searchColumns[table][column]
}

// SearchableColumns lists the columns of table in sorted order.
func SearchableColumns(table string) []string {
	cols := make([]string, 0, len(searchColumns[table]))
	for c := range searchColumns[table] {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}
