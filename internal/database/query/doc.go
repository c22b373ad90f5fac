// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

/*
Package query composes parameterized SQL for match searches.

Only identifiers from the closed column registry (columns.go) and flag
aliases from a FlagRegistry are interpolated into SQL text. Every
user-supplied value travels as a named bind (@name) in the returned argument
map, ready for pgx.NamedArgs or the DuckDB rewrite.

# Criteria

A CriteriaGroup maps table and column to a Criterion. Each criterion compiles
to one predicate:

	{"values": ["Arabia", "Arena"]}   matches.map_name = ANY(@matches_map_name)
	{"gte": 1200}                     players.rate_after >= @players_rate_after
	{"date": "2020-03-02"}            matches.played::date = @matches_played

Numbers arrive from JSON as float64. Whole numbers in a values list become
int64 binds. Non-finite numbers and whole numbers outside the int64 range
are rejected with an InvalidCriterionError naming the field.

# Flags

A flag is a SQL fragment yielding (match_id, number) rows for players who
did something notable. Build joins one distinct-match subquery per requested
flag, so a search for ["fast_castle", "trushes"] only returns matches where
both happened. Flags marked NeedsMatchSubset receive the already filtered
match set through FlagScope.MatchSubset to keep their inner scans small.

Flags marked Evidence also yield a timestamp and an optional value. For those
EvidenceQueries renders a per-match lookup that reports each occurrence, which
is how the API explains why a match was flagged.

Flag binds are suffixed with the flag alias so fragments never collide:

	fast_castle  ->  @max_delay_seconds_fast_castle
*/
package query
