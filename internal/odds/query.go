// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package odds

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/aocrecs/internal/database/query"
)

type oddsQuery struct {
	sql      string
	args     map[string]any
	teamKeys []map[string]bool
}

// teamSize renders the denormalized matches.team_size signature, e.g. "2v2".
func teamSize(teams [][]Member) string {
	sizes := make([]string, len(teams))
	for i, t := range teams {
		sizes[i] = strconv.Itoa(len(t))
	}
	return strings.Join(sizes, "v")
}

func memberKey(m Member, civs bool) string {
	if civs {
		return strconv.FormatInt(*m.CivilizationID, 10)
	}
	return m.UserID
}

// buildQuery composes one scenario. Each team contributes a sub-query of
// matches in which its members shared a side, grouped by (match, team) and
// required to cover the team's distinct keys; the sub-queries are
// intersected by inner join.
func buildQuery(req Request, p scenario) oddsQuery {
	column := "user_id"
	if p.civs {
		column = "civilization_id"
	}

	where := query.NewWhereBuilder().
		AddClause("matches.team_size = @team_size", "team_size", teamSize(req.Teams)).
		AddClause("matches.type_id = @type_id", "type_id", *req.TypeID)
	if p.mapFilter {
		where.AddClause("matches.map_name = @map_name", "map_name", *req.MapName)
	}
	clause, args := where.Build()

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT matches.id, players.winner, players.%s AS member_key FROM matches JOIN players ON matches.id = players.match_id", column)

	teamKeys := make([]map[string]bool, len(req.Teams))
	for i, team := range req.Teams {
		keys := map[string]bool{}
		for _, m := range team {
			keys[memberKey(m, p.civs)] = true
		}
		teamKeys[i] = keys

		filter, teamArgs := teamFilter(i, team, p)
		for k, v := range teamArgs {
			args[k] = v
		}
		fmt.Fprintf(&sb,
			" JOIN (SELECT match_id FROM players WHERE %s GROUP BY match_id, team_id HAVING count(DISTINCT players.%s) = %d) AS t%d ON matches.id = t%d.match_id",
			filter, column, len(keys), i, i)
	}

	sb.WriteString(" WHERE ")
	sb.WriteString(clause)
	return oddsQuery{sql: sb.String(), args: args, teamKeys: teamKeys}
}

// teamFilter selects the player rows belonging to team i. Binds carry the
// team index, and for compound filters the member index, so no two teams
// share a bind.
func teamFilter(i int, team []Member, p scenario) (string, map[string]any) {
	switch {
	case p.users && p.civs:
		args := make(map[string]any, 2*len(team))
		ors := make([]string, len(team))
		for j, m := range team {
			suffix := fmt.Sprintf("%d_%d", i, j)
			userBind := query.Suffixed("players_user_id", suffix)
			civBind := query.Suffixed("players_civilization_id", suffix)
			ors[j] = fmt.Sprintf("(players.user_id = %s AND players.civilization_id = %s)",
				query.Placeholder(userBind), query.Placeholder(civBind))
			args[userBind] = m.UserID
			args[civBind] = *m.CivilizationID
		}
		return "(" + strings.Join(ors, " OR ") + ")", args

	case p.civs:
		bind := query.Suffixed("civilization_ids", i)
		ids := make([]int64, len(team))
		for j, m := range team {
			ids[j] = *m.CivilizationID
		}
		return fmt.Sprintf("players.civilization_id = ANY(%s)", query.Placeholder(bind)), map[string]any{bind: ids}

	default:
		bind := query.Suffixed("user_ids", i)
		ids := make([]string, len(team))
		for j, m := range team {
			ids[j] = m.UserID
		}
		return fmt.Sprintf("players.user_id = ANY(%s)", query.Placeholder(bind)), map[string]any{bind: ids}
	}
}
