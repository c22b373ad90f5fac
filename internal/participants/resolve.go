// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

// Package participants infers which recorded players made up each side of
// a tournament series.
//
// Bracket data names the sides and their scores but not their players.
// Players are grouped by linking teammates and linking winners to a node per
// recorded win; each weakly connected group is a side, and groups are paired
// with bracket participants by ordering both on wins.
//
// The pairing is best effort. A player who appears in a single match,
// loses, and has no teammate from another match forms a group of their own
// with no wins, which usually falls off the end of the pairing. That loss is
// accepted: there is no evidence to place the player.
package participants

import (
	"cmp"
	"slices"
)

// Player is a player row of a recorded match.
type Player struct {
	Name       string `json:"name"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name,omitempty"`
	PlatformID string `json:"platform_id"`
}

// Team is one side of a recorded match.
type Team struct {
	ID      int64    `json:"id"`
	Players []Player `json:"players"`
}

// Match is a recorded match of the series.
type Match struct {
	ID          int64    `json:"id"`
	PlatformID  string   `json:"platform_id"`
	Players     []Player `json:"players"`
	Teams       []Team   `json:"teams"`
	WinningTeam *Team    `json:"winning_team,omitempty"`
}

// Participant is a side as reported by the bracket.
type Participant struct {
	Name   string   `json:"name"`
	Score  *float64 `json:"score"`
	Winner *bool    `json:"winner"`
}

// Side pairs a bracket participant with the players inferred for it.
type Side struct {
	UserIDs    []string `json:"user_ids"`
	Name       string   `json:"name"`
	Winner     *bool    `json:"winner"`
	Score      *float64 `json:"score"`
	PlatformID string   `json:"platform_id,omitempty"`
	Users      []User   `json:"users,omitempty"`
}

type group struct {
	wins    int
	players []string
}

// Resolve groups the players of matches and pairs the groups with external
// participants. The output has one Side per pair, truncated to the shorter
// of the two lists.
func Resolve(matches []Match, external []Participant) []Side {
	g := newGraph()
	nameToUser := map[string]string{}
	var platformID string

	for i, m := range matches {
		win := g.addWin()
		if i == 0 {
			platformID = m.PlatformID
		}
		for _, p := range m.Players {
			nameToUser[p.Name] = p.UserID
			g.addPlayer(p.Name)
		}

		if m.WinningTeam != nil {
			for _, p := range m.WinningTeam.Players {
				g.addEdge(g.addPlayer(p.Name), win)
			}
		}

		for _, team := range m.Teams {
			for _, a := range team.Players {
				for _, b := range team.Players {
					g.addEdge(g.addPlayer(a.Name), g.addPlayer(b.Name))
				}
			}
		}
	}

	var groups []group
	for _, component := range g.components() {
		var grp group
		for _, n := range component {
			switch g.kinds[n] {
			case kindWin:
				grp.wins++
			case kindPlayer:
				grp.players = append(grp.players, g.names[n])
			}
		}
		groups = append(groups, grp)
	}

	slices.SortStableFunc(groups, func(a, b group) int {
		return cmp.Compare(b.wins, a.wins)
	})
	ranked := slices.Clone(external)
	slices.SortStableFunc(ranked, func(a, b Participant) int {
		return cmp.Compare(scoreOf(b), scoreOf(a))
	})

	n := min(len(groups), len(ranked))
	sides := make([]Side, n)
	for i := range n {
		userIDs := make([]string, len(groups[i].players))
		for j, name := range groups[i].players {
			userIDs[j] = nameToUser[name]
		}
		sides[i] = Side{
			UserIDs:    userIDs,
			Name:       ranked[i].Name,
			Winner:     ranked[i].Winner,
			Score:      ranked[i].Score,
			PlatformID: platformID,
		}
	}
	return sides
}

func scoreOf(p Participant) float64 {
	if p.Score == nil {
		return 0
	}
	return *p.Score
}
