// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package odds

import "maps"

// outcome is one player row of a qualifying match.
type outcome struct {
	matchID int64
	winner  bool
	key     string
}

// reduce groups outcomes by match and credits a win to team i iff the set
// of winning keys equals team i's key set exactly. Fewer than two matches
// yields nil.
func reduce(rows []outcome, teamKeys []map[string]bool) []TeamOdds {
	winners := map[int64]map[string]bool{}
	for _, r := range rows {
		w, ok := winners[r.matchID]
		if !ok {
			w = map[string]bool{}
			winners[r.matchID] = w
		}
		if r.winner {
			w[r.key] = true
		}
	}

	total := len(winners)
	if total <= 1 {
		return nil
	}

	wins := make([]int, len(teamKeys))
	for _, w := range winners {
		for i, keys := range teamKeys {
			if maps.Equal(w, keys) {
				wins[i]++
			}
		}
	}

	out := make([]TeamOdds, len(teamKeys))
	for i := range teamKeys {
		out[i] = TeamOdds{
			Wins:    wins[i],
			Losses:  total - wins[i],
			Percent: float64(wins[i]) / float64(total),
		}
	}
	return out
}
