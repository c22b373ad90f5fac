// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package ranking

import "iter"

// Ranked is an item at its 1-based rank in the current list. Change is how
// many places it moved up since the previous list, nil when it was absent.
type Ranked[T any] struct {
	Rank   int  `json:"rank"`
	Item   T    `json:"item"`
	Change *int `json:"change"`
}

// Diff ranks current against previous by key. The sequence is lazy and
// yields in current order; neither input is modified. When a key repeats in
// previous its last position counts.
func Diff[T any, K comparable](current, previous []T, key func(T) K) iter.Seq[Ranked[T]] {
	return func(yield func(Ranked[T]) bool) {
		positions := make(map[K]int, len(previous))
		for i, item := range previous {
			positions[key(item)] = i
		}
		for i, item := range current {
			r := Ranked[T]{Rank: i + 1, Item: item}
			if prev, ok := positions[key(item)]; ok {
				change := prev - i
				r.Change = &change
			}
			if !yield(r) {
				return
			}
		}
	}
}
