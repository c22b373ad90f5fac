// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package participants

import "slices"

type nodeKind int

const (
	kindWin nodeKind = iota
	kindPlayer
)

// graph is a directed graph over win and player nodes. Only weak
// connectivity is ever queried, so edges are stored in both directions.
type graph struct {
	kinds   []nodeKind
	names   []string // player name; empty for win nodes
	players map[string]int
	adj     [][]int
}

func newGraph() *graph {
	return &graph{players: map[string]int{}}
}

func (g *graph) addNode(kind nodeKind, name string) int {
	id := len(g.kinds)
	g.kinds = append(g.kinds, kind)
	g.names = append(g.names, name)
	g.adj = append(g.adj, nil)
	return id
}

// addWin always creates a fresh node.
func (g *graph) addWin() int {
	return g.addNode(kindWin, "")
}

// addPlayer returns the existing node for name or creates one.
func (g *graph) addPlayer(name string) int {
	if id, ok := g.players[name]; ok {
		return id
	}
	id := g.addNode(kindPlayer, name)
	g.players[name] = id
	return id
}

func (g *graph) addEdge(from, to int) {
	g.adj[from] = append(g.adj[from], to)
	if from != to {
		g.adj[to] = append(g.adj[to], from)
	}
}

// components returns the weakly connected components. Components are
// ordered by their earliest node and nodes within a component by insertion.
func (g *graph) components() [][]int {
	visited := make([]bool, len(g.kinds))
	var out [][]int

	for start := range g.kinds {
		if visited[start] {
			continue
		}
		var component []int
		stack := []int{start}
		for len(stack) > 0 {
			curr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[curr] {
				continue
			}
			visited[curr] = true
			component = append(component, curr)
			for _, n := range g.adj[curr] {
				if !visited[n] {
					stack = append(stack, n)
				}
			}
		}
		slices.Sort(component)
		out = append(out, component)
	}
	return out
}
