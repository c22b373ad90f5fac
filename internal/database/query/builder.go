// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package query

import (
	"fmt"
	"strings"
)

// WhereBuilder collects AND-combined predicates and their named binds.
//
//	wb := query.NewWhereBuilder()
//	wb.AddClause("matches.type_id = @type_id", "type_id", 0)
//	wb.Add(pred)
//	clause, args := wb.Build()
type WhereBuilder struct {
	clauses []string
	args    map[string]any
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{args: map[string]any{}}
}

// Add appends a compiled predicate.
func (wb *WhereBuilder) Add(p Predicate) *WhereBuilder {
	return wb.AddClause(p.SQL, p.Bind, p.Value)
}

// AddClause appends a raw clause referencing a single bind. An empty bind
// name adds a clause without arguments.
func (wb *WhereBuilder) AddClause(clause, bind string, value any) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	if bind != "" {
		wb.args[bind] = value
	}
	return wb
}

// AddArgs appends a clause referencing several binds.
func (wb *WhereBuilder) AddArgs(clause string, args map[string]any) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	for k, v := range args {
		wb.args[k] = v
	}
	return wb
}

// Build returns the clauses joined with AND, or "1=1" when empty, plus a
// copy of the arguments.
func (wb *WhereBuilder) Build() (string, map[string]any) {
	if len(wb.clauses) == 0 {
		return "1=1", wb.Args()
	}
	return strings.Join(wb.clauses, " AND "), wb.Args()
}

// Where returns " WHERE <clauses>" or "" when no clause was added.
func (wb *WhereBuilder) Where() string {
	if len(wb.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(wb.clauses, " AND ")
}

// Args returns a copy of the collected binds.
func (wb *WhereBuilder) Args() map[string]any {
	out := make(map[string]any, len(wb.args))
	for k, v := range wb.args {
		out[k] = v
	}
	return out
}

// Count returns the number of clauses.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no clause was added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}

// BindName derives a bind name from a dotted column path.
//
//	BindName("players.civilization_id") == "players_civilization_id"
func BindName(path string) string {
	return strings.ReplaceAll(path, ".", "_")
}

// Placeholder renders the SQL reference to a bind.
func Placeholder(bind string) string {
	return "@" + bind
}

// Suffixed returns bind with a disambiguating suffix.
func Suffixed(bind string, suffix any) string {
	return fmt.Sprintf("%s_%v", bind, suffix)
}
