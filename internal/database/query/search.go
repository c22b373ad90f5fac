// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package query

import (
	"fmt"
	"sort"
	"strings"
)

// CriteriaGroup maps a table to its field criteria:
//
//	{"players": {"civilization_id": {"values": [5]}},
//	 "matches": {"map_name": {"values": ["Arabia"]}}}
type CriteriaGroup map[string]map[string]Criterion

// CompiledSearch is a search ready to execute. PageSQL and CountSQL share
// Args.
type CompiledSearch struct {
	PageSQL  string
	CountSQL string
	Args     map[string]any
}

// DefaultMaxLimit caps page sizes unless overridden by WithMaxLimit.
const DefaultMaxLimit = 100

// SearchBuilder compiles match searches against a fixed flag registry.
type SearchBuilder struct {
	registry *FlagRegistry
	maxLimit int
}

// SearchOption configures a SearchBuilder.
type SearchOption func(*SearchBuilder)

// WithMaxLimit sets the largest page a search may request.
func WithMaxLimit(n int) SearchOption {
	return func(b *SearchBuilder) {
		if n > 0 {
			b.maxLimit = n
		}
	}
}

// NewSearchBuilder creates a builder. A nil registry accepts no flags.
func NewSearchBuilder(registry *FlagRegistry, opts ...SearchOption) *SearchBuilder {
	if registry == nil {
		registry = MustFlagRegistry()
	}
	b := &SearchBuilder{registry: registry, maxLimit: DefaultMaxLimit}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Registry returns the flag catalog the builder resolves against.
func (b *SearchBuilder) Registry() *FlagRegistry {
	return b.registry
}

type orderField struct {
	column string
	desc   bool
}

// Build compiles group, flags and order into page and count queries.
// Table criteria are compiled before flags so subset flags only see the
// already filtered matches.
func (b *SearchBuilder) Build(group CriteriaGroup, flags []string, order []string, offset, limit int) (*CompiledSearch, error) {
	if err := checkTables(group); err != nil {
		return nil, err
	}

	var joins []string
	where := NewWhereBuilder()

	for _, table := range tableOrder {
		fields := group[table]
		if len(fields) == 0 {
			continue
		}
		if table != TableMatches {
			joins = append(joins, fmt.Sprintf("JOIN %s ON %s.match_id = matches.id", table, table))
		}

		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			path := table + "." + name
			if !IsSearchable(table, name) {
				return nil, invalid(path, "unknown field")
			}
			pred, err := Compile(path, BindName(path), fields[name])
			if err != nil {
				return nil, err
			}
			where.Add(pred)
		}
	}

	tableJoins := strings.Join(joins, " ")
	subset := func() string {
		return strings.TrimSpace("SELECT DISTINCT matches.id AS id FROM matches " + tableJoins + where.Where())
	}

	args := where.Args()
	seen := make(map[string]bool, len(flags))
	for _, alias := range flags {
		if seen[alias] {
			continue
		}
		seen[alias] = true

		f, ok := b.registry.Lookup(alias)
		if !ok {
			return nil, &UnknownFlagError{Alias: alias}
		}
		rf, err := render(f, subset)
		if err != nil {
			return nil, err
		}
		name := "flag_" + f.Alias
		joins = append(joins, fmt.Sprintf(
			"JOIN (SELECT DISTINCT flagged.match_id FROM (%s) AS flagged) AS %s ON %s.match_id = matches.id",
			rf.SQL, name, name))
		for k, v := range rf.Args {
			args[k] = v
		}
	}

	ordering, err := parseOrder(order)
	if err != nil {
		return nil, err
	}

	from := "FROM matches"
	if len(joins) > 0 {
		from += " " + strings.Join(joins, " ")
	}
	from += where.Where()

	cols := []string{"matches.id"}
	terms := make([]string, 0, len(ordering)+1)
	hasID := false
	for _, o := range ordering {
		col := "matches." + o.column
		if o.column == "id" {
			hasID = true
		} else {
			cols = append(cols, col)
		}
		dir := "ASC"
		if o.desc {
			dir = "DESC"
		}
		terms = append(terms, fmt.Sprintf("%s %s NULLS LAST", col, dir))
	}
	if !hasID {
		terms = append(terms, "matches.id DESC")
	}

	return &CompiledSearch{
		PageSQL: fmt.Sprintf("SELECT DISTINCT %s %s ORDER BY %s LIMIT %d OFFSET %d",
			strings.Join(cols, ", "), from, strings.Join(terms, ", "), b.clampLimit(limit), max(offset, 0)),
		CountSQL: "SELECT COUNT(DISTINCT matches.id) AS count " + from,
		Args:     args,
	}, nil
}

func (b *SearchBuilder) clampLimit(limit int) int {
	return min(max(limit, 1), b.maxLimit)
}

func checkTables(group CriteriaGroup) error {
	for table := range group {
		if _, ok := searchColumns[table]; !ok {
			return invalid(table, "unknown table")
		}
	}
	return nil
}

// parseOrder reads "field" / "-field" entries over matches columns. An
// empty order sorts by most recently played.
func parseOrder(order []string) ([]orderField, error) {
	if len(order) == 0 {
		return []orderField{{column: "played", desc: true}}, nil
	}
	out := make([]orderField, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, raw := range order {
		o := orderField{column: raw}
		if strings.HasPrefix(raw, "-") {
			o = orderField{column: raw[1:], desc: true}
		}
		if !IsSearchable(TableMatches, o.column) {
			return nil, invalid("order."+raw, "unknown order field")
		}
		if seen[o.column] {
			continue
		}
		seen[o.column] = true
		out = append(out, o)
	}
	return out, nil
}
