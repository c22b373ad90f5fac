// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package query

import (
	"fmt"
	"regexp"
)

// FlagScope is what a flag sees while rendering its SQL.
type FlagScope interface {
	// Bind returns the placeholder for one of the flag's own values. The
	// bind is suffixed with the flag alias so flags never collide.
	Bind(name string) string

	// MatchSubset returns a sub-select yielding an "id" column with the
	// matches that satisfy the search criteria compiled so far. Only flags
	// declaring NeedsMatchSubset may call it.
	MatchSubset() string
}

// FlagFragment is a detectable behavioural pattern. Its rendered SQL must
// select a match_id column; the search builder inner-joins the distinct
// match ids against matches.
type FlagFragment struct {
	Alias string
	Name  string

	// Evidence marks flags whose rows also carry number, timestamp and an
	// optional value column, so they can be reported per player and match.
	// Flags without it are only usable as search filters.
	Evidence bool

	// NeedsMatchSubset marks flags that are only affordable when restricted
	// to already filtered matches.
	NeedsMatchSubset bool

	Values map[string]any
	Render func(FlagScope) string
}

var aliasPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// FlagRegistry is a fixed catalog of flags keyed by alias.
type FlagRegistry struct {
	flags map[string]FlagFragment
	order []string
}

// NewFlagRegistry validates and indexes flags. Aliases must be unique
// lower_snake identifiers because they are used as SQL aliases.
func NewFlagRegistry(flags ...FlagFragment) (*FlagRegistry, error) {
	r := &FlagRegistry{flags: make(map[string]FlagFragment, len(flags))}
	for _, f := range flags {
		if !aliasPattern.MatchString(f.Alias) {
			return nil, fmt.Errorf("query: flag alias %q is not a valid identifier", f.Alias)
		}
		if f.Render == nil {
			return nil, fmt.Errorf("query: flag %q has no renderer", f.Alias)
		}
		if _, dup := r.flags[f.Alias]; dup {
			return nil, fmt.Errorf("query: duplicate flag alias %q", f.Alias)
		}
		r.flags[f.Alias] = f
		r.order = append(r.order, f.Alias)
	}
	return r, nil
}

// MustFlagRegistry is NewFlagRegistry for static catalogs.
func MustFlagRegistry(flags ...FlagFragment) *FlagRegistry {
	r, err := NewFlagRegistry(flags...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the flag registered under alias.
func (r *FlagRegistry) Lookup(alias string) (FlagFragment, bool) {
	f, ok := r.flags[alias]
	return f, ok
}

// Flags returns the catalog in registration order.
func (r *FlagRegistry) Flags() []FlagFragment {
	out := make([]FlagFragment, 0, len(r.order))
	for _, a := range r.order {
		out = append(out, r.flags[a])
	}
	return out
}

// renderedFlag is a flag instantiated for one search.
type renderedFlag struct {
	SQL  string
	Args map[string]any
}

// flagScope implements FlagScope for one flag in one search.
type flagScope struct {
	flag        FlagFragment
	subset      string
	usedSubset  bool
	unknownBind string
}

func (s *flagScope) Bind(name string) string {
	if _, ok := s.flag.Values[name]; !ok && s.unknownBind == "" {
		s.unknownBind = name
	}
	return Placeholder(Suffixed(name, s.flag.Alias))
}

func (s *flagScope) MatchSubset() string {
	s.usedSubset = true
	return s.subset
}

// render instantiates f. subset is only computed when f declares it needs it.
func render(f FlagFragment, subset func() string) (renderedFlag, error) {
	scope := &flagScope{flag: f}
	if f.NeedsMatchSubset {
		scope.subset = subset()
	}

	sql := f.Render(scope)

	if scope.usedSubset && !f.NeedsMatchSubset {
		return renderedFlag{}, fmt.Errorf("query: flag %q uses the match subset without declaring it", f.Alias)
	}
	if scope.unknownBind != "" {
		return renderedFlag{}, fmt.Errorf("query: flag %q binds undeclared value %q", f.Alias, scope.unknownBind)
	}

	args := make(map[string]any, len(f.Values))
	for name, v := range f.Values {
		args[Suffixed(name, f.Alias)] = v
	}
	return renderedFlag{SQL: sql, Args: args}, nil
}

// EvidenceMatchesBind is the bind holding the match ids an evidence query is
// restricted to.
const EvidenceMatchesBind = "evidence_match_ids"

// EvidenceQuery is an evidence flag rendered against a fixed set of
// matches. Rows carry match_id, number, timestamp and optionally value, in
// timestamp order.
type EvidenceQuery struct {
	Flag FlagFragment
	SQL  string
	Args map[string]any
}

// EvidenceQueries renders every evidence flag, in catalog order, restricted
// to matchIDs. Subset flags see exactly those matches.
func (r *FlagRegistry) EvidenceQueries(matchIDs []int64) ([]EvidenceQuery, error) {
	subset := func() string {
		return "SELECT matches.id AS id FROM matches WHERE matches.id = ANY(" + Placeholder(EvidenceMatchesBind) + ")"
	}

	var out []EvidenceQuery
	for _, alias := range r.order {
		f := r.flags[alias]
		if !f.Evidence {
			continue
		}
		rf, err := render(f, subset)
		if err != nil {
			return nil, err
		}
		rf.Args[EvidenceMatchesBind] = matchIDs
		out = append(out, EvidenceQuery{
			Flag: f,
			SQL: fmt.Sprintf("SELECT inside.* FROM (%s) AS inside WHERE inside.match_id = ANY(%s) ORDER BY inside.timestamp",
				rf.SQL, Placeholder(EvidenceMatchesBind)),
			Args: rf.Args,
		})
	}
	return out, nil
}
