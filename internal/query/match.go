/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package query

import (
	ac "github.com/petar-dambovaliev/aho-corasick"
)

// Matcher evaluates a parsed query against haystacks. The term sets are
// compiled into case-insensitive Aho-Corasick automatons once, so a
// query scans each rule's text in a single pass regardless of how many
// terms it carries.
type Matcher struct {
	query     *Query
	required  *ac.AhoCorasick
	forbidden *ac.AhoCorasick
}

// Compile builds the automatons for a query. Compiling the empty query
// is valid and yields a matcher that accepts everything.
func (q *Query) Compile() *Matcher {
	return &Matcher{
		query:     q,
		required:  buildAutomaton(q.RequiredAny),
		forbidden: buildAutomaton(q.Forbidden),
	}
}

func buildAutomaton(terms []Term) *ac.AhoCorasick {
	if len(terms) == 0 {
		return nil
	}
	builder := ac.NewAhoCorasickBuilder(ac.Opts{
		AsciiCaseInsensitive: true,
		MatchKind:            ac.LeftMostLongestMatch,
	})
	automaton := builder.Build(Terms(terms))
	return &automaton
}

// Match reports whether the haystack satisfies the query: it contains
// at least one required term (or none are required) and none of the
// forbidden terms.
func (m *Matcher) Match(haystack string) bool {
	if m.forbidden != nil && len(m.forbidden.FindAll(haystack)) > 0 {
		return false
	}
	if m.required == nil {
		return true
	}
	return len(m.required.FindAll(haystack)) > 0
}

// MatchFields evaluates the query against several text fields. The
// fields form one logical haystack: a required term may hit any field,
// a forbidden term must hit none.
func (m *Matcher) MatchFields(fields ...string) bool {
	if m.forbidden != nil {
		for _, f := range fields {
			if len(m.forbidden.FindAll(f)) > 0 {
				return false
			}
		}
	}
	if m.required == nil {
		return true
	}
	for _, f := range fields {
		if len(m.required.FindAll(f)) > 0 {
			return true
		}
	}
	return false
}
