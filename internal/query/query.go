/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package query implements the free-text search language of the rule
// browser: whitespace-separated terms, double-quoted phrases, and
// !-negation. Positive terms are OR'd, negated terms are AND'd away.
// The language drives live-as-you-type search, so parsing is total:
// any input yields a query, never an error.
package query

import "strings"

// Term is one search token. Phrase marks tokens that came from a quoted
// phrase; they carry no semantic difference at match time but round-trip
// through the API for the UI.
type Term struct {
	Text   string `json:"text"`
	Phrase bool   `json:"phrase"`
}

// Query is a parsed search string. A rule matches when its haystack
// contains at least one RequiredAny term (or RequiredAny is empty) and
// none of the Forbidden terms, case-insensitively.
type Query struct {
	RequiredAny []Term `json:"required_any"`
	Forbidden   []Term `json:"forbidden"`
}

// IsEmpty reports whether the query constrains anything at all.
func (q *Query) IsEmpty() bool {
	return len(q.RequiredAny) == 0 && len(q.Forbidden) == 0
}

type scanner struct {
	input string
	pos   int
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.input)
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.input[s.pos]
}

func (s *scanner) next() byte {
	ch := s.input[s.pos]
	s.pos++
	return ch
}

func (s *scanner) skipWhitespace() {
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

// readPhrase consumes the body of a double-quoted phrase. The opening
// quote is already consumed. An unterminated phrase runs to end of
// input; the search bar sees every keystroke, so a half-typed quote is
// the normal case, not an error.
func (s *scanner) readPhrase() string {
	start := s.pos
	for !s.eof() {
		if s.peek() == '"' {
			text := s.input[start:s.pos]
			s.pos++
			return text
		}
		s.pos++
	}
	return s.input[start:]
}

// readWord consumes a bare term up to the next whitespace.
func (s *scanner) readWord(prefix string) string {
	start := s.pos
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\n', '\r':
			return prefix + s.input[start:s.pos]
		}
		s.pos++
	}
	return prefix + s.input[start:]
}

// Parse tokenizes a raw search string. An empty or whitespace-only
// input yields the empty query, which matches everything.
//
// Token rules:
//   - "..."  quoted phrase, quotes stripped, may contain whitespace
//   - !term  negated term, the ! is stripped
//   - \!term literal term starting with !, the backslash is stripped
//   - a lone ! with nothing behind it is dropped
func Parse(input string) *Query {
	q := &Query{}
	s := &scanner{input: input}

	for {
		s.skipWhitespace()
		if s.eof() {
			return q
		}

		negated := false
		prefix := ""
		switch s.peek() {
		case '!':
			s.next()
			negated = true
		case '\\':
			// Only the \! escape is recognized; a backslash before
			// anything else stays literal.
			if s.pos+1 < len(s.input) && s.input[s.pos+1] == '!' {
				s.pos += 2
				prefix = "!"
			}
		}

		var term Term
		if s.peek() == '"' {
			s.next()
			term = Term{Text: prefix + s.readPhrase(), Phrase: true}
		} else {
			term = Term{Text: s.readWord(prefix)}
		}

		if term.Text == "" {
			// Lone ! or empty phrase, nothing to match on.
			continue
		}

		if negated {
			q.Forbidden = append(q.Forbidden, term)
		} else {
			q.RequiredAny = append(q.RequiredAny, term)
		}
	}
}

// Terms returns the plain text of a term list.
func Terms(terms []Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Text
	}
	return out
}

// String reassembles a query into its canonical search-bar form.
func (q *Query) String() string {
	var parts []string
	for _, t := range q.RequiredAny {
		parts = append(parts, formatTerm(t, false))
	}
	for _, t := range q.Forbidden {
		parts = append(parts, formatTerm(t, true))
	}
	return strings.Join(parts, " ")
}

func formatTerm(t Term, negated bool) string {
	text := t.Text
	if t.Phrase {
		text = `"` + text + `"`
	} else if strings.HasPrefix(text, "!") {
		text = `\` + text
	}
	if negated {
		return "!" + text
	}
	return text
}
