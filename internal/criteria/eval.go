/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package criteria

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/suriview/suriview/internal/rule"
)

// Set is the criteria of one transform: either a single criterion or an
// ordered sequence combined with AND. The JSON form accepts an object
// or an array and round-trips in the same shape.
type Set struct {
	criteria []Criterion
	single   bool
}

func Single(c Criterion) Set {
	return Set{criteria: []Criterion{c}, single: true}
}

func All(cs ...Criterion) Set {
	return Set{criteria: cs}
}

// List returns the criteria in evaluation order.
func (s Set) List() []Criterion {
	return s.criteria
}

func (s *Set) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		s.single = false
		return json.Unmarshal(data, &s.criteria)
	}
	var c Criterion
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	s.criteria = []Criterion{c}
	s.single = true
	return nil
}

func (s Set) MarshalJSON() ([]byte, error) {
	if s.single && len(s.criteria) == 1 {
		return json.Marshal(s.criteria[0])
	}
	return json.Marshal(s.criteria)
}

// Validate checks every criterion; an empty set is rejected because a
// transform without criteria would match everything silently.
func (s Set) Validate() error {
	if len(s.criteria) == 0 {
		return validationErrorf("at least one criterion is required")
	}
	for i := range s.criteria {
		if err := s.criteria[i].Validate(); err != nil {
			return fmt.Errorf("criterion %d: %w", i+1, err)
		}
	}
	return nil
}

// compiled is a criterion with its regex built ahead of evaluation. A
// pattern that fails to compile degrades the criterion to match nothing
// and is reported once as a warning, not per rule.
type compiled struct {
	Criterion
	re     *regexp.Regexp
	broken bool
}

// Evaluator applies a criteria set to rules. Build one per batch so
// regex compilation and warnings happen once.
type Evaluator struct {
	criteria []compiled
	warnings []string
}

// NewEvaluator validates the set and compiles its regex criteria.
func NewEvaluator(set Set) (*Evaluator, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	e := &Evaluator{}
	for _, c := range set.criteria {
		cc := compiled{Criterion: c}
		if c.Operator == OpRegex {
			pattern := c.Value
			if !c.CaseSensitive {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				cc.broken = true
				e.warnings = append(e.warnings,
					fmt.Sprintf("invalid regex %q for field %q: criterion matches nothing", c.Value, c.Field))
			} else {
				cc.re = re
			}
		}
		e.criteria = append(e.criteria, cc)
	}
	return e, nil
}

// Warnings returns configuration problems found while compiling, one
// entry per broken criterion.
func (e *Evaluator) Warnings() []string {
	return e.warnings
}

// Match reports whether the rule satisfies every criterion in the set,
// short-circuiting on the first miss.
func (e *Evaluator) Match(r *rule.Rule) bool {
	for i := range e.criteria {
		if !e.criteria[i].match(r) {
			return false
		}
	}
	return true
}

func (c *compiled) match(r *rule.Rule) bool {
	value, present := ResolveField(r, c.Field)

	switch c.Operator {
	case OpExists:
		return present
	case OpNotExists:
		return !present
	}
	if !present {
		return false
	}

	switch c.Operator {
	case OpContains:
		haystack, needle := fold(value, c.Value, c.CaseSensitive)
		return strings.Contains(haystack, needle)
	case OpExactMatch:
		haystack, needle := fold(value, c.Value, c.CaseSensitive)
		return haystack == needle
	case OpRegex:
		if c.broken {
			return false
		}
		return c.re.MatchString(value)
	case OpInList:
		return inList(value, c.Values, c.CaseSensitive)
	case OpNotInList:
		return !inList(value, c.Values, c.CaseSensitive)
	case OpGreaterThan:
		a, b, ok := floats(value, c.Value)
		return ok && a > b
	case OpLessThan:
		a, b, ok := floats(value, c.Value)
		return ok && a < b
	}
	return false
}

func fold(a, b string, caseSensitive bool) (string, string) {
	if caseSensitive {
		return a, b
	}
	return strings.ToLower(a), strings.ToLower(b)
}

func inList(value string, candidates []string, caseSensitive bool) bool {
	for _, candidate := range candidates {
		a, b := fold(value, candidate, caseSensitive)
		if a == b {
			return true
		}
	}
	return false
}

func floats(a, b string) (float64, float64, bool) {
	fa, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, false
	}
	fb, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, false
	}
	return fa, fb, true
}
