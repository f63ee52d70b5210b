/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package criteria

import "github.com/suriview/suriview/internal/rule"

// DefaultExampleLimit bounds the sample of matched rules in a report.
const DefaultExampleLimit = 10

// unset is the breakdown key for rules whose grouping field is empty.
const unset = "(unset)"

// ExampleMatch is one sampled matched rule for display.
type ExampleMatch struct {
	SID      int    `json:"sid"`
	Msg      string `json:"msg"`
	Source   string `json:"source,omitempty"`
	Category string `json:"category,omitempty"`
}

// Report is the outcome of a dry-run: how many rules a criteria set
// matches, broken down by source, category and action, with a bounded
// sample of matches in rule-set order.
type Report struct {
	TotalRules   int            `json:"total_rules"`
	TotalMatched int            `json:"total_matched"`
	BySource     map[string]int `json:"breakdown_by_source"`
	ByCategory   map[string]int `json:"breakdown_by_category"`
	ByAction     map[string]int `json:"breakdown_by_action"`
	Examples     []ExampleMatch `json:"example_matches"`
	Warnings     []string       `json:"warnings,omitempty"`
}

// BuildReport evaluates a criteria set against the full rule set. Only
// set validation can fail; broken regex patterns degrade to warnings on
// the report.
func BuildReport(rules []rule.Rule, set Set, exampleLimit int) (*Report, error) {
	eval, err := NewEvaluator(set)
	if err != nil {
		return nil, err
	}
	if exampleLimit <= 0 {
		exampleLimit = DefaultExampleLimit
	}

	report := &Report{
		TotalRules: len(rules),
		BySource:   map[string]int{},
		ByCategory: map[string]int{},
		ByAction:   map[string]int{},
		Examples:   []ExampleMatch{},
		Warnings:   eval.Warnings(),
	}

	for i := range rules {
		r := &rules[i]
		if !eval.Match(r) {
			continue
		}
		report.TotalMatched++

		report.BySource[orUnset(r.Source)]++
		report.ByCategory[orUnset(r.Category)]++
		report.ByAction[orUnset(string(r.Action))]++

		if len(report.Examples) < exampleLimit {
			report.Examples = append(report.Examples, ExampleMatch{
				SID:      r.SID,
				Msg:      r.Msg,
				Source:   r.Source,
				Category: r.Category,
			})
		}
	}

	return report, nil
}

func orUnset(v string) string {
	if v == "" {
		return unset
	}
	return v
}
