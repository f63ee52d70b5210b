/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package transform

import (
	"log/slog"
	"slices"
	"strconv"

	"github.com/suriview/suriview/internal/criteria"
	"github.com/suriview/suriview/internal/rule"
)

// Apply runs every enabled transform over a freshly loaded rule set,
// mutating matching rules in place. It is called between parsing and
// the snapshot swap, so requests never observe a half-transformed set.
// Transforms that fail validation are skipped and logged; one bad
// definition must not block a reload. The returned map holds the
// matched rule count per transform id.
func Apply(rules []rule.Rule, transforms []*Transform, logger *slog.Logger) map[string]int {
	if logger == nil {
		logger = slog.Default()
	}

	counts := make(map[string]int, len(transforms))
	for _, t := range transforms {
		if !t.Enabled {
			continue
		}
		eval, err := criteria.NewEvaluator(t.Criteria)
		if err != nil {
			logger.Warn("Skipping invalid transform during rule load.",
				"transform", t.ID, "error", err)
			continue
		}
		for _, warning := range eval.Warnings() {
			logger.Warn("Transform criterion degraded.", "transform", t.ID, "warning", warning)
		}

		matched := 0
		for i := range rules {
			if !eval.Match(&rules[i]) {
				continue
			}
			applyActions(&rules[i], t.Actions)
			matched++
		}
		counts[t.ID] = matched
		logger.Info("Applied transform to rule set.",
			"transform", t.ID, "name", t.Name, "matched", matched)
	}
	return counts
}

func applyActions(r *rule.Rule, actions []Action) {
	for _, a := range actions {
		switch a.Type {
		case ActionAddMetadata:
			if r.Metadata == nil {
				r.Metadata = map[string]string{}
			}
			if _, ok := r.Metadata[a.Key]; !ok {
				r.Metadata[a.Key] = a.Value
			}
		case ActionModifyMetadata:
			if r.Metadata == nil {
				r.Metadata = map[string]string{}
			}
			r.Metadata[a.Key] = a.Value
		case ActionUpdatePriority:
			if n, err := strconv.Atoi(a.Value); err == nil && n > 0 {
				r.Priority = n
			}
		case ActionAddReference:
			if !slices.Contains(r.References, a.Value) {
				r.References = append(r.References, a.Value)
			}
		case ActionAddTag:
			if !slices.Contains(r.Tags, a.Value) {
				r.Tags = append(r.Tags, a.Value)
			}
		}
	}
}
