/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

package filter

import (
	"sort"
	"strings"

	"github.com/suriview/suriview/internal/rule"
)

// unsetPriority is where rules without an explicit priority sort.
const unsetPriority = 999

// sortRules orders rules by the requested key, message by default. SID
// ascending is the tie break for every key, regardless of direction.
func sortRules(rules []rule.Rule, sortBy, sortOrder string) {
	desc := strings.EqualFold(sortOrder, "desc")

	var less func(a, b *rule.Rule) int
	switch strings.ToLower(sortBy) {
	case "sid":
		less = func(a, b *rule.Rule) int { return a.SID - b.SID }
	case "priority":
		less = func(a, b *rule.Rule) int {
			return sortPriority(a) - sortPriority(b)
		}
	case "rev":
		less = func(a, b *rule.Rule) int { return a.Rev - b.Rev }
	case "action":
		less = compareFold(func(r *rule.Rule) string { return string(r.Action) })
	case "protocol":
		less = compareFold(func(r *rule.Rule) string { return r.Protocol })
	case "source":
		less = compareFold(func(r *rule.Rule) string { return r.Source })
	case "category":
		less = compareFold(func(r *rule.Rule) string { return r.Category })
	case "classtype":
		less = compareFold(func(r *rule.Rule) string { return r.Classtype })
	case "severity":
		less = compareFold(func(r *rule.Rule) string { return r.MetadataValue("signature_severity") })
	case "enabled":
		less = func(a, b *rule.Rule) int {
			return boolKey(a.Enabled) - boolKey(b.Enabled)
		}
	default:
		less = compareFold(func(r *rule.Rule) string { return r.Msg })
	}

	sort.SliceStable(rules, func(i, j int) bool {
		c := less(&rules[i], &rules[j])
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return rules[i].SID < rules[j].SID
	})
}

func compareFold(key func(*rule.Rule) string) func(a, b *rule.Rule) int {
	return func(a, b *rule.Rule) int {
		return strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
	}
}

func sortPriority(r *rule.Rule) int {
	if r.Priority == 0 {
		return unsetPriority
	}
	return r.Priority
}

func boolKey(b bool) int {
	if b {
		return 1
	}
	return 0
}
