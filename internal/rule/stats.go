/*
Copyright (c) Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package rule

import "strconv"

// Stats aggregates the active rule set per categorical field. Empty
// values are not counted; the UI renders only populated buckets.
type Stats struct {
	TotalRules int `json:"total_rules"`
	Enabled    int `json:"enabled"`
	Disabled   int `json:"disabled"`

	Actions            map[string]int `json:"actions"`
	Protocols          map[string]int `json:"protocols"`
	Classtypes         map[string]int `json:"classtypes"`
	Priorities         map[string]int `json:"priorities"`
	Sources            map[string]int `json:"sources"`
	Categories         map[string]int `json:"categories"`
	SignatureSeverity  map[string]int `json:"signature_severities"`
	AttackTargets      map[string]int `json:"attack_targets"`
	Deployments        map[string]int `json:"deployments"`
	AffectedProducts   map[string]int `json:"affected_products"`
	Confidences        map[string]int `json:"confidences"`
	PerformanceImpacts map[string]int `json:"performance_impacts"`
}

// Collect walks the rule set once and tallies every categorical field.
func Collect(rules []Rule) *Stats {
	s := &Stats{
		TotalRules:         len(rules),
		Actions:            map[string]int{},
		Protocols:          map[string]int{},
		Classtypes:         map[string]int{},
		Priorities:         map[string]int{},
		Sources:            map[string]int{},
		Categories:         map[string]int{},
		SignatureSeverity:  map[string]int{},
		AttackTargets:      map[string]int{},
		Deployments:        map[string]int{},
		AffectedProducts:   map[string]int{},
		Confidences:        map[string]int{},
		PerformanceImpacts: map[string]int{},
	}

	for i := range rules {
		r := &rules[i]
		if r.Enabled {
			s.Enabled++
		} else {
			s.Disabled++
		}

		s.Actions[string(r.Action)]++
		count(s.Protocols, r.Protocol)
		count(s.Classtypes, orUnset(r.Classtype))
		if r.Priority > 0 {
			s.Priorities[strconv.Itoa(r.Priority)]++
		}
		count(s.Sources, orUnset(r.Source))
		count(s.Categories, orUnset(r.Category))
		count(s.SignatureSeverity, r.MetadataValue("signature_severity"))
		count(s.AttackTargets, r.MetadataValue("attack_target"))
		count(s.Deployments, r.MetadataValue("deployment"))
		count(s.AffectedProducts, r.MetadataValue("affected_product"))
		count(s.Confidences, r.MetadataValue("confidence"))
		count(s.PerformanceImpacts, r.MetadataValue("performance_impact"))
	}

	return s
}

func count(m map[string]int, key string) {
	if key == "" {
		return
	}
	m[key]++
}

// orUnset buckets empty values under "(unset)" so the browse UI can
// see and select them.
func orUnset(key string) string {
	if key == "" {
		return "(unset)"
	}
	return key
}
