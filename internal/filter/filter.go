/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package filter is the rule browsing pipeline: free-text search, raw
// text search, structured filters, sorting and pagination over the
// in-memory rule snapshot. The pipeline is a pure function of the rule
// slice and the options; it never mutates the snapshot.
package filter

import (
	"slices"
	"strconv"
	"strings"

	"github.com/suriview/suriview/internal/query"
	"github.com/suriview/suriview/internal/rule"
)

// Options describe one browse request. Multi-select filters are OR'd
// within a field and AND'd across fields. Page is 1-indexed.
type Options struct {
	Search    string
	RawSearch string

	Actions            []string
	Protocols          []string
	Classtypes         []string
	Priorities         []int
	SID                int
	Sources            []string
	Categories         []string
	SignatureSeverity  []string
	AttackTargets      []string
	Deployments        []string
	AffectedProducts   []string
	Confidences        []string
	PerformanceImpacts []string
	Enabled            *bool

	SortBy    string
	SortOrder string

	Page     int
	PageSize int
}

// Result is one page of filtered rules. Total counts every rule that
// survived filtering, before pagination.
type Result struct {
	Rules []rule.Rule `json:"rules"`
	Total int         `json:"total"`
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// Apply runs the full pipeline: searches, structured filters, sort,
// then pagination. An out-of-range page yields an empty page with the
// total unchanged.
func Apply(rules []rule.Rule, opts Options) Result {
	standard := query.Parse(opts.Search).Compile()
	raw := query.Parse(opts.RawSearch).Compile()

	survivors := make([]rule.Rule, 0, len(rules))
	for i := range rules {
		r := &rules[i]
		if !matchStandardSearch(standard, r) {
			continue
		}
		if !raw.Match(r.Raw) {
			continue
		}
		if !matchStructured(r, &opts) {
			continue
		}
		survivors = append(survivors, *r)
	}

	sortRules(survivors, opts.SortBy, opts.SortOrder)

	return paginate(survivors, opts.Page, opts.PageSize)
}

// matchStandardSearch evaluates the standard search bar over message,
// SID and tags.
func matchStandardSearch(m *query.Matcher, r *rule.Rule) bool {
	fields := make([]string, 0, len(r.Tags)+2)
	fields = append(fields, r.Msg, strconv.Itoa(r.SID))
	fields = append(fields, r.Tags...)
	return m.MatchFields(fields...)
}

func matchStructured(r *rule.Rule, opts *Options) bool {
	if opts.SID != 0 && r.SID != opts.SID {
		return false
	}
	if len(opts.Actions) > 0 && !slices.Contains(opts.Actions, string(r.Action)) {
		return false
	}
	if !containsFold(opts.Protocols, r.Protocol) {
		return false
	}
	if !containsFold(opts.Classtypes, r.Classtype) {
		return false
	}
	if len(opts.Priorities) > 0 && !slices.Contains(opts.Priorities, r.Priority) {
		return false
	}
	if len(opts.Sources) > 0 && !slices.Contains(opts.Sources, r.Source) &&
		!(r.Source == "" && slices.Contains(opts.Sources, unsetKey)) {
		return false
	}
	if !containsFold(opts.Categories, r.Category) {
		return false
	}
	if len(opts.SignatureSeverity) > 0 && !slices.Contains(opts.SignatureSeverity, r.MetadataValue("signature_severity")) {
		return false
	}
	if len(opts.AttackTargets) > 0 && !slices.Contains(opts.AttackTargets, r.MetadataValue("attack_target")) {
		return false
	}
	if len(opts.Deployments) > 0 && !slices.Contains(opts.Deployments, r.MetadataValue("deployment")) {
		return false
	}
	if len(opts.AffectedProducts) > 0 && !slices.Contains(opts.AffectedProducts, r.MetadataValue("affected_product")) {
		return false
	}
	if len(opts.Confidences) > 0 && !slices.Contains(opts.Confidences, r.MetadataValue("confidence")) {
		return false
	}
	if len(opts.PerformanceImpacts) > 0 && !slices.Contains(opts.PerformanceImpacts, r.MetadataValue("performance_impact")) {
		return false
	}
	if opts.Enabled != nil && r.Enabled != *opts.Enabled {
		return false
	}
	return true
}

// unsetKey in a filter list selects rules whose field holds no value,
// matching the "(unset)" buckets the stats report.
const unsetKey = "(unset)"

// containsFold is a case-insensitive membership test. An empty filter
// list matches everything; an empty value matches only when unsetKey
// was selected.
func containsFold(haystack []string, value string) bool {
	if len(haystack) == 0 {
		return true
	}
	if value == "" {
		return slices.Contains(haystack, unsetKey)
	}
	for _, h := range haystack {
		if strings.EqualFold(h, value) {
			return true
		}
	}
	return false
}

func paginate(rules []rule.Rule, page, pageSize int) Result {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total := len(rules)
	start := (page - 1) * pageSize
	if start >= total {
		return Result{Rules: []rule.Rule{}, Total: total}
	}
	end := min(start+pageSize, total)
	return Result{Rules: rules[start:end], Total: total}
}
