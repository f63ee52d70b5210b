/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/suriview/suriview/internal/filter"
	"github.com/suriview/suriview/internal/rule"
)

type listRulesResponse struct {
	Rules      []rule.Rule `json:"rules"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Generation uint64      `json:"generation"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	opts, err := parseFilterOptions(r.URL.Query())
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	result := filter.Apply(s.backend.Rules(), opts)
	writeJSON(w, http.StatusOK, listRulesResponse{
		Rules:      result.Rules,
		Total:      result.Total,
		Page:       max(opts.Page, 1),
		PageSize:   effectivePageSize(opts.PageSize),
		Generation: s.backend.Generation(),
	})
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	sid, err := strconv.Atoi(r.PathValue("sid"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid sid %q", r.PathValue("sid")))
		return
	}

	found, ok := s.backend.RuleBySID(sid)
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("rule %d not found", sid))
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := rule.Collect(s.backend.Rules())
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Reload(r.Context()); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "reloaded",
		"generation": s.backend.Generation(),
	})
}

// parseFilterOptions maps query parameters onto the filter pipeline.
// Multi-select filters repeat the parameter.
func parseFilterOptions(q url.Values) (filter.Options, error) {
	opts := filter.Options{
		Search:             q.Get("search"),
		RawSearch:          q.Get("raw_search"),
		Actions:            q["action"],
		Protocols:          q["protocol"],
		Classtypes:         q["classtype"],
		Sources:            q["source"],
		Categories:         q["category"],
		SignatureSeverity:  q["signature_severity"],
		AttackTargets:      q["attack_target"],
		Deployments:        q["deployment"],
		AffectedProducts:   q["affected_product"],
		Confidences:        q["confidence"],
		PerformanceImpacts: q["performance_impact"],
		SortBy:             q.Get("sort_by"),
		SortOrder:          q.Get("sort_order"),
	}

	for _, raw := range q["priority"] {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid priority %q", raw)
		}
		opts.Priorities = append(opts.Priorities, n)
	}

	var err error
	if opts.SID, err = intParam(q, "sid"); err != nil {
		return opts, err
	}
	if opts.Page, err = intParam(q, "page"); err != nil {
		return opts, err
	}
	if opts.PageSize, err = intParam(q, "page_size"); err != nil {
		return opts, err
	}

	if raw := q.Get("enabled"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid enabled %q", raw)
		}
		opts.Enabled = &enabled
	}

	return opts, nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

func effectivePageSize(size int) int {
	if size < 1 {
		return filter.DefaultPageSize
	}
	if size > filter.MaxPageSize {
		return filter.MaxPageSize
	}
	return size
}
