/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/suriview/suriview/internal/criteria"
	"github.com/suriview/suriview/internal/record"
	"github.com/suriview/suriview/internal/transform"
)

func (s *Server) handleListTransforms(w http.ResponseWriter, r *http.Request) {
	transforms, err := s.backend.Transforms().List()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transforms": transforms,
		"total":      len(transforms),
	})
}

func (s *Server) handleCreateTransform(w http.ResponseWriter, r *http.Request) {
	var t transform.Transform
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid transform body: %w", err))
		return
	}
	if err := t.Validate(); err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}

	if err := s.backend.Transforms().Create(&t); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	record.Transform("created", &t, s.backend.Audit())
	writeJSON(w, http.StatusCreated, &t)
}

func (s *Server) handleGetTransform(w http.ResponseWriter, r *http.Request) {
	t, err := s.backend.Transforms().Get(r.PathValue("id"))
	if err != nil {
		writeTransformErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTransform(w http.ResponseWriter, r *http.Request) {
	var t transform.Transform
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid transform body: %w", err))
		return
	}
	if err := t.Validate(); err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}

	if err := s.backend.Transforms().Update(r.PathValue("id"), &t); err != nil {
		writeTransformErr(w, err)
		return
	}

	record.Transform("updated", &t, s.backend.Audit())
	writeJSON(w, http.StatusOK, &t)
}

func (s *Server) handleDeleteTransform(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, err := s.backend.Transforms().Get(id)
	if err != nil {
		writeTransformErr(w, err)
		return
	}
	if err := s.backend.Transforms().Delete(id); err != nil {
		writeTransformErr(w, err)
		return
	}

	record.Transform("deleted", t, s.backend.Audit())
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "id": id})
}

func (s *Server) handleEnableTransform(w http.ResponseWriter, r *http.Request) {
	s.setTransformEnabled(w, r, true)
}

func (s *Server) handleDisableTransform(w http.ResponseWriter, r *http.Request) {
	s.setTransformEnabled(w, r, false)
}

func (s *Server) setTransformEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	t, err := s.backend.Transforms().SetEnabled(r.PathValue("id"), enabled)
	if err != nil {
		writeTransformErr(w, err)
		return
	}

	event := "disabled"
	if enabled {
		event = "enabled"
	}
	record.Transform(event, t, s.backend.Audit())
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDryRunTransform(w http.ResponseWriter, r *http.Request) {
	t, err := s.backend.Transforms().Get(r.PathValue("id"))
	if err != nil {
		writeTransformErr(w, err)
		return
	}

	rules := s.backend.Rules()
	result, err := transform.Preview(rules, t)
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}

	record.DryRun(t, result.TotalMatched, len(rules), s.backend.Audit())
	writeJSON(w, http.StatusOK, result)
}

type testTransformRequest struct {
	Criteria     criteria.Set `json:"criteria"`
	ExampleLimit int          `json:"example_limit"`
}

// handleTestTransform evaluates a criteria set against the snapshot
// without persisting anything.
func (s *Server) handleTestTransform(w http.ResponseWriter, r *http.Request) {
	var req testTransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid test body: %w", err))
		return
	}
	if err := req.Criteria.Validate(); err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}

	limit := req.ExampleLimit
	if limit <= 0 {
		limit = criteria.DefaultExampleLimit
	}

	report, err := criteria.BuildReport(s.backend.Rules(), req.Criteria, limit)
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeTransformErr(w http.ResponseWriter, err error) {
	var notFound *transform.NotFoundError
	if errors.As(err, &notFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	var invalid *criteria.ValidationError
	if errors.As(err, &invalid) {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeErr(w, http.StatusInternalServerError, err)
}
