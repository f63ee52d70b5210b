/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package transform implements user-defined bulk edits of the rule set:
// a persisted filter (criteria) plus an ordered list of actions applied
// to every matching rule during load, previewable as a dry-run report.
package transform

import (
	"fmt"
	"time"

	"github.com/suriview/suriview/internal/criteria"
)

// ActionType names one kind of rule modification.
type ActionType string

const (
	ActionAddMetadata    ActionType = "add_metadata"
	ActionModifyMetadata ActionType = "modify_metadata"
	ActionUpdatePriority ActionType = "update_priority"
	ActionAddReference   ActionType = "add_reference"
	ActionAddTag         ActionType = "add_tag"
)

var actionTypes = map[ActionType]bool{
	ActionAddMetadata: true, ActionModifyMetadata: true,
	ActionUpdatePriority: true, ActionAddReference: true,
	ActionAddTag: true,
}

// Action is one modification step. Key is the metadata key for the
// metadata actions and unused otherwise.
type Action struct {
	Type  ActionType `json:"action_type"`
	Key   string     `json:"key,omitempty"`
	Value string     `json:"value"`
}

// Transform is a persisted rule filter plus its actions.
type Transform struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Enabled     bool         `json:"enabled"`
	Criteria    criteria.Set `json:"criteria"`
	Actions     []Action     `json:"actions"`
	CreatedAt   time.Time    `json:"created_at,omitzero"`
	UpdatedAt   time.Time    `json:"updated_at,omitzero"`
}

// Validate checks the transform shape: name, criteria and actions. It
// returns a *criteria.ValidationError so callers can map it to a
// rejected request.
func (t *Transform) Validate() error {
	if t.Name == "" {
		return &criteria.ValidationError{Message: "transform name is required"}
	}
	if err := t.Criteria.Validate(); err != nil {
		return err
	}
	if len(t.Actions) == 0 {
		return &criteria.ValidationError{Message: "at least one action is required"}
	}
	for i, a := range t.Actions {
		if err := validateAction(a); err != nil {
			return &criteria.ValidationError{
				Message: fmt.Sprintf("action %d: %s", i+1, err),
			}
		}
	}
	return nil
}

func validateAction(a Action) error {
	if !actionTypes[a.Type] {
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	switch a.Type {
	case ActionAddMetadata, ActionModifyMetadata:
		if a.Key == "" {
			return fmt.Errorf("metadata actions require a key")
		}
	}
	if a.Value == "" {
		return fmt.Errorf("action value is required")
	}
	return nil
}
