/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package criteria implements field-based rule matching for transforms:
// a criterion names a rule field, an operator and a value, and a set of
// criteria is AND-combined to decide which rules a transform touches.
package criteria

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/suriview/suriview/internal/rule"
)

// Operator is the comparison a criterion applies to the resolved field.
type Operator string

const (
	OpContains    Operator = "contains"
	OpExactMatch  Operator = "exact_match"
	OpRegex       Operator = "regex"
	OpInList      Operator = "in_list"
	OpNotInList   Operator = "not_in_list"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpExists      Operator = "exists"
	OpNotExists   Operator = "not_exists"
)

var operators = map[Operator]bool{
	OpContains: true, OpExactMatch: true, OpRegex: true,
	OpInList: true, OpNotInList: true,
	OpGreaterThan: true, OpLessThan: true,
	OpExists: true, OpNotExists: true,
}

// ValidationError reports a malformed criterion or transform at
// construction time. It never occurs during evaluation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Criterion matches one rule field against a value. Value carries the
// operand for scalar operators, Values for the list operators. The JSON
// form accepts a string, a number, or an array under the single key
// "value", mirroring the API contract.
type Criterion struct {
	Field         string   `json:"field"`
	Operator      Operator `json:"operator"`
	Value         string   `json:"-"`
	Values        []string `json:"-"`
	CaseSensitive bool     `json:"case_sensitive,omitempty"`
}

type criterionWire struct {
	Field         string          `json:"field"`
	Operator      Operator        `json:"operator"`
	Value         json.RawMessage `json:"value,omitempty"`
	CaseSensitive bool            `json:"case_sensitive,omitempty"`
}

func (c *Criterion) UnmarshalJSON(data []byte) error {
	var wire criterionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.Field = wire.Field
	c.Operator = wire.Operator
	c.CaseSensitive = wire.CaseSensitive
	c.Value = ""
	c.Values = nil

	if len(wire.Value) == 0 || string(wire.Value) == "null" {
		return nil
	}

	switch wire.Value[0] {
	case '[':
		var values []any
		if err := json.Unmarshal(wire.Value, &values); err != nil {
			return err
		}
		for _, v := range values {
			c.Values = append(c.Values, scalarToString(v))
		}
	default:
		var value any
		if err := json.Unmarshal(wire.Value, &value); err != nil {
			return err
		}
		c.Value = scalarToString(value)
	}
	return nil
}

func (c Criterion) MarshalJSON() ([]byte, error) {
	wire := criterionWire{
		Field:         c.Field,
		Operator:      c.Operator,
		CaseSensitive: c.CaseSensitive,
	}
	var err error
	if c.Values != nil {
		wire.Value, err = json.Marshal(c.Values)
	} else {
		wire.Value, err = json.Marshal(c.Value)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

func scalarToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Validate checks the criterion shape. Field names are a closed set;
// unknown fields are rejected here so evaluation stays total.
func (c *Criterion) Validate() error {
	if c.Field == "" {
		return validationErrorf("criterion is missing a field")
	}
	if !operators[c.Operator] {
		return validationErrorf("unknown operator %q", c.Operator)
	}
	if _, ok := accessor(c.Field); !ok {
		return validationErrorf("unknown field %q", c.Field)
	}

	switch c.Operator {
	case OpInList, OpNotInList:
		if len(c.Values) == 0 {
			return validationErrorf("operator %q requires a non-empty value list", c.Operator)
		}
	case OpExists, OpNotExists:
		// No operand.
	default:
		if c.Value == "" && len(c.Values) == 0 {
			return validationErrorf("operator %q requires a value", c.Operator)
		}
		if len(c.Values) > 0 {
			return validationErrorf("operator %q takes a single value, not a list", c.Operator)
		}
	}
	return nil
}

const metadataPrefix = "metadata."

// Fields is the closed set of plain criterion field names. Metadata
// keys are addressed as metadata.<key> and validated structurally.
var Fields = []string{
	"sid", "action", "protocol", "msg", "classtype", "priority", "rev",
	"raw", "source", "source_file", "category",
	"src_ip", "src_port", "dst_ip", "dst_port", "direction",
}

// fieldAccessors resolves a plain field name to its value and whether
// the field is set. Optional fields count as absent when empty; that is
// what the exists operators test.
var fieldAccessors = map[string]func(*rule.Rule) (string, bool){
	"sid": func(r *rule.Rule) (string, bool) {
		if r.SID == 0 {
			return "", false
		}
		return strconv.Itoa(r.SID), true
	},
	"action":   func(r *rule.Rule) (string, bool) { return string(r.Action), true },
	"protocol": func(r *rule.Rule) (string, bool) { return r.Protocol, r.Protocol != "" },
	"msg":      func(r *rule.Rule) (string, bool) { return r.Msg, r.Msg != "" },
	"classtype": func(r *rule.Rule) (string, bool) {
		return r.Classtype, r.Classtype != ""
	},
	"priority": func(r *rule.Rule) (string, bool) {
		if r.Priority == 0 {
			return "", false
		}
		return strconv.Itoa(r.Priority), true
	},
	"rev": func(r *rule.Rule) (string, bool) {
		if r.Rev == 0 {
			return "", false
		}
		return strconv.Itoa(r.Rev), true
	},
	"raw":         func(r *rule.Rule) (string, bool) { return r.Raw, r.Raw != "" },
	"source":      func(r *rule.Rule) (string, bool) { return r.Source, r.Source != "" },
	"source_file": func(r *rule.Rule) (string, bool) { return r.SourceFile, r.SourceFile != "" },
	"category":    func(r *rule.Rule) (string, bool) { return r.Category, r.Category != "" },
	"src_ip":      func(r *rule.Rule) (string, bool) { return r.SrcIP, r.SrcIP != "" },
	"src_port":    func(r *rule.Rule) (string, bool) { return r.SrcPort, r.SrcPort != "" },
	"dst_ip":      func(r *rule.Rule) (string, bool) { return r.DstIP, r.DstIP != "" },
	"dst_port":    func(r *rule.Rule) (string, bool) { return r.DstPort, r.DstPort != "" },
	"direction":   func(r *rule.Rule) (string, bool) { return r.Direction, r.Direction != "" },
}

func accessor(field string) (func(*rule.Rule) (string, bool), bool) {
	if key, ok := strings.CutPrefix(field, metadataPrefix); ok {
		if key == "" {
			return nil, false
		}
		return func(r *rule.Rule) (string, bool) {
			v := r.MetadataValue(key)
			return v, v != ""
		}, true
	}
	fn, ok := fieldAccessors[field]
	return fn, ok
}

// ResolveField returns the value of a criterion field for a rule and
// whether the field is set. Unknown fields resolve to absent; Validate
// rejects them before evaluation ever sees one.
func ResolveField(r *rule.Rule, field string) (string, bool) {
	fn, ok := accessor(field)
	if !ok {
		return "", false
	}
	return fn(r)
}
