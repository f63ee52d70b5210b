/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package transform

import (
	"github.com/suriview/suriview/internal/criteria"
	"github.com/suriview/suriview/internal/rule"
)

// DryRunResult is a transform preview: the criteria report annotated
// with the transform identity and the actions that would be applied.
type DryRunResult struct {
	TransformID   string   `json:"transform_id"`
	TransformName string   `json:"transform_name"`
	Actions       []Action `json:"actions"`
	*criteria.Report
}

// Preview evaluates a transform against the full rule set without
// modifying anything.
func Preview(rules []rule.Rule, t *Transform) (*DryRunResult, error) {
	report, err := criteria.BuildReport(rules, t.Criteria, criteria.DefaultExampleLimit)
	if err != nil {
		return nil, err
	}
	return &DryRunResult{
		TransformID:   t.ID,
		TransformName: t.Name,
		Actions:       t.Actions,
		Report:        report,
	}, nil
}
