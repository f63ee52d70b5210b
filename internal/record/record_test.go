/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package record

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/suriview/suriview/internal/criteria"
	"github.com/suriview/suriview/internal/rule"
	"github.com/suriview/suriview/internal/transform"
)

var log bytes.Buffer

func setupLogger() *slog.Logger {
	log.Reset()
	return slog.New(slog.NewJSONHandler(&log, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func decodeEvent(t *testing.T) map[string]any {
	var result map[string]any
	err := json.Unmarshal(log.Bytes(), &result)
	assert.NoError(t, err)
	return result
}

func loadEmitsLoadEvent(t *testing.T) {
	logger := setupLogger()

	rules := []rule.Rule{
		{SID: 1, Enabled: true},
		{SID: 2, Enabled: true},
		{SID: 3, Enabled: false},
	}
	Load(1, rules, 2, logger)

	result := decodeEvent(t)
	assert.Equal(t, "LOAD", result["type"])
	assert.Equal(t, float64(1), result["generation"])
	assert.Equal(t, float64(3), result["rules"])
	assert.Equal(t, float64(2), result["enabled"])
	assert.Equal(t, float64(1), result["disabled"])
	assert.Equal(t, float64(2), result["sources"])
	assert.Contains(t, result["msg"], "LOAD completed with 3 rules")
}

func loadEmitsReloadEventForLaterGenerations(t *testing.T) {
	logger := setupLogger()

	Load(4, nil, 1, logger)

	result := decodeEvent(t)
	assert.Equal(t, "RELOAD", result["type"])
	assert.Equal(t, float64(4), result["generation"])
}

func transformEmitsLifecycleEvent(t *testing.T) {
	logger := setupLogger()

	tr := &transform.Transform{
		ID:      "transform-1a2b3c4d",
		Name:    "Raise malware priority",
		Enabled: true,
		Criteria: criteria.Single(criteria.Criterion{
			Field: "category", Operator: criteria.OpExactMatch, Value: "MALWARE",
		}),
		Actions: []transform.Action{
			{Type: transform.ActionUpdatePriority, Value: "1"},
		},
	}
	Transform("created", tr, logger)

	result := decodeEvent(t)
	assert.Equal(t, "TRANSFORM", result["type"])
	assert.Equal(t, "created", result["event"])
	assert.Equal(t, "transform-1a2b3c4d", result["transform"])
	assert.Equal(t, "Raise malware priority", result["name"])
	assert.Equal(t, true, result["enabled"])
	assert.Equal(t, float64(1), result["actions"])
}

func dryRunEmitsDryRunEvent(t *testing.T) {
	logger := setupLogger()

	tr := &transform.Transform{ID: "transform-deadbeef", Name: "test"}
	DryRun(tr, 12, 300, logger)

	result := decodeEvent(t)
	assert.Equal(t, "DRYRUN", result["type"])
	assert.Equal(t, "transform-deadbeef", result["transform"])
	assert.Equal(t, float64(12), result["matched"])
	assert.Equal(t, float64(300), result["rules"])
}

func TestRecord(t *testing.T) {
	t.Run("record.Load emits LOAD event", loadEmitsLoadEvent)
	t.Run("record.Load emits RELOAD event for later generations", loadEmitsReloadEventForLaterGenerations)
	t.Run("record.Transform emits lifecycle event", transformEmitsLifecycleEvent)
	t.Run("record.DryRun emits dry run event", dryRunEmitsDryRunEvent)
}
