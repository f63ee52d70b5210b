/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suriview/suriview/internal/transform"
)

const malwareTransformBody = `{
	"name": "prioritize malware",
	"enabled": true,
	"criteria": {"field": "category", "operator": "exact_match", "value": "MALWARE"},
	"actions": [{"action_type": "update_priority", "value": "1"}]
}`

func __createTransform(t *testing.T, h http.Handler) *transform.Transform {
	t.Helper()
	rec := __do(t, h, http.MethodPost, "/api/transforms", malwareTransformBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created transform.Transform
	__decode(t, rec, &created)
	return &created
}

func createAssignsAnID(t *testing.T) {
	_, h := __setupServer(t)

	created := __createTransform(t, h)
	assert.Regexp(t, `^transform-[0-9a-f]{8}$`, created.ID)
	assert.Equal(t, "prioritize malware", created.Name)
	assert.False(t, created.CreatedAt.IsZero())
}

func createRejectsBadBodies(t *testing.T) {
	_, h := __setupServer(t)

	rec := __do(t, h, http.MethodPost, "/api/transforms", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	noActions := `{
		"name": "no actions",
		"criteria": {"field": "category", "operator": "exact_match", "value": "MALWARE"},
		"actions": []
	}`
	rec = __do(t, h, http.MethodPost, "/api/transforms", noActions)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	badField := `{
		"name": "bad field",
		"criteria": {"field": "nonesuch", "operator": "exact_match", "value": "x"},
		"actions": [{"action_type": "add_tag", "value": "reviewed"}]
	}`
	rec = __do(t, h, http.MethodPost, "/api/transforms", badField)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func listAndGetRoundTrip(t *testing.T) {
	_, h := __setupServer(t)
	created := __createTransform(t, h)

	rec := __do(t, h, http.MethodGet, "/api/transforms", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Transforms []*transform.Transform `json:"transforms"`
		Total      int                    `json:"total"`
	}
	__decode(t, rec, &listing)
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, created.ID, listing.Transforms[0].ID)

	rec = __do(t, h, http.MethodGet, "/api/transforms/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = __do(t, h, http.MethodGet, "/api/transforms/transform-missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func updateKeepsTheIdentity(t *testing.T) {
	_, h := __setupServer(t)
	created := __createTransform(t, h)

	body := `{
		"name": "prioritize malware harder",
		"enabled": true,
		"criteria": {"field": "category", "operator": "exact_match", "value": "MALWARE"},
		"actions": [{"action_type": "add_tag", "value": "reviewed"}]
	}`
	rec := __do(t, h, http.MethodPut, "/api/transforms/"+created.ID, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated transform.Transform
	__decode(t, rec, &updated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "prioritize malware harder", updated.Name)

	rec = __do(t, h, http.MethodPut, "/api/transforms/transform-missing", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func enableDisableToggle(t *testing.T) {
	_, h := __setupServer(t)
	created := __createTransform(t, h)

	rec := __do(t, h, http.MethodPost, "/api/transforms/"+created.ID+"/disable", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var toggled transform.Transform
	__decode(t, rec, &toggled)
	assert.False(t, toggled.Enabled)

	rec = __do(t, h, http.MethodPost, "/api/transforms/"+created.ID+"/enable", "")
	__decode(t, rec, &toggled)
	assert.True(t, toggled.Enabled)
}

func deleteRemovesTheTransform(t *testing.T) {
	_, h := __setupServer(t)
	created := __createTransform(t, h)

	rec := __do(t, h, http.MethodDelete, "/api/transforms/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = __do(t, h, http.MethodGet, "/api/transforms/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = __do(t, h, http.MethodDelete, "/api/transforms/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func traversalIDsReturnNotFound(t *testing.T) {
	_, h := __setupServer(t)

	for _, target := range []string{
		"/api/transforms/..%2F..%2Fvictim",
		"/api/transforms/..%5C..%5Cvictim",
	} {
		rec := __do(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, "GET %s", target)

		rec = __do(t, h, http.MethodDelete, target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, "DELETE %s", target)

		rec = __do(t, h, http.MethodPost, target+"/enable", "")
		assert.Equal(t, http.StatusNotFound, rec.Code, "POST %s/enable", target)
	}
}

func dryRunReportsWithoutMutating(t *testing.T) {
	backend, h := __setupServer(t)
	created := __createTransform(t, h)

	rec := __do(t, h, http.MethodPost, "/api/transforms/"+created.ID+"/dry-run", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		TransformID  string `json:"transform_id"`
		TotalRules   int    `json:"total_rules"`
		TotalMatched int    `json:"total_matched"`
	}
	__decode(t, rec, &result)
	assert.Equal(t, created.ID, result.TransformID)
	assert.Equal(t, 3, result.TotalRules)
	assert.Equal(t, 1, result.TotalMatched)
	assert.Equal(t, 1, backend.rules[0].Priority, "dry-run never mutates")

	rec = __do(t, h, http.MethodPost, "/api/transforms/transform-missing/dry-run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func testEndpointEvaluatesCriteriaStatelessly(t *testing.T) {
	_, h := __setupServer(t)

	body := `{"criteria": {"field": "protocol", "operator": "exact_match", "value": "tcp"}}`
	rec := __do(t, h, http.MethodPost, "/api/transforms/test", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		TotalRules   int `json:"total_rules"`
		TotalMatched int `json:"total_matched"`
	}
	__decode(t, rec, &report)
	assert.Equal(t, 3, report.TotalRules)
	assert.Equal(t, 2, report.TotalMatched)

	rec = __do(t, h, http.MethodPost, "/api/transforms/test",
		`{"criteria": {"field": "nonesuch", "operator": "exact_match", "value": "x"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = __do(t, h, http.MethodPost, "/api/transforms/test", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransformsAPI(t *testing.T) {
	t.Run("create assigns an id", createAssignsAnID)
	t.Run("create rejects bad bodies", createRejectsBadBodies)
	t.Run("list and get round-trip", listAndGetRoundTrip)
	t.Run("update keeps the identity", updateKeepsTheIdentity)
	t.Run("enable and disable toggle", enableDisableToggle)
	t.Run("delete removes the transform", deleteRemovesTheTransform)
	t.Run("traversal ids return not found", traversalIDsReturnNotFound)
	t.Run("dry-run reports without mutating", dryRunReportsWithoutMutating)
	t.Run("test endpoint evaluates criteria statelessly", testEndpointEvaluatesCriteriaStatelessly)
}
