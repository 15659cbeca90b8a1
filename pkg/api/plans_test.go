package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuemby/teardown/pkg/uninstall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlansHandler_ReturnsPlanJSON(t *testing.T) {
	plan := &uninstall.Plan{Phases: []*uninstall.Phase{
		{Name: "kill", Steps: []*uninstall.Step{
			{Name: "kill-web-1", Kind: uninstall.StepKindKill, Status: uninstall.StatusPending, AssetID: "web-1"},
		}},
	}}
	coordinator := uninstall.NewCoordinator(plan)

	req := httptest.NewRequest(http.MethodGet, "/plans", nil)
	rr := httptest.NewRecorder()

	PlansHandler(coordinator).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["complete"])
	assert.Equal(t, "PENDING", body["status"])

	phases := body["phases"].([]any)
	require.Len(t, phases, 1)
	phase := phases[0].(map[string]any)
	assert.Equal(t, "kill", phase["name"])
}

func TestPlansHandler_RejectsNonGET(t *testing.T) {
	coordinator := uninstall.NewCoordinator(&uninstall.Plan{})

	req := httptest.NewRequest(http.MethodPost, "/plans", nil)
	rr := httptest.NewRecorder()

	PlansHandler(coordinator).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestPlansHandler_EmptyPlanReportsComplete(t *testing.T) {
	coordinator := uninstall.NewCoordinator(&uninstall.Plan{})

	req := httptest.NewRequest(http.MethodGet, "/plans", nil)
	rr := httptest.NewRecorder()

	PlansHandler(coordinator).ServeHTTP(rr, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["complete"])
}
