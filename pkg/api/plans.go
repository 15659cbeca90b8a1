// Package api is the operator-visible HTTP surface: plan/phase/step status
// as JSON, alongside the metrics/health endpoints the binary exposes.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/cuemby/teardown/pkg/uninstall"
)

// stepView is the JSON shape of one step in the /plans response.
type stepView struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Status  string `json:"status"`
	AssetID string `json:"assetId,omitempty"`
}

// phaseView is the JSON shape of one phase, including its derived status.
type phaseView struct {
	Name   string     `json:"name"`
	Status string     `json:"status"`
	Steps  []stepView `json:"steps"`
}

// planView is the full /plans response body.
type planView struct {
	Complete bool        `json:"complete"`
	Status   string      `json:"status"`
	Phases   []phaseView `json:"phases"`
}

// PlansHandler serves the current plan state read through coordinator,
// the same object the scheduler loop drives forward, in the plain
// net/http handler style pkg/metrics.HealthHandler/ReadyHandler use.
func PlansHandler(coordinator *uninstall.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		plan := coordinator.Plan()
		view := planView{
			Complete: coordinator.IsComplete(),
			Status:   string(coordinator.PlanStatus()),
			Phases:   make([]phaseView, len(plan.Phases)),
		}
		for i, phase := range plan.Phases {
			pv := phaseView{Name: phase.Name, Status: string(phase.Status()), Steps: make([]stepView, len(phase.Steps))}
			for j, step := range phase.Steps {
				pv.Steps[j] = stepView{
					Name:    step.Name,
					Kind:    string(step.Kind),
					Status:  string(step.Status),
					AssetID: step.AssetID,
				}
			}
			view.Phases[i] = pv
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(view)
	}
}
