package uninstall

import (
	"testing"

	"github.com/cuemby/teardown/pkg/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phaseNames(plan *Plan) []string {
	names := make([]string, len(plan.Phases))
	for i, p := range plan.Phases {
		names[i] = p.Name
	}
	return names
}

// S1: a framework with live tasks and a persisted framework ID builds a
// full kill/release/deregister plan, phase-ordered.
func TestBuildPlan_FullLifecycleOrdersKillReleaseDeregister(t *testing.T) {
	in := PlanInput{
		Tasks: []*TaskRecord{
			{Name: "web-1", Resources: []driver.Resource{{ReservationID: "res-1"}}},
		},
		FrameworkIDPersisted: true,
	}

	plan := BuildPlan(in)

	require.Equal(t, []string{"kill", "release", "deregister"}, phaseNames(plan))
	assert.Len(t, plan.Phases[0].Steps, 1)
	assert.Equal(t, StepKindKill, plan.Phases[0].Steps[0].Kind)
	assert.Len(t, plan.Phases[1].Steps, 1)
	assert.Equal(t, StepKindRelease, plan.Phases[1].Steps[0].Kind)
	assert.Len(t, plan.Phases[2].Steps, 1)
	assert.Equal(t, StepKindDeregister, plan.Phases[2].Steps[0].Kind)
}

// S2: a TLS-enabled service gets a tls-cleanup phase between release and
// deregister.
func TestBuildPlan_TLSCleanupPhaseSitsBetweenReleaseAndDeregister(t *testing.T) {
	in := PlanInput{
		Tasks: []*TaskRecord{
			{Name: "web-1", Resources: []driver.Resource{{ReservationID: "res-1"}}},
		},
		FrameworkIDPersisted: true,
		TLSCleanupEnabled:    true,
		SecretsNamespace:     "ns-1",
	}

	plan := BuildPlan(in)

	require.Equal(t, []string{"kill", "release", "tls-cleanup", "deregister"}, phaseNames(plan))
	tlsStep := plan.Phases[2].Steps[0]
	assert.Equal(t, StepKindTLS, tlsStep.Kind)
	assert.Equal(t, "ns-1", tlsStep.AssetID)
}

// S3: nothing to kill or release and no framework ID persisted means the
// plan is trivially already complete — there was never a registration to
// tear down.
func TestBuildPlan_NothingToDoAndNoFrameworkIDIsTriviallyComplete(t *testing.T) {
	plan := BuildPlan(PlanInput{})

	assert.Empty(t, plan.Phases)
	assert.True(t, plan.IsComplete())
}

// S4: a persisted framework ID with otherwise-empty task state still needs
// a deregister phase, even with empty kill/release phases.
func TestBuildPlan_PersistedFrameworkIDAloneStillBuildsDeregisterPhase(t *testing.T) {
	plan := BuildPlan(PlanInput{FrameworkIDPersisted: true})

	require.Equal(t, []string{"kill", "release", "deregister"}, phaseNames(plan))
	assert.Empty(t, plan.Phases[0].Steps)
	assert.Empty(t, plan.Phases[1].Steps)
	assert.Len(t, plan.Phases[2].Steps, 1)
}

// S5: every step starts PENDING.
func TestBuildPlan_AllStepsStartPending(t *testing.T) {
	in := PlanInput{
		Tasks: []*TaskRecord{
			{Name: "web-1", Resources: []driver.Resource{{ReservationID: "res-1"}}},
		},
		FrameworkIDPersisted: true,
		TLSCleanupEnabled:    true,
		SecretsNamespace:     "ns-1",
	}

	plan := BuildPlan(in)

	for _, phase := range plan.Phases {
		for _, step := range phase.Steps {
			assert.Equal(t, StatusPending, step.Status, "step %s", step.Name)
		}
	}
}

func TestBuildPlan_PermanentlyFailedTaskStillGetsKillStepButNoReleaseStep(t *testing.T) {
	in := PlanInput{
		Tasks: []*TaskRecord{
			{
				Name:                     "web-1",
				Resources:                []driver.Resource{{ReservationID: "res-1"}},
				PermanentlyFailedInError: true,
			},
		},
		FrameworkIDPersisted: true,
	}

	plan := BuildPlan(in)

	require.Equal(t, []string{"kill", "release", "deregister"}, phaseNames(plan))
	assert.Len(t, plan.Phases[0].Steps, 1)
	assert.Empty(t, plan.Phases[1].Steps)
}
