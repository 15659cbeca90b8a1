package uninstall

import "github.com/cuemby/teardown/pkg/log"

// PlanInput is everything the builder needs to construct a plan once, at
// scheduler startup.
type PlanInput struct {
	Tasks                []*TaskRecord
	FrameworkIDPersisted bool
	// TLSCleanupEnabled is true iff the service declares any task with a
	// transport-encryption requirement AND a secrets client was provided.
	TLSCleanupEnabled bool
	// SecretsNamespace is the service namespace the TLS-cleanup step purges.
	SecretsNamespace string
}

// BuildPlan constructs the ordered plan: kill phase, release phase,
// optional TLS-cleanup phase, deregister phase — in that strict order, the
// phase-gate structure that gives kill-before-release (I2) and
// deregister-last (I3) for free.
func BuildPlan(in PlanInput) *Plan {
	logger := log.WithComponent("uninstall")

	inv := BuildInventory(in.Tasks)

	if len(inv.KillTargets) == 0 && len(inv.ReleaseTargets) == 0 && !in.FrameworkIDPersisted {
		logger.Info().Msg("nothing to release and no framework registered, plan is trivially complete")
		return &Plan{}
	}

	killPhase := &Phase{Name: "kill"}
	for _, name := range inv.KillTargets {
		killPhase.Steps = append(killPhase.Steps, &Step{
			Name: "kill-" + name, Kind: StepKindKill, Status: StatusPending, AssetID: name,
		})
	}

	releasePhase := &Phase{Name: "release"}
	for _, reservationID := range inv.ReleaseTargets {
		releasePhase.Steps = append(releasePhase.Steps, &Step{
			Name: "release-" + reservationID, Kind: StepKindRelease, Status: StatusPending, AssetID: reservationID,
		})
	}

	phases := []*Phase{killPhase, releasePhase}

	if in.TLSCleanupEnabled {
		phases = append(phases, &Phase{
			Name: "tls-cleanup",
			Steps: []*Step{
				{Name: "tls-cleanup", Kind: StepKindTLS, Status: StatusPending, AssetID: in.SecretsNamespace},
			},
		})
	}

	phases = append(phases, &Phase{
		Name: "deregister",
		Steps: []*Step{
			{Name: "deregister", Kind: StepKindDeregister, Status: StatusPending},
		},
	})

	logger.Info().
		Int("kill_steps", len(killPhase.Steps)).
		Int("release_steps", len(releasePhase.Steps)).
		Bool("tls_cleanup", in.TLSCleanupEnabled).
		Msg("built uninstall plan")

	return &Plan{Phases: phases}
}
