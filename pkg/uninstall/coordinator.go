package uninstall

// Coordinator is the single plan manager: it exposes the candidate steps
// eligible for work this tick and the plan's overall status, inspecting
// the active phase and returning its eligible steps on each read.
type Coordinator struct {
	plan *Plan
}

// NewCoordinator wraps plan in a Coordinator. There is exactly one plan
// per scheduler process; no multi-plan arbitration is needed.
func NewCoordinator(plan *Plan) *Coordinator {
	return &Coordinator{plan: plan}
}

// Plan returns the underlying plan.
func (c *Coordinator) Plan() *Plan {
	return c.plan
}

// activePhase returns the earliest phase that is not yet COMPLETE, or nil
// if the whole plan is done. Phases gate strictly in order, so at most one
// phase ever has eligible work at a time.
func (c *Coordinator) activePhase() *Phase {
	for _, phase := range c.plan.Phases {
		if phase.Status() != StatusComplete {
			return phase
		}
	}
	return nil
}

// ActivePhaseName returns the name of the earliest incomplete phase, or ""
// once the plan is complete.
func (c *Coordinator) ActivePhaseName() string {
	if phase := c.activePhase(); phase != nil {
		return phase.Name
	}
	return ""
}

// Candidates returns the eligible PENDING/PREPARED steps from the active
// phase, resetting any ERROR steps in that phase back to PENDING first.
func (c *Coordinator) Candidates() []*Step {
	phase := c.activePhase()
	if phase == nil {
		return nil
	}
	var candidates []*Step
	for _, s := range phase.Steps {
		s.ResetIfError()
		if s.Candidate() {
			candidates = append(candidates, s)
		}
	}
	return candidates
}

// PlanStatus reports the plan's overall status: COMPLETE if every phase
// is done, else the active phase's derived status.
func (c *Coordinator) PlanStatus() StepStatus {
	if c.plan.IsComplete() {
		return StatusComplete
	}
	if phase := c.activePhase(); phase != nil {
		return phase.Status()
	}
	return StatusComplete
}

// IsComplete reports whether the whole plan has reached COMPLETE.
func (c *Coordinator) IsComplete() bool {
	return c.plan.IsComplete()
}

// StepByAssetID finds the step of the given kind whose AssetID matches,
// across every phase. The recorder uses this to map a completed driver
// operation back to the step it advances; the scheduler uses it to map a
// terminal task status back to the kill step it completes.
func (c *Coordinator) StepByAssetID(kind StepKind, assetID string) *Step {
	for _, phase := range c.plan.Phases {
		for _, s := range phase.Steps {
			if s.Kind == kind && s.AssetID == assetID {
				return s
			}
		}
	}
	return nil
}
