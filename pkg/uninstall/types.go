// Package uninstall implements the uninstall coordinator: the
// dependency-ordered plan machinery that releases every resource a
// framework has reserved, purges its transport secrets, and deregisters it
// from the master, driven forward by an asynchronous stream of resource
// offers and safe against duplicate offers, partial completion, and
// crash-restart at any point.
package uninstall

import (
	"strings"

	"github.com/cuemby/teardown/pkg/driver"
)

// TombstonePrefix marks a reservationID as already released in the
// persisted view.
const TombstonePrefix = "uninstalled_"

// IsTombstoned reports whether reservationID has already been released.
func IsTombstoned(reservationID string) bool {
	return strings.HasPrefix(reservationID, TombstonePrefix)
}

// Tombstone rewrites reservationID to its released form. Tombstoning an
// already-tombstoned ID is a no-op, keeping the operation idempotent.
func Tombstone(reservationID string) string {
	if IsTombstoned(reservationID) {
		return reservationID
	}
	return TombstonePrefix + reservationID
}

// TaskRecord is the persisted view of one task: the resources it owns and
// its last known lifecycle state.
type TaskRecord struct {
	Name                     string
	Resources                []driver.Resource
	LastStatus               driver.TaskState
	PermanentlyFailedInError bool
}

// OwnsUnreleasedResource reports whether t still owns at least one
// non-tombstoned resource.
func (t *TaskRecord) OwnsUnreleasedResource() bool {
	for _, r := range t.Resources {
		if !IsTombstoned(r.ReservationID) {
			return true
		}
	}
	return false
}

// StepStatus is a step's position in its lifecycle.
type StepStatus string

const (
	StatusPending  StepStatus = "PENDING"
	StatusPrepared StepStatus = "PREPARED"
	StatusStarting StepStatus = "STARTING"
	StatusComplete StepStatus = "COMPLETE"
	StatusError    StepStatus = "ERROR"
	StatusWaiting  StepStatus = "WAITING"
)

// progressRank orders statuses from least to most advanced, used to derive
// a phase's overall status from its children. WAITING and PENDING rank
// equally: both mean "not yet started", just for different reasons (a
// WAITING step is additionally phase-gated).
func progressRank(s StepStatus) int {
	switch s {
	case StatusPending, StatusWaiting:
		return 0
	case StatusError:
		return 1
	case StatusPrepared:
		return 2
	case StatusStarting:
		return 3
	case StatusComplete:
		return 4
	default:
		return 0
	}
}

// StepKind tags which real-world action a step represents. Plan/Phase/Step
// are plain data — tagged variants sharing one status/transition surface,
// not a type hierarchy: a string-backed type plus a const block.
type StepKind string

const (
	StepKindKill       StepKind = "kill-step"
	StepKindRelease    StepKind = "release-step"
	StepKindTLS        StepKind = "tls-step"
	StepKindDeregister StepKind = "deregister-step"
)

// Step is one unit of work in the plan. AssetID identifies the real-world
// object the step acts on: a task name for a kill step, a reservationID
// for a release step, a secrets namespace for a TLS step, or empty for the
// terminal deregister step.
type Step struct {
	Name    string
	Kind    StepKind
	Status  StepStatus
	AssetID string
}

// Phase is an ordered or unordered group of steps gated as a unit.
type Phase struct {
	Name  string
	Steps []*Step
}

// Status derives the phase's overall status: COMPLETE iff every step is
// COMPLETE, else the most-advanced status among the steps still in flight
// (ties broken toward the first one encountered, which is toward less
// progress given the deterministic build order in plan.go).
func (p *Phase) Status() StepStatus {
	if len(p.Steps) == 0 {
		return StatusComplete
	}

	best := StatusPending
	bestRank := -1
	allComplete := true
	for _, s := range p.Steps {
		if s.Status != StatusComplete {
			allComplete = false
			if r := progressRank(s.Status); r > bestRank {
				bestRank = r
				best = s.Status
			}
		}
	}
	if allComplete {
		return StatusComplete
	}
	return best
}

// Plan is the ordered list of phases built once per scheduler process.
type Plan struct {
	Phases []*Phase
}

// IsComplete reports whether every phase has reached COMPLETE.
func (pl *Plan) IsComplete() bool {
	for _, phase := range pl.Phases {
		if phase.Status() != StatusComplete {
			return false
		}
	}
	return true
}
