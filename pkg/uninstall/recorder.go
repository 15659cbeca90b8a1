package uninstall

import (
	"github.com/cuemby/teardown/pkg/driver"
	"github.com/cuemby/teardown/pkg/log"
	"github.com/cuemby/teardown/pkg/metrics"
)

// Recorder decorates a driver.Driver's Accept call: every Accept passes
// through to the underlying driver unchanged, and the recorder then
// observes the accepted operations and persists their effect before
// returning. Every other Driver method passes straight through via
// embedding.
type Recorder struct {
	driver.Driver
	tasks       *TaskStore
	coordinator *Coordinator
}

// NewRecorder wraps underlying, persisting tombstones to tasks and
// advancing release steps in coordinator's plan.
func NewRecorder(underlying driver.Driver, tasks *TaskStore, coordinator *Coordinator) *Recorder {
	return &Recorder{Driver: underlying, tasks: tasks, coordinator: coordinator}
}

// Accept forwards to the underlying driver, then tombstones every released
// reservation and marks its release step COMPLETE. The mutation, not the
// step status, is the canonical durable signal of progress: a restart
// after tombstoning but before this returns will, on the next plan build,
// correctly omit the step.
func (r *Recorder) Accept(offerIDs []driver.OfferID, operations []driver.Operation, filters driver.Filters) error {
	if err := r.Driver.Accept(offerIDs, operations, filters); err != nil {
		return err
	}

	logger := log.WithComponent("uninstall-recorder")
	seen := make(map[string]bool, len(operations))
	for _, op := range operations {
		reservationID := op.Resource.ReservationID
		if reservationID == "" || IsTombstoned(reservationID) || seen[reservationID] {
			continue
		}
		// A volume's DESTROY and UNRESERVE operations carry the same
		// reservationID; only the first sighting in this batch should
		// tombstone and confirm the release step.
		seen[reservationID] = true
		resLogger := log.WithReservation(logger, reservationID)

		matched, err := r.tasks.TombstoneReservation(reservationID)
		if err != nil {
			resLogger.Error().Err(err).Msg("failed to persist tombstone")
		} else if !matched {
			metrics.InvariantViolationsTotal.WithLabelValues("no_owning_task").Inc()
			resLogger.Error().Msg("invariant violation: no task owns the released reservation")
		}

		step := r.coordinator.StepByAssetID(StepKindRelease, reservationID)
		if step == nil {
			metrics.InvariantViolationsTotal.WithLabelValues("no_release_step").Inc()
			resLogger.Error().Msg("invariant violation: no release step for reservation")
			continue
		}
		step.Confirm()
		metrics.ReservationsReleasedTotal.Inc()
		resLogger.Info().Msg("reservation released")
	}
	return nil
}
