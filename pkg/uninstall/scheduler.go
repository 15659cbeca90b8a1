package uninstall

import (
	"sync"

	"github.com/cuemby/teardown/pkg/driver"
	"github.com/cuemby/teardown/pkg/log"
	"github.com/cuemby/teardown/pkg/metrics"
	"github.com/cuemby/teardown/pkg/secrets"
	"github.com/rs/zerolog"
)

// refuseSeconds is the long refusal window offered back for offers the
// uninstall scheduler has no use for: once torn down there is nothing it
// will ever want from the master again.
const refuseSeconds = 3600

// Scheduler is the offer/status callback glue: on each offer cycle it
// advances candidate steps, runs the cleaner, accepts/declines, and
// applies task status updates. It implements driver.Scheduler. A single
// sync.RWMutex guards every method that mutates step state, so offers and
// status updates never interleave their writes even though both arrive as
// independent driver callbacks rather than through one ticker loop.
type Scheduler struct {
	mu          sync.RWMutex
	driver      driver.Driver // the recorder-wrapped driver
	coordinator *Coordinator
	tasks       *TaskStore
	secrets     secrets.Client // nil when no TLS-cleanup phase was built
	logger      zerolog.Logger
}

// NewScheduler returns a Scheduler issuing commands through d (expected to
// be a *Recorder wrapping the real driver) and advancing coordinator's
// plan. secretsClient may be nil if the plan has no TLS-cleanup phase.
func NewScheduler(d driver.Driver, coordinator *Coordinator, tasks *TaskStore, secretsClient secrets.Client) *Scheduler {
	return &Scheduler{
		driver:      d,
		coordinator: coordinator,
		tasks:       tasks,
		secrets:     secretsClient,
		logger:      log.WithComponent("uninstall-scheduler"),
	}
}

// Offers is the driver.Scheduler offer callback.
func (s *Scheduler) Offers(_ driver.Driver, offers []driver.Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.OfferCycleDuration)
		metrics.OfferCyclesTotal.Inc()
	}()

	s.startCandidates()

	result := Clean(offers)

	for offerID, ops := range result.Accepted {
		if err := s.driver.Accept([]driver.OfferID{offerID}, ops, driver.Filters{}); err != nil {
			s.logger.Error().Err(err).Str("offer_id", string(offerID)).Msg("accept failed")
			continue
		}
		metrics.OffersAcceptedTotal.Inc()
	}

	for _, offerID := range result.Unconsumed {
		if err := s.driver.Decline(offerID, driver.Filters{RefuseSeconds: refuseSeconds}); err != nil {
			s.logger.Error().Err(err).Str("offer_id", string(offerID)).Msg("decline failed")
			continue
		}
		metrics.OffersDeclinedTotal.Inc()
	}

	s.reportPlanMetrics()
}

// startCandidates asks the coordinator for this tick's candidates and
// calls start() on each, turning PENDING->PREPARED. Release steps are
// passive from here on — they complete when the
// recorder observes their reservation actually released — but kill,
// TLS-cleanup, and deregister steps perform their action immediately upon
// becoming a candidate.
func (s *Scheduler) startCandidates() {
	phaseName := s.coordinator.ActivePhaseName()
	for _, step := range s.coordinator.Candidates() {
		step.Start()
		log.WithStep(s.logger, phaseName, step.Name).Debug().Msg("step started")
		switch step.Kind {
		case StepKindKill:
			s.runKillStep(step)
		case StepKindTLS:
			s.runTLSStep(step)
		case StepKindDeregister:
			s.runDeregisterStep(step)
		}
	}
}

// runKillStep asks the driver to kill the task and advances the step to
// STARTING; StatusUpdate completes it once a terminal status arrives.
func (s *Scheduler) runKillStep(step *Step) {
	taskLogger := log.WithTaskID(s.logger, step.AssetID)
	if err := s.driver.Kill(driver.TaskID(step.AssetID)); err != nil {
		taskLogger.Error().Err(err).Msg("kill request failed")
		return
	}
	if err := step.Submit(); err != nil {
		taskLogger.Error().Err(err).Msg("failed to submit kill step")
	}
}

// runTLSStep lists then deletes every secret in the step's namespace,
// completing the step once done. A secrets-client failure puts the step
// back to PENDING, which retries the whole list+delete next offer cycle.
func (s *Scheduler) runTLSStep(step *Step) {
	if s.secrets == nil {
		s.logger.Error().Msg("tls-cleanup step scheduled but no secrets client configured")
		return
	}
	names, err := s.secrets.List(step.AssetID)
	if err != nil {
		s.logger.Error().Err(err).Str("namespace", step.AssetID).Msg("failed to list secrets")
		step.Status = StatusPending
		return
	}
	for _, name := range names {
		if err := s.secrets.Delete(step.AssetID, name); err != nil {
			s.logger.Error().Err(err).Str("namespace", step.AssetID).Str("secret", name).Msg("failed to delete secret")
			step.Status = StatusPending
			return
		}
	}
	step.Confirm()
	s.logger.Info().Str("namespace", step.AssetID).Int("secrets_deleted", len(names)).Msg("tls cleanup complete")
}

// runDeregisterStep tells the driver to deregister the framework and wipes
// all persisted state, the terminal act of the plan.
func (s *Scheduler) runDeregisterStep(step *Step) {
	if err := s.driver.Deregister(); err != nil {
		s.logger.Error().Err(err).Msg("deregister failed")
		return
	}
	if err := s.tasks.ClearAll(); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear persisted state after deregister")
		return
	}
	step.Confirm()
	s.logger.Info().Msg("deregistered and cleared persisted state")
}

// StatusUpdate is the driver.Scheduler status callback: persist the
// status, keyed by the task name resolved from the task ID (this module
// treats TaskID and task name as the same identifier — there is no
// separate ID-to-name registry in scope here), and complete any kill step
// whose task just reached a terminal state.
func (s *Scheduler) StatusUpdate(_ driver.Driver, status driver.TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := string(status.TaskID)
	taskLogger := log.WithTaskID(s.logger, name)
	if err := s.tasks.UpdateStatus(name, status.State); err != nil {
		taskLogger.Error().Err(err).Msg("failed to persist task status")
		return
	}

	if !status.State.Terminal() {
		return
	}

	step := s.coordinator.StepByAssetID(StepKindKill, name)
	if step == nil {
		return
	}
	step.Confirm()
	metrics.TasksKilledTotal.Inc()
	taskLogger.Info().Str("state", string(status.State)).Msg("kill step complete")
}

// OutstandingKillTasks returns the task IDs of every kill step that has
// not yet reached COMPLETE, taken under the same lock Offers and
// StatusUpdate use to mutate step status.
func (s *Scheduler) OutstandingKillTasks() []driver.TaskID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var outstanding []driver.TaskID
	for _, phase := range s.coordinator.Plan().Phases {
		for _, step := range phase.Steps {
			if step.Kind == StepKindKill && step.Status != StatusComplete {
				outstanding = append(outstanding, driver.TaskID(step.AssetID))
			}
		}
	}
	return outstanding
}

func (s *Scheduler) reportPlanMetrics() {
	counts := make(map[[2]string]float64)
	for _, phase := range s.coordinator.Plan().Phases {
		for _, step := range phase.Steps {
			counts[[2]string{phase.Name, string(step.Status)}]++
		}
	}
	for key, count := range counts {
		metrics.StepsTotal.WithLabelValues(key[0], key[1]).Set(count)
	}

	if s.coordinator.IsComplete() {
		metrics.PlanComplete.Set(1)
	} else {
		metrics.PlanComplete.Set(0)
	}
}
