package uninstall

import (
	"time"

	"github.com/cuemby/teardown/pkg/driver"
	"github.com/cuemby/teardown/pkg/log"
	"github.com/rs/zerolog"
)

// Reconciler periodically asks the master to confirm the status of every
// task whose kill step has not yet completed, in case a status update was
// dropped in flight.
type Reconciler struct {
	driver    driver.Driver
	scheduler *Scheduler
	interval  time.Duration
	logger    zerolog.Logger
	stopCh    chan struct{}
}

// NewReconciler returns a Reconciler that calls d.Reconcile every interval
// for tasks scheduler still has an open kill step for. Reading outstanding
// kill steps through scheduler (rather than the coordinator directly)
// keeps that read on the same lock the offer-cycle and status-update
// callbacks use to mutate step status.
func NewReconciler(d driver.Driver, scheduler *Scheduler, interval time.Duration) *Reconciler {
	return &Reconciler{
		driver:    d,
		scheduler: scheduler,
		interval:  interval,
		logger:    log.WithComponent("uninstall-reconciler"),
		stopCh:    make(chan struct{}),
	}
}

// Start begins the reconciliation loop.
func (r *Reconciler) Start() {
	go r.run()
}

// Stop stops the reconciler.
func (r *Reconciler) Stop() {
	close(r.stopCh)
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Msg("reconciler started")

	for {
		select {
		case <-ticker.C:
			if err := r.reconcile(); err != nil {
				r.logger.Error().Err(err).Msg("reconciliation cycle failed")
			}
		case <-r.stopCh:
			r.logger.Info().Msg("reconciler stopped")
			return
		}
	}
}

func (r *Reconciler) reconcile() error {
	outstanding := r.scheduler.OutstandingKillTasks()
	if len(outstanding) == 0 {
		return nil
	}
	return r.driver.Reconcile(outstanding)
}
