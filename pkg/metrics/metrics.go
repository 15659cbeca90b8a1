package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cluster/leadership metrics
	RaftLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "teardown_raft_is_leader",
			Help: "Whether this process holds the uninstall-coordinator leader gate (1 = leader, 0 = follower)",
		},
	)

	RaftPeers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "teardown_raft_peers_total",
			Help: "Total number of raft peers in the coordinator cluster",
		},
	)

	// Plan/step metrics
	StepsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "teardown_steps_total",
			Help: "Total number of steps in the uninstall plan by phase and status",
		},
		[]string{"phase", "status"},
	)

	PlanComplete = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "teardown_plan_complete",
			Help: "Whether the uninstall plan has reached COMPLETE (1) or not (0)",
		},
	)

	StepTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teardown_step_transitions_total",
			Help: "Total number of step status transitions by phase and resulting status",
		},
		[]string{"phase", "status"},
	)

	// Offer-cycle metrics
	OfferCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "teardown_offer_cycles_total",
			Help: "Total number of offer cycles processed",
		},
	)

	OfferCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "teardown_offer_cycle_duration_seconds",
			Help:    "Time taken to process one offer cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	OffersDeclinedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "teardown_offers_declined_total",
			Help: "Total number of offers declined by the cleaner",
		},
	)

	OffersAcceptedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "teardown_offers_accepted_total",
			Help: "Total number of offers accepted by the cleaner",
		},
	)

	// Resource-release metrics
	ReservationsReleasedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "teardown_reservations_released_total",
			Help: "Total number of reservations tombstoned by the recorder",
		},
	)

	TasksKilledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "teardown_tasks_killed_total",
			Help: "Total number of kill steps completed by a terminal task status",
		},
	)

	InvariantViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teardown_invariant_violations_total",
			Help: "Total number of observed invariant violations by kind",
		},
		[]string{"kind"},
	)

	// Store metrics
	StoreOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "teardown_store_op_duration_seconds",
			Help:    "Persistent store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teardown_store_errors_total",
			Help: "Total number of persistent store operation errors by op",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(RaftLeader)
	prometheus.MustRegister(RaftPeers)
	prometheus.MustRegister(StepsTotal)
	prometheus.MustRegister(PlanComplete)
	prometheus.MustRegister(StepTransitionsTotal)
	prometheus.MustRegister(OfferCyclesTotal)
	prometheus.MustRegister(OfferCycleDuration)
	prometheus.MustRegister(OffersDeclinedTotal)
	prometheus.MustRegister(OffersAcceptedTotal)
	prometheus.MustRegister(ReservationsReleasedTotal)
	prometheus.MustRegister(TasksKilledTotal)
	prometheus.MustRegister(InvariantViolationsTotal)
	prometheus.MustRegister(StoreOpDuration)
	prometheus.MustRegister(StoreErrorsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
