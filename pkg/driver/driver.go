// Package driver defines the offer-protocol transport the uninstall
// coordinator rides on: resource offers in, accept/decline/kill/reconcile/
// deregister commands out. The concrete transport (a real master RPC
// client) lives outside this module; Driver is the seam the coordinator
// programs against.
//
// The split between a command-issuing Driver and a callback-receiving
// Scheduler mirrors the Mesos SchedulerDriver/Scheduler split, generalized
// to opaque resource/operation shapes rather than Mesos protobuf types.
package driver

// ResourceKind identifies what kind of resource a reservation represents.
type ResourceKind string

const (
	ResourceScalar ResourceKind = "scalar"
	ResourceRange  ResourceKind = "range"
	ResourceVolume ResourceKind = "volume"
)

// Resource is one reserved unit a framework owns, as seen in an offer.
type Resource struct {
	ReservationID string
	Kind          ResourceKind
	Role          string
	Principal     string
}

// OfferID identifies one offer cycle's worth of resources from one agent.
type OfferID string

// Offer is a batch of resources the master is making available, possibly
// including resources this framework already reserved.
type Offer struct {
	ID        OfferID
	AgentID   string
	Resources []Resource
}

// OperationType is the kind of change an Operation asks the master to make
// to a reservation.
type OperationType string

const (
	OperationUnreserve OperationType = "UNRESERVE"
	OperationDestroy   OperationType = "DESTROY"
)

// Operation is one reservation mutation bundled into an Accept call.
type Operation struct {
	Type     OperationType
	Resource Resource
}

// Filters tune how long the master waits before re-offering resources this
// framework just declined or only partially consumed.
type Filters struct {
	RefuseSeconds float64
}

// TaskID identifies a task within this framework.
type TaskID string

// TaskState is the lifecycle state reported in a TaskStatus update.
type TaskState string

const (
	TaskStaging  TaskState = "STAGING"
	TaskRunning  TaskState = "RUNNING"
	TaskFinished TaskState = "FINISHED"
	TaskFailed   TaskState = "FAILED"
	TaskKilled   TaskState = "KILLED"
	TaskError    TaskState = "ERROR"
	TaskLost     TaskState = "LOST"
)

// Terminal reports whether state is one a kill step should treat as "the
// task is gone" — the trigger for completing a kill step.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskFinished, TaskFailed, TaskKilled, TaskError, TaskLost:
		return true
	default:
		return false
	}
}

// TaskStatus is one status update for a single task.
type TaskStatus struct {
	TaskID TaskID
	State  TaskState
}

// Scheduler receives the two callbacks the driver delivers: new offers and
// task status changes. The uninstall scheduler loop (pkg/uninstall) is the
// only implementation this module ships.
type Scheduler interface {
	Offers(d Driver, offers []Offer)
	StatusUpdate(d Driver, status TaskStatus)
}

// Driver is the command side of the offer protocol: everything the
// coordinator can ask the master to do.
type Driver interface {
	// Accept bundles operations against the listed offers into a single
	// accept call; unused resources within those offers are implicitly
	// declined, subject to filters.
	Accept(offerIDs []OfferID, operations []Operation, filters Filters) error
	// Decline refuses an offer in its entirety.
	Decline(offerID OfferID, filters Filters) error
	// Kill asks the master to kill the named task.
	Kill(taskID TaskID) error
	// Reconcile asks the master for the latest status of the given tasks;
	// an empty slice asks for every task this framework still has.
	Reconcile(tasks []TaskID) error
	// Deregister tells the master this framework is gone for good.
	Deregister() error
}
