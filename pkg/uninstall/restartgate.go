package uninstall

import "github.com/cuemby/teardown/pkg/cluster"

// RestartGate decides, on cold start, whether this process should register
// with the master at all: it checks persisted state to see if anything is
// still owed, and is additionally gated by cluster leadership, since a
// standby process must never register even if the persisted-state check
// alone would say yes — a multi-process deployment needs exactly one
// registrant.
type RestartGate struct {
	tasks *TaskStore
	gate  *cluster.Gate
}

// NewRestartGate returns a RestartGate consulting tasks for persisted
// state and gate for leadership.
func NewRestartGate(tasks *TaskStore, gate *cluster.Gate) *RestartGate {
	return &RestartGate{tasks: tasks, gate: gate}
}

// ShouldRegister reports whether the scheduler should register with the
// master. False means either: this process is not the elected leader, or
// there is nothing left to do but clear the state store, which a
// higher-level teardown handles.
func (g *RestartGate) ShouldRegister() (bool, error) {
	if !g.gate.IsLeader() {
		return false, nil
	}

	_, hasFrameworkID, err := g.tasks.FrameworkID()
	if err != nil {
		return false, err
	}
	if hasFrameworkID {
		return true, nil
	}

	tasks, err := g.tasks.ListTasks()
	if err != nil {
		return false, err
	}
	for _, t := range tasks {
		if t.OwnsUnreleasedResource() {
			return true, nil
		}
	}
	return false, nil
}
