package uninstall

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/teardown/pkg/driver"
	"github.com/cuemby/teardown/pkg/storage"
)

// Persisted layout: FrameworkId at a single well-known path;
// Tasks/<name>/{info,status} for each task.
const (
	frameworkIDPath = "FrameworkId"
	tasksPath       = "Tasks"
)

// taskInfo is the static, builder-time view of a task: its name and the
// resources it was launched with. Stored at Tasks/<name>/info.
type taskInfo struct {
	Name      string
	Resources []driver.Resource
}

// taskStatusRecord is the mutable, status-path view of a task. Stored at
// Tasks/<name>/status.
type taskStatusRecord struct {
	LastStatus               driver.TaskState
	PermanentlyFailedInError bool
}

// TaskStore persists the task bookkeeping the plan builder and restart
// gate read, and the tombstones the recorder writes. It is the only thing
// in this package that talks to pkg/storage.Store directly.
type TaskStore struct {
	store storage.Store
}

// NewTaskStore wraps store.
func NewTaskStore(store storage.Store) *TaskStore {
	return &TaskStore{store: store}
}

func wrapStorageErr(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, context, err)
}

// FrameworkID returns the persisted framework ID, if any.
func (ts *TaskStore) FrameworkID() (string, bool, error) {
	data, err := ts.store.Get(frameworkIDPath)
	if err == storage.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapStorageErr(err, "reading framework id")
	}
	return string(data), true, nil
}

// SetFrameworkID persists the framework ID issued at registration.
func (ts *TaskStore) SetFrameworkID(id string) error {
	return wrapStorageErr(ts.store.Set(frameworkIDPath, []byte(id)), "persisting framework id")
}

func taskInfoPath(name string) string   { return tasksPath + "/" + name + "/info" }
func taskStatusPath(name string) string { return tasksPath + "/" + name + "/status" }

// RegisterTask persists a newly-launched task's static info plus an
// initial STAGING status record.
func (ts *TaskStore) RegisterTask(name string, resources []driver.Resource) error {
	infoBytes, err := json.Marshal(taskInfo{Name: name, Resources: resources})
	if err != nil {
		return fmt.Errorf("uninstall: encoding task info for %s: %w", name, err)
	}
	statusBytes, err := json.Marshal(taskStatusRecord{LastStatus: driver.TaskStaging})
	if err != nil {
		return fmt.Errorf("uninstall: encoding task status for %s: %w", name, err)
	}

	writes := map[string][]byte{
		taskInfoPath(name):   infoBytes,
		taskStatusPath(name): statusBytes,
	}
	return wrapStorageErr(ts.store.SetMany(writes), fmt.Sprintf("registering task %s", name))
}

// UpdateStatus persists a task's latest reported state.
func (ts *TaskStore) UpdateStatus(name string, state driver.TaskState) error {
	status, err := ts.readStatus(name)
	if err != nil {
		return err
	}
	status.LastStatus = state
	return ts.writeStatus(name, status)
}

// MarkPermanentlyFailed records that name's resources should be excluded
// from the release phase entirely.
func (ts *TaskStore) MarkPermanentlyFailed(name string) error {
	status, err := ts.readStatus(name)
	if err != nil {
		return err
	}
	status.PermanentlyFailedInError = true
	return ts.writeStatus(name, status)
}

func (ts *TaskStore) readStatus(name string) (taskStatusRecord, error) {
	data, err := ts.store.Get(taskStatusPath(name))
	if err != nil {
		return taskStatusRecord{}, wrapStorageErr(err, fmt.Sprintf("reading status for %s", name))
	}
	var status taskStatusRecord
	if err := json.Unmarshal(data, &status); err != nil {
		return taskStatusRecord{}, fmt.Errorf("uninstall: decoding status for %s: %w", name, err)
	}
	return status, nil
}

func (ts *TaskStore) writeStatus(name string, status taskStatusRecord) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("uninstall: encoding status for %s: %w", name, err)
	}
	return wrapStorageErr(ts.store.Set(taskStatusPath(name), data), fmt.Sprintf("persisting status for %s", name))
}

// TombstoneReservation rewrites every resource across every task matching
// reservationID to its tombstoned form and re-persists the affected tasks.
// It reports whether any task actually owned the reservation — the
// recorder logs an invariant violation when it does not, without treating
// that as fatal.
func (ts *TaskStore) TombstoneReservation(reservationID string) (bool, error) {
	names, err := ts.store.GetChildren(tasksPath)
	if err != nil {
		return false, wrapStorageErr(err, "listing tasks")
	}

	matched := false
	for _, name := range names {
		data, err := ts.store.Get(taskInfoPath(name))
		if err != nil {
			return matched, wrapStorageErr(err, fmt.Sprintf("reading info for %s", name))
		}
		var info taskInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return matched, fmt.Errorf("uninstall: decoding info for %s: %w", name, err)
		}

		changed := false
		for i := range info.Resources {
			if info.Resources[i].ReservationID == reservationID {
				info.Resources[i].ReservationID = Tombstone(reservationID)
				changed = true
			}
		}
		if !changed {
			continue
		}
		matched = true

		encoded, err := json.Marshal(info)
		if err != nil {
			return matched, fmt.Errorf("uninstall: encoding info for %s: %w", name, err)
		}
		if err := ts.store.Set(taskInfoPath(name), encoded); err != nil {
			return matched, wrapStorageErr(err, fmt.Sprintf("persisting tombstone for %s", name))
		}
	}

	return matched, nil
}

// ListTasks reconstructs every TaskRecord from persisted info+status: the
// read side of the restart-safe rebuild — in-memory step status is a
// projection, re-derived on restart from the tombstone state and the
// framework-ID presence.
func (ts *TaskStore) ListTasks() ([]*TaskRecord, error) {
	names, err := ts.store.GetChildren(tasksPath)
	if err != nil {
		return nil, wrapStorageErr(err, "listing tasks")
	}

	tasks := make([]*TaskRecord, 0, len(names))
	for _, name := range names {
		infoData, err := ts.store.Get(taskInfoPath(name))
		if err != nil {
			return nil, wrapStorageErr(err, fmt.Sprintf("reading info for %s", name))
		}
		var info taskInfo
		if err := json.Unmarshal(infoData, &info); err != nil {
			return nil, fmt.Errorf("uninstall: decoding info for %s: %w", name, err)
		}

		status, err := ts.readStatus(name)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, &TaskRecord{
			Name:                     info.Name,
			Resources:                info.Resources,
			LastStatus:               status.LastStatus,
			PermanentlyFailedInError: status.PermanentlyFailedInError,
		})
	}
	return tasks, nil
}

// ClearAll wipes every persisted task and the framework ID. This is the
// deregister step's final act.
func (ts *TaskStore) ClearAll() error {
	if err := ts.store.DeleteAll(tasksPath); err != nil {
		return wrapStorageErr(err, "clearing tasks")
	}
	if err := ts.store.DeleteAll(frameworkIDPath); err != nil {
		return wrapStorageErr(err, "clearing framework id")
	}
	return nil
}
