package uninstall

import (
	"testing"

	"github.com/cuemby/teardown/pkg/driver"
	"github.com/cuemby/teardown/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTaskStore(t *testing.T) *TaskStore {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewTaskStore(store)
}

func TestTaskStore_FrameworkIDRoundtrip(t *testing.T) {
	ts := newTestTaskStore(t)

	_, ok, err := ts.FrameworkID()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ts.SetFrameworkID("fw-123"))

	id, ok, err := ts.FrameworkID()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fw-123", id)
}

func TestTaskStore_RegisterAndListTask(t *testing.T) {
	ts := newTestTaskStore(t)

	resources := []driver.Resource{{ReservationID: "res-1", Kind: driver.ResourceScalar}}
	require.NoError(t, ts.RegisterTask("web-1", resources))

	tasks, err := ts.ListTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "web-1", tasks[0].Name)
	assert.Equal(t, resources, tasks[0].Resources)
	assert.Equal(t, driver.TaskStaging, tasks[0].LastStatus)
	assert.False(t, tasks[0].PermanentlyFailedInError)
}

func TestTaskStore_UpdateStatusPersists(t *testing.T) {
	ts := newTestTaskStore(t)
	require.NoError(t, ts.RegisterTask("web-1", nil))

	require.NoError(t, ts.UpdateStatus("web-1", driver.TaskRunning))

	tasks, err := ts.ListTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, driver.TaskRunning, tasks[0].LastStatus)
}

func TestTaskStore_MarkPermanentlyFailedPersists(t *testing.T) {
	ts := newTestTaskStore(t)
	require.NoError(t, ts.RegisterTask("web-1", nil))

	require.NoError(t, ts.MarkPermanentlyFailed("web-1"))

	tasks, err := ts.ListTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].PermanentlyFailedInError)
}

func TestTaskStore_TombstoneReservationRewritesMatchingTasksOnly(t *testing.T) {
	ts := newTestTaskStore(t)
	require.NoError(t, ts.RegisterTask("web-1", []driver.Resource{{ReservationID: "res-1"}}))
	require.NoError(t, ts.RegisterTask("web-2", []driver.Resource{{ReservationID: "res-2"}}))

	matched, err := ts.TombstoneReservation("res-1")
	require.NoError(t, err)
	assert.True(t, matched)

	tasks, err := ts.ListTasks()
	require.NoError(t, err)

	byName := map[string]*TaskRecord{}
	for _, task := range tasks {
		byName[task.Name] = task
	}
	assert.True(t, IsTombstoned(byName["web-1"].Resources[0].ReservationID))
	assert.False(t, IsTombstoned(byName["web-2"].Resources[0].ReservationID))
}

func TestTaskStore_TombstoneReservationReportsNoMatch(t *testing.T) {
	ts := newTestTaskStore(t)
	require.NoError(t, ts.RegisterTask("web-1", []driver.Resource{{ReservationID: "res-1"}}))

	matched, err := ts.TombstoneReservation("does-not-exist")
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestTaskStore_ClearAllWipesTasksAndFrameworkID(t *testing.T) {
	ts := newTestTaskStore(t)
	require.NoError(t, ts.RegisterTask("web-1", nil))
	require.NoError(t, ts.SetFrameworkID("fw-123"))

	require.NoError(t, ts.ClearAll())

	tasks, err := ts.ListTasks()
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, ok, err := ts.FrameworkID()
	require.NoError(t, err)
	assert.False(t, ok)
}
