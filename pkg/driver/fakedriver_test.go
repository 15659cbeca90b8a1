package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScheduler struct {
	offers   [][]Offer
	statuses []TaskStatus
}

func (s *recordingScheduler) Offers(d Driver, offers []Offer) {
	s.offers = append(s.offers, offers)
}

func (s *recordingScheduler) StatusUpdate(d Driver, status TaskStatus) {
	s.statuses = append(s.statuses, status)
}

func TestFakeDriver_OfferDeliversToScheduler(t *testing.T) {
	sched := &recordingScheduler{}
	d := NewFakeDriver(sched)

	offer := Offer{ID: NewOfferID(), AgentID: "agent-1"}
	d.Offer([]Offer{offer})

	require.Len(t, sched.offers, 1)
	assert.Equal(t, offer.ID, sched.offers[0][0].ID)
}

func TestFakeDriver_StatusDeliversToScheduler(t *testing.T) {
	sched := &recordingScheduler{}
	d := NewFakeDriver(sched)

	d.Status(TaskStatus{TaskID: "task-a", State: TaskFinished})

	require.Len(t, sched.statuses, 1)
	assert.Equal(t, TaskID("task-a"), sched.statuses[0].TaskID)
	assert.True(t, sched.statuses[0].State.Terminal())
}

func TestFakeDriver_AcceptRecordsCall(t *testing.T) {
	d := NewFakeDriver(&recordingScheduler{})

	op := Operation{Type: OperationUnreserve, Resource: Resource{ReservationID: "r1"}}
	require.NoError(t, d.Accept([]OfferID{"o1"}, []Operation{op}, Filters{RefuseSeconds: 5}))

	require.Len(t, d.Accepts, 1)
	assert.Equal(t, []OfferID{"o1"}, d.Accepts[0].OfferIDs)
	assert.Equal(t, []Operation{op}, d.Accepts[0].Operations)
}

func TestFakeDriver_DeclineKillReconcileDeregisterRecordCalls(t *testing.T) {
	d := NewFakeDriver(&recordingScheduler{})

	require.NoError(t, d.Decline("o1", Filters{}))
	require.NoError(t, d.Kill("task-a"))
	require.NoError(t, d.Reconcile([]TaskID{"task-a", "task-b"}))
	require.NoError(t, d.Deregister())

	assert.Equal(t, []OfferID{"o1"}, d.Declines)
	assert.Equal(t, []TaskID{"task-a"}, d.Killed)
	assert.Equal(t, [][]TaskID{{"task-a", "task-b"}}, d.Reconciles)
	assert.True(t, d.Deregistered)
}

func TestTaskState_Terminal(t *testing.T) {
	terminal := []TaskState{TaskFinished, TaskFailed, TaskKilled, TaskError, TaskLost}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%s should be terminal", s)
	}
	assert.False(t, TaskRunning.Terminal())
	assert.False(t, TaskStaging.Terminal())
}
