package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	gate, err := NewGate(Config{
		NodeID:   "node-1",
		BindAddr: "127.0.0.1:0",
		DataDir:  t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = gate.Shutdown() })
	return gate
}

func TestGate_BootstrapSingleNodeBecomesLeader(t *testing.T) {
	gate := newTestGate(t)

	require.NoError(t, gate.Bootstrap())

	assert.Eventually(t, gate.IsLeader, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, gate.PeerCount())
}

func TestGate_IsLeaderFalseBeforeBootstrap(t *testing.T) {
	gate := newTestGate(t)

	assert.False(t, gate.IsLeader())
	assert.Equal(t, 0, gate.PeerCount())
	assert.Equal(t, "", gate.LeaderAddr())
}

func TestGate_AddVoterFailsWhenNotLeader(t *testing.T) {
	gate := newTestGate(t)

	err := gate.AddVoter("node-2", "127.0.0.1:9999")
	assert.Error(t, err)
}

func TestGate_ShutdownBeforeBootstrapIsNoop(t *testing.T) {
	gate, err := NewGate(Config{
		NodeID:   "node-1",
		BindAddr: "127.0.0.1:0",
		DataDir:  t.TempDir(),
	})
	require.NoError(t, err)

	assert.NoError(t, gate.Shutdown())
}
