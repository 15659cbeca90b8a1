package cluster

import (
	"testing"
	"time"

	"github.com/cuemby/teardown/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_CollectSetsLeaderAndPeerGauges(t *testing.T) {
	gate := newTestGate(t)
	require.NoError(t, gate.Bootstrap())
	require.Eventually(t, gate.IsLeader, 2*time.Second, 10*time.Millisecond)

	c := NewCollector(gate)
	c.collect()

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RaftLeader))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RaftPeers))
}

func TestCollector_CollectReportsNonLeaderBeforeBootstrap(t *testing.T) {
	gate := newTestGate(t)

	c := NewCollector(gate)
	c.collect()

	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.RaftLeader))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.RaftPeers))
}

func TestCollector_StartAndStopDoesNotPanic(t *testing.T) {
	gate := newTestGate(t)
	c := NewCollector(gate)

	c.Start()
	c.Stop()
}
