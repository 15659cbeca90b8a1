package cluster

import (
	"time"

	"github.com/cuemby/teardown/pkg/metrics"
)

// Collector periodically publishes this node's raft status to the
// RaftLeader/RaftPeers gauges, the one series this module's raft cluster
// backs.
type Collector struct {
	gate   *Gate
	stopCh chan struct{}
}

// NewCollector creates a Collector for gate.
func NewCollector(gate *Gate) *Collector {
	return &Collector{
		gate:   gate,
		stopCh: make(chan struct{}),
	}
}

// Start begins polling the gate on a fixed interval.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the polling goroutine.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if c.gate.IsLeader() {
		metrics.RaftLeader.Set(1)
	} else {
		metrics.RaftLeader.Set(0)
	}
	metrics.RaftPeers.Set(float64(c.gate.PeerCount()))
}
