// Package cluster provides the leader-election gate the uninstall
// coordinator uses to decide whether this process is the one instance
// permitted to register with the master and run the offer loop.
package cluster

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/teardown/pkg/log"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
)

// Config holds configuration for a Gate.
type Config struct {
	NodeID   string
	BindAddr string
	DataDir  string
}

// Gate wraps a raft cluster of one-or-more coordinator processes and
// answers "is this process the leader" for the restart gate. A
// single-process deployment bootstraps a one-node cluster, which still
// goes through real raft leader election and is the leader once that
// election completes.
type Gate struct {
	nodeID   string
	bindAddr string
	dataDir  string
	raft     *raft.Raft
	fsm      *noopFSM
}

// NewGate creates a Gate for the given node.
func NewGate(cfg Config) (*Gate, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Gate{
		nodeID:   cfg.NodeID,
		bindAddr: cfg.BindAddr,
		dataDir:  cfg.DataDir,
		fsm:      &noopFSM{},
	}, nil
}

// raftConfig returns the tuned raft config Bootstrap starts raft with.
// Timeouts are lowered from the hashicorp defaults (1s/1s/500ms) for LAN/
// edge deployments rather than WAN ones: the uninstall coordinator cares
// about failing over to a standby quickly so a stuck leader does not stall
// the teardown indefinitely.
func (g *Gate) raftConfig() *raft.Config {
	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID(g.nodeID)
	config.HeartbeatTimeout = 500 * time.Millisecond
	config.ElectionTimeout = 500 * time.Millisecond
	config.CommitTimeout = 50 * time.Millisecond
	config.LeaderLeaseTimeout = 250 * time.Millisecond
	return config
}

func (g *Gate) newRaft() (*raft.Raft, *raft.TCPTransport, error) {
	config := g.raftConfig()

	addr, err := net.ResolveTCPAddr("tcp", g.bindAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve bind address: %w", err)
	}

	transport, err := raft.NewTCPTransport(g.bindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(g.dataDir, 2, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(g.dataDir, "raft-log.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log store: %w", err)
	}

	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(g.dataDir, "raft-stable.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stable store: %w", err)
	}

	r, err := raft.NewRaft(config, g.fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create raft: %w", err)
	}

	return r, transport, nil
}

// Bootstrap starts a single-node raft cluster with this process as the
// only voter. On a data directory that already holds raft state it starts
// raft from that state instead.
func (g *Gate) Bootstrap() error {
	r, transport, err := g.newRaft()
	if err != nil {
		return err
	}
	g.raft = r

	configuration := raft.Configuration{
		Servers: []raft.Server{
			{ID: raft.ServerID(g.nodeID), Address: transport.LocalAddr()},
		},
	}

	future := g.raft.BootstrapCluster(configuration)
	if err := future.Error(); err != nil && err != raft.ErrCantBootstrap {
		return fmt.Errorf("failed to bootstrap cluster: %w", err)
	}

	log.WithComponent("cluster").Info().Str("node_id", g.nodeID).Msg("bootstrapped leader gate")
	return nil
}

// AddVoter adds a standby coordinator process to the raft cluster. Only
// the current leader may call this.
func (g *Gate) AddVoter(nodeID, address string) error {
	if g.raft == nil {
		return fmt.Errorf("raft not initialized")
	}
	if !g.IsLeader() {
		return fmt.Errorf("not the leader, current leader: %s", g.LeaderAddr())
	}

	future := g.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(address), 0, 10*time.Second)
	return future.Error()
}

// IsLeader reports whether this process currently holds the leader gate.
func (g *Gate) IsLeader() bool {
	if g.raft == nil {
		return false
	}
	return g.raft.State() == raft.Leader
}

// LeaderAddr returns the address of the current leader, if known.
func (g *Gate) LeaderAddr() string {
	if g.raft == nil {
		return ""
	}
	return string(g.raft.Leader())
}

// PeerCount returns the number of voters in the raft configuration.
func (g *Gate) PeerCount() int {
	if g.raft == nil {
		return 0
	}
	future := g.raft.GetConfiguration()
	if err := future.Error(); err != nil {
		return 0
	}
	return len(future.Configuration().Servers)
}

// Shutdown tears down the raft instance.
func (g *Gate) Shutdown() error {
	if g.raft == nil {
		return nil
	}
	future := g.raft.Shutdown()
	if err := future.Error(); err != nil {
		return fmt.Errorf("failed to shut down leader gate: %w", err)
	}
	return nil
}

// noopFSM is a raft FSM with no state of its own: the leader gate exists
// only to elect a leader, not to replicate the uninstall plan (the plan is
// rebuilt from the persistent store on every process, per spec §9 "plan as
// data, not code" — replicating it through raft would be redundant with
// the store's own persistence).
type noopFSM struct{}

func (f *noopFSM) Apply(l *raft.Log) interface{} { return nil }
func (f *noopFSM) Snapshot() (raft.FSMSnapshot, error) {
	return noopSnapshot{}, nil
}
func (f *noopFSM) Restore(rc io.ReadCloser) error {
	return rc.Close()
}

type noopSnapshot struct{}

func (noopSnapshot) Persist(sink raft.SnapshotSink) error { return sink.Close() }
func (noopSnapshot) Release()                             {}
