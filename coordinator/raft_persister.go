package coordinator

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/logging"
	"github.com/PelionIoT/topology/raft"
	"github.com/PelionIoT/topology/storage"

	"github.com/coreos/etcd/raft/raftpb"
	"github.com/google/uuid"
)

type topologyProposal struct {
	ID       string                       `json:"id"`
	Topology cluster.ClusterConfiguration `json:"topology"`
}

// RaftPersister commits every topology through the raft log before writing
// it to the topology store. Persist returns once the entry has been applied.
type RaftPersister struct {
	raftNode *raft.RaftNode
	store    *storage.TopologyStore
	lock     sync.Mutex
	waiters  map[string]chan error
}

func NewRaftPersister(raftNode *raft.RaftNode, store *storage.TopologyStore) *RaftPersister {
	return &RaftPersister{
		raftNode: raftNode,
		store:    store,
		waiters:  make(map[string]chan error),
	}
}

// Snapshot encodes the stored topology for raft log compaction
func (persister *RaftPersister) Snapshot() ([]byte, error) {
	configuration, _, err := persister.store.Load()

	if err != nil {
		return nil, err
	}

	return json.Marshal(configuration)
}

func (persister *RaftPersister) Start(ctx context.Context) error {
	persister.raftNode.OnCommittedEntry(persister.apply)

	persister.raftNode.OnSnapshot(func(snap raftpb.Snapshot) error {
		var configuration cluster.ClusterConfiguration

		if err := json.Unmarshal(snap.Data, &configuration); err != nil {
			return err
		}

		return persister.store.Save(configuration)
	})

	persister.raftNode.OnError(func(err error) error {
		Log.Criticalf("Raft node encountered an unrecoverable error and will now shut down: %v", err)

		return nil
	})

	return persister.raftNode.Start(ctx)
}

func (persister *RaftPersister) Stop() {
	persister.raftNode.Stop()
}

func (persister *RaftPersister) apply(entry raftpb.Entry) error {
	var proposal topologyProposal

	if err := json.Unmarshal(entry.Data, &proposal); err != nil {
		Log.Errorf("Ignoring raft entry %d that is not a topology proposal: %v", entry.Index, err)

		return nil
	}

	err := persister.store.Save(proposal.Topology)

	if err != nil {
		Log.Criticalf("Unable to save topology version %d committed at raft index %d: %v", proposal.Topology.Version, entry.Index, err)
	}

	persister.lock.Lock()
	defer persister.lock.Unlock()

	if waiter, ok := persister.waiters[proposal.ID]; ok {
		waiter <- err
		delete(persister.waiters, proposal.ID)
	}

	return nil
}

func (persister *RaftPersister) Load() (cluster.ClusterConfiguration, bool, error) {
	return persister.store.Load()
}

func (persister *RaftPersister) History() ([]cluster.CompletedChange, error) {
	return persister.store.History()
}

func (persister *RaftPersister) Persist(ctx context.Context, configuration cluster.ClusterConfiguration) error {
	proposal := topologyProposal{ID: uuid.New().String(), Topology: configuration}
	encoded, err := json.Marshal(proposal)

	if err != nil {
		return err
	}

	waiter := make(chan error, 1)

	persister.lock.Lock()
	persister.waiters[proposal.ID] = waiter
	persister.lock.Unlock()

	defer func() {
		persister.lock.Lock()
		delete(persister.waiters, proposal.ID)
		persister.lock.Unlock()
	}()

	if err := persister.raftNode.Propose(ctx, encoded); err != nil {
		return err
	}

	select {
	case err := <-waiter:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
