package coordinator

import (
	"context"

	"github.com/PelionIoT/topology/cluster"

	"github.com/google/uuid"
)

const WatcherBufferSize = 64

// Watcher receives the deltas of every topology change published after it
// subscribed. A watcher that falls WatcherBufferSize changes behind is closed.
type Watcher struct {
	ID     string
	deltas chan []cluster.TopologyDelta
	closed bool
}

func (watcher *Watcher) Deltas() <-chan []cluster.TopologyDelta {
	return watcher.deltas
}

func (watcher *Watcher) send(deltas []cluster.TopologyDelta) bool {
	select {
	case watcher.deltas <- deltas:
		return true
	default:
		return false
	}
}

func (watcher *Watcher) close() {
	if watcher.closed {
		return
	}

	watcher.closed = true
	close(watcher.deltas)
}

// Subscribe registers a watcher along with the topology it starts from
func (coordinator *Coordinator) Subscribe(ctx context.Context) (*Watcher, cluster.ClusterConfiguration, error) {
	watcher := &Watcher{
		ID:     uuid.New().String(),
		deltas: make(chan []cluster.TopologyDelta, WatcherBufferSize),
	}

	var configuration cluster.ClusterConfiguration

	err := coordinator.do(ctx, func() {
		coordinator.watchers[watcher.ID] = watcher
		configuration = coordinator.Topology()
	})

	if err != nil {
		return nil, cluster.ClusterConfiguration{}, err
	}

	return watcher, configuration, nil
}

func (coordinator *Coordinator) Unsubscribe(watcher *Watcher) {
	coordinator.do(context.Background(), func() {
		if _, ok := coordinator.watchers[watcher.ID]; ok {
			watcher.close()
			delete(coordinator.watchers, watcher.ID)
		}
	})
}
