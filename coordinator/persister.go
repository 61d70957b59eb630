package coordinator

import (
	"context"

	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/storage"
)

// Persister makes committed topologies durable. Persist must not return
// before the topology would survive a restart.
type Persister interface {
	Load() (cluster.ClusterConfiguration, bool, error)
	Persist(ctx context.Context, configuration cluster.ClusterConfiguration) error
	History() ([]cluster.CompletedChange, error)
}

// StorePersister writes topologies straight to a topology store
type StorePersister struct {
	store *storage.TopologyStore
}

func NewStorePersister(store *storage.TopologyStore) *StorePersister {
	return &StorePersister{store: store}
}

func (persister *StorePersister) Load() (cluster.ClusterConfiguration, bool, error) {
	return persister.store.Load()
}

func (persister *StorePersister) Persist(ctx context.Context, configuration cluster.ClusterConfiguration) error {
	return persister.store.Save(configuration)
}

func (persister *StorePersister) History() ([]cluster.CompletedChange, error) {
	return persister.store.History()
}
