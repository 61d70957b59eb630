package storage

import (
	"encoding/json"
	"fmt"

	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/logging"
)

var (
	topologyKey   = []byte("topology")
	historyPrefix = []byte("history.")
)

// TopologyStore persists the current cluster configuration and a record of
// every change plan that has left it.
type TopologyStore struct {
	storageDriver StorageDriver
}

func NewTopologyStore(storageDriver StorageDriver) *TopologyStore {
	return &TopologyStore{storageDriver: storageDriver}
}

func historyKey(changeID int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", historyPrefix, changeID))
}

// Load returns the stored configuration. ok is false if nothing has been
// saved yet.
func (topologyStore *TopologyStore) Load() (configuration cluster.ClusterConfiguration, ok bool, err error) {
	values, err := topologyStore.storageDriver.Get([][]byte{topologyKey})

	if err != nil {
		return cluster.ClusterConfiguration{}, false, err
	}

	if values[0] == nil {
		return cluster.ClusterConfiguration{}, false, nil
	}

	if err := json.Unmarshal(values[0], &configuration); err != nil {
		Log.Criticalf("Stored topology could not be decoded: %v", err)

		return cluster.ClusterConfiguration{}, false, ECorrupted
	}

	return configuration, true, nil
}

// Save replaces the stored configuration. A finished plan recorded in the
// configuration is added to the change history in the same batch.
func (topologyStore *TopologyStore) Save(configuration cluster.ClusterConfiguration) error {
	encoded, err := json.Marshal(configuration)

	if err != nil {
		return err
	}

	batch := NewBatch()
	batch.Put(topologyKey, encoded)

	if configuration.LastChange != nil {
		encodedChange, err := json.Marshal(configuration.LastChange)

		if err != nil {
			return err
		}

		batch.Put(historyKey(configuration.LastChange.ID), encodedChange)
	}

	return topologyStore.storageDriver.Batch(batch)
}

// History lists the finished change plans in ascending id order
func (topologyStore *TopologyStore) History() ([]cluster.CompletedChange, error) {
	iter, err := topologyStore.storageDriver.GetMatches([][]byte{historyPrefix})

	if err != nil {
		return nil, err
	}

	defer iter.Release()

	history := []cluster.CompletedChange{}

	for iter.Next() {
		var change cluster.CompletedChange

		if err := json.Unmarshal(iter.Value(), &change); err != nil {
			Log.Errorf("Change history entry %s could not be decoded: %v", iter.Key(), err)

			return nil, ECorrupted
		}

		history = append(history, change)
	}

	if iter.Error() != nil {
		return nil, iter.Error()
	}

	return history, nil
}

// Compact reclaims the space of overwritten and deleted records
func (topologyStore *TopologyStore) Compact() error {
	return topologyStore.storageDriver.Compact()
}
