package requests

import (
	"github.com/PelionIoT/topology/cluster"
)

// PurgeRequest tears down every partition replica and rebuilds each
// partition from scratch with the same members and priorities. The replica
// with the highest priority is bootstrapped with the partition's current
// config and the other replicas join it.
type PurgeRequest struct {
}

func (request PurgeRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	distribution := configuration.Distribution()
	leaves := []cluster.Operation{}
	rebuilds := []cluster.Operation{}

	for _, partitionID := range distribution.PartitionIDs() {
		for _, memberID := range distribution.Members(partitionID) {
			leaves = append(leaves, cluster.PartitionLeaveOperation{Member: memberID, Partition: partitionID, MinimumAllowedReplicas: 0})
		}

		leader, _ := distribution.HighestPriorityMember(partitionID)
		leaderMember, _ := configuration.GetMember(leader)
		leaderReplica, _ := leaderMember.GetPartition(partitionID)
		config := leaderReplica.Config

		rebuilds = append(rebuilds, cluster.PartitionBootstrapOperation{
			Member:    leader,
			Partition: partitionID,
			Priority:  leaderReplica.Priority,
			Config:    &config,
		})

		for _, memberID := range distribution.Members(partitionID) {
			if memberID != leader {
				rebuilds = append(rebuilds, cluster.PartitionJoinOperation{Member: memberID, Partition: partitionID, Priority: distribution[partitionID][memberID]})
			}
		}
	}

	return append(leaves, rebuilds...), nil
}
