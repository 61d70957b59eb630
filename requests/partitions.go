package requests

import (
	"github.com/PelionIoT/topology/cluster"
)

// JoinPartitionRequest adds a replica of an existing partition to a member
type JoinPartitionRequest struct {
	Member    cluster.MemberID    `json:"memberId"`
	Partition cluster.PartitionID `json:"partitionId"`
	Priority  int                 `json:"priority"`
}

func (request JoinPartitionRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	member, ok := configuration.GetMember(request.Member)

	if !ok {
		return nil, invalidRequest("member %d is not part of the cluster", request.Member)
	}

	if request.Priority < 1 {
		return nil, invalidRequest("priority must be at least 1 but was %d", request.Priority)
	}

	if member.HasPartition(request.Partition) {
		return []cluster.Operation{}, nil
	}

	if len(configuration.PartitionReplicas(request.Partition)) == 0 {
		return nil, invalidRequest("partition %d has no replicas to join", request.Partition)
	}

	return []cluster.Operation{
		cluster.PartitionJoinOperation{Member: request.Member, Partition: request.Partition, Priority: request.Priority},
	}, nil
}

// LeavePartitionRequest removes the replica of a partition from a member.
// The last replica of a partition cannot leave.
type LeavePartitionRequest struct {
	Member    cluster.MemberID    `json:"memberId"`
	Partition cluster.PartitionID `json:"partitionId"`
}

func (request LeavePartitionRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	member, ok := configuration.GetMember(request.Member)

	if !ok {
		return nil, invalidRequest("member %d is not part of the cluster", request.Member)
	}

	if !member.HasPartition(request.Partition) {
		return []cluster.Operation{}, nil
	}

	if len(configuration.PartitionReplicas(request.Partition)) <= 1 {
		return nil, invalidRequest("member %d hosts the last replica of partition %d", request.Member, request.Partition)
	}

	return []cluster.Operation{
		cluster.PartitionLeaveOperation{Member: request.Member, Partition: request.Partition, MinimumAllowedReplicas: 1},
	}, nil
}

// ReassignPartitionsRequest redistributes the replicas of every partition
// over the given members, keeping the current replication factor. Distribution
// replaces the round robin assignment when it is set.
type ReassignPartitionsRequest struct {
	Members      []cluster.MemberID   `json:"members"`
	Distribution cluster.Distribution `json:"distribution,omitempty"`
}

func (request ReassignPartitionsRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	for _, memberID := range request.Members {
		if !configuration.HasMember(memberID) {
			return nil, invalidRequest("member %d is not part of the cluster", memberID)
		}
	}

	target := scaleTarget{
		Members:           cluster.SortMemberIDs(request.Members),
		PartitionCount:    configuration.PartitionCount,
		ReplicationFactor: configuration.ReplicationFactor(),
		Distribution:      request.Distribution,
	}

	distribution, err := target.distribution(configuration)

	if err != nil {
		return nil, err
	}

	return migratePartitions(configuration, distribution), nil
}

// migratePartitions returns the operations that turn the current replica
// assignment of the partitions in target into target. Partitions outside
// target are left alone. All joins come first, then priority changes, then
// leaves, so a partition never has fewer replicas than it had before or than
// target gives it. A partition without any replica is bootstrapped on its
// highest priority member before the others join it.
func migratePartitions(configuration cluster.ClusterConfiguration, target cluster.Distribution) []cluster.Operation {
	current := configuration.Distribution()
	joins := []cluster.Operation{}
	priorityChanges := []cluster.Operation{}
	leaves := []cluster.Operation{}

	for _, partitionID := range target.PartitionIDs() {
		currentReplicas := current[partitionID]
		targetReplicas := target[partitionID]

		if len(currentReplicas) == 0 {
			leader, ok := target.HighestPriorityMember(partitionID)

			if !ok {
				continue
			}

			joins = append(joins, cluster.PartitionBootstrapOperation{
				Member:                 leader,
				Partition:              partitionID,
				Priority:               targetReplicas[leader],
				InitializeFromSnapshot: int(partitionID) > configuration.PartitionCount,
			})

			for _, memberID := range target.Members(partitionID) {
				if memberID != leader {
					joins = append(joins, cluster.PartitionJoinOperation{Member: memberID, Partition: partitionID, Priority: targetReplicas[memberID]})
				}
			}

			continue
		}

		for _, memberID := range target.Members(partitionID) {
			currentPriority, ok := currentReplicas[memberID]

			if !ok {
				joins = append(joins, cluster.PartitionJoinOperation{Member: memberID, Partition: partitionID, Priority: targetReplicas[memberID]})
			} else if currentPriority != targetReplicas[memberID] {
				priorityChanges = append(priorityChanges, cluster.PartitionReconfigurePriorityOperation{Member: memberID, Partition: partitionID, Priority: targetReplicas[memberID]})
			}
		}

		for _, memberID := range current.Members(partitionID) {
			if _, ok := targetReplicas[memberID]; !ok {
				leaves = append(leaves, cluster.PartitionLeaveOperation{Member: memberID, Partition: partitionID, MinimumAllowedReplicas: 1})
			}
		}
	}

	operations := make([]cluster.Operation, 0, len(joins)+len(priorityChanges)+len(leaves))
	operations = append(operations, joins...)
	operations = append(operations, priorityChanges...)
	operations = append(operations, leaves...)

	return operations
}
