package requests

import (
	"github.com/PelionIoT/topology/cluster"
)

// scaleTarget is the shape a scaling request asks the cluster to take
type scaleTarget struct {
	Members           []cluster.MemberID
	PartitionCount    int
	ReplicationFactor int
	// Distribution replaces the round robin assignment when it is set
	Distribution cluster.Distribution
}

func (target scaleTarget) distribution(configuration cluster.ClusterConfiguration) (cluster.Distribution, error) {
	if len(target.Members) == 0 {
		return nil, invalidRequest("the cluster must keep at least one member")
	}

	if target.PartitionCount < configuration.PartitionCount {
		return nil, invalidRequest("the partition count cannot shrink from %d to %d", configuration.PartitionCount, target.PartitionCount)
	}

	if target.Distribution != nil {
		return target.Distribution, target.validateDistribution()
	}

	if target.PartitionCount == 0 {
		return cluster.Distribution{}, nil
	}

	if target.ReplicationFactor < 1 || target.ReplicationFactor > len(target.Members) {
		return nil, invalidRequest("the replication factor %d must be between 1 and the cluster size %d", target.ReplicationFactor, len(target.Members))
	}

	distribution, err := cluster.RoundRobinDistributor{}.DistributePartitions(target.Members, cluster.PartitionRange(1, target.PartitionCount), target.ReplicationFactor)

	if err != nil {
		return nil, invalidRequest("%v", err)
	}

	return distribution, nil
}

func (target scaleTarget) validateDistribution() error {
	members := cluster.NewMemberSet(target.Members...)
	partitions := target.Distribution.PartitionIDs()

	if len(partitions) != target.PartitionCount {
		return invalidRequest("the distribution must assign exactly the partitions 1 to %d", target.PartitionCount)
	}

	for i, partitionID := range partitions {
		if partitionID != cluster.PartitionID(i+1) {
			return invalidRequest("the distribution must assign exactly the partitions 1 to %d", target.PartitionCount)
		}

		if len(target.Distribution[partitionID]) == 0 {
			return invalidRequest("partition %d has no replicas in the distribution", partitionID)
		}

		for memberID, priority := range target.Distribution[partitionID] {
			if !members.Contains(memberID) {
				return invalidRequest("partition %d is assigned to member %d which will not be part of the cluster", partitionID, memberID)
			}

			if priority < 1 {
				return invalidRequest("partition %d has a replica with priority %d on member %d", partitionID, priority, memberID)
			}
		}
	}

	return nil
}

// operations joins the new members, moves the partition replicas to their
// target members, lets the removed members leave and finally scales up the
// partition count. Every join happens before any leave.
func (target scaleTarget) operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	distribution, err := target.distribution(configuration)

	if err != nil {
		return nil, err
	}

	targetMembers := cluster.NewMemberSet(target.Members...)
	operations := []cluster.Operation{}

	for _, memberID := range cluster.MemberSetValues(targetMembers) {
		if !configuration.HasMember(memberID) {
			operations = append(operations, cluster.MemberJoinOperation{Member: memberID})
		}
	}

	operations = append(operations, migratePartitions(configuration, distribution)...)

	for _, memberID := range configuration.MemberIDs() {
		if !targetMembers.Contains(memberID) {
			operations = append(operations, cluster.MemberLeaveOperation{Member: memberID})
		}
	}

	if target.PartitionCount > configuration.PartitionCount {
		lowest := cluster.MemberSetValues(targetMembers)[0]
		newPartitions := cluster.PartitionRange(configuration.PartitionCount+1, target.PartitionCount)

		operations = append(operations, scaleUpOperations(lowest, target.PartitionCount, newPartitions)...)
	}

	return operations, nil
}

func replicationFactorOrCurrent(configuration cluster.ClusterConfiguration, replicationFactor int) (int, error) {
	if replicationFactor < 0 {
		return 0, invalidRequest("the replication factor %d must be positive", replicationFactor)
	}

	if replicationFactor == 0 {
		return configuration.ReplicationFactor(), nil
	}

	return replicationFactor, nil
}

func scaleUpOperations(memberID cluster.MemberID, desiredPartitionCount int, newPartitions []cluster.PartitionID) []cluster.Operation {
	return []cluster.Operation{
		cluster.StartPartitionScaleUpOperation{Member: memberID, DesiredPartitionCount: desiredPartitionCount},
		cluster.AwaitRedistributionCompletionOperation{Member: memberID, DesiredPartitionCount: desiredPartitionCount, PartitionsToRedistribute: newPartitions},
		cluster.AwaitRelocationCompletionOperation{Member: memberID, DesiredPartitionCount: desiredPartitionCount, PartitionsToRelocate: newPartitions},
	}
}

// BrokerScaleRequest makes Members the member set of the cluster and
// redistributes every partition over it. A zero ReplicationFactor keeps the
// current one.
type BrokerScaleRequest struct {
	Members           []cluster.MemberID `json:"members"`
	ReplicationFactor int                `json:"replicationFactor,omitempty"`
}

func (request BrokerScaleRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	replicationFactor, err := replicationFactorOrCurrent(configuration, request.ReplicationFactor)

	if err != nil {
		return nil, err
	}

	return scaleTarget{
		Members:           cluster.SortMemberIDs(request.Members),
		PartitionCount:    configuration.PartitionCount,
		ReplicationFactor: replicationFactor,
	}.operations(configuration)
}

// ClusterScaleRequest scales the cluster to ClusterSize members with ids
// 0..ClusterSize-1, PartitionCount partitions and the given replication
// factor. Zero values keep the current setting.
type ClusterScaleRequest struct {
	ClusterSize       int `json:"clusterSize,omitempty"`
	PartitionCount    int `json:"partitionCount,omitempty"`
	ReplicationFactor int `json:"replicationFactor,omitempty"`
}

func (request ClusterScaleRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	if request.ClusterSize < 0 || request.PartitionCount < 0 {
		return nil, invalidRequest("the cluster size and partition count must be positive")
	}

	replicationFactor, err := replicationFactorOrCurrent(configuration, request.ReplicationFactor)

	if err != nil {
		return nil, err
	}

	target := scaleTarget{
		Members:           configuration.MemberIDs(),
		PartitionCount:    configuration.PartitionCount,
		ReplicationFactor: replicationFactor,
	}

	if request.ClusterSize > 0 {
		target.Members = cluster.MemberRange(request.ClusterSize)
	}

	if request.PartitionCount > 0 {
		target.PartitionCount = request.PartitionCount
	}

	return target.operations(configuration)
}

// ClusterPatchRequest adds and removes explicit members and optionally
// changes the partition count, the replication factor or the whole replica
// distribution.
type ClusterPatchRequest struct {
	MembersToAdd      []cluster.MemberID   `json:"membersToAdd,omitempty"`
	MembersToRemove   []cluster.MemberID   `json:"membersToRemove,omitempty"`
	PartitionCount    int                  `json:"partitionCount,omitempty"`
	ReplicationFactor int                  `json:"replicationFactor,omitempty"`
	Distribution      cluster.Distribution `json:"distribution,omitempty"`
}

func (request ClusterPatchRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	toAdd := cluster.NewMemberSet(request.MembersToAdd...)
	toRemove := cluster.NewMemberSet(request.MembersToRemove...)

	for _, memberID := range cluster.MemberSetValues(toRemove) {
		if toAdd.Contains(memberID) {
			return nil, invalidRequest("member %d cannot be both added and removed", memberID)
		}

		if !configuration.HasMember(memberID) {
			return nil, invalidRequest("member %d cannot be removed because it is not part of the cluster", memberID)
		}
	}

	if request.PartitionCount < 0 {
		return nil, invalidRequest("the partition count %d must be positive", request.PartitionCount)
	}

	replicationFactor, err := replicationFactorOrCurrent(configuration, request.ReplicationFactor)

	if err != nil {
		return nil, err
	}

	members := cluster.NewMemberSet(configuration.MemberIDs()...)
	members.Add(toAdd.Values()...)
	members.Remove(toRemove.Values()...)

	target := scaleTarget{
		Members:           cluster.MemberSetValues(members),
		PartitionCount:    configuration.PartitionCount,
		ReplicationFactor: replicationFactor,
		Distribution:      request.Distribution,
	}

	if request.PartitionCount > 0 {
		target.PartitionCount = request.PartitionCount
	}

	return target.operations(configuration)
}

// ScaleUpRequest only runs the partition scale up barrier. NewPartitions must
// list exactly the partitions between the current and the desired count.
type ScaleUpRequest struct {
	DesiredPartitionCount int                   `json:"desiredPartitionCount"`
	NewPartitions         []cluster.PartitionID `json:"newPartitions"`
}

func (request ScaleUpRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	newPartitions := cluster.SortPartitionIDs(request.NewPartitions)

	if len(newPartitions) != len(request.NewPartitions) {
		return nil, invalidRequest("the new partitions contain duplicates")
	}

	if request.DesiredPartitionCount != configuration.PartitionCount+len(newPartitions) {
		return nil, invalidRequest("the desired partition count %d must be the current count %d plus the %d new partitions", request.DesiredPartitionCount, configuration.PartitionCount, len(newPartitions))
	}

	for i, partitionID := range newPartitions {
		if int(partitionID) <= configuration.PartitionCount {
			return nil, invalidRequest("partition %d already exists", partitionID)
		}

		if partitionID != cluster.PartitionID(configuration.PartitionCount+1+i) {
			return nil, invalidRequest("the new partitions must be exactly %d to %d", configuration.PartitionCount+1, request.DesiredPartitionCount)
		}
	}

	if len(newPartitions) == 0 {
		return []cluster.Operation{}, nil
	}

	memberID, err := lowestMember(configuration)

	if err != nil {
		return nil, err
	}

	return scaleUpOperations(memberID, request.DesiredPartitionCount, newPartitions), nil
}
