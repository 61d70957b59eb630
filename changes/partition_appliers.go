package changes

import (
	"context"

	"github.com/PelionIoT/topology/cluster"
)

// hostedPartition returns the replica of a partition on a member
func hostedPartition(configuration cluster.ClusterConfiguration, op cluster.Operation, memberID cluster.MemberID, partitionID cluster.PartitionID) (cluster.MemberState, cluster.PartitionState, error) {
	member, ok := configuration.GetMember(memberID)

	if !ok {
		return cluster.MemberState{}, cluster.PartitionState{}, notApplicable(op, "member %d is not part of the cluster", memberID)
	}

	partitionState, ok := member.GetPartition(partitionID)

	if !ok {
		return cluster.MemberState{}, cluster.PartitionState{}, notApplicable(op, "member %d does not host partition %d", memberID, partitionID)
	}

	return member, partitionState, nil
}

// activePartition returns the replica of a partition on a member and fails
// unless it is ACTIVE
func activePartition(configuration cluster.ClusterConfiguration, op cluster.Operation, memberID cluster.MemberID, partitionID cluster.PartitionID) (cluster.PartitionState, error) {
	_, partitionState, err := hostedPartition(configuration, op, memberID, partitionID)

	if err != nil {
		return cluster.PartitionState{}, err
	}

	if partitionState.State != cluster.PartitionActive {
		return cluster.PartitionState{}, notApplicable(op, "partition %d on member %d is %s", partitionID, memberID, partitionState.State)
	}

	return partitionState, nil
}

func activeMember(configuration cluster.ClusterConfiguration, op cluster.Operation, memberID cluster.MemberID) (cluster.MemberState, error) {
	member, ok := configuration.GetMember(memberID)

	if !ok {
		return cluster.MemberState{}, notApplicable(op, "member %d is not part of the cluster", memberID)
	}

	if member.State != cluster.MemberActive {
		return cluster.MemberState{}, notApplicable(op, "member %d is %s", memberID, member.State)
	}

	return member, nil
}

func updatePartition(memberID cluster.MemberID, partitionID cluster.PartitionID, update func(cluster.PartitionState) cluster.PartitionState) Transform {
	return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
		return configuration.UpdateMember(memberID, func(member cluster.MemberState) cluster.MemberState {
			return member.UpdatePartition(partitionID, update)
		})
	}
}

func addPartition(memberID cluster.MemberID, partitionID cluster.PartitionID, partitionState cluster.PartitionState) Transform {
	return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
		return configuration.UpdateMember(memberID, func(member cluster.MemberState) cluster.MemberState {
			return member.AddPartition(partitionID, partitionState)
		})
	}
}

func removePartition(memberID cluster.MemberID, partitionID cluster.PartitionID) Transform {
	return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
		return configuration.UpdateMember(memberID, func(member cluster.MemberState) cluster.MemberState {
			return member.RemovePartition(partitionID)
		})
	}
}

type partitionJoinApplier struct {
	op         cluster.PartitionJoinOperation
	executor   PartitionChangeExecutor
	priorities map[cluster.MemberID]int
}

func (applier *partitionJoinApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	member, err := activeMember(configuration, applier.op, applier.op.Member)

	if err != nil {
		return nil, err
	}

	if partitionState, ok := member.GetPartition(applier.op.Partition); ok && partitionState.State != cluster.PartitionJoining {
		return nil, notApplicable(applier.op, "the member already hosts the partition")
	}

	replicas := configuration.PartitionReplicas(applier.op.Partition)
	delete(replicas, applier.op.Member)

	if len(replicas) == 0 {
		return nil, notApplicable(applier.op, "no other member hosts the partition")
	}

	applier.priorities = make(map[cluster.MemberID]int, len(replicas)+1)

	for memberID, partitionState := range replicas {
		applier.priorities[memberID] = partitionState.Priority
	}

	// the config of the preferred leader is the most recent one
	leader, _ := cluster.Distribution{applier.op.Partition: applier.priorities}.HighestPriorityMember(applier.op.Partition)
	config := replicas[leader].Config

	applier.priorities[applier.op.Member] = applier.op.Priority

	return addPartition(applier.op.Member, applier.op.Partition, cluster.NewJoiningPartition(applier.op.Priority, config)), nil
}

func (applier *partitionJoinApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.Join(ctx, applier.op.Member, applier.op.Partition, applier.priorities); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return updatePartition(applier.op.Member, applier.op.Partition, cluster.PartitionState.ToActive), nil
}

type partitionLeaveApplier struct {
	op       cluster.PartitionLeaveOperation
	executor PartitionChangeExecutor
}

func (applier *partitionLeaveApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	_, partitionState, err := hostedPartition(configuration, applier.op, applier.op.Member, applier.op.Partition)

	if err != nil {
		return nil, err
	}

	if partitionState.State != cluster.PartitionActive && partitionState.State != cluster.PartitionLeaving {
		return nil, notApplicable(applier.op, "the replica is %s", partitionState.State)
	}

	if replicas := len(configuration.PartitionReplicas(applier.op.Partition)); replicas <= applier.op.MinimumAllowedReplicas {
		return nil, notApplicable(applier.op, "the partition has %d replicas and must keep at least %d", replicas, applier.op.MinimumAllowedReplicas)
	}

	return updatePartition(applier.op.Member, applier.op.Partition, cluster.PartitionState.ToLeaving), nil
}

func (applier *partitionLeaveApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.Leave(ctx, applier.op.Member, applier.op.Partition); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return removePartition(applier.op.Member, applier.op.Partition), nil
}

type partitionBootstrapApplier struct {
	op       cluster.PartitionBootstrapOperation
	executor PartitionChangeExecutor
	config   cluster.DynamicPartitionConfig
}

func (applier *partitionBootstrapApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	member, err := activeMember(configuration, applier.op, applier.op.Member)

	if err != nil {
		return nil, err
	}

	if partitionState, ok := member.GetPartition(applier.op.Partition); ok && partitionState.State != cluster.PartitionBootstrapping {
		return nil, notApplicable(applier.op, "the member already hosts the partition")
	}

	replicas := configuration.PartitionReplicas(applier.op.Partition)
	delete(replicas, applier.op.Member)

	if len(replicas) > 0 {
		return nil, notApplicable(applier.op, "the partition is already hosted by other members")
	}

	applier.config = cluster.NewDynamicPartitionConfig()

	if applier.op.Config != nil {
		applier.config = *applier.op.Config
	}

	return addPartition(applier.op.Member, applier.op.Partition, cluster.NewBootstrappingPartition(applier.op.Priority, applier.config)), nil
}

func (applier *partitionBootstrapApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.Bootstrap(ctx, applier.op.Member, applier.op.Partition, applier.op.Priority, applier.config, applier.op.InitializeFromSnapshot); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return updatePartition(applier.op.Member, applier.op.Partition, cluster.PartitionState.ToActive), nil
}

type partitionForceReconfigureApplier struct {
	op       cluster.PartitionForceReconfigureOperation
	executor PartitionChangeExecutor
}

func (applier *partitionForceReconfigureApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	if _, _, err := hostedPartition(configuration, applier.op, applier.op.Member, applier.op.Partition); err != nil {
		return nil, err
	}

	survivors := cluster.NewMemberSet(applier.op.Members...)

	if !survivors.Contains(applier.op.Member) {
		return nil, notApplicable(applier.op, "the new replicas must include member %d", applier.op.Member)
	}

	for _, memberID := range cluster.MemberSetValues(survivors) {
		if _, _, err := hostedPartition(configuration, applier.op, memberID, applier.op.Partition); err != nil {
			return nil, err
		}
	}

	return identity, nil
}

func (applier *partitionForceReconfigureApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.ForceReconfigure(ctx, applier.op.Member, applier.op.Partition, applier.op.Members); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	survivors := cluster.NewMemberSet(applier.op.Members...)

	return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
		for memberID := range configuration.PartitionReplicas(applier.op.Partition) {
			if !survivors.Contains(memberID) {
				configuration = removePartition(memberID, applier.op.Partition)(configuration)
			}
		}

		return configuration
	}, nil
}

type partitionReconfigurePriorityApplier struct {
	op       cluster.PartitionReconfigurePriorityOperation
	executor PartitionChangeExecutor
}

func (applier *partitionReconfigurePriorityApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	if _, err := activePartition(configuration, applier.op, applier.op.Member, applier.op.Partition); err != nil {
		return nil, err
	}

	return identity, nil
}

func (applier *partitionReconfigurePriorityApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.ReconfigurePriority(ctx, applier.op.Member, applier.op.Partition, applier.op.Priority); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return updatePartition(applier.op.Member, applier.op.Partition, func(partitionState cluster.PartitionState) cluster.PartitionState {
		return partitionState.WithPriority(applier.op.Priority)
	}), nil
}
