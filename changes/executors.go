package changes

import (
	"context"

	"github.com/PelionIoT/topology/cluster"
)

// ClusterMembershipChangeExecutor adds members to and removes members from
// the membership of the cluster
type ClusterMembershipChangeExecutor interface {
	AddMember(ctx context.Context, memberID cluster.MemberID) error
	// RemoveMember is executed by issuer on behalf of memberID, which may
	// not be reachable anymore
	RemoveMember(ctx context.Context, issuer cluster.MemberID, memberID cluster.MemberID) error
}

// PartitionChangeExecutor changes the replicas of a partition hosted by a member
type PartitionChangeExecutor interface {
	// Join starts a replica on memberID. priorities lists every replica of
	// the partition, the joining one included.
	Join(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, priorities map[cluster.MemberID]int) error
	Leave(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID) error
	Bootstrap(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, priority int, config cluster.DynamicPartitionConfig, initializeFromSnapshot bool) error
	ForceReconfigure(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, members []cluster.MemberID) error
	ReconfigurePriority(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, priority int) error
	EnableExporter(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, exporterID string, initializeFrom string) error
	DisableExporter(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, exporterID string) error
	DeleteExporter(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, exporterID string) error
}

// PartitionScalingChangeExecutor drives a partition count scale up. The await
// calls return once every member has confirmed the step.
type PartitionScalingChangeExecutor interface {
	StartScaleUp(ctx context.Context, memberID cluster.MemberID, desiredPartitionCount int) error
	AwaitRedistribution(ctx context.Context, memberID cluster.MemberID, desiredPartitionCount int, partitions []cluster.PartitionID) error
	AwaitRelocation(ctx context.Context, memberID cluster.MemberID, desiredPartitionCount int, partitions []cluster.PartitionID) error
}

// ClusterChangeExecutor performs side effects that concern the whole cluster
type ClusterChangeExecutor interface {
	UpdateRoutingState(ctx context.Context, memberID cluster.MemberID, routingState *cluster.RoutingState) error
}

type Executors struct {
	Membership ClusterMembershipChangeExecutor
	Partition  PartitionChangeExecutor
	Scaling    PartitionScalingChangeExecutor
	Cluster    ClusterChangeExecutor
}

// NewExecutors uses one executor for every kind of change
func NewExecutors(executor interface {
	ClusterMembershipChangeExecutor
	PartitionChangeExecutor
	PartitionScalingChangeExecutor
	ClusterChangeExecutor
}) Executors {
	return Executors{
		Membership: executor,
		Partition:  executor,
		Scaling:    executor,
		Cluster:    executor,
	}
}

// NoopExecutor succeeds at everything without doing anything
type NoopExecutor struct {
}

func (NoopExecutor) AddMember(ctx context.Context, memberID cluster.MemberID) error { return nil }
func (NoopExecutor) RemoveMember(ctx context.Context, issuer cluster.MemberID, memberID cluster.MemberID) error {
	return nil
}
func (NoopExecutor) Join(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, priorities map[cluster.MemberID]int) error {
	return nil
}
func (NoopExecutor) Leave(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID) error {
	return nil
}
func (NoopExecutor) Bootstrap(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, priority int, config cluster.DynamicPartitionConfig, initializeFromSnapshot bool) error {
	return nil
}
func (NoopExecutor) ForceReconfigure(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, members []cluster.MemberID) error {
	return nil
}
func (NoopExecutor) ReconfigurePriority(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, priority int) error {
	return nil
}
func (NoopExecutor) EnableExporter(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, exporterID string, initializeFrom string) error {
	return nil
}
func (NoopExecutor) DisableExporter(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, exporterID string) error {
	return nil
}
func (NoopExecutor) DeleteExporter(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, exporterID string) error {
	return nil
}
func (NoopExecutor) StartScaleUp(ctx context.Context, memberID cluster.MemberID, desiredPartitionCount int) error {
	return nil
}
func (NoopExecutor) AwaitRedistribution(ctx context.Context, memberID cluster.MemberID, desiredPartitionCount int, partitions []cluster.PartitionID) error {
	return nil
}
func (NoopExecutor) AwaitRelocation(ctx context.Context, memberID cluster.MemberID, desiredPartitionCount int, partitions []cluster.PartitionID) error {
	return nil
}
func (NoopExecutor) UpdateRoutingState(ctx context.Context, memberID cluster.MemberID, routingState *cluster.RoutingState) error {
	return nil
}

func NoopExecutors() Executors {
	return NewExecutors(NoopExecutor{})
}
