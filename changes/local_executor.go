package changes

import (
	"context"
	"time"

	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/logging"
)

// LocalExecutor stands in for the remote members of the cluster. It logs
// every change it is asked to perform and completes it after Delay.
type LocalExecutor struct {
	Delay time.Duration
}

func (localExecutor *LocalExecutor) wait(ctx context.Context) error {
	if localExecutor.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(localExecutor.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (localExecutor *LocalExecutor) AddMember(ctx context.Context, memberID cluster.MemberID) error {
	Log.Infof("Adding member %d", memberID)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) RemoveMember(ctx context.Context, issuer cluster.MemberID, memberID cluster.MemberID) error {
	Log.Infof("Member %d removing member %d", issuer, memberID)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) Join(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, priorities map[cluster.MemberID]int) error {
	Log.Infof("Member %d joining partition %d with replica priorities %v", memberID, partitionID, priorities)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) Leave(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID) error {
	Log.Infof("Member %d leaving partition %d", memberID, partitionID)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) Bootstrap(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, priority int, config cluster.DynamicPartitionConfig, initializeFromSnapshot bool) error {
	Log.Infof("Member %d bootstrapping partition %d with priority %d (from snapshot: %v)", memberID, partitionID, priority, initializeFromSnapshot)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) ForceReconfigure(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, members []cluster.MemberID) error {
	Log.Warningf("Member %d forcing partition %d to replicas %v", memberID, partitionID, members)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) ReconfigurePriority(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, priority int) error {
	Log.Infof("Member %d changing its priority for partition %d to %d", memberID, partitionID, priority)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) EnableExporter(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, exporterID string, initializeFrom string) error {
	Log.Infof("Member %d enabling exporter %s on partition %d", memberID, exporterID, partitionID)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) DisableExporter(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, exporterID string) error {
	Log.Infof("Member %d disabling exporter %s on partition %d", memberID, exporterID, partitionID)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) DeleteExporter(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, exporterID string) error {
	Log.Infof("Member %d deleting exporter %s on partition %d", memberID, exporterID, partitionID)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) StartScaleUp(ctx context.Context, memberID cluster.MemberID, desiredPartitionCount int) error {
	Log.Infof("Member %d starting scale up to %d partitions", memberID, desiredPartitionCount)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) AwaitRedistribution(ctx context.Context, memberID cluster.MemberID, desiredPartitionCount int, partitions []cluster.PartitionID) error {
	Log.Infof("Member %d waiting for redistribution of partitions %v", memberID, partitions)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) AwaitRelocation(ctx context.Context, memberID cluster.MemberID, desiredPartitionCount int, partitions []cluster.PartitionID) error {
	Log.Infof("Member %d waiting for relocation to partitions %v", memberID, partitions)

	return localExecutor.wait(ctx)
}

func (localExecutor *LocalExecutor) UpdateRoutingState(ctx context.Context, memberID cluster.MemberID, routingState *cluster.RoutingState) error {
	Log.Infof("Member %d updating the routing state", memberID)

	return localExecutor.wait(ctx)
}
