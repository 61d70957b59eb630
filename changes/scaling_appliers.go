package changes

import (
	"context"

	"github.com/PelionIoT/topology/cluster"
)

// currentRoutingState returns the routing state of the topology. A topology
// without one routes to all of its partitions.
func currentRoutingState(configuration cluster.ClusterConfiguration) cluster.RoutingState {
	if configuration.RoutingState == nil {
		return *cluster.NewRoutingState(configuration.PartitionCount)
	}

	return *configuration.RoutingState
}

func updateRoutingState(update func(cluster.RoutingState) cluster.RoutingState) Transform {
	return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
		routingState := update(currentRoutingState(configuration))

		return configuration.UpdateRoutingState(&routingState)
	}
}

func checkScaleUp(configuration cluster.ClusterConfiguration, op cluster.Operation, desiredPartitionCount int) error {
	if desiredPartitionCount <= configuration.PartitionCount {
		return notApplicable(op, "the partition count is already %d", configuration.PartitionCount)
	}

	return nil
}

type startPartitionScaleUpApplier struct {
	op       cluster.StartPartitionScaleUpOperation
	executor PartitionScalingChangeExecutor
	from     int
}

func (applier *startPartitionScaleUpApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	if err := checkScaleUp(configuration, applier.op, applier.op.DesiredPartitionCount); err != nil {
		return nil, err
	}

	applier.from = configuration.PartitionCount

	return identity, nil
}

func (applier *startPartitionScaleUpApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.StartScaleUp(ctx, applier.op.Member, applier.op.DesiredPartitionCount); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	newPartitions := cluster.PartitionRange(applier.from+1, applier.op.DesiredPartitionCount)

	return updateRoutingState(func(routingState cluster.RoutingState) cluster.RoutingState {
		return routingState.WithInactivePartitions(newPartitions)
	}), nil
}

type awaitRedistributionCompletionApplier struct {
	op       cluster.AwaitRedistributionCompletionOperation
	executor PartitionScalingChangeExecutor
}

func (applier *awaitRedistributionCompletionApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	if err := checkScaleUp(configuration, applier.op, applier.op.DesiredPartitionCount); err != nil {
		return nil, err
	}

	return identity, nil
}

func (applier *awaitRedistributionCompletionApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.AwaitRedistribution(ctx, applier.op.Member, applier.op.DesiredPartitionCount, applier.op.PartitionsToRedistribute); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return updateRoutingState(func(routingState cluster.RoutingState) cluster.RoutingState {
		return routingState.ActivatePartitions(applier.op.PartitionsToRedistribute)
	}), nil
}

type awaitRelocationCompletionApplier struct {
	op       cluster.AwaitRelocationCompletionOperation
	executor PartitionScalingChangeExecutor
}

func (applier *awaitRelocationCompletionApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	if err := checkScaleUp(configuration, applier.op, applier.op.DesiredPartitionCount); err != nil {
		return nil, err
	}

	return identity, nil
}

func (applier *awaitRelocationCompletionApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.AwaitRelocation(ctx, applier.op.Member, applier.op.DesiredPartitionCount, applier.op.PartitionsToRelocate); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
		routingState := currentRoutingState(configuration).CompleteScaleUp(applier.op.DesiredPartitionCount)

		return configuration.UpdatePartitionCount(applier.op.DesiredPartitionCount).UpdateRoutingState(&routingState)
	}, nil
}

type updateRoutingStateApplier struct {
	op       cluster.UpdateRoutingStateOperation
	executor ClusterChangeExecutor
}

func (applier *updateRoutingStateApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	return identity, nil
}

func (applier *updateRoutingStateApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.UpdateRoutingState(ctx, applier.op.Member, applier.op.RoutingState); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
		return configuration.UpdateRoutingState(applier.op.RoutingState)
	}, nil
}
