package changes

import (
	"context"

	"github.com/PelionIoT/topology/cluster"
)

type partitionEnableExporterApplier struct {
	op       cluster.PartitionEnableExporterOperation
	executor PartitionChangeExecutor
}

func (applier *partitionEnableExporterApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	partitionState, err := activePartition(configuration, applier.op, applier.op.Member, applier.op.Partition)

	if err != nil {
		return nil, err
	}

	if applier.op.InitializeFrom != "" {
		if _, ok := partitionState.Config.Exporter(applier.op.InitializeFrom); !ok {
			return nil, notApplicable(applier.op, "exporter %s is not configured", applier.op.InitializeFrom)
		}
	}

	return identity, nil
}

func (applier *partitionEnableExporterApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.EnableExporter(ctx, applier.op.Member, applier.op.Partition, applier.op.ExporterID, applier.op.InitializeFrom); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return updatePartition(applier.op.Member, applier.op.Partition, func(partitionState cluster.PartitionState) cluster.PartitionState {
		return partitionState.UpdateConfig(func(config cluster.DynamicPartitionConfig) cluster.DynamicPartitionConfig {
			return config.EnableExporter(applier.op.ExporterID, applier.op.InitializeFrom)
		})
	}), nil
}

// knownExporter checks that the exporter is configured on an active replica
func knownExporter(configuration cluster.ClusterConfiguration, op cluster.Operation, memberID cluster.MemberID, partitionID cluster.PartitionID, exporterID string) error {
	partitionState, err := activePartition(configuration, op, memberID, partitionID)

	if err != nil {
		return err
	}

	if _, ok := partitionState.Config.Exporter(exporterID); !ok {
		return notApplicable(op, "exporter %s is not configured", exporterID)
	}

	return nil
}

type partitionDisableExporterApplier struct {
	op       cluster.PartitionDisableExporterOperation
	executor PartitionChangeExecutor
}

func (applier *partitionDisableExporterApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	if err := knownExporter(configuration, applier.op, applier.op.Member, applier.op.Partition, applier.op.ExporterID); err != nil {
		return nil, err
	}

	return identity, nil
}

func (applier *partitionDisableExporterApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.DisableExporter(ctx, applier.op.Member, applier.op.Partition, applier.op.ExporterID); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return updatePartition(applier.op.Member, applier.op.Partition, func(partitionState cluster.PartitionState) cluster.PartitionState {
		return partitionState.UpdateConfig(func(config cluster.DynamicPartitionConfig) cluster.DynamicPartitionConfig {
			return config.DisableExporter(applier.op.ExporterID)
		})
	}), nil
}

type partitionDeleteExporterApplier struct {
	op       cluster.PartitionDeleteExporterOperation
	executor PartitionChangeExecutor
}

func (applier *partitionDeleteExporterApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	if err := knownExporter(configuration, applier.op, applier.op.Member, applier.op.Partition, applier.op.ExporterID); err != nil {
		return nil, err
	}

	return identity, nil
}

func (applier *partitionDeleteExporterApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.DeleteExporter(ctx, applier.op.Member, applier.op.Partition, applier.op.ExporterID); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return updatePartition(applier.op.Member, applier.op.Partition, func(partitionState cluster.PartitionState) cluster.PartitionState {
		return partitionState.UpdateConfig(func(config cluster.DynamicPartitionConfig) cluster.DynamicPartitionConfig {
			return config.DeleteExporter(applier.op.ExporterID)
		})
	}), nil
}
