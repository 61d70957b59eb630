package changes

import (
	"context"
	"errors"
	"fmt"

	"github.com/PelionIoT/topology/cluster"
)

var EUnsupportedOperation = errors.New("There is no applier for the operation type")
var EOperationNotApplicable = errors.New("The operation cannot be applied to the current topology")

// Transform folds the effect of an operation phase into a topology
type Transform func(cluster.ClusterConfiguration) cluster.ClusterConfiguration

func identity(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
	return configuration
}

// OperationApplier executes one operation in two phases. Init validates the
// operation against the topology and returns the transform that marks it in
// progress. It has no side effects. Apply performs the operation through an
// executor and returns the transform that completes it. Apply must be
// preceded by Init on the same applier. Both phases may be run again after a
// restart so executors must tolerate repeated calls.
type OperationApplier interface {
	Init(configuration cluster.ClusterConfiguration) (Transform, error)
	Apply(ctx context.Context) (Transform, error)
}

// NewApplier returns the applier for an operation. Every operation type has
// exactly one applier and an operation without one is a programming error.
func NewApplier(op cluster.Operation, executors Executors) (OperationApplier, error) {
	switch op := op.(type) {
	case cluster.MemberJoinOperation:
		return &memberJoinApplier{op: op, executor: executors.Membership}, nil
	case cluster.MemberLeaveOperation:
		return &memberLeaveApplier{op: op, executor: executors.Membership}, nil
	case cluster.MemberRemoveOperation:
		return &memberRemoveApplier{op: op, executor: executors.Membership}, nil
	case cluster.PartitionJoinOperation:
		return &partitionJoinApplier{op: op, executor: executors.Partition}, nil
	case cluster.PartitionLeaveOperation:
		return &partitionLeaveApplier{op: op, executor: executors.Partition}, nil
	case cluster.PartitionBootstrapOperation:
		return &partitionBootstrapApplier{op: op, executor: executors.Partition}, nil
	case cluster.PartitionForceReconfigureOperation:
		return &partitionForceReconfigureApplier{op: op, executor: executors.Partition}, nil
	case cluster.PartitionReconfigurePriorityOperation:
		return &partitionReconfigurePriorityApplier{op: op, executor: executors.Partition}, nil
	case cluster.PartitionEnableExporterOperation:
		return &partitionEnableExporterApplier{op: op, executor: executors.Partition}, nil
	case cluster.PartitionDisableExporterOperation:
		return &partitionDisableExporterApplier{op: op, executor: executors.Partition}, nil
	case cluster.PartitionDeleteExporterOperation:
		return &partitionDeleteExporterApplier{op: op, executor: executors.Partition}, nil
	case cluster.StartPartitionScaleUpOperation:
		return &startPartitionScaleUpApplier{op: op, executor: executors.Scaling}, nil
	case cluster.AwaitRedistributionCompletionOperation:
		return &awaitRedistributionCompletionApplier{op: op, executor: executors.Scaling}, nil
	case cluster.AwaitRelocationCompletionOperation:
		return &awaitRelocationCompletionApplier{op: op, executor: executors.Scaling}, nil
	case cluster.UpdateRoutingStateOperation:
		return &updateRoutingStateApplier{op: op, executor: executors.Cluster}, nil
	default:
		return nil, fmt.Errorf("%w: %T", EUnsupportedOperation, op)
	}
}

func notApplicable(op cluster.Operation, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %v: %s", EOperationNotApplicable, op, fmt.Sprintf(format, args...))
}

func executionFailed(op cluster.Operation, err error) error {
	return fmt.Errorf("%v failed: %w", op, err)
}

// Simulate runs every operation through its applier against executors that
// do nothing and returns the topology the operations would produce.
func Simulate(configuration cluster.ClusterConfiguration, operations []cluster.Operation) (cluster.ClusterConfiguration, error) {
	executors := NoopExecutors()

	for _, op := range operations {
		applier, err := NewApplier(op, executors)

		if err != nil {
			return cluster.ClusterConfiguration{}, err
		}

		initTransform, err := applier.Init(configuration)

		if err != nil {
			return cluster.ClusterConfiguration{}, err
		}

		configuration = initTransform(configuration)
		applyTransform, err := applier.Apply(context.Background())

		if err != nil {
			return cluster.ClusterConfiguration{}, err
		}

		configuration = applyTransform(configuration)
	}

	return configuration, nil
}
