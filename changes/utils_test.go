package changes_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/PelionIoT/topology/changes"
	"github.com/PelionIoT/topology/cluster"
)

// recordingExecutor records every call it receives and fails them with err
// when err is set
type recordingExecutor struct {
	changes.NoopExecutor
	mu    sync.Mutex
	calls []string
	err   error
}

func (executor *recordingExecutor) record(format string, args ...interface{}) error {
	executor.mu.Lock()
	defer executor.mu.Unlock()

	executor.calls = append(executor.calls, fmt.Sprintf(format, args...))

	return executor.err
}

func (executor *recordingExecutor) Calls() []string {
	executor.mu.Lock()
	defer executor.mu.Unlock()

	return append([]string{}, executor.calls...)
}

func (executor *recordingExecutor) AddMember(ctx context.Context, memberID cluster.MemberID) error {
	return executor.record("AddMember(%d)", memberID)
}

func (executor *recordingExecutor) RemoveMember(ctx context.Context, issuer cluster.MemberID, memberID cluster.MemberID) error {
	return executor.record("RemoveMember(%d,%d)", issuer, memberID)
}

func (executor *recordingExecutor) Join(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, priorities map[cluster.MemberID]int) error {
	return executor.record("Join(%d,%d,%v)", memberID, partitionID, priorities)
}

func (executor *recordingExecutor) Leave(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID) error {
	return executor.record("Leave(%d,%d)", memberID, partitionID)
}

func (executor *recordingExecutor) Bootstrap(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, priority int, config cluster.DynamicPartitionConfig, initializeFromSnapshot bool) error {
	return executor.record("Bootstrap(%d,%d,%d,%v)", memberID, partitionID, priority, initializeFromSnapshot)
}

func (executor *recordingExecutor) ForceReconfigure(ctx context.Context, memberID cluster.MemberID, partitionID cluster.PartitionID, members []cluster.MemberID) error {
	return executor.record("ForceReconfigure(%d,%d,%v)", memberID, partitionID, members)
}

func (executor *recordingExecutor) StartScaleUp(ctx context.Context, memberID cluster.MemberID, desiredPartitionCount int) error {
	return executor.record("StartScaleUp(%d,%d)", memberID, desiredPartitionCount)
}

// threeMembers is a cluster of the members 0, 1 and 2 hosting the partitions
// 1, 2 and 3 with two replicas each
func threeMembers() cluster.ClusterConfiguration {
	configuration, err := cluster.NewStaticConfiguration([]cluster.MemberID{0, 1, 2}, 3, 2)

	if err != nil {
		panic(err)
	}

	return configuration
}

// run drives an operation through both phases
func run(configuration cluster.ClusterConfiguration, op cluster.Operation, executors changes.Executors) (cluster.ClusterConfiguration, error) {
	applier, err := changes.NewApplier(op, executors)

	if err != nil {
		return configuration, err
	}

	initTransform, err := applier.Init(configuration)

	if err != nil {
		return configuration, err
	}

	configuration = initTransform(configuration)
	applyTransform, err := applier.Apply(context.Background())

	if err != nil {
		return configuration, err
	}

	return applyTransform(configuration), nil
}
