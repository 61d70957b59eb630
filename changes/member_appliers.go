package changes

import (
	"context"

	"github.com/PelionIoT/topology/cluster"
)

type memberJoinApplier struct {
	op       cluster.MemberJoinOperation
	executor ClusterMembershipChangeExecutor
}

func (applier *memberJoinApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	member, ok := configuration.GetMember(applier.op.Member)

	if !ok {
		return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
			return configuration.AddMember(applier.op.Member, cluster.NewMemberState(cluster.MemberJoining))
		}, nil
	}

	if member.State != cluster.MemberJoining {
		return nil, notApplicable(applier.op, "the member is already %s", member.State)
	}

	return identity, nil
}

func (applier *memberJoinApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.AddMember(ctx, applier.op.Member); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
		return configuration.UpdateMember(applier.op.Member, cluster.MemberState.ToActive)
	}, nil
}

type memberLeaveApplier struct {
	op       cluster.MemberLeaveOperation
	executor ClusterMembershipChangeExecutor
}

func (applier *memberLeaveApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	member, ok := configuration.GetMember(applier.op.Member)

	if !ok {
		return nil, notApplicable(applier.op, "the member is not part of the cluster")
	}

	if member.State != cluster.MemberActive && member.State != cluster.MemberLeaving {
		return nil, notApplicable(applier.op, "the member is %s", member.State)
	}

	if len(member.Partitions) > 0 {
		return nil, notApplicable(applier.op, "the member still hosts partitions %v", member.PartitionIDs())
	}

	if member.State == cluster.MemberLeaving {
		return identity, nil
	}

	return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
		return configuration.UpdateMember(applier.op.Member, cluster.MemberState.ToLeaving)
	}, nil
}

func (applier *memberLeaveApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.RemoveMember(ctx, applier.op.Member, applier.op.Member); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
		return configuration.RemoveMember(applier.op.Member)
	}, nil
}

type memberRemoveApplier struct {
	op       cluster.MemberRemoveOperation
	executor ClusterMembershipChangeExecutor
}

func (applier *memberRemoveApplier) Init(configuration cluster.ClusterConfiguration) (Transform, error) {
	if !configuration.HasMember(applier.op.MemberToRemove) {
		return nil, notApplicable(applier.op, "member %d is not part of the cluster", applier.op.MemberToRemove)
	}

	return identity, nil
}

func (applier *memberRemoveApplier) Apply(ctx context.Context) (Transform, error) {
	if err := applier.executor.RemoveMember(ctx, applier.op.Member, applier.op.MemberToRemove); err != nil {
		return nil, executionFailed(applier.op, err)
	}

	return func(configuration cluster.ClusterConfiguration) cluster.ClusterConfiguration {
		return configuration.RemoveMember(applier.op.MemberToRemove)
	}, nil
}
