package requests

import (
	"github.com/PelionIoT/topology/cluster"
)

// AddMembersRequest adds members that are not part of the cluster yet.
// Members already present are ignored.
type AddMembersRequest struct {
	Members []cluster.MemberID `json:"members"`
}

func (request AddMembersRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	operations := []cluster.Operation{}

	for _, memberID := range cluster.SortMemberIDs(request.Members) {
		if !configuration.HasMember(memberID) {
			operations = append(operations, cluster.MemberJoinOperation{Member: memberID})
		}
	}

	return operations, nil
}

// RemoveMembersRequest lets members leave the cluster. Members that are not
// part of the cluster are ignored.
type RemoveMembersRequest struct {
	Members []cluster.MemberID `json:"members"`
}

func (request RemoveMembersRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	operations := []cluster.Operation{}

	for _, memberID := range cluster.SortMemberIDs(request.Members) {
		if configuration.HasMember(memberID) {
			operations = append(operations, cluster.MemberLeaveOperation{Member: memberID})
		}
	}

	return operations, nil
}
