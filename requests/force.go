package requests

import (
	"github.com/PelionIoT/topology/cluster"
	"github.com/emirpasic/gods/sets/treeset"
)

// ForceRemoveBrokersRequest removes members that are gone for good without
// their cooperation. Every partition that loses a replica is reconfigured to
// the replicas on the remaining members, then the removed members are
// dropped from the cluster by Issuer. A nil Issuer means the lowest
// remaining member.
type ForceRemoveBrokersRequest struct {
	MembersToRemove []cluster.MemberID `json:"membersToRemove"`
	Issuer          *cluster.MemberID  `json:"issuer,omitempty"`
}

func (request ForceRemoveBrokersRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	toRemove := cluster.NewMemberSet(request.MembersToRemove...)

	for _, memberID := range cluster.MemberSetValues(toRemove) {
		if !configuration.HasMember(memberID) {
			return nil, invalidRequest("member %d is not part of the cluster", memberID)
		}
	}

	retained := cluster.NewMemberSet()

	for _, memberID := range configuration.MemberIDs() {
		if !toRemove.Contains(memberID) {
			retained.Add(memberID)
		}
	}

	return forceRemove(configuration, retained, request.Issuer)
}

// ForceScaleDownRequest keeps only MembersToRetain and force removes every
// other member. See ForceRemoveBrokersRequest.
type ForceScaleDownRequest struct {
	MembersToRetain []cluster.MemberID `json:"membersToRetain"`
	Issuer          *cluster.MemberID  `json:"issuer,omitempty"`
}

func (request ForceScaleDownRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	retained := cluster.NewMemberSet(request.MembersToRetain...)

	for _, memberID := range cluster.MemberSetValues(retained) {
		if !configuration.HasMember(memberID) {
			return nil, invalidRequest("member %d is not part of the cluster", memberID)
		}
	}

	return forceRemove(configuration, retained, request.Issuer)
}

func forceRemove(configuration cluster.ClusterConfiguration, retained *treeset.Set, issuer *cluster.MemberID) ([]cluster.Operation, error) {
	if retained.Empty() {
		return nil, invalidRequest("at least one member must be retained")
	}

	for _, memberID := range cluster.MemberSetValues(retained) {
		member, _ := configuration.GetMember(memberID)

		if len(member.Partitions) == 0 {
			return nil, invalidRequest("member %d hosts no partitions and cannot be retained", memberID)
		}
	}

	issuedBy := cluster.MemberSetValues(retained)[0]

	if issuer != nil {
		if !retained.Contains(*issuer) {
			return nil, invalidRequest("the issuer %d must be one of the retained members", *issuer)
		}

		issuedBy = *issuer
	}

	distribution := configuration.Distribution()
	operations := []cluster.Operation{}

	for _, partitionID := range distribution.PartitionIDs() {
		replicas := distribution.Members(partitionID)
		survivors := make([]cluster.MemberID, 0, len(replicas))

		for _, memberID := range replicas {
			if retained.Contains(memberID) {
				survivors = append(survivors, memberID)
			}
		}

		if len(survivors) == len(replicas) {
			continue
		}

		if len(survivors) == 0 {
			return nil, invalidRequest("partition %d has no replica on the retained members", partitionID)
		}

		operations = append(operations, cluster.PartitionForceReconfigureOperation{Member: survivors[0], Partition: partitionID, Members: survivors})
	}

	for _, memberID := range configuration.MemberIDs() {
		if !retained.Contains(memberID) {
			operations = append(operations, cluster.MemberRemoveOperation{Member: issuedBy, MemberToRemove: memberID})
		}
	}

	return operations, nil
}
