package requests

import (
	"github.com/PelionIoT/topology/cluster"
)

// ClusterChangeRequest is an administrative intent. Operations computes the
// ordered operations that carry the given topology to the state the request
// asks for. It only reads the topology and has no side effects, so it can be
// evaluated any number of times.
type ClusterChangeRequest interface {
	Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error)
}

// lowestMember is the member that executes cluster wide operations
func lowestMember(configuration cluster.ClusterConfiguration) (cluster.MemberID, error) {
	memberID, ok := configuration.LowestMemberID()

	if !ok {
		return 0, invalidRequest("the cluster has no members")
	}

	return memberID, nil
}
