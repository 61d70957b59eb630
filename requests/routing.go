package requests

import (
	"github.com/PelionIoT/topology/cluster"
)

// UpdateRoutingStateRequest replaces the routing state. A nil RoutingState
// clears it.
type UpdateRoutingStateRequest struct {
	RoutingState *cluster.RoutingState `json:"routingState,omitempty"`
}

func (request UpdateRoutingStateRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	memberID, err := lowestMember(configuration)

	if err != nil {
		return nil, err
	}

	return []cluster.Operation{
		cluster.UpdateRoutingStateOperation{Member: memberID, RoutingState: request.RoutingState},
	}, nil
}
