package cluster

// RoutingState tells request handlers which partitions accept new work and
// how messages are correlated to partitions. It changes while the partition
// count is scaled up.
type RoutingState struct {
	Version            int64              `json:"version"`
	RequestHandling    RequestHandling    `json:"requestHandling"`
	MessageCorrelation MessageCorrelation `json:"messageCorrelation"`
}

// RequestHandling describes the partitions that accept requests: the
// partitions 1..BasePartitionCount plus AdditionalActivePartitions, minus
// InactivePartitions.
type RequestHandling struct {
	BasePartitionCount         int           `json:"basePartitionCount"`
	AdditionalActivePartitions []PartitionID `json:"additionalActivePartitions"`
	InactivePartitions         []PartitionID `json:"inactivePartitions"`
}

type MessageCorrelation struct {
	PartitionCount int `json:"partitionCount"`
}

func NewRoutingState(partitionCount int) *RoutingState {
	return &RoutingState{
		Version: 1,
		RequestHandling: RequestHandling{
			BasePartitionCount:         partitionCount,
			AdditionalActivePartitions: []PartitionID{},
			InactivePartitions:         []PartitionID{},
		},
		MessageCorrelation: MessageCorrelation{PartitionCount: partitionCount},
	}
}

// ActivePartitions returns the partitions that accept requests in ascending order
func (routingState RoutingState) ActivePartitions() []PartitionID {
	inactive := make(map[PartitionID]bool, len(routingState.RequestHandling.InactivePartitions))

	for _, partitionID := range routingState.RequestHandling.InactivePartitions {
		inactive[partitionID] = true
	}

	candidates := make([]PartitionID, 0, routingState.RequestHandling.BasePartitionCount+len(routingState.RequestHandling.AdditionalActivePartitions))

	for i := 1; i <= routingState.RequestHandling.BasePartitionCount; i++ {
		candidates = append(candidates, PartitionID(i))
	}

	candidates = append(candidates, routingState.RequestHandling.AdditionalActivePartitions...)
	active := make([]PartitionID, 0, len(candidates))

	for _, partitionID := range SortPartitionIDs(candidates) {
		if !inactive[partitionID] {
			active = append(active, partitionID)
		}
	}

	return active
}

func (routingState RoutingState) IsActive(partitionID PartitionID) bool {
	for _, active := range routingState.ActivePartitions() {
		if active == partitionID {
			return true
		}
	}

	return false
}

// WithInactivePartitions returns a copy in which the given partitions are
// known to request handling but do not yet accept requests.
func (routingState RoutingState) WithInactivePartitions(partitionIDs []PartitionID) RoutingState {
	routingState.Version++
	routingState.RequestHandling.AdditionalActivePartitions = SortPartitionIDs(append(append([]PartitionID{}, routingState.RequestHandling.AdditionalActivePartitions...), partitionIDs...))
	routingState.RequestHandling.InactivePartitions = SortPartitionIDs(append(append([]PartitionID{}, routingState.RequestHandling.InactivePartitions...), partitionIDs...))

	return routingState
}

// ActivatePartitions returns a copy in which the given partitions accept requests
func (routingState RoutingState) ActivatePartitions(partitionIDs []PartitionID) RoutingState {
	activate := make(map[PartitionID]bool, len(partitionIDs))

	for _, partitionID := range partitionIDs {
		activate[partitionID] = true
	}

	inactive := make([]PartitionID, 0, len(routingState.RequestHandling.InactivePartitions))

	for _, partitionID := range routingState.RequestHandling.InactivePartitions {
		if !activate[partitionID] {
			inactive = append(inactive, partitionID)
		}
	}

	routingState.Version++
	routingState.RequestHandling.AdditionalActivePartitions = SortPartitionIDs(append(append([]PartitionID{}, routingState.RequestHandling.AdditionalActivePartitions...), partitionIDs...))
	routingState.RequestHandling.InactivePartitions = inactive

	return routingState
}

// CompleteScaleUp folds every additional partition into the base partition
// count and correlates messages over the new partition count.
func (routingState RoutingState) CompleteScaleUp(partitionCount int) RoutingState {
	routingState.Version++
	routingState.RequestHandling = RequestHandling{
		BasePartitionCount:         partitionCount,
		AdditionalActivePartitions: []PartitionID{},
		InactivePartitions:         []PartitionID{},
	}
	routingState.MessageCorrelation = MessageCorrelation{PartitionCount: partitionCount}

	return routingState
}
