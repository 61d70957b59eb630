package cluster

type TopologyDeltaType string

const (
	DeltaMemberAdd                   TopologyDeltaType = "memberAdd"
	DeltaMemberRemove                TopologyDeltaType = "memberRemove"
	DeltaMemberStateChange           TopologyDeltaType = "memberStateChange"
	DeltaMemberGainPartitionReplica  TopologyDeltaType = "memberGainPartitionReplica"
	DeltaMemberLosePartitionReplica  TopologyDeltaType = "memberLosePartitionReplica"
	DeltaPartitionReplicaStateChange TopologyDeltaType = "partitionReplicaStateChange"
	DeltaPartitionCountChange        TopologyDeltaType = "partitionCountChange"
	DeltaChangePlanUpdate            TopologyDeltaType = "changePlanUpdate"
)

type TopologyDelta struct {
	Type  TopologyDeltaType `json:"type"`
	Delta interface{}       `json:"delta"`
}

type MemberAdd struct {
	MemberID MemberID        `json:"memberId"`
	State    MemberLifecycle `json:"state"`
}

type MemberRemove struct {
	MemberID MemberID `json:"memberId"`
}

type MemberStateChange struct {
	MemberID MemberID        `json:"memberId"`
	From     MemberLifecycle `json:"from"`
	To       MemberLifecycle `json:"to"`
}

type MemberGainPartitionReplica struct {
	MemberID  MemberID           `json:"memberId"`
	Partition PartitionID        `json:"partitionId"`
	Priority  int                `json:"priority"`
	State     PartitionLifecycle `json:"state"`
}

type MemberLosePartitionReplica struct {
	MemberID  MemberID    `json:"memberId"`
	Partition PartitionID `json:"partitionId"`
}

type PartitionReplicaStateChange struct {
	MemberID  MemberID           `json:"memberId"`
	Partition PartitionID        `json:"partitionId"`
	Priority  int                `json:"priority"`
	State     PartitionLifecycle `json:"state"`
}

type PartitionCountChange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type ChangePlanUpdate struct {
	ID                int64          `json:"id"`
	Status            ChangeStatus   `json:"status"`
	HeadState         OperationState `json:"headState"`
	PendingOperations int            `json:"pendingOperations"`
}

// Diff lists what changed between two configurations. Members are visited in
// ascending order so the result is deterministic.
func Diff(previous ClusterConfiguration, current ClusterConfiguration) []TopologyDelta {
	deltas := []TopologyDelta{}

	for _, memberID := range SortMemberIDs(append(previous.MemberIDs(), current.MemberIDs()...)) {
		before, existedBefore := previous.GetMember(memberID)
		after, existsNow := current.GetMember(memberID)

		switch {
		case !existedBefore && existsNow:
			deltas = append(deltas, TopologyDelta{Type: DeltaMemberAdd, Delta: MemberAdd{MemberID: memberID, State: after.State}})
			deltas = append(deltas, diffPartitionReplicas(memberID, NewMemberState(MemberUninitialized), after)...)
		case existedBefore && !existsNow:
			deltas = append(deltas, diffPartitionReplicas(memberID, before, NewMemberState(MemberLeft))...)
			deltas = append(deltas, TopologyDelta{Type: DeltaMemberRemove, Delta: MemberRemove{MemberID: memberID}})
		default:
			if before.State != after.State {
				deltas = append(deltas, TopologyDelta{Type: DeltaMemberStateChange, Delta: MemberStateChange{MemberID: memberID, From: before.State, To: after.State}})
			}

			deltas = append(deltas, diffPartitionReplicas(memberID, before, after)...)
		}
	}

	if previous.PartitionCount != current.PartitionCount {
		deltas = append(deltas, TopologyDelta{Type: DeltaPartitionCountChange, Delta: PartitionCountChange{From: previous.PartitionCount, To: current.PartitionCount}})
	}

	if plan := current.PendingChange; plan != nil && (previous.PendingChange == nil || previous.PendingChange.Version != plan.Version || previous.PendingChange.ID != plan.ID) {
		deltas = append(deltas, TopologyDelta{Type: DeltaChangePlanUpdate, Delta: ChangePlanUpdate{ID: plan.ID, Status: plan.Status, HeadState: plan.HeadState, PendingOperations: len(plan.PendingOperations)}})
	} else if plan == nil && previous.PendingChange != nil && current.LastChange != nil {
		deltas = append(deltas, TopologyDelta{Type: DeltaChangePlanUpdate, Delta: ChangePlanUpdate{ID: current.LastChange.ID, Status: current.LastChange.Status}})
	}

	return deltas
}

func diffPartitionReplicas(memberID MemberID, before MemberState, after MemberState) []TopologyDelta {
	deltas := []TopologyDelta{}

	// replicas that have been lost
	for _, partitionID := range before.PartitionIDs() {
		if !after.HasPartition(partitionID) {
			deltas = append(deltas, TopologyDelta{Type: DeltaMemberLosePartitionReplica, Delta: MemberLosePartitionReplica{MemberID: memberID, Partition: partitionID}})
		}
	}

	// replicas that have been gained or changed
	for _, partitionID := range after.PartitionIDs() {
		afterState, _ := after.GetPartition(partitionID)
		beforeState, ok := before.GetPartition(partitionID)

		if !ok {
			deltas = append(deltas, TopologyDelta{Type: DeltaMemberGainPartitionReplica, Delta: MemberGainPartitionReplica{MemberID: memberID, Partition: partitionID, Priority: afterState.Priority, State: afterState.State}})

			continue
		}

		if beforeState.State != afterState.State || beforeState.Priority != afterState.Priority {
			deltas = append(deltas, TopologyDelta{Type: DeltaPartitionReplicaStateChange, Delta: PartitionReplicaStateChange{MemberID: memberID, Partition: partitionID, Priority: afterState.Priority, State: afterState.State}})
		}
	}

	return deltas
}
