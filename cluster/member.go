package cluster

import (
	"sort"
	"strconv"
)

// MemberID identifies a node of the cluster. Member ids are totally ordered
// and every algorithm that walks members walks them in ascending order.
type MemberID uint64

func (memberID MemberID) String() string {
	return strconv.FormatUint(uint64(memberID), 10)
}

func ParseMemberID(s string) (MemberID, error) {
	id, err := strconv.ParseUint(s, 10, 64)

	if err != nil {
		return 0, err
	}

	return MemberID(id), nil
}

type MemberLifecycle string

const (
	MemberUninitialized MemberLifecycle = "UNINITIALIZED"
	MemberJoining       MemberLifecycle = "JOINING"
	MemberActive        MemberLifecycle = "ACTIVE"
	MemberLeaving       MemberLifecycle = "LEAVING"
	MemberLeft          MemberLifecycle = "LEFT"
)

// MemberState is an immutable value. Methods that change it return a copy and
// leave the receiver untouched.
type MemberState struct {
	Version    int64                          `json:"version"`
	State      MemberLifecycle                `json:"state"`
	Partitions map[PartitionID]PartitionState `json:"partitions"`
}

func NewMemberState(state MemberLifecycle) MemberState {
	return MemberState{
		State:      state,
		Partitions: map[PartitionID]PartitionState{},
	}
}

func (memberState MemberState) withState(state MemberLifecycle) MemberState {
	memberState.Version++
	memberState.State = state
	memberState.Partitions = memberState.copyPartitions()

	return memberState
}

func (memberState MemberState) ToJoining() MemberState {
	return memberState.withState(MemberJoining)
}

func (memberState MemberState) ToActive() MemberState {
	return memberState.withState(MemberActive)
}

func (memberState MemberState) ToLeaving() MemberState {
	return memberState.withState(MemberLeaving)
}

func (memberState MemberState) ToLeft() MemberState {
	return memberState.withState(MemberLeft)
}

func (memberState MemberState) HasPartition(partitionID PartitionID) bool {
	_, ok := memberState.Partitions[partitionID]

	return ok
}

func (memberState MemberState) GetPartition(partitionID PartitionID) (PartitionState, bool) {
	partitionState, ok := memberState.Partitions[partitionID]

	return partitionState, ok
}

// PartitionIDs returns the ids of the partitions this member hosts in ascending order
func (memberState MemberState) PartitionIDs() []PartitionID {
	partitionIDs := make([]PartitionID, 0, len(memberState.Partitions))

	for partitionID := range memberState.Partitions {
		partitionIDs = append(partitionIDs, partitionID)
	}

	sort.Slice(partitionIDs, func(i, j int) bool { return partitionIDs[i] < partitionIDs[j] })

	return partitionIDs
}

func (memberState MemberState) AddPartition(partitionID PartitionID, partitionState PartitionState) MemberState {
	partitions := memberState.copyPartitions()
	partitions[partitionID] = partitionState

	memberState.Version++
	memberState.Partitions = partitions

	return memberState
}

// UpdatePartition replaces the state of a hosted partition with the result of
// update. Partitions the member does not host are left alone.
func (memberState MemberState) UpdatePartition(partitionID PartitionID, update func(PartitionState) PartitionState) MemberState {
	partitionState, ok := memberState.Partitions[partitionID]

	if !ok {
		return memberState
	}

	return memberState.AddPartition(partitionID, update(partitionState))
}

func (memberState MemberState) RemovePartition(partitionID PartitionID) MemberState {
	partitions := memberState.copyPartitions()
	delete(partitions, partitionID)

	memberState.Version++
	memberState.Partitions = partitions

	return memberState
}

func (memberState MemberState) copyPartitions() map[PartitionID]PartitionState {
	partitions := make(map[PartitionID]PartitionState, len(memberState.Partitions))

	for partitionID, partitionState := range memberState.Partitions {
		partitions[partitionID] = partitionState
	}

	return partitions
}
