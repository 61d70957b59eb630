package cluster

import (
	"errors"
	"sort"
)

var EChangeInProgress = errors.New("A configuration change is already in progress")
var ENoPendingChange = errors.New("There is no pending configuration change")
var ENoSuchChange = errors.New("The configuration change id does not match the pending change")
var EChangeNotFailed = errors.New("The pending configuration change has not failed")

// ClusterConfiguration is the topology of the whole cluster: its members, the
// partition replicas each member hosts and the change plan being executed,
// if any.
//
// A ClusterConfiguration is a value. Every method that changes it returns a
// new value and never modifies maps or plans reachable from the receiver, so
// older values can be read concurrently and compared against newer ones.
type ClusterConfiguration struct {
	Version        int64                    `json:"version"`
	Members        map[MemberID]MemberState `json:"members"`
	PartitionCount int                      `json:"partitionCount"`
	RoutingState   *RoutingState            `json:"routingState,omitempty"`
	PendingChange  *ClusterChangePlan       `json:"pendingChange,omitempty"`
	LastChange     *CompletedChange         `json:"lastChange,omitempty"`
}

// Init returns the configuration of a freshly bootstrapped cluster: one
// active member hosting no partitions.
func Init(memberID MemberID) ClusterConfiguration {
	return ClusterConfiguration{
		Version: 1,
		Members: map[MemberID]MemberState{
			memberID: NewMemberState(MemberActive),
		},
	}
}

// NewStaticConfiguration returns a configuration in which every member is
// active and hosts the partitions assigned to it by the round robin
// distributor.
func NewStaticConfiguration(memberIDs []MemberID, partitionCount int, replicationFactor int) (ClusterConfiguration, error) {
	configuration := ClusterConfiguration{
		Version:        1,
		Members:        map[MemberID]MemberState{},
		PartitionCount: partitionCount,
		RoutingState:   NewRoutingState(partitionCount),
	}

	for _, memberID := range SortMemberIDs(memberIDs) {
		configuration.Members[memberID] = NewMemberState(MemberActive)
	}

	if partitionCount == 0 {
		return configuration, nil
	}

	distribution, err := RoundRobinDistributor{}.DistributePartitions(memberIDs, PartitionRange(1, partitionCount), replicationFactor)

	if err != nil {
		return ClusterConfiguration{}, err
	}

	for partitionID, replicas := range distribution {
		for memberID, priority := range replicas {
			member := configuration.Members[memberID]
			member.Partitions[partitionID] = NewActivePartition(priority, NewDynamicPartitionConfig())
			configuration.Members[memberID] = member
		}
	}

	return configuration, nil
}

func (configuration ClusterConfiguration) HasMember(memberID MemberID) bool {
	_, ok := configuration.Members[memberID]

	return ok
}

func (configuration ClusterConfiguration) GetMember(memberID MemberID) (MemberState, bool) {
	member, ok := configuration.Members[memberID]

	return member, ok
}

// MemberIDs returns the ids of all members in ascending order
func (configuration ClusterConfiguration) MemberIDs() []MemberID {
	memberIDs := make([]MemberID, 0, len(configuration.Members))

	for memberID := range configuration.Members {
		memberIDs = append(memberIDs, memberID)
	}

	sort.Slice(memberIDs, func(i, j int) bool { return memberIDs[i] < memberIDs[j] })

	return memberIDs
}

// LowestMemberID returns the smallest member id. It returns false for a
// configuration without members.
func (configuration ClusterConfiguration) LowestMemberID() (MemberID, bool) {
	memberIDs := configuration.MemberIDs()

	if len(memberIDs) == 0 {
		return 0, false
	}

	return memberIDs[0], true
}

// PartitionIDs returns the ids of every partition hosted by some member in
// ascending order
func (configuration ClusterConfiguration) PartitionIDs() []PartitionID {
	set := NewPartitionSet()

	for _, member := range configuration.Members {
		for partitionID := range member.Partitions {
			set.Add(partitionID)
		}
	}

	return PartitionSetValues(set)
}

// PartitionReplicas returns the replicas of a partition keyed by the member
// that hosts them
func (configuration ClusterConfiguration) PartitionReplicas(partitionID PartitionID) map[MemberID]PartitionState {
	replicas := map[MemberID]PartitionState{}

	for memberID, member := range configuration.Members {
		if partitionState, ok := member.Partitions[partitionID]; ok {
			replicas[memberID] = partitionState
		}
	}

	return replicas
}

// ReplicationFactor is the largest number of replicas any partition has
func (configuration ClusterConfiguration) ReplicationFactor() int {
	replicationFactor := 0

	for _, partitionID := range configuration.PartitionIDs() {
		if n := len(configuration.PartitionReplicas(partitionID)); n > replicationFactor {
			replicationFactor = n
		}
	}

	return replicationFactor
}

// Distribution returns the partition -> member -> priority assignment of
// the configuration
func (configuration ClusterConfiguration) Distribution() Distribution {
	distribution := Distribution{}

	for memberID, member := range configuration.Members {
		for partitionID, partitionState := range member.Partitions {
			if _, ok := distribution[partitionID]; !ok {
				distribution[partitionID] = map[MemberID]int{}
			}

			distribution[partitionID][memberID] = partitionState.Priority
		}
	}

	return distribution
}

func (configuration ClusterConfiguration) copyMembers() map[MemberID]MemberState {
	members := make(map[MemberID]MemberState, len(configuration.Members))

	for memberID, member := range configuration.Members {
		members[memberID] = member
	}

	return members
}

// AddMember adds or replaces a member
func (configuration ClusterConfiguration) AddMember(memberID MemberID, member MemberState) ClusterConfiguration {
	members := configuration.copyMembers()
	members[memberID] = member

	configuration.Version++
	configuration.Members = members

	return configuration
}

// UpdateMember replaces the state of an existing member with the result of
// update. A member that transitions to LEFT is removed. Unknown members are
// left alone.
func (configuration ClusterConfiguration) UpdateMember(memberID MemberID, update func(MemberState) MemberState) ClusterConfiguration {
	member, ok := configuration.Members[memberID]

	if !ok {
		return configuration
	}

	updated := update(member)

	if updated.State == MemberLeft {
		return configuration.RemoveMember(memberID)
	}

	return configuration.AddMember(memberID, updated)
}

func (configuration ClusterConfiguration) RemoveMember(memberID MemberID) ClusterConfiguration {
	members := configuration.copyMembers()
	delete(members, memberID)

	configuration.Version++
	configuration.Members = members

	return configuration
}

func (configuration ClusterConfiguration) UpdatePartitionCount(partitionCount int) ClusterConfiguration {
	configuration.Version++
	configuration.PartitionCount = partitionCount

	return configuration
}

func (configuration ClusterConfiguration) UpdateRoutingState(routingState *RoutingState) ClusterConfiguration {
	configuration.Version++

	if routingState == nil {
		configuration.RoutingState = nil
	} else {
		copied := *routingState
		configuration.RoutingState = &copied
	}

	return configuration
}

func (configuration ClusterConfiguration) HasPendingChanges() bool {
	return configuration.PendingChange != nil
}

func (configuration ClusterConfiguration) nextChangeID() int64 {
	var id int64

	if configuration.LastChange != nil {
		id = configuration.LastChange.ID
	}

	if configuration.PendingChange != nil && configuration.PendingChange.ID > id {
		id = configuration.PendingChange.ID
	}

	return id + 1
}

// NextChangeID is the id the next attached change plan will get
func (configuration ClusterConfiguration) NextChangeID() int64 {
	return configuration.nextChangeID()
}

// StartConfigurationChange attaches a plan for the given operations. Only one
// plan can be attached at a time.
func (configuration ClusterConfiguration) StartConfigurationChange(operations []Operation) (ClusterConfiguration, error) {
	if configuration.HasPendingChanges() {
		return configuration, EChangeInProgress
	}

	configuration.Version++
	configuration.PendingChange = newClusterChangePlan(configuration.nextChangeID(), operations)

	if !configuration.PendingChange.HasPendingOperations() {
		configuration.LastChange = configuration.PendingChange.completedChange(ChangeCompleted)
		configuration.PendingChange = nil
	}

	return configuration, nil
}

// UpdateOperationState records the execution phase of the head operation
func (configuration ClusterConfiguration) UpdateOperationState(state OperationState) (ClusterConfiguration, error) {
	if !configuration.HasPendingChanges() {
		return configuration, ENoPendingChange
	}

	configuration.Version++
	configuration.PendingChange = configuration.PendingChange.withHeadState(state)

	return configuration, nil
}

// AdvanceConfigurationChange folds the effect of the completed head operation
// into the configuration and dequeues it. Once no operation is left the plan
// is detached and recorded as the last change.
func (configuration ClusterConfiguration) AdvanceConfigurationChange(transform func(ClusterConfiguration) ClusterConfiguration) (ClusterConfiguration, error) {
	if !configuration.HasPendingChanges() || !configuration.PendingChange.HasPendingOperations() {
		return configuration, ENoPendingChange
	}

	plan := configuration.PendingChange
	updated := transform(configuration)
	updated.Version = configuration.Version + 1
	updated.PendingChange = plan.advance()

	if !updated.PendingChange.HasPendingOperations() {
		updated.LastChange = updated.PendingChange.completedChange(ChangeCompleted)
		updated.PendingChange = nil
	}

	return updated, nil
}

// FailConfigurationChange halts the pending plan at its head operation
func (configuration ClusterConfiguration) FailConfigurationChange(reason string) (ClusterConfiguration, error) {
	if !configuration.HasPendingChanges() {
		return configuration, ENoPendingChange
	}

	configuration.Version++
	configuration.PendingChange = configuration.PendingChange.fail(reason)

	return configuration, nil
}

// RetryConfigurationChange resumes a failed plan from its head operation
func (configuration ClusterConfiguration) RetryConfigurationChange(changeID int64) (ClusterConfiguration, error) {
	if !configuration.HasPendingChanges() {
		return configuration, ENoPendingChange
	}

	if configuration.PendingChange.ID != changeID {
		return configuration, ENoSuchChange
	}

	if configuration.PendingChange.Status != ChangeFailed {
		return configuration, EChangeNotFailed
	}

	configuration.Version++
	configuration.PendingChange = configuration.PendingChange.retry()

	return configuration, nil
}

// CancelPendingChange detaches the pending plan. Operations already applied
// stay applied.
func (configuration ClusterConfiguration) CancelPendingChange(changeID int64) (ClusterConfiguration, error) {
	if !configuration.HasPendingChanges() {
		return configuration, ENoPendingChange
	}

	if configuration.PendingChange.ID != changeID {
		return configuration, ENoSuchChange
	}

	configuration.Version++
	configuration.LastChange = configuration.PendingChange.completedChange(ChangeCancelled)
	configuration.PendingChange = nil

	return configuration, nil
}
