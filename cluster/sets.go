package cluster

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
)

func memberIDComparator(a, b interface{}) int {
	return utils.UInt64Comparator(uint64(a.(MemberID)), uint64(b.(MemberID)))
}

func partitionIDComparator(a, b interface{}) int {
	return utils.UInt64Comparator(uint64(a.(PartitionID)), uint64(b.(PartitionID)))
}

// NewMemberSet returns an ordered set of member ids
func NewMemberSet(memberIDs ...MemberID) *treeset.Set {
	set := treeset.NewWith(memberIDComparator)

	for _, memberID := range memberIDs {
		set.Add(memberID)
	}

	return set
}

// NewPartitionSet returns an ordered set of partition ids
func NewPartitionSet(partitionIDs ...PartitionID) *treeset.Set {
	set := treeset.NewWith(partitionIDComparator)

	for _, partitionID := range partitionIDs {
		set.Add(partitionID)
	}

	return set
}

func MemberSetValues(set *treeset.Set) []MemberID {
	memberIDs := make([]MemberID, 0, set.Size())

	for _, value := range set.Values() {
		memberIDs = append(memberIDs, value.(MemberID))
	}

	return memberIDs
}

func PartitionSetValues(set *treeset.Set) []PartitionID {
	partitionIDs := make([]PartitionID, 0, set.Size())

	for _, value := range set.Values() {
		partitionIDs = append(partitionIDs, value.(PartitionID))
	}

	return partitionIDs
}

// SortMemberIDs returns the distinct member ids in ascending order
func SortMemberIDs(memberIDs []MemberID) []MemberID {
	return MemberSetValues(NewMemberSet(memberIDs...))
}

// SortPartitionIDs returns the distinct partition ids in ascending order
func SortPartitionIDs(partitionIDs []PartitionID) []PartitionID {
	return PartitionSetValues(NewPartitionSet(partitionIDs...))
}
