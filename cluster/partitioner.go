package cluster

//
// Copyright (c) 2019 ARM Limited.
//
// SPDX-License-Identifier: MIT
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//

import (
	"errors"
)

var EPreconditionFailed = errors.New("Unable to validate precondition")
var ENoMembersAvailable = errors.New("Unable to distribute partitions because there are no members")
var EInvalidReplicationFactor = errors.New("The replication factor must be between 1 and the number of members")

// Distribution maps each partition to the members hosting one of its
// replicas and the priority of that replica.
type Distribution map[PartitionID]map[MemberID]int

// Members returns the members hosting a replica of the partition in ascending order
func (distribution Distribution) Members(partitionID PartitionID) []MemberID {
	memberIDs := make([]MemberID, 0, len(distribution[partitionID]))

	for memberID := range distribution[partitionID] {
		memberIDs = append(memberIDs, memberID)
	}

	return SortMemberIDs(memberIDs)
}

// PartitionIDs returns the distributed partitions in ascending order
func (distribution Distribution) PartitionIDs() []PartitionID {
	partitionIDs := make([]PartitionID, 0, len(distribution))

	for partitionID := range distribution {
		partitionIDs = append(partitionIDs, partitionID)
	}

	return SortPartitionIDs(partitionIDs)
}

// HighestPriorityMember returns the preferred leader of a partition
func (distribution Distribution) HighestPriorityMember(partitionID PartitionID) (MemberID, bool) {
	var leader MemberID
	var found bool
	var highest int

	for _, memberID := range distribution.Members(partitionID) {
		if priority := distribution[partitionID][memberID]; !found || priority > highest {
			leader = memberID
			highest = priority
			found = true
		}
	}

	return leader, found
}

// PartitionDistributor computes which members host the replicas of each
// partition
type PartitionDistributor interface {
	DistributePartitions(members []MemberID, partitions []PartitionID, replicationFactor int) (Distribution, error)
}

// RoundRobinDistributor assigns the replicas of the partition at sorted index
// i to the members at sorted indexes i, i+1, ..., i+r-1 (mod the member
// count). The member at index i gets priority r, the next one r-1 and so on
// down to 1. The result depends only on the sorted inputs, so recomputing it
// for a different member set and diffing it against the old result moves as
// few replicas as possible.
type RoundRobinDistributor struct {
}

func (distributor RoundRobinDistributor) checkPreconditions(members []MemberID, replicationFactor int) error {
	if len(members) == 0 {
		return ENoMembersAvailable
	}

	if replicationFactor < 1 || replicationFactor > len(members) {
		return EInvalidReplicationFactor
	}

	return nil
}

func (distributor RoundRobinDistributor) DistributePartitions(members []MemberID, partitions []PartitionID, replicationFactor int) (Distribution, error) {
	sortedMembers := SortMemberIDs(members)
	sortedPartitions := SortPartitionIDs(partitions)

	if err := distributor.checkPreconditions(sortedMembers, replicationFactor); err != nil {
		return nil, err
	}

	distribution := make(Distribution, len(sortedPartitions))

	for i, partitionID := range sortedPartitions {
		replicas := make(map[MemberID]int, replicationFactor)

		for k := 0; k < replicationFactor; k++ {
			replicas[sortedMembers[(i+k)%len(sortedMembers)]] = replicationFactor - k
		}

		distribution[partitionID] = replicas
	}

	return distribution, nil
}

// PartitionRange returns the partition ids first..last inclusive
func PartitionRange(first int, last int) []PartitionID {
	if last < first {
		return []PartitionID{}
	}

	partitionIDs := make([]PartitionID, 0, last-first+1)

	for i := first; i <= last; i++ {
		partitionIDs = append(partitionIDs, PartitionID(i))
	}

	return partitionIDs
}

// MemberRange returns the member ids 0..count-1
func MemberRange(count int) []MemberID {
	memberIDs := make([]MemberID, 0, count)

	for i := 0; i < count; i++ {
		memberIDs = append(memberIDs, MemberID(i))
	}

	return memberIDs
}
