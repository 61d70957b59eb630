package cluster_test

import (
	. "github.com/PelionIoT/topology/cluster"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func distributionIsValid(distribution Distribution, members []MemberID, partitions []PartitionID, replicationFactor int) bool {
	if len(distribution) != len(partitions) {
		return false
	}

	memberSet := NewMemberSet(members...)

	for _, partitionID := range partitions {
		replicas, ok := distribution[partitionID]

		if !ok || len(replicas) != replicationFactor {
			return false
		}

		seenPriorities := map[int]bool{}

		for memberID, priority := range replicas {
			if !memberSet.Contains(memberID) {
				return false
			}

			if priority < 1 || priority > replicationFactor || seenPriorities[priority] {
				return false
			}

			seenPriorities[priority] = true
		}
	}

	return true
}

var _ = Describe("Partitioner", func() {
	Describe("RoundRobinDistributor", func() {
		Describe("#DistributePartitions", func() {
			It("should return ENoMembersAvailable if there are no members", func() {
				_, err := RoundRobinDistributor{}.DistributePartitions([]MemberID{}, PartitionRange(1, 3), 1)

				Expect(err).Should(Equal(ENoMembersAvailable))
			})

			It("should return EInvalidReplicationFactor if the replication factor exceeds the member count", func() {
				_, err := RoundRobinDistributor{}.DistributePartitions([]MemberID{0, 1}, PartitionRange(1, 3), 3)

				Expect(err).Should(Equal(EInvalidReplicationFactor))
			})

			It("should return EInvalidReplicationFactor if the replication factor is zero", func() {
				_, err := RoundRobinDistributor{}.DistributePartitions([]MemberID{0, 1}, PartitionRange(1, 3), 0)

				Expect(err).Should(Equal(EInvalidReplicationFactor))
			})

			It("should give the most senior replica of partition i to member i mod m and rotate the rest", func() {
				distribution, err := RoundRobinDistributor{}.DistributePartitions([]MemberID{0, 1, 2}, PartitionRange(1, 4), 2)

				Expect(err).Should(BeNil())
				Expect(distribution).Should(Equal(Distribution{
					1: {0: 2, 1: 1},
					2: {1: 2, 2: 1},
					3: {2: 2, 0: 1},
					4: {0: 2, 1: 1},
				}))
			})

			It("should not depend on the order of its inputs", func() {
				a, _ := RoundRobinDistributor{}.DistributePartitions([]MemberID{3, 1, 2, 0}, []PartitionID{4, 2, 1, 3}, 3)
				b, _ := RoundRobinDistributor{}.DistributePartitions([]MemberID{0, 1, 2, 3, 3}, []PartitionID{1, 2, 3, 4}, 3)

				Expect(a).Should(Equal(b))
			})

			It("should produce a valid distribution for every combination of member count, partition count and replication factor", func() {
				for memberCount := 1; memberCount <= 12; memberCount++ {
					for partitionCount := 1; partitionCount <= 12; partitionCount++ {
						for replicationFactor := 1; replicationFactor <= memberCount; replicationFactor++ {
							members := MemberRange(memberCount)
							partitions := PartitionRange(1, partitionCount)
							distribution, err := RoundRobinDistributor{}.DistributePartitions(members, partitions, replicationFactor)

							Expect(err).Should(BeNil())
							Expect(distributionIsValid(distribution, members, partitions, replicationFactor)).Should(BeTrue())
						}
					}
				}
			})
		})
	})

	Describe("Distribution", func() {
		It("should report the member holding the highest priority as the preferred leader", func() {
			distribution := Distribution{1: {4: 1, 2: 3, 7: 2}}
			leader, ok := distribution.HighestPriorityMember(1)

			Expect(ok).Should(BeTrue())
			Expect(leader).Should(Equal(MemberID(2)))
			Expect(distribution.Members(1)).Should(Equal([]MemberID{2, 4, 7}))
		})
	})
})
