package requests_test

import (
	"fmt"
	"math/rand"

	"github.com/PelionIoT/topology/changes"
	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/requests"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Scale", func() {
	Describe("ClusterScaleRequest", func() {
		It("should migrate any round robin cluster to the round robin distribution of the new parameters", func() {
			for members := 1; members <= 5; members++ {
				for partitions := 1; partitions <= 4; partitions++ {
					for replicationFactor := 1; replicationFactor <= members; replicationFactor++ {
						for newMembers := 1; newMembers <= 5; newMembers++ {
							for newPartitions := partitions; newPartitions <= partitions+2; newPartitions++ {
								for newReplicationFactor := 1; newReplicationFactor <= newMembers; newReplicationFactor++ {
									expectRoundRobinAfterScale(staticConfiguration(members, partitions, replicationFactor), newMembers, newPartitions, newReplicationFactor)
								}
							}
						}
					}
				}
			}
		})

		It("should migrate a sample of clusters of up to 100 members and partitions", func() {
			random := rand.New(rand.NewSource(20191204))

			for i := 0; i < 12; i++ {
				members := 1 + random.Intn(100)
				partitions := 1 + random.Intn(100)
				replicationFactor := 1 + random.Intn(members)
				newMembers := 1 + random.Intn(100)
				newPartitions := partitions + random.Intn(101-partitions)
				newReplicationFactor := 1 + random.Intn(newMembers)

				expectRoundRobinAfterScale(staticConfiguration(members, partitions, replicationFactor), newMembers, newPartitions, newReplicationFactor)
			}
		})

		It("should join members before partitions and leave partitions before members", func() {
			operations, err := ClusterScaleRequest{ClusterSize: 2}.Operations(staticConfiguration(1, 1, 1))

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{cluster.MemberJoinOperation{Member: 1}}))

			operations, err = ClusterScaleRequest{ClusterSize: 1, ReplicationFactor: 1}.Operations(staticConfiguration(2, 2, 2))

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{
				cluster.PartitionReconfigurePriorityOperation{Member: 0, Partition: 1, Priority: 1},
				cluster.PartitionLeaveOperation{Member: 1, Partition: 1, MinimumAllowedReplicas: 1},
				cluster.PartitionLeaveOperation{Member: 1, Partition: 2, MinimumAllowedReplicas: 1},
				cluster.MemberLeaveOperation{Member: 1},
			}))
		})

		It("should bootstrap new partitions and append the scale up after every other operation", func() {
			operations, err := ClusterScaleRequest{ClusterSize: 3, PartitionCount: 3}.Operations(staticConfiguration(2, 2, 1))

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{
				cluster.MemberJoinOperation{Member: 2},
				cluster.PartitionBootstrapOperation{Member: 2, Partition: 3, Priority: 1, InitializeFromSnapshot: true},
				cluster.StartPartitionScaleUpOperation{Member: 0, DesiredPartitionCount: 3},
				cluster.AwaitRedistributionCompletionOperation{Member: 0, DesiredPartitionCount: 3, PartitionsToRedistribute: []cluster.PartitionID{3}},
				cluster.AwaitRelocationCompletionOperation{Member: 0, DesiredPartitionCount: 3, PartitionsToRelocate: []cluster.PartitionID{3}},
			}))
		})

		It("should reject an invalid replication factor", func() {
			_, err := ClusterScaleRequest{ClusterSize: 2, ReplicationFactor: 3}.Operations(staticConfiguration(2, 2, 1))
			Expect(IsInvalidRequest(err)).Should(BeTrue())

			_, err = ClusterScaleRequest{ReplicationFactor: -1}.Operations(staticConfiguration(2, 2, 1))
			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})

		It("should reject shrinking the partition count", func() {
			_, err := ClusterScaleRequest{PartitionCount: 1}.Operations(staticConfiguration(2, 2, 1))

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})
	})

	Describe("BrokerScaleRequest", func() {
		It("should scale to an explicit member set", func() {
			configuration := staticConfiguration(2, 4, 2)
			operations, err := BrokerScaleRequest{Members: []cluster.MemberID{0, 1, 5}}.Operations(configuration)
			Expect(err).Should(BeNil())
			Expect(operations[0]).Should(Equal(cluster.MemberJoinOperation{Member: 5}))

			final, err := changes.Simulate(configuration, operations)
			Expect(err).Should(BeNil())

			expected, _ := cluster.RoundRobinDistributor{}.DistributePartitions([]cluster.MemberID{0, 1, 5}, cluster.PartitionRange(1, 4), 2)
			Expect(final.Distribution()).Should(Equal(expected))
		})
	})

	Describe("ClusterPatchRequest", func() {
		It("should add and remove members in one plan", func() {
			configuration := staticConfiguration(3, 3, 2)
			request := ClusterPatchRequest{MembersToAdd: []cluster.MemberID{7}, MembersToRemove: []cluster.MemberID{1}, PartitionCount: 4}
			operations, err := request.Operations(configuration)
			Expect(err).Should(BeNil())
			Expect(operations[0]).Should(Equal(cluster.MemberJoinOperation{Member: 7}))

			final, err := changes.Simulate(configuration, operations)
			Expect(err).Should(BeNil())

			expected, _ := cluster.RoundRobinDistributor{}.DistributePartitions([]cluster.MemberID{0, 2, 7}, cluster.PartitionRange(1, 4), 2)
			Expect(final.Distribution()).Should(Equal(expected))
			Expect(final.MemberIDs()).Should(Equal([]cluster.MemberID{0, 2, 7}))
			Expect(final.PartitionCount).Should(Equal(4))
		})

		It("should follow an explicit distribution", func() {
			configuration := staticConfiguration(2, 2, 1)
			distribution := cluster.Distribution{1: {2: 1}, 2: {2: 2, 0: 1}}
			operations, err := ClusterPatchRequest{MembersToAdd: []cluster.MemberID{2}, MembersToRemove: []cluster.MemberID{1}, Distribution: distribution}.Operations(configuration)
			Expect(err).Should(BeNil())

			final, err := changes.Simulate(configuration, operations)
			Expect(err).Should(BeNil())
			Expect(final.Distribution()).Should(Equal(distribution))
		})

		It("should reject a member that is both added and removed", func() {
			_, err := ClusterPatchRequest{MembersToAdd: []cluster.MemberID{1}, MembersToRemove: []cluster.MemberID{1}}.Operations(staticConfiguration(2, 2, 1))

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})

		It("should reject shrinking the partition count", func() {
			_, err := ClusterPatchRequest{PartitionCount: 1}.Operations(staticConfiguration(2, 2, 1))

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})

		It("should reject a distribution that references removed members or misses partitions", func() {
			_, err := ClusterPatchRequest{MembersToRemove: []cluster.MemberID{1}, Distribution: cluster.Distribution{1: {1: 1}, 2: {0: 1}}}.Operations(staticConfiguration(2, 2, 1))
			Expect(IsInvalidRequest(err)).Should(BeTrue())

			_, err = ClusterPatchRequest{Distribution: cluster.Distribution{1: {1: 1}}}.Operations(staticConfiguration(2, 2, 1))
			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})
	})

	Describe("ScaleUpRequest", func() {
		It("should emit the three scale up operations on the lowest member", func() {
			operations, err := ScaleUpRequest{DesiredPartitionCount: 3, NewPartitions: []cluster.PartitionID{3}}.Operations(staticConfiguration(2, 2, 1))

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{
				cluster.StartPartitionScaleUpOperation{Member: 0, DesiredPartitionCount: 3},
				cluster.AwaitRedistributionCompletionOperation{Member: 0, DesiredPartitionCount: 3, PartitionsToRedistribute: []cluster.PartitionID{3}},
				cluster.AwaitRelocationCompletionOperation{Member: 0, DesiredPartitionCount: 3, PartitionsToRelocate: []cluster.PartitionID{3}},
			}))
		})

		It("should reject a desired count that does not match the new partitions", func() {
			_, err := ScaleUpRequest{DesiredPartitionCount: 4, NewPartitions: []cluster.PartitionID{3}}.Operations(staticConfiguration(2, 2, 1))
			Expect(IsInvalidRequest(err)).Should(BeTrue())

			_, err = ScaleUpRequest{DesiredPartitionCount: 3, NewPartitions: []cluster.PartitionID{2}}.Operations(staticConfiguration(2, 2, 1))
			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})

		It("should reject new partitions that skip the partitions after the current count", func() {
			_, err := ScaleUpRequest{DesiredPartitionCount: 3, NewPartitions: []cluster.PartitionID{5}}.Operations(staticConfiguration(2, 2, 1))
			Expect(IsInvalidRequest(err)).Should(BeTrue())

			_, err = ScaleUpRequest{DesiredPartitionCount: 4, NewPartitions: []cluster.PartitionID{3, 5}}.Operations(staticConfiguration(2, 2, 1))
			Expect(IsInvalidRequest(err)).Should(BeTrue())

			operations, err := ScaleUpRequest{DesiredPartitionCount: 4, NewPartitions: []cluster.PartitionID{4, 3}}.Operations(staticConfiguration(2, 2, 1))
			Expect(err).Should(BeNil())
			Expect(operations).Should(HaveLen(3))
		})
	})
})

func expectRoundRobinAfterScale(configuration cluster.ClusterConfiguration, newMembers int, newPartitions int, newReplicationFactor int) {
	description := fmt.Sprintf("(%d, %d, %d) -> (%d, %d, %d)", len(configuration.Members), configuration.PartitionCount, configuration.ReplicationFactor(), newMembers, newPartitions, newReplicationFactor)
	request := ClusterScaleRequest{ClusterSize: newMembers, PartitionCount: newPartitions, ReplicationFactor: newReplicationFactor}
	operations, err := request.Operations(configuration)
	Expect(err).Should(BeNil(), description)

	final, err := changes.Simulate(configuration, operations)
	Expect(err).Should(BeNil(), description)

	expected, _ := cluster.RoundRobinDistributor{}.DistributePartitions(cluster.MemberRange(newMembers), cluster.PartitionRange(1, newPartitions), newReplicationFactor)
	Expect(final.Distribution()).Should(Equal(expected), description)
	Expect(final.MemberIDs()).Should(Equal(cluster.MemberRange(newMembers)), description)
	Expect(final.PartitionCount).Should(Equal(newPartitions), description)

	for _, memberID := range final.MemberIDs() {
		Expect(final.Members[memberID].State).Should(Equal(cluster.MemberActive), description)
	}
}
