package requests_test

import (
	"github.com/PelionIoT/topology/changes"
	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/requests"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func staticConfiguration(members int, partitions int, replicationFactor int) cluster.ClusterConfiguration {
	configuration, err := cluster.NewStaticConfiguration(cluster.MemberRange(members), partitions, replicationFactor)

	if err != nil {
		panic(err)
	}

	return configuration
}

var _ = Describe("Partitions", func() {
	Describe("JoinPartitionRequest", func() {
		It("should join a replica of an existing partition", func() {
			operations, err := JoinPartitionRequest{Member: 2, Partition: 1, Priority: 3}.Operations(staticConfiguration(3, 3, 2))

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{cluster.PartitionJoinOperation{Member: 2, Partition: 1, Priority: 3}}))
		})

		It("should do nothing if the member already hosts the partition", func() {
			operations, err := JoinPartitionRequest{Member: 0, Partition: 1, Priority: 3}.Operations(staticConfiguration(3, 3, 2))

			Expect(err).Should(BeNil())
			Expect(operations).Should(BeEmpty())
		})

		It("should reject unknown members, partitions and priorities", func() {
			_, err := JoinPartitionRequest{Member: 5, Partition: 1, Priority: 1}.Operations(staticConfiguration(3, 3, 2))
			Expect(IsInvalidRequest(err)).Should(BeTrue())

			_, err = JoinPartitionRequest{Member: 2, Partition: 8, Priority: 1}.Operations(staticConfiguration(3, 3, 2))
			Expect(IsInvalidRequest(err)).Should(BeTrue())

			_, err = JoinPartitionRequest{Member: 2, Partition: 1, Priority: 0}.Operations(staticConfiguration(3, 3, 2))
			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})
	})

	Describe("LeavePartitionRequest", func() {
		It("should let a replica leave", func() {
			operations, err := LeavePartitionRequest{Member: 1, Partition: 1}.Operations(staticConfiguration(3, 3, 2))

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{cluster.PartitionLeaveOperation{Member: 1, Partition: 1, MinimumAllowedReplicas: 1}}))
		})

		It("should reject removing the last replica", func() {
			_, err := LeavePartitionRequest{Member: 0, Partition: 1}.Operations(staticConfiguration(3, 3, 1))

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})
	})

	Describe("ReassignPartitionsRequest", func() {
		It("should move replicas away from members that are not listed", func() {
			configuration := staticConfiguration(3, 3, 1)
			operations, err := ReassignPartitionsRequest{Members: []cluster.MemberID{0, 1}}.Operations(configuration)

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{
				cluster.PartitionJoinOperation{Member: 0, Partition: 3, Priority: 1},
				cluster.PartitionLeaveOperation{Member: 2, Partition: 3, MinimumAllowedReplicas: 1},
			}))
		})

		It("should order joins before priority changes before leaves", func() {
			configuration := staticConfiguration(3, 3, 2)
			operations, err := ReassignPartitionsRequest{Members: []cluster.MemberID{0, 1}}.Operations(configuration)

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{
				cluster.PartitionJoinOperation{Member: 0, Partition: 2, Priority: 1},
				cluster.PartitionJoinOperation{Member: 1, Partition: 3, Priority: 1},
				cluster.PartitionReconfigurePriorityOperation{Member: 0, Partition: 3, Priority: 2},
				cluster.PartitionLeaveOperation{Member: 2, Partition: 2, MinimumAllowedReplicas: 1},
				cluster.PartitionLeaveOperation{Member: 2, Partition: 3, MinimumAllowedReplicas: 1},
			}))
		})

		It("should follow an explicit distribution", func() {
			configuration := staticConfiguration(2, 2, 1)
			distribution := cluster.Distribution{1: {1: 1}, 2: {0: 1}}
			operations, err := ReassignPartitionsRequest{Members: []cluster.MemberID{0, 1}, Distribution: distribution}.Operations(configuration)
			Expect(err).Should(BeNil())

			final, err := changes.Simulate(configuration, operations)

			Expect(err).Should(BeNil())
			Expect(final.Distribution()).Should(Equal(distribution))
		})

		It("should reject fewer members than the replication factor", func() {
			_, err := ReassignPartitionsRequest{Members: []cluster.MemberID{0}}.Operations(staticConfiguration(3, 3, 2))

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})

		It("should reject members that are not part of the cluster", func() {
			_, err := ReassignPartitionsRequest{Members: []cluster.MemberID{0, 4}}.Operations(staticConfiguration(3, 3, 2))

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})
	})
})
