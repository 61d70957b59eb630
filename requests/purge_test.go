package requests_test

import (
	"github.com/PelionIoT/topology/changes"
	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/requests"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("PurgeRequest", func() {
	It("should leave every replica and then rebuild each partition", func() {
		configuration := staticConfiguration(2, 2, 2)
		config := cluster.NewDynamicPartitionConfig()
		operations, err := PurgeRequest{}.Operations(configuration)

		Expect(err).Should(BeNil())
		Expect(operations).Should(Equal([]cluster.Operation{
			cluster.PartitionLeaveOperation{Member: 0, Partition: 1, MinimumAllowedReplicas: 0},
			cluster.PartitionLeaveOperation{Member: 1, Partition: 1, MinimumAllowedReplicas: 0},
			cluster.PartitionLeaveOperation{Member: 0, Partition: 2, MinimumAllowedReplicas: 0},
			cluster.PartitionLeaveOperation{Member: 1, Partition: 2, MinimumAllowedReplicas: 0},
			cluster.PartitionBootstrapOperation{Member: 0, Partition: 1, Priority: 2, Config: &config},
			cluster.PartitionJoinOperation{Member: 1, Partition: 1, Priority: 1},
			cluster.PartitionBootstrapOperation{Member: 1, Partition: 2, Priority: 2, Config: &config},
			cluster.PartitionJoinOperation{Member: 0, Partition: 2, Priority: 1},
		}))

		final, err := changes.Simulate(configuration, operations)
		Expect(err).Should(BeNil())

		expected, _ := cluster.RoundRobinDistributor{}.DistributePartitions(cluster.MemberRange(2), cluster.PartitionRange(1, 2), 2)
		Expect(final.Distribution()).Should(Equal(expected))
	})

	It("should keep the partition config across the rebuild", func() {
		configuration := staticConfiguration(2, 1, 2).UpdateMember(0, func(member cluster.MemberState) cluster.MemberState {
			return member.UpdatePartition(1, func(partitionState cluster.PartitionState) cluster.PartitionState {
				return partitionState.UpdateConfig(func(config cluster.DynamicPartitionConfig) cluster.DynamicPartitionConfig {
					return config.EnableExporter("kafka", "")
				})
			})
		})

		operations, _ := PurgeRequest{}.Operations(configuration)
		final, err := changes.Simulate(configuration, operations)
		Expect(err).Should(BeNil())

		for _, memberID := range []cluster.MemberID{0, 1} {
			replica, _ := final.Members[memberID].GetPartition(1)
			_, ok := replica.Config.Exporter("kafka")

			Expect(ok).Should(BeTrue())
		}
	})
})
