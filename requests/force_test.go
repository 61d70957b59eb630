package requests_test

import (
	"github.com/PelionIoT/topology/changes"
	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/requests"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// fourMembers hosts partition 1 on 0 and 1 and partition 2 on 2 and 3
func fourMembers() cluster.ClusterConfiguration {
	config := cluster.NewDynamicPartitionConfig()
	configuration := cluster.Init(0)

	for _, memberID := range []cluster.MemberID{1, 2, 3} {
		configuration = configuration.AddMember(memberID, cluster.NewMemberState(cluster.MemberActive))
	}

	replicas := []struct {
		member    cluster.MemberID
		partition cluster.PartitionID
		priority  int
	}{
		{0, 1, 1}, {1, 1, 2}, {2, 2, 1}, {3, 2, 2},
	}

	for _, replica := range replicas {
		replica := replica
		configuration = configuration.UpdateMember(replica.member, func(member cluster.MemberState) cluster.MemberState {
			return member.AddPartition(replica.partition, cluster.NewActivePartition(replica.priority, config))
		})
	}

	return configuration.UpdatePartitionCount(2)
}

var _ = Describe("Force", func() {
	Describe("ForceRemoveBrokersRequest", func() {
		It("should reconfigure partitions to the survivors before removing members", func() {
			issuer := cluster.MemberID(0)
			operations, err := ForceRemoveBrokersRequest{MembersToRemove: []cluster.MemberID{1, 3}, Issuer: &issuer}.Operations(fourMembers())

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{
				cluster.PartitionForceReconfigureOperation{Member: 0, Partition: 1, Members: []cluster.MemberID{0}},
				cluster.PartitionForceReconfigureOperation{Member: 2, Partition: 2, Members: []cluster.MemberID{2}},
				cluster.MemberRemoveOperation{Member: 0, MemberToRemove: 1},
				cluster.MemberRemoveOperation{Member: 0, MemberToRemove: 3},
			}))

			final, err := changes.Simulate(fourMembers(), operations)
			Expect(err).Should(BeNil())
			Expect(final.MemberIDs()).Should(Equal([]cluster.MemberID{0, 2}))
			Expect(final.Distribution()).Should(Equal(cluster.Distribution{1: {0: 1}, 2: {2: 1}}))
		})

		It("should issue removals from the lowest remaining member by default", func() {
			operations, err := ForceRemoveBrokersRequest{MembersToRemove: []cluster.MemberID{0, 1}}.Operations(fourMembers().AddMember(4, cluster.NewMemberState(cluster.MemberActive).AddPartition(1, cluster.NewActivePartition(3, cluster.NewDynamicPartitionConfig()))))

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{
				cluster.PartitionForceReconfigureOperation{Member: 4, Partition: 1, Members: []cluster.MemberID{4}},
				cluster.MemberRemoveOperation{Member: 2, MemberToRemove: 0},
				cluster.MemberRemoveOperation{Member: 2, MemberToRemove: 1},
			}))
		})

		It("should reject members that are not part of the cluster", func() {
			_, err := ForceRemoveBrokersRequest{MembersToRemove: []cluster.MemberID{9}}.Operations(fourMembers())

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})

		It("should reject retaining a member that hosts no partitions", func() {
			configuration := fourMembers().AddMember(4, cluster.NewMemberState(cluster.MemberActive))
			_, err := ForceRemoveBrokersRequest{MembersToRemove: []cluster.MemberID{1}}.Operations(configuration)

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})

		It("should reject removing every replica of a partition", func() {
			_, err := ForceRemoveBrokersRequest{MembersToRemove: []cluster.MemberID{0, 1}}.Operations(fourMembers())

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})

		It("should reject an issuer that is being removed", func() {
			issuer := cluster.MemberID(1)
			_, err := ForceRemoveBrokersRequest{MembersToRemove: []cluster.MemberID{1}, Issuer: &issuer}.Operations(fourMembers())

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})
	})

	Describe("ForceScaleDownRequest", func() {
		It("should remove every member that is not retained", func() {
			operations, err := ForceScaleDownRequest{MembersToRetain: []cluster.MemberID{0, 2}}.Operations(fourMembers())

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{
				cluster.PartitionForceReconfigureOperation{Member: 0, Partition: 1, Members: []cluster.MemberID{0}},
				cluster.PartitionForceReconfigureOperation{Member: 2, Partition: 2, Members: []cluster.MemberID{2}},
				cluster.MemberRemoveOperation{Member: 0, MemberToRemove: 1},
				cluster.MemberRemoveOperation{Member: 0, MemberToRemove: 3},
			}))
		})

		It("should reject retaining a member that does not exist", func() {
			_, err := ForceScaleDownRequest{MembersToRetain: []cluster.MemberID{0, 6}}.Operations(fourMembers())

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})

		It("should reject retaining a member that hosts no partitions", func() {
			configuration := fourMembers().AddMember(4, cluster.NewMemberState(cluster.MemberActive))
			_, err := ForceScaleDownRequest{MembersToRetain: []cluster.MemberID{0, 2, 4}}.Operations(configuration)

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})
	})
})
