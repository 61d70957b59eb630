package cluster_test

import (
	. "github.com/PelionIoT/topology/cluster"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("RoutingState", func() {
	It("should route to every partition of a fresh routing state", func() {
		routingState := NewRoutingState(3)

		Expect(routingState.ActivePartitions()).Should(Equal([]PartitionID{1, 2, 3}))
		Expect(routingState.IsActive(4)).Should(BeFalse())
	})

	It("should walk a scale up from three to five partitions", func() {
		initial := *NewRoutingState(3)
		redistributing := initial.WithInactivePartitions([]PartitionID{5, 4})

		Expect(redistributing.ActivePartitions()).Should(Equal([]PartitionID{1, 2, 3}))
		Expect(redistributing.RequestHandling.InactivePartitions).Should(Equal([]PartitionID{4, 5}))

		relocating := redistributing.ActivatePartitions([]PartitionID{4})

		Expect(relocating.ActivePartitions()).Should(Equal([]PartitionID{1, 2, 3, 4}))
		Expect(relocating.RequestHandling.InactivePartitions).Should(Equal([]PartitionID{5}))

		completed := relocating.ActivatePartitions([]PartitionID{5}).CompleteScaleUp(5)

		Expect(completed.ActivePartitions()).Should(Equal([]PartitionID{1, 2, 3, 4, 5}))
		Expect(completed.RequestHandling.AdditionalActivePartitions).Should(BeEmpty())
		Expect(completed.MessageCorrelation.PartitionCount).Should(Equal(5))
		Expect(completed.Version).Should(BeNumerically(">", initial.Version))
		Expect(initial.ActivePartitions()).Should(Equal([]PartitionID{1, 2, 3}))
	})
})
