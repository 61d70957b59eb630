package requests_test

import (
	"github.com/PelionIoT/topology/changes"
	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/requests"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Exporters", func() {
	var configuration cluster.ClusterConfiguration

	BeforeEach(func() {
		configuration = staticConfiguration(2, 2, 2)
	})

	enable := func(configuration cluster.ClusterConfiguration, exporterID string) cluster.ClusterConfiguration {
		operations, err := ExporterEnableRequest{ExporterID: exporterID}.Operations(configuration)
		Expect(err).Should(BeNil())

		final, err := changes.Simulate(configuration, operations)
		Expect(err).Should(BeNil())

		return final
	}

	Describe("ExporterEnableRequest", func() {
		It("should enable the exporter on every replica of every partition", func() {
			operations, err := ExporterEnableRequest{ExporterID: "kafka"}.Operations(configuration)

			Expect(err).Should(BeNil())
			Expect(operations).Should(Equal([]cluster.Operation{
				cluster.PartitionEnableExporterOperation{Member: 0, Partition: 1, ExporterID: "kafka"},
				cluster.PartitionEnableExporterOperation{Member: 1, Partition: 1, ExporterID: "kafka"},
				cluster.PartitionEnableExporterOperation{Member: 0, Partition: 2, ExporterID: "kafka"},
				cluster.PartitionEnableExporterOperation{Member: 1, Partition: 2, ExporterID: "kafka"},
			}))
		})

		It("should skip replicas on which the exporter is already enabled", func() {
			operations, err := ExporterEnableRequest{ExporterID: "kafka"}.Operations(enable(configuration, "kafka"))

			Expect(err).Should(BeNil())
			Expect(operations).Should(BeEmpty())
		})

		It("should reject initializing from an exporter that is not configured", func() {
			_, err := ExporterEnableRequest{ExporterID: "kafka", InitializeFrom: "es"}.Operations(configuration)
			Expect(IsInvalidRequest(err)).Should(BeTrue())

			operations, err := ExporterEnableRequest{ExporterID: "kafka", InitializeFrom: "es"}.Operations(enable(configuration, "es"))
			Expect(err).Should(BeNil())
			Expect(operations).Should(HaveLen(4))
		})

		It("should reject an empty exporter id", func() {
			_, err := ExporterEnableRequest{}.Operations(configuration)

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})
	})

	Describe("ExporterDisableRequest", func() {
		It("should disable the exporter where it is not disabled yet", func() {
			enabled := enable(configuration, "kafka")
			operations, err := ExporterDisableRequest{ExporterID: "kafka"}.Operations(enabled)
			Expect(err).Should(BeNil())
			Expect(operations).Should(HaveLen(4))

			disabled, err := changes.Simulate(enabled, operations)
			Expect(err).Should(BeNil())

			operations, err = ExporterDisableRequest{ExporterID: "kafka"}.Operations(disabled)
			Expect(err).Should(BeNil())
			Expect(operations).Should(BeEmpty())
		})

		It("should reject an exporter no partition knows", func() {
			_, err := ExporterDisableRequest{ExporterID: "kafka"}.Operations(configuration)

			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})
	})

	Describe("ExporterDeleteRequest", func() {
		It("should delete the exporter from every replica that knows it", func() {
			enabled := enable(configuration, "kafka")
			operations, err := ExporterDeleteRequest{ExporterID: "kafka"}.Operations(enabled)
			Expect(err).Should(BeNil())
			Expect(operations[0]).Should(Equal(cluster.PartitionDeleteExporterOperation{Member: 0, Partition: 1, ExporterID: "kafka"}))

			deleted, err := changes.Simulate(enabled, operations)
			Expect(err).Should(BeNil())

			_, err = ExporterDeleteRequest{ExporterID: "kafka"}.Operations(deleted)
			Expect(IsInvalidRequest(err)).Should(BeTrue())
		})
	})
})

var _ = Describe("UpdateRoutingStateRequest", func() {
	It("should always emit a single operation on the lowest member", func() {
		routingState := cluster.NewRoutingState(4)
		operations, err := UpdateRoutingStateRequest{RoutingState: routingState}.Operations(staticConfiguration(3, 2, 1))

		Expect(err).Should(BeNil())
		Expect(operations).Should(Equal([]cluster.Operation{cluster.UpdateRoutingStateOperation{Member: 0, RoutingState: routingState}}))

		operations, err = UpdateRoutingStateRequest{}.Operations(staticConfiguration(3, 2, 1))

		Expect(err).Should(BeNil())
		Expect(operations).Should(Equal([]cluster.Operation{cluster.UpdateRoutingStateOperation{Member: 0}}))
	})
})
