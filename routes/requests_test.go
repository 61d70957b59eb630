package routes_test

import (
	"net/http"

	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/coordinator"
	. "github.com/PelionIoT/topology/routes"

	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Requests", func() {
	var router *mux.Router
	var topologyCoordinator *coordinator.Coordinator
	var executor *heldExecutor

	BeforeEach(func() {
		executor = &heldExecutor{release: make(chan int)}
		initial, err := cluster.NewStaticConfiguration([]cluster.MemberID{1, 2}, 2, 2)
		Expect(err).Should(BeNil())

		router, topologyCoordinator = newRouter(initial, executor)
	})

	AfterEach(func() {
		close(executor.release)
		topologyCoordinator.Stop()
	})

	Describe("/members/add", func() {
		Describe("POST", func() {
			Context("When the body cannot be parsed", func() {
				It("Should respond with status code http.StatusBadRequest", func() {
					rr := serve(router, "POST", "/members/add", "{")

					Expect(rr.Code).Should(Equal(http.StatusBadRequest))

					var errorResponse ErrorResponse
					decode(rr, &errorResponse)
					Expect(errorResponse.Code).Should(Equal(CodeInvalidRequest))
				})
			})

			Context("When dryRun is set", func() {
				It("Should return the planned operations without attaching a plan", func() {
					rr := serve(router, "POST", "/members/add?dryRun=true", `{"members":[3]}`)

					Expect(rr.Code).Should(Equal(http.StatusOK))

					var status coordinator.ChangeStatus
					decode(rr, &status)

					Expect(status.ChangeID).Should(Equal(int64(0)))
					Expect([]cluster.Operation(status.Operations)).Should(Equal([]cluster.Operation{cluster.MemberJoinOperation{Member: 3}}))
					Expect(status.Expected.HasMember(3)).Should(BeTrue())
					Expect(topologyCoordinator.Topology().HasPendingChanges()).Should(BeFalse())
				})
			})

			Context("When dryRun is not a boolean", func() {
				It("Should respond with status code http.StatusBadRequest", func() {
					rr := serve(router, "POST", "/members/add?dryRun=maybe", `{"members":[3]}`)

					Expect(rr.Code).Should(Equal(http.StatusBadRequest))
				})
			})

			Context("When the request is accepted", func() {
				It("Should return the change id and start the change", func() {
					rr := serve(router, "POST", "/members/add", `{"members":[3]}`)

					Expect(rr.Code).Should(Equal(http.StatusOK))

					var status coordinator.ChangeStatus
					decode(rr, &status)

					Expect(status.ChangeID).Should(Equal(int64(1)))
					Expect(topologyCoordinator.Topology().PendingChange.ID).Should(Equal(int64(1)))
				})
			})

			Context("When another change is pending", func() {
				It("Should respond with status code http.StatusConflict", func() {
					Expect(serve(router, "POST", "/members/add", `{"members":[3]}`).Code).Should(Equal(http.StatusOK))

					rr := serve(router, "POST", "/members/add", `{"members":[4]}`)

					Expect(rr.Code).Should(Equal(http.StatusConflict))

					var errorResponse ErrorResponse
					decode(rr, &errorResponse)
					Expect(errorResponse.Code).Should(Equal(CodeConcurrentModification))
				})
			})
		})
	})

	Describe("/cluster/scale", func() {
		Describe("POST", func() {
			Context("When the request shrinks the partition count", func() {
				It("Should respond with status code http.StatusBadRequest", func() {
					rr := serve(router, "POST", "/cluster/scale", `{"partitionCount":1}`)

					Expect(rr.Code).Should(Equal(http.StatusBadRequest))

					var errorResponse ErrorResponse
					decode(rr, &errorResponse)
					Expect(errorResponse.Code).Should(Equal(CodeInvalidRequest))
				})
			})
		})
	})

	Describe("/cluster/purge", func() {
		Describe("POST", func() {
			It("Should accept an empty body", func() {
				rr := serve(router, "POST", "/cluster/purge?dryRun=true", "")

				Expect(rr.Code).Should(Equal(http.StatusOK))

				var status coordinator.ChangeStatus
				decode(rr, &status)

				Expect(status.Operations).Should(HaveLen(8))
			})
		})
	})

	Describe("/exporters/{exporterID}/enable", func() {
		Describe("POST", func() {
			It("Should take the exporter id from the path", func() {
				rr := serve(router, "POST", "/exporters/elastic/enable?dryRun=true", "")

				Expect(rr.Code).Should(Equal(http.StatusOK))

				var status coordinator.ChangeStatus
				decode(rr, &status)

				Expect(status.Operations).Should(HaveLen(4))
				Expect(status.Operations[0]).Should(Equal(cluster.PartitionEnableExporterOperation{Member: 1, Partition: 1, ExporterID: "elastic"}))
			})
		})
	})

	Describe("/exporters/{exporterID}", func() {
		Describe("DELETE", func() {
			It("Should reject an exporter no replica knows", func() {
				rr := serve(router, "DELETE", "/exporters/unknown?dryRun=true", "")

				Expect(rr.Code).Should(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("/cluster/routing-state", func() {
		Describe("PUT", func() {
			It("Should plan a single routing state update on the lowest member", func() {
				rr := serve(router, "PUT", "/cluster/routing-state?dryRun=true", `{"routingState":{"version":3,"requestHandling":{"basePartitionCount":2},"messageCorrelation":{"partitionCount":2}}}`)

				Expect(rr.Code).Should(Equal(http.StatusOK))

				var status coordinator.ChangeStatus
				decode(rr, &status)

				Expect(status.Operations).Should(HaveLen(1))

				op, ok := status.Operations[0].(cluster.UpdateRoutingStateOperation)

				Expect(ok).Should(BeTrue())
				Expect(op.Member).Should(Equal(cluster.MemberID(1)))
				Expect(op.RoutingState.Version).Should(Equal(int64(3)))
				Expect(status.Expected.RoutingState.RequestHandling.BasePartitionCount).Should(Equal(2))
			})
		})
	})
})
