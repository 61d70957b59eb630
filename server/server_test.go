package server_test

import (
	"context"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"

	"github.com/PelionIoT/topology/client"
	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/requests"
	. "github.com/PelionIoT/topology/server"
	"github.com/PelionIoT/topology/shared"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("TopologyServer", func() {
	var directory string

	BeforeEach(func() {
		directory = filepath.Join(os.TempDir(), "topology-server-"+uuid.New().String())

		Expect(os.MkdirAll(directory, 0755)).Should(Succeed())
	})

	AfterEach(func() {
		os.RemoveAll(directory)
	})

	newConfig := func(driver string, replicatedLog bool) shared.YAMLServerConfig {
		config := shared.YAMLServerConfig{
			MemberID: 1,
			Host:     "127.0.0.1",
			Port:     0,
			Storage: shared.YAMLStorage{
				Driver: driver,
				Path:   filepath.Join(directory, "store-"+driver),
			},
			ReplicatedLog: shared.YAMLReplicatedLog{Enabled: replicatedLog, TickIntervalMs: 10},
			InitialCluster: &shared.YAMLInitialCluster{
				Members:           []uint64{1, 2},
				PartitionCount:    2,
				ReplicationFactor: 2,
			},
		}

		Expect(config.Validate()).Should(Succeed())

		return config
	}

	startServer := func(config shared.YAMLServerConfig) (*TopologyServer, *client.APIClient) {
		server, err := NewTopologyServer(config)

		Expect(err).Should(BeNil())
		Expect(server.Start()).Should(Succeed())

		return server, client.New(client.APIClientConfig{Servers: []string{server.Addr().String()}})
	}

	for _, variant := range []struct {
		driver        string
		replicatedLog bool
	}{
		{shared.StorageDriverLevelDB, false},
		{shared.StorageDriverBolt, false},
		{shared.StorageDriverLevelDB, true},
	} {
		variant := variant

		Context("With the "+variant.driver+" storage driver", func() {
			if variant.replicatedLog {
				Context("and the replicated log enabled", func() {
					It("Should persist completed changes across restarts", func() {
						persistsAcrossRestarts(newConfig(variant.driver, true), startServer)
					})
				})

				return
			}

			It("Should start from the configured initial cluster", func() {
				server, apiClient := startServer(newConfig(variant.driver, false))
				defer server.Stop()

				topology, err := apiClient.Topology(context.TODO())

				Expect(err).Should(BeNil())
				Expect(topology.MemberIDs()).Should(Equal([]cluster.MemberID{1, 2}))
				Expect(topology.PartitionCount).Should(Equal(2))
			})

			It("Should persist completed changes across restarts", func() {
				persistsAcrossRestarts(newConfig(variant.driver, false), startServer)
			})
		})
	}

	Context("When no initial cluster is configured", func() {
		It("Should start a single member cluster", func() {
			config := newConfig(shared.StorageDriverLevelDB, false)
			config.MemberID = 7
			config.InitialCluster = nil

			server, apiClient := startServer(config)
			defer server.Stop()

			topology, err := apiClient.Topology(context.TODO())

			Expect(err).Should(BeNil())
			Expect(topology.MemberIDs()).Should(Equal([]cluster.MemberID{7}))
			Expect(topology.PartitionCount).Should(Equal(0))
		})
	})

	Context("When storage compaction is enabled", func() {
		It("Should persist completed changes across restarts", func() {
			config := newConfig(shared.StorageDriverLevelDB, false)
			config.Storage.CompactionIntervalMs = 5

			persistsAcrossRestarts(config, startServer)
		})
	})

	Describe("/metrics", func() {
		It("Should export the coordinator metrics", func() {
			server, apiClient := startServer(newConfig(shared.StorageDriverLevelDB, false))
			defer server.Stop()

			status, err := apiClient.AddMembers(context.TODO(), requests.AddMembersRequest{Members: []cluster.MemberID{3}}, false)

			Expect(err).Should(BeNil())

			_, err = apiClient.Change(context.TODO(), status.ChangeID, true)

			Expect(err).Should(BeNil())

			resp, err := http.Get("http://" + server.Addr().String() + "/metrics")

			Expect(err).Should(BeNil())

			defer resp.Body.Close()

			body, err := ioutil.ReadAll(resp.Body)

			Expect(err).Should(BeNil())
			Expect(resp.StatusCode).Should(Equal(http.StatusOK))
			Expect(string(body)).Should(ContainSubstring("topology_coordinator_change_plans_total"))
			Expect(string(body)).Should(ContainSubstring("topology_coordinator_operations_total"))
		})
	})
})

func persistsAcrossRestarts(config shared.YAMLServerConfig, startServer func(shared.YAMLServerConfig) (*TopologyServer, *client.APIClient)) {
	server, apiClient := startServer(config)

	status, err := apiClient.AddMembers(context.TODO(), requests.AddMembersRequest{Members: []cluster.MemberID{3}}, false)

	Expect(err).Should(BeNil())
	Expect(status.ChangeID).Should(Equal(int64(1)))

	outcome, err := apiClient.Change(context.TODO(), status.ChangeID, true)

	Expect(err).Should(BeNil())
	Expect(outcome.Status).Should(Equal(cluster.ChangeCompleted))
	Expect(server.Stop()).Should(Succeed())

	// the initial cluster is ignored once a topology has been stored
	server, apiClient = startServer(config)
	defer server.Stop()

	topology, err := apiClient.Topology(context.TODO())

	Expect(err).Should(BeNil())
	Expect(topology.MemberIDs()).Should(Equal([]cluster.MemberID{1, 2, 3}))
	Expect(topology.LastChange.ID).Should(Equal(int64(1)))

	history, err := apiClient.History(context.TODO())

	Expect(err).Should(BeNil())
	Expect(history).Should(HaveLen(1))
	Expect(history[0].Status).Should(Equal(cluster.ChangeCompleted))
}
