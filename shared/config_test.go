package shared_test

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/shared"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var directory string

	BeforeEach(func() {
		var err error
		directory, err = ioutil.TempDir("", "topology-config")

		Expect(err).Should(BeNil())
	})

	AfterEach(func() {
		os.RemoveAll(directory)
	})

	load := func(contents string) (YAMLServerConfig, error) {
		file := filepath.Join(directory, "topology.yaml")

		Expect(ioutil.WriteFile(file, []byte(contents), 0644)).Should(Succeed())

		var config YAMLServerConfig
		err := config.LoadFromFile(file)

		return config, err
	}

	Describe("#LoadFromFile", func() {
		It("Should fill in defaults and resolve the storage path against the config directory", func() {
			config, err := load(`
memberID: 1
host: localhost
port: 8080
storage:
  path: data
`)

			Expect(err).Should(BeNil())
			Expect(config.Storage.Driver).Should(Equal(StorageDriverLevelDB))
			Expect(config.Storage.Path).Should(Equal(filepath.Join(directory, "data")))
			Expect(config.ReplicatedLog.TickIntervalMs).Should(Equal(DefaultTickIntervalMs))
			Expect(config.InitialCluster).Should(BeNil())
		})

		It("Should keep absolute storage paths", func() {
			config, err := load(`
port: 8080
storage:
  driver: bolt
  path: /var/lib/topology.db
  compactionIntervalMs: 60000
`)

			Expect(err).Should(BeNil())
			Expect(config.Storage.Driver).Should(Equal(StorageDriverBolt))
			Expect(config.Storage.CompactionIntervalMs).Should(Equal(60000))
			Expect(config.Storage.Path).Should(Equal("/var/lib/topology.db"))
		})

		It("Should decode the initial cluster", func() {
			config, err := load(`
memberID: 2
port: 8080
storage:
  path: data
initialCluster:
  members: [1, 2, 3]
  partitionCount: 3
  replicationFactor: 2
`)

			Expect(err).Should(BeNil())
			Expect(config.InitialCluster.MemberIDs()).Should(Equal([]cluster.MemberID{1, 2, 3}))
			Expect(config.InitialCluster.PartitionCount).Should(Equal(3))
			Expect(config.InitialCluster.ReplicationFactor).Should(Equal(2))
		})

		It("Should return an error if the file does not exist", func() {
			var config YAMLServerConfig

			Expect(config.LoadFromFile(filepath.Join(directory, "missing.yaml"))).ShouldNot(Succeed())
		})

		It("Should return an error if the file is not valid YAML", func() {
			_, err := load("port: [")

			Expect(err).ShouldNot(BeNil())
		})
	})

	Describe("#Validate", func() {
		var config YAMLServerConfig

		BeforeEach(func() {
			config = YAMLServerConfig{
				MemberID: 1,
				Port:     8080,
				Storage:  YAMLStorage{Path: "data"},
			}
		})

		It("Should accept a minimal configuration", func() {
			Expect(config.Validate()).Should(Succeed())
		})

		It("Should reject invalid ports", func() {
			config.Port = 70000

			Expect(config.Validate()).ShouldNot(Succeed())
		})

		It("Should reject unknown storage drivers", func() {
			config.Storage.Driver = "sqlite"

			Expect(config.Validate()).ShouldNot(Succeed())
		})

		It("Should reject an empty storage path", func() {
			config.Storage.Path = ""

			Expect(config.Validate()).ShouldNot(Succeed())
		})

		It("Should reject a negative compaction interval", func() {
			config.Storage.CompactionIntervalMs = -1

			Expect(config.Validate()).ShouldNot(Succeed())
		})

		It("Should reject unknown log levels", func() {
			config.LogLevel = "chatty"

			Expect(config.Validate()).ShouldNot(Succeed())
		})

		It("Should reject an initial cluster that does not include this member", func() {
			config.InitialCluster = &YAMLInitialCluster{Members: []uint64{2, 3}, PartitionCount: 1, ReplicationFactor: 1}

			Expect(config.Validate()).ShouldNot(Succeed())
		})

		It("Should reject duplicate initial members", func() {
			config.InitialCluster = &YAMLInitialCluster{Members: []uint64{1, 1}, PartitionCount: 1, ReplicationFactor: 1}

			Expect(config.Validate()).ShouldNot(Succeed())
		})

		It("Should reject a replication factor larger than the initial cluster", func() {
			config.InitialCluster = &YAMLInitialCluster{Members: []uint64{1, 2}, PartitionCount: 2, ReplicationFactor: 3}

			Expect(config.Validate()).ShouldNot(Succeed())
		})

		It("Should accept an initial cluster without partitions and without a replication factor", func() {
			config.InitialCluster = &YAMLInitialCluster{Members: []uint64{1, 2}}

			Expect(config.Validate()).Should(Succeed())
		})
	})
})
