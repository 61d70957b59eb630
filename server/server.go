package server

//
// Copyright (c) 2019 ARM Limited.
//
// SPDX-License-Identifier: MIT
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/PelionIoT/topology/changes"
	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/coordinator"
	. "github.com/PelionIoT/topology/logging"
	"github.com/PelionIoT/topology/raft"
	"github.com/PelionIoT/topology/routes"
	"github.com/PelionIoT/topology/shared"
	"github.com/PelionIoT/topology/storage"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var EStorage = errors.New("The storage driver encountered an unrecoverable error")

const topologyBucket = "topology"

// lifecycle is implemented by persisters that own background resources
type lifecycle interface {
	Start(ctx context.Context) error
	Stop()
}

type TopologyServer struct {
	config        shared.YAMLServerConfig
	httpServer    *http.Server
	listener      net.Listener
	storageDriver storage.StorageDriver
	persister     coordinator.Persister
	compactor     *storage.Compactor
	coordinator   *coordinator.Coordinator
	registry      *prometheus.Registry
	router        *mux.Router
}

// NewTopologyServer opens the storage driver named in config, recovering it
// if it is corrupted, and wires the coordinator and routes on top of it.
func NewTopologyServer(config shared.YAMLServerConfig) (*TopologyServer, error) {
	server := &TopologyServer{
		config:   config,
		registry: prometheus.NewRegistry(),
	}

	switch config.Storage.Driver {
	case shared.StorageDriverBolt:
		server.storageDriver = storage.NewBoltDBStorageDriver(config.Storage.Path, topologyBucket, nil)
	default:
		server.storageDriver = storage.NewLevelDBStorageDriver(config.Storage.Path, nil)
	}

	if err := server.openStorage(); err != nil {
		return nil, err
	}

	initial, err := server.initialTopology()

	if err != nil {
		server.storageDriver.Close()

		return nil, err
	}

	store := storage.NewTopologyStore(server.storageDriver)

	if config.Storage.CompactionIntervalMs > 0 {
		server.compactor = storage.NewCompactor(store, time.Duration(config.Storage.CompactionIntervalMs)*time.Millisecond)
	}

	if config.ReplicatedLog.Enabled {
		var raftPersister *coordinator.RaftPersister

		raftNode := raft.NewRaftNode(&raft.RaftNodeConfig{
			// raft reserves node id 0
			ID:           config.MemberID + 1,
			TickInterval: time.Duration(config.ReplicatedLog.TickIntervalMs) * time.Millisecond,
			Storage:      raft.NewRaftMemoryStorage(),
			GetSnapshot: func() ([]byte, error) {
				return raftPersister.Snapshot()
			},
		})

		raftPersister = coordinator.NewRaftPersister(raftNode, store)
		server.persister = raftPersister
	} else {
		server.persister = coordinator.NewStorePersister(store)
	}

	server.coordinator = coordinator.NewCoordinator(coordinator.CoordinatorConfig{
		Persister: server.persister,
		Executors: changes.NewExecutors(&changes.LocalExecutor{Delay: time.Duration(config.Executor.DelayMs) * time.Millisecond}),
		Initial:   initial,
	})

	if err := storage.RegisterMetrics(server.registry); err != nil {
		server.storageDriver.Close()

		return nil, err
	}

	if err := coordinator.RegisterMetrics(server.registry); err != nil {
		server.storageDriver.Close()

		return nil, err
	}

	server.router = server.newRouter()

	return server, nil
}

func (server *TopologyServer) openStorage() error {
	err := server.storageDriver.Open()

	if err == nil {
		return nil
	}

	if err != storage.ECorrupted {
		Log.Errorf("Error opening storage driver: %v", err.Error())

		return EStorage
	}

	Log.Error("Database is corrupted. Attempting automatic recovery now...")

	if recoverError := server.storageDriver.Recover(); recoverError != nil {
		Log.Criticalf("Unable to recover corrupted database. Reason: %v", recoverError.Error())
		Log.Critical("Topology server will now exit")

		return EStorage
	}

	Log.Info("Database recovery successful!")

	return nil
}

// initialTopology is only used when no topology has been persisted yet
func (server *TopologyServer) initialTopology() (cluster.ClusterConfiguration, error) {
	initialCluster := server.config.InitialCluster

	if initialCluster == nil {
		return cluster.Init(cluster.MemberID(server.config.MemberID)), nil
	}

	return cluster.NewStaticConfiguration(initialCluster.MemberIDs(), initialCluster.PartitionCount, initialCluster.ReplicationFactor)
}

func (server *TopologyServer) newRouter() *mux.Router {
	r := mux.NewRouter()

	(&routes.TopologyEndpoint{
		TopologyFacade: server.coordinator,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}).Attach(r)
	(&routes.RequestsEndpoint{TopologyFacade: server.coordinator}).Attach(r)
	(&routes.ChangesEndpoint{TopologyFacade: server.coordinator}).Attach(r)

	r.Handle("/metrics", promhttp.HandlerFor(server.registry, promhttp.HandlerOpts{})).Methods("GET")

	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)

	return r
}

func (server *TopologyServer) Router() *mux.Router {
	return server.router
}

func (server *TopologyServer) Coordinator() *coordinator.Coordinator {
	return server.coordinator
}

// Addr is the address the server listens on once Start has returned
func (server *TopologyServer) Addr() net.Addr {
	if server.listener == nil {
		return nil
	}

	return server.listener.Addr()
}

// Start brings up the replicated log, if enabled, and the coordinator and
// then serves the routes in the background
func (server *TopologyServer) Start() error {
	if persister, ok := server.persister.(lifecycle); ok {
		if err := persister.Start(context.Background()); err != nil {
			Log.Criticalf("Unable to start the replicated log: %v", err)

			return err
		}
	}

	if err := server.coordinator.Start(); err != nil {
		Log.Criticalf("Unable to start the topology coordinator: %v", err)

		server.stopPersister()

		return err
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(server.config.Host, strconv.Itoa(server.config.Port)))

	if err != nil {
		Log.Errorf("Error listening on port: %d", server.config.Port)

		server.coordinator.Stop()
		server.stopPersister()

		return err
	}

	server.listener = listener
	server.httpServer = &http.Server{
		Handler:     server.router,
		ReadTimeout: 15 * time.Second,
	}

	if server.compactor != nil {
		server.compactor.Start()
	}

	Log.Infof("Member %d listening on %s", server.config.MemberID, listener.Addr().String())

	go func() {
		err := server.httpServer.Serve(listener)

		if err != http.ErrServerClosed {
			Log.Errorf("Member %d server shutting down. Reason: %v", server.config.MemberID, err)
		}
	}()

	return nil
}

func (server *TopologyServer) stopPersister() {
	if persister, ok := server.persister.(lifecycle); ok {
		persister.Stop()
	}
}

// Stop shuts the HTTP server down and releases the coordinator, the
// replicated log and the storage driver in that order
func (server *TopologyServer) Stop() error {
	if server.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.httpServer.Shutdown(ctx); err != nil {
			server.httpServer.Close()
		}
	}

	server.coordinator.Stop()
	server.stopPersister()

	if server.compactor != nil {
		server.compactor.Stop()
	}

	return server.storageDriver.Close()
}
