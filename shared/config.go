package shared

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
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/PelionIoT/topology/cluster"
	. "github.com/PelionIoT/topology/logging"

	"gopkg.in/yaml.v2"
)

const (
	StorageDriverLevelDB = "leveldb"
	StorageDriverBolt    = "bolt"
)

const DefaultTickIntervalMs = 100

type YAMLServerConfig struct {
	MemberID       uint64              `yaml:"memberID"`
	Host           string              `yaml:"host"`
	Port           int                 `yaml:"port"`
	LogLevel       string              `yaml:"logLevel"`
	Storage        YAMLStorage         `yaml:"storage"`
	ReplicatedLog  YAMLReplicatedLog   `yaml:"replicatedLog"`
	InitialCluster *YAMLInitialCluster `yaml:"initialCluster"`
	Executor       YAMLExecutor        `yaml:"executor"`
}

type YAMLStorage struct {
	Driver               string `yaml:"driver"`
	Path                 string `yaml:"path"`
	CompactionIntervalMs int    `yaml:"compactionIntervalMs"`
}

type YAMLReplicatedLog struct {
	Enabled        bool `yaml:"enabled"`
	TickIntervalMs int  `yaml:"tickIntervalMs"`
}

// YAMLInitialCluster describes the static topology the cluster starts from
// when nothing has been persisted yet
type YAMLInitialCluster struct {
	Members           []uint64 `yaml:"members"`
	PartitionCount    int      `yaml:"partitionCount"`
	ReplicationFactor int      `yaml:"replicationFactor"`
}

type YAMLExecutor struct {
	DelayMs int `yaml:"delayMs"`
}

func (ysc *YAMLServerConfig) LoadFromFile(file string) error {
	rawConfig, err := ioutil.ReadFile(file)

	if err != nil {
		return err
	}

	err = yaml.Unmarshal(rawConfig, ysc)

	if err != nil {
		return err
	}

	if err := ysc.Validate(); err != nil {
		return err
	}

	ysc.Storage.Path = resolveFilePath(file, ysc.Storage.Path)

	SetLoggingLevel(ysc.LogLevel)

	return nil
}

// Validate checks the configuration and fills in defaults for the settings
// that were left out
func (ysc *YAMLServerConfig) Validate() error {
	if !isValidPort(ysc.Port) {
		return errors.New(fmt.Sprintf("%d is an invalid port for the topology server", ysc.Port))
	}

	if ysc.LogLevel != "" && !LogLevelIsValid(ysc.LogLevel) {
		return errors.New(fmt.Sprintf("%s is not a valid log level", ysc.LogLevel))
	}

	if ysc.Storage.Driver == "" {
		ysc.Storage.Driver = StorageDriverLevelDB
	}

	if ysc.Storage.Driver != StorageDriverLevelDB && ysc.Storage.Driver != StorageDriverBolt {
		return errors.New(fmt.Sprintf("%s is not a known storage driver. Use %s or %s", ysc.Storage.Driver, StorageDriverLevelDB, StorageDriverBolt))
	}

	if len(ysc.Storage.Path) == 0 {
		return errors.New("The storage path is empty")
	}

	if ysc.Storage.CompactionIntervalMs < 0 {
		return errors.New("storage.compactionIntervalMs must be positive")
	}

	if ysc.ReplicatedLog.TickIntervalMs < 0 {
		return errors.New("replicatedLog.tickIntervalMs must be positive")
	}

	if ysc.ReplicatedLog.TickIntervalMs == 0 {
		ysc.ReplicatedLog.TickIntervalMs = DefaultTickIntervalMs
	}

	if ysc.Executor.DelayMs < 0 {
		return errors.New("executor.delayMs must be positive")
	}

	if ysc.InitialCluster != nil {
		if len(ysc.InitialCluster.Members) == 0 {
			return errors.New("initialCluster.members is empty")
		}

		if ysc.InitialCluster.PartitionCount < 0 {
			return errors.New("initialCluster.partitionCount must be positive")
		}

		members := cluster.NewMemberSet(ysc.InitialCluster.MemberIDs()...)

		if members.Size() != len(ysc.InitialCluster.Members) {
			return errors.New("initialCluster.members contains duplicates")
		}

		if !members.Contains(cluster.MemberID(ysc.MemberID)) {
			return errors.New(fmt.Sprintf("initialCluster.members must include this member (%d)", ysc.MemberID))
		}

		if ysc.InitialCluster.PartitionCount > 0 && (ysc.InitialCluster.ReplicationFactor < 1 || ysc.InitialCluster.ReplicationFactor > len(ysc.InitialCluster.Members)) {
			return errors.New(fmt.Sprintf("initialCluster.replicationFactor must be between 1 and %d", len(ysc.InitialCluster.Members)))
		}
	}

	return nil
}

func (initialCluster YAMLInitialCluster) MemberIDs() []cluster.MemberID {
	memberIDs := make([]cluster.MemberID, 0, len(initialCluster.Members))

	for _, memberID := range initialCluster.Members {
		memberIDs = append(memberIDs, cluster.MemberID(memberID))
	}

	return memberIDs
}

func isValidPort(p int) bool {
	return p >= 0 && p < (1<<16)
}

func resolveFilePath(configFileLocation, file string) string {
	if filepath.IsAbs(file) {
		return file
	}

	return filepath.Join(filepath.Dir(configFileLocation), file)
}
