package main

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
	"fmt"
)

var templateConfig string = `# The member ID of this server. It must be part of initialCluster.members when
# initialCluster is set
# **REQUIRED**
memberID: 0

# The host and port on which the topology API is served. An empty host
# listens on every interface
host: ""
port: 8080

# The log level can be one of these: critical, error, warning, notice, info,
# debug
logLevel: info

# The storage section chooses where the topology and the change history are
# stored. The driver is leveldb (a directory) or bolt (a single file).
# Relative paths are resolved against the directory of this file. When
# compactionIntervalMs is set the store is compacted that often to reclaim
# the space of older topologies
# **REQUIRED**
storage:
    driver: leveldb
    path: /var/lib/topology
    compactionIntervalMs: 3600000

# When the replicated log is enabled every topology is committed through a
# raft log before it is written to storage
replicatedLog:
    enabled: false
    tickIntervalMs: 100

# The initial cluster is used the first time the server starts. Every member
# is active and the partitions are spread round robin over the members. Leave
# it out to start a cluster that only contains this member and no partitions
initialCluster:
    members: [ 0, 1, 2 ]
    partitionCount: 3
    replicationFactor: 3

# The executor stands in for the members of the cluster. Every operation it
# performs completes after delayMs
executor:
    delayMs: 0
`

func init() {
	registerCommand("conf", generateConfig, confUsage)
}

var confUsage string = `conf
`

func generateConfig() error {
	fmt.Print(templateConfig)

	return nil
}
