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
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PelionIoT/topology/client"
	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/coordinator"
)

type command struct {
	run   func() error
	usage string
}

var commands = map[string]command{}

func registerCommand(name string, run func() error, usage string) {
	commands[name] = command{run: run, usage: usage}
}

var (
	optConfigFile        *string
	optServers           *string
	optTimeout           *time.Duration
	optDryRun            *bool
	optWait              *bool
	optMembers           *string
	optMember            *uint64
	optIssuer            *string
	optPartition         *uint64
	optPartitions        *string
	optPriority          *int
	optReplicationFactor *int
	optPartitionCount    *int
	optClusterSize       *int
	optAdd               *string
	optRemove            *string
	optExporter          *string
	optInitializeFrom    *string
	optChange            *int64
	optRoutingState      *string
)

func init() {
	optConfigFile = flag.String("conf", "", "Config file to use in the server")
	optServers = flag.String("servers", "localhost:8080", "Comma separated host:port list of topology servers")
	optTimeout = flag.Duration("timeout", client.DefaultClientTimeout, "Timeout of each request")
	optDryRun = flag.Bool("dryRun", false, "Plan the change without applying it")
	optWait = flag.Bool("wait", false, "Wait until the change has completed, failed or been cancelled")
	optMembers = flag.String("members", "", "Comma separated member IDs")
	optMember = flag.Uint64("member", 0, "Member ID")
	optIssuer = flag.String("issuer", "", "Member ID that issues a forced removal")
	optPartition = flag.Uint64("partition", 0, "Partition ID")
	optPartitions = flag.String("partitions", "", "Comma separated partition IDs")
	optPriority = flag.Int("priority", 1, "Replica priority")
	optReplicationFactor = flag.Int("replicationFactor", 0, "Replication factor. 0 keeps the current one")
	optPartitionCount = flag.Int("partitionCount", 0, "Partition count. 0 keeps the current one")
	optClusterSize = flag.Int("clusterSize", 0, "Cluster size. 0 keeps the current one")
	optAdd = flag.String("add", "", "Comma separated member IDs to add")
	optRemove = flag.String("remove", "", "Comma separated member IDs to remove")
	optExporter = flag.String("exporter", "", "Exporter ID")
	optInitializeFrom = flag.String("initializeFrom", "", "Exporter ID whose position a newly enabled exporter starts from")
	optChange = flag.Int64("change", 0, "Change ID")
	optRoutingState = flag.String("routingState", "", "File holding the routing state as JSON. Empty clears the routing state")
}

func usage() {
	names := make([]string, 0, len(commands))

	for name := range commands {
		names = append(names, name)
	}

	sort.Strings(names)

	fmt.Fprintf(os.Stderr, "Usage: topology <command> [options]\n\nCommands:\n")

	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s", commands[name].usage)
	}

	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd, ok := commands[os.Args[1]]

	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s", cmd.usage)
		flag.PrintDefaults()
	}

	flag.CommandLine.Parse(os.Args[2:])

	if err := cmd.run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newAPIClient() *client.APIClient {
	var servers []string

	for _, server := range strings.Split(*optServers, ",") {
		if server = strings.TrimSpace(server); server != "" {
			servers = append(servers, server)
		}
	}

	return client.New(client.APIClientConfig{
		Servers: servers,
		Timeout: *optTimeout,
	})
}

func parseUints(option string, value string) ([]uint64, error) {
	var ids []uint64

	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)

		if field == "" {
			continue
		}

		id, err := strconv.ParseUint(field, 10, 64)

		if err != nil {
			return nil, fmt.Errorf("-%s: %s is not a valid id", option, field)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func parseMemberIDs(option string, value string) ([]cluster.MemberID, error) {
	ids, err := parseUints(option, value)

	if err != nil {
		return nil, err
	}

	memberIDs := make([]cluster.MemberID, 0, len(ids))

	for _, id := range ids {
		memberIDs = append(memberIDs, cluster.MemberID(id))
	}

	return memberIDs, nil
}

func parsePartitionIDs(option string, value string) ([]cluster.PartitionID, error) {
	ids, err := parseUints(option, value)

	if err != nil {
		return nil, err
	}

	partitionIDs := make([]cluster.PartitionID, 0, len(ids))

	for _, id := range ids {
		partitionIDs = append(partitionIDs, cluster.PartitionID(id))
	}

	return partitionIDs, nil
}

// requireMembers parses the -members option and fails if it is empty
func requireMembers() ([]cluster.MemberID, error) {
	memberIDs, err := parseMemberIDs("members", *optMembers)

	if err != nil {
		return nil, err
	}

	if len(memberIDs) == 0 {
		return nil, fmt.Errorf("No members specified (-members)")
	}

	return memberIDs, nil
}

func parseIssuer() (*cluster.MemberID, error) {
	if *optIssuer == "" {
		return nil, nil
	}

	issuer, err := strconv.ParseUint(*optIssuer, 10, 64)

	if err != nil {
		return nil, fmt.Errorf("-issuer: %s is not a valid id", *optIssuer)
	}

	memberID := cluster.MemberID(issuer)

	return &memberID, nil
}

// submitted prints the outcome of a change request and, with -wait, follows
// the change until it stops making progress
func submitted(apiClient *client.APIClient, status coordinator.ChangeStatus, err error) error {
	if err != nil {
		return err
	}

	renderChangeStatus(os.Stdout, status)

	if status.DryRun || status.ChangeID == 0 || !*optWait {
		return nil
	}

	return awaitChange(apiClient, status.ChangeID)
}

func awaitChange(apiClient *client.APIClient, changeID int64) error {
	outcome, err := apiClient.Change(context.Background(), changeID, true)

	if err != nil {
		return err
	}

	renderHistory(os.Stdout, []cluster.CompletedChange{outcome})

	if outcome.Status != cluster.ChangeCompleted {
		return fmt.Errorf("Change %d did not complete: %s", changeID, outcome.Status)
	}

	return nil
}
