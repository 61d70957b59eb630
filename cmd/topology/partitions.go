package main

import (
	"context"
	"fmt"

	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/requests"
)

func init() {
	registerCommand("join-partition", joinPartition, "join-partition -member=[id] -partition=[id] [-priority=[priority]] [-dryRun] [-wait]\n")
	registerCommand("leave-partition", leavePartition, "leave-partition -member=[id] -partition=[id] [-dryRun] [-wait]\n")
	registerCommand("reassign", reassignPartitions, "reassign -members=[ids] [-dryRun] [-wait]\n")
	registerCommand("scale-up", scaleUp, "scale-up -partitionCount=[desired count] [-partitions=[new ids]] [-dryRun] [-wait]\n")
}

func requirePartition() (cluster.PartitionID, error) {
	if *optPartition == 0 {
		return 0, fmt.Errorf("No partition specified (-partition)")
	}

	return cluster.PartitionID(*optPartition), nil
}

func joinPartition() error {
	partitionID, err := requirePartition()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.JoinPartition(context.Background(), requests.JoinPartitionRequest{
		Member:    cluster.MemberID(*optMember),
		Partition: partitionID,
		Priority:  *optPriority,
	}, *optDryRun)

	return submitted(apiClient, status, err)
}

func leavePartition() error {
	partitionID, err := requirePartition()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.LeavePartition(context.Background(), requests.LeavePartitionRequest{
		Member:    cluster.MemberID(*optMember),
		Partition: partitionID,
	}, *optDryRun)

	return submitted(apiClient, status, err)
}

// reassignPartitions spreads the partitions round robin over -members
func reassignPartitions() error {
	memberIDs, err := requireMembers()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.ReassignPartitions(context.Background(), requests.ReassignPartitionsRequest{Members: memberIDs}, *optDryRun)

	return submitted(apiClient, status, err)
}

func scaleUp() error {
	apiClient := newAPIClient()
	topology, err := apiClient.Topology(context.Background())

	if err != nil {
		return err
	}

	if *optPartitionCount <= topology.PartitionCount {
		return fmt.Errorf("-partitionCount must be larger than the current partition count %d", topology.PartitionCount)
	}

	newPartitions, err := parsePartitionIDs("partitions", *optPartitions)

	if err != nil {
		return err
	}

	if len(newPartitions) == 0 {
		newPartitions = cluster.PartitionRange(topology.PartitionCount+1, *optPartitionCount)
	}

	status, err := apiClient.ScaleUp(context.Background(), requests.ScaleUpRequest{
		DesiredPartitionCount: *optPartitionCount,
		NewPartitions:         newPartitions,
	}, *optDryRun)

	return submitted(apiClient, status, err)
}
