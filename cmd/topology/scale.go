package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/requests"
)

func init() {
	registerCommand("broker-scale", brokerScale, "broker-scale -members=[ids] [-replicationFactor=[factor]] [-dryRun] [-wait]\n")
	registerCommand("cluster-scale", clusterScale, "cluster-scale [-clusterSize=[size]] [-partitionCount=[count]] [-replicationFactor=[factor]] [-dryRun] [-wait]\n")
	registerCommand("cluster-patch", clusterPatch, "cluster-patch [-add=[ids]] [-remove=[ids]] [-partitionCount=[count]] [-replicationFactor=[factor]] [-dryRun] [-wait]\n")
	registerCommand("purge", purge, "purge [-dryRun] [-wait]\n")
	registerCommand("routing-state", updateRoutingState, "routing-state [-routingState=[json file]] [-dryRun] [-wait]\n")
}

func brokerScale() error {
	memberIDs, err := requireMembers()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.BrokerScale(context.Background(), requests.BrokerScaleRequest{
		Members:           memberIDs,
		ReplicationFactor: *optReplicationFactor,
	}, *optDryRun)

	return submitted(apiClient, status, err)
}

func clusterScale() error {
	apiClient := newAPIClient()
	status, err := apiClient.ClusterScale(context.Background(), requests.ClusterScaleRequest{
		ClusterSize:       *optClusterSize,
		PartitionCount:    *optPartitionCount,
		ReplicationFactor: *optReplicationFactor,
	}, *optDryRun)

	return submitted(apiClient, status, err)
}

func clusterPatch() error {
	toAdd, err := parseMemberIDs("add", *optAdd)

	if err != nil {
		return err
	}

	toRemove, err := parseMemberIDs("remove", *optRemove)

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.ClusterPatch(context.Background(), requests.ClusterPatchRequest{
		MembersToAdd:      toAdd,
		MembersToRemove:   toRemove,
		PartitionCount:    *optPartitionCount,
		ReplicationFactor: *optReplicationFactor,
	}, *optDryRun)

	return submitted(apiClient, status, err)
}

func purge() error {
	apiClient := newAPIClient()
	status, err := apiClient.Purge(context.Background(), *optDryRun)

	return submitted(apiClient, status, err)
}

func updateRoutingState() error {
	var request requests.UpdateRoutingStateRequest

	if *optRoutingState != "" {
		encoded, err := ioutil.ReadFile(*optRoutingState)

		if err != nil {
			return err
		}

		var routingState cluster.RoutingState

		if err := json.Unmarshal(encoded, &routingState); err != nil {
			return fmt.Errorf("%s does not hold a valid routing state: %v", *optRoutingState, err)
		}

		request.RoutingState = &routingState
	}

	apiClient := newAPIClient()
	status, err := apiClient.UpdateRoutingState(context.Background(), request, *optDryRun)

	return submitted(apiClient, status, err)
}
