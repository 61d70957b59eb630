package client

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
	"fmt"
	"net/url"

	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/coordinator"
	"github.com/PelionIoT/topology/requests"
)

func (client *APIClient) Topology(ctx context.Context) (cluster.ClusterConfiguration, error) {
	var topology cluster.ClusterConfiguration

	if err := client.sendJSON(ctx, "GET", "/topology", nil, &topology); err != nil {
		return cluster.ClusterConfiguration{}, err
	}

	return topology, nil
}

// submit sends a change request. With dryRun set the server only plans it.
func (client *APIClient) submit(ctx context.Context, httpVerb string, path string, request interface{}, dryRun bool) (coordinator.ChangeStatus, error) {
	var status coordinator.ChangeStatus

	if dryRun {
		path += "?dryRun=true"
	}

	if err := client.sendJSON(ctx, httpVerb, path, request, &status); err != nil {
		return coordinator.ChangeStatus{}, err
	}

	return status, nil
}

func (client *APIClient) AddMembers(ctx context.Context, request requests.AddMembersRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/members/add", request, dryRun)
}

func (client *APIClient) RemoveMembers(ctx context.Context, request requests.RemoveMembersRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/members/remove", request, dryRun)
}

func (client *APIClient) ForceRemoveBrokers(ctx context.Context, request requests.ForceRemoveBrokersRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/members/force-remove", request, dryRun)
}

func (client *APIClient) ForceScaleDown(ctx context.Context, request requests.ForceScaleDownRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/members/force-scale-down", request, dryRun)
}

func (client *APIClient) JoinPartition(ctx context.Context, request requests.JoinPartitionRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/partitions/join", request, dryRun)
}

func (client *APIClient) LeavePartition(ctx context.Context, request requests.LeavePartitionRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/partitions/leave", request, dryRun)
}

func (client *APIClient) ReassignPartitions(ctx context.Context, request requests.ReassignPartitionsRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/partitions/reassign", request, dryRun)
}

func (client *APIClient) ScaleUp(ctx context.Context, request requests.ScaleUpRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/partitions/scale-up", request, dryRun)
}

func (client *APIClient) BrokerScale(ctx context.Context, request requests.BrokerScaleRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/cluster/broker-scale", request, dryRun)
}

func (client *APIClient) ClusterScale(ctx context.Context, request requests.ClusterScaleRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/cluster/scale", request, dryRun)
}

func (client *APIClient) ClusterPatch(ctx context.Context, request requests.ClusterPatchRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/cluster/patch", request, dryRun)
}

func (client *APIClient) Purge(ctx context.Context, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", "/cluster/purge", requests.PurgeRequest{}, dryRun)
}

func (client *APIClient) UpdateRoutingState(ctx context.Context, request requests.UpdateRoutingStateRequest, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "PUT", "/cluster/routing-state", request, dryRun)
}

func exporterPath(exporterID string) string {
	return "/exporters/" + url.PathEscape(exporterID)
}

// EnableExporter enables exporterID on every partition replica, copying the
// exporter position from initializeFrom when it is not empty
func (client *APIClient) EnableExporter(ctx context.Context, exporterID string, initializeFrom string, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", exporterPath(exporterID)+"/enable", requests.ExporterEnableRequest{ExporterID: exporterID, InitializeFrom: initializeFrom}, dryRun)
}

func (client *APIClient) DisableExporter(ctx context.Context, exporterID string, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "POST", exporterPath(exporterID)+"/disable", nil, dryRun)
}

func (client *APIClient) DeleteExporter(ctx context.Context, exporterID string, dryRun bool) (coordinator.ChangeStatus, error) {
	return client.submit(ctx, "DELETE", exporterPath(exporterID), nil, dryRun)
}

// Change returns the outcome of a change. With wait set the server only
// responds once the change has completed, failed or been cancelled.
func (client *APIClient) Change(ctx context.Context, changeID int64, wait bool) (cluster.CompletedChange, error) {
	var outcome cluster.CompletedChange

	path := fmt.Sprintf("/changes/%d", changeID)

	if wait {
		path += "?wait=true"
	}

	if err := client.sendJSON(ctx, "GET", path, nil, &outcome); err != nil {
		return cluster.CompletedChange{}, err
	}

	return outcome, nil
}

func (client *APIClient) CancelChange(ctx context.Context, changeID int64) (cluster.ClusterConfiguration, error) {
	var topology cluster.ClusterConfiguration

	if err := client.sendJSON(ctx, "POST", fmt.Sprintf("/changes/%d/cancel", changeID), nil, &topology); err != nil {
		return cluster.ClusterConfiguration{}, err
	}

	return topology, nil
}

func (client *APIClient) RetryChange(ctx context.Context, changeID int64) (cluster.ClusterConfiguration, error) {
	var topology cluster.ClusterConfiguration

	if err := client.sendJSON(ctx, "POST", fmt.Sprintf("/changes/%d/retry", changeID), nil, &topology); err != nil {
		return cluster.ClusterConfiguration{}, err
	}

	return topology, nil
}

func (client *APIClient) History(ctx context.Context) ([]cluster.CompletedChange, error) {
	var history []cluster.CompletedChange

	if err := client.sendJSON(ctx, "GET", "/changes", nil, &history); err != nil {
		return nil, err
	}

	return history, nil
}
