package main

import (
	"context"

	"github.com/PelionIoT/topology/requests"
)

func init() {
	registerCommand("add-members", addMembers, "add-members -members=[ids] [-dryRun] [-wait]\n")
	registerCommand("remove-members", removeMembers, "remove-members -members=[ids] [-dryRun] [-wait]\n")
	registerCommand("force-remove", forceRemove, "force-remove -members=[ids to remove] [-issuer=[id]] [-dryRun] [-wait]\n")
	registerCommand("force-scale-down", forceScaleDown, "force-scale-down -members=[ids to retain] [-issuer=[id]] [-dryRun] [-wait]\n")
}

func addMembers() error {
	memberIDs, err := requireMembers()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.AddMembers(context.Background(), requests.AddMembersRequest{Members: memberIDs}, *optDryRun)

	return submitted(apiClient, status, err)
}

func removeMembers() error {
	memberIDs, err := requireMembers()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.RemoveMembers(context.Background(), requests.RemoveMembersRequest{Members: memberIDs}, *optDryRun)

	return submitted(apiClient, status, err)
}

func forceRemove() error {
	memberIDs, err := requireMembers()

	if err != nil {
		return err
	}

	issuer, err := parseIssuer()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.ForceRemoveBrokers(context.Background(), requests.ForceRemoveBrokersRequest{MembersToRemove: memberIDs, Issuer: issuer}, *optDryRun)

	return submitted(apiClient, status, err)
}

func forceScaleDown() error {
	memberIDs, err := requireMembers()

	if err != nil {
		return err
	}

	issuer, err := parseIssuer()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.ForceScaleDown(context.Background(), requests.ForceScaleDownRequest{MembersToRetain: memberIDs, Issuer: issuer}, *optDryRun)

	return submitted(apiClient, status, err)
}
