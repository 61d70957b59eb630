package main

import (
	"context"
	"fmt"
)

func init() {
	registerCommand("enable-exporter", enableExporter, "enable-exporter -exporter=[id] [-initializeFrom=[id]] [-dryRun] [-wait]\n")
	registerCommand("disable-exporter", disableExporter, "disable-exporter -exporter=[id] [-dryRun] [-wait]\n")
	registerCommand("delete-exporter", deleteExporter, "delete-exporter -exporter=[id] [-dryRun] [-wait]\n")
}

func requireExporter() (string, error) {
	if *optExporter == "" {
		return "", fmt.Errorf("No exporter specified (-exporter)")
	}

	return *optExporter, nil
}

func enableExporter() error {
	exporterID, err := requireExporter()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.EnableExporter(context.Background(), exporterID, *optInitializeFrom, *optDryRun)

	return submitted(apiClient, status, err)
}

func disableExporter() error {
	exporterID, err := requireExporter()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.DisableExporter(context.Background(), exporterID, *optDryRun)

	return submitted(apiClient, status, err)
}

func deleteExporter() error {
	exporterID, err := requireExporter()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	status, err := apiClient.DeleteExporter(context.Background(), exporterID, *optDryRun)

	return submitted(apiClient, status, err)
}
