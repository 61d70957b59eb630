package main

import (
	"context"
	"fmt"
	"os"

	"github.com/PelionIoT/topology/client"
	"github.com/PelionIoT/topology/cluster"
)

func init() {
	registerCommand("topology", showTopology, "topology\n")
	registerCommand("change", showChange, "change -change=[id] [-wait]\n")
	registerCommand("cancel", cancelChange, "cancel -change=[id]\n")
	registerCommand("retry", retryChange, "retry -change=[id] [-wait]\n")
	registerCommand("history", showHistory, "history\n")
	registerCommand("watch", watchTopology, "watch\n")
}

func requireChange() (int64, error) {
	if *optChange == 0 {
		return 0, fmt.Errorf("No change specified (-change)")
	}

	return *optChange, nil
}

func showTopology() error {
	topology, err := newAPIClient().Topology(context.Background())

	if err != nil {
		return err
	}

	renderTopology(os.Stdout, topology)

	return nil
}

func showChange() error {
	changeID, err := requireChange()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()

	if *optWait {
		return awaitChange(apiClient, changeID)
	}

	outcome, err := apiClient.Change(context.Background(), changeID, false)

	if err != nil {
		return err
	}

	renderHistory(os.Stdout, []cluster.CompletedChange{outcome})

	return nil
}

func cancelChange() error {
	changeID, err := requireChange()

	if err != nil {
		return err
	}

	topology, err := newAPIClient().CancelChange(context.Background(), changeID)

	if err != nil {
		return err
	}

	renderTopology(os.Stdout, topology)

	return nil
}

func retryChange() error {
	changeID, err := requireChange()

	if err != nil {
		return err
	}

	apiClient := newAPIClient()
	topology, err := apiClient.RetryChange(context.Background(), changeID)

	if err != nil {
		return err
	}

	renderTopology(os.Stdout, topology)

	if !*optWait {
		return nil
	}

	return awaitChange(apiClient, changeID)
}

func showHistory() error {
	history, err := newAPIClient().History(context.Background())

	if err != nil {
		return err
	}

	renderHistory(os.Stdout, history)

	return nil
}

// watchTopology prints the topology and then every delta until the server
// closes the stream
func watchTopology() error {
	watch, err := newAPIClient().Watch(context.Background())

	if err != nil {
		return err
	}

	defer watch.Close()

	renderTopology(os.Stdout, watch.Topology())

	for {
		deltas, err := watch.Next()

		if err == client.EWatchClosed {
			return nil
		}

		if err != nil {
			return err
		}

		renderDeltas(os.Stdout, deltas)
	}
}
