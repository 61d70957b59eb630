package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PelionIoT/topology/cluster"
	"github.com/PelionIoT/topology/coordinator"

	"github.com/olekukonko/tablewriter"
)

func renderTopology(w io.Writer, topology cluster.ClusterConfiguration) {
	fmt.Fprintf(w, "Version %d, %d partitions\n", topology.Version, topology.PartitionCount)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Member", "State", "Partitions"})
	table.SetAutoWrapText(false)

	for _, memberID := range topology.MemberIDs() {
		member := topology.Members[memberID]
		table.Append([]string{
			strconv.FormatUint(uint64(memberID), 10),
			string(member.State),
			renderReplicas(member),
		})
	}

	table.Render()

	if topology.RoutingState != nil {
		fmt.Fprintf(w, "Routing state version %d: %d base partitions, active %v, inactive %v, %d correlation partitions\n",
			topology.RoutingState.Version,
			topology.RoutingState.RequestHandling.BasePartitionCount,
			topology.RoutingState.RequestHandling.AdditionalActivePartitions,
			topology.RoutingState.RequestHandling.InactivePartitions,
			topology.RoutingState.MessageCorrelation.PartitionCount,
		)
	}

	if plan := topology.PendingChange; plan != nil {
		fmt.Fprintf(w, "Change %d is %s with %d of %d operations completed. Head operation is %s\n",
			plan.ID,
			plan.Status,
			len(plan.CompletedOperations),
			len(plan.CompletedOperations)+len(plan.PendingOperations),
			plan.HeadState,
		)

		if plan.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", plan.Error)
		}

		renderOperations(w, plan.PendingOperations)
	}

	if topology.LastChange != nil {
		renderHistory(w, []cluster.CompletedChange{*topology.LastChange})
	}
}

// renderReplicas formats the replicas of a member as partition:state:priority
func renderReplicas(member cluster.MemberState) string {
	partitionIDs := make([]cluster.PartitionID, 0, len(member.Partitions))

	for partitionID := range member.Partitions {
		partitionIDs = append(partitionIDs, partitionID)
	}

	replicas := make([]string, 0, len(partitionIDs))

	for _, partitionID := range cluster.SortPartitionIDs(partitionIDs) {
		partition := member.Partitions[partitionID]
		replica := fmt.Sprintf("%d:%s:%d", partitionID, partition.State, partition.Priority)

		if exporters := renderExporters(partition.Config); exporters != "" {
			replica += "[" + exporters + "]"
		}

		replicas = append(replicas, replica)
	}

	return strings.Join(replicas, " ")
}

func renderExporters(config cluster.DynamicPartitionConfig) string {
	exporterIDs := make([]string, 0, len(config.Exporters))

	for exporterID := range config.Exporters {
		exporterIDs = append(exporterIDs, exporterID)
	}

	sort.Strings(exporterIDs)

	exporters := make([]string, 0, len(exporterIDs))

	for _, exporterID := range exporterIDs {
		exporters = append(exporters, exporterID+"="+string(config.Exporters[exporterID].State))
	}

	return strings.Join(exporters, ",")
}

func renderOperations(w io.Writer, operations []cluster.Operation) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Type", "Member", "Operation"})
	table.SetAutoWrapText(false)

	for i, op := range operations {
		table.Append([]string{
			strconv.Itoa(i + 1),
			string(op.Type()),
			strconv.FormatUint(uint64(op.Target()), 10),
			fmt.Sprint(op),
		})
	}

	table.Render()
}

func renderChangeStatus(w io.Writer, status coordinator.ChangeStatus) {
	switch {
	case status.DryRun:
		fmt.Fprintf(w, "Dry run: %d planned operations\n", len(status.Operations))
	case status.ChangeID == 0:
		fmt.Fprintf(w, "Nothing to change\n")
	default:
		fmt.Fprintf(w, "Change %d started with %d operations\n", status.ChangeID, len(status.Operations))
	}

	if len(status.Operations) > 0 {
		renderOperations(w, status.Operations)
		fmt.Fprintf(w, "Expected topology:\n")
		renderTopology(w, status.Expected)
	}
}

func renderTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339)
}

func renderHistory(w io.Writer, history []cluster.CompletedChange) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Change", "Status", "Started", "Completed", "Error"})
	table.SetAutoWrapText(false)

	for _, change := range history {
		table.Append([]string{
			strconv.FormatInt(change.ID, 10),
			string(change.Status),
			renderTime(change.StartedAt),
			renderTime(change.CompletedAt),
			change.Error,
		})
	}

	table.Render()
}

func renderDeltas(w io.Writer, deltas []cluster.TopologyDelta) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Delta", "Details"})
	table.SetAutoWrapText(false)

	for _, delta := range deltas {
		details, _ := json.Marshal(delta.Delta)
		table.Append([]string{string(delta.Type), string(details)})
	}

	table.Render()
}
