package requests

import (
	"github.com/PelionIoT/topology/cluster"
)

// exporterReplica is one replica of a partition and the state of an exporter
// on it
type exporterReplica struct {
	member    cluster.MemberID
	partition cluster.PartitionID
	config    cluster.DynamicPartitionConfig
}

// exporterReplicas lists every hosted replica of every partition, partitions
// first, in ascending order
func exporterReplicas(configuration cluster.ClusterConfiguration) []exporterReplica {
	distribution := configuration.Distribution()
	replicas := []exporterReplica{}

	for _, partitionID := range distribution.PartitionIDs() {
		for _, memberID := range distribution.Members(partitionID) {
			member, _ := configuration.GetMember(memberID)
			partitionState, _ := member.GetPartition(partitionID)
			replicas = append(replicas, exporterReplica{member: memberID, partition: partitionID, config: partitionState.Config})
		}
	}

	return replicas
}

// ExporterEnableRequest enables an exporter on every replica of every
// partition. InitializeFrom optionally names another exporter whose metadata
// version the enabled exporter continues from.
type ExporterEnableRequest struct {
	ExporterID     string `json:"exporterId"`
	InitializeFrom string `json:"initializeFrom,omitempty"`
}

func (request ExporterEnableRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	if request.ExporterID == "" {
		return nil, invalidRequest("an exporter id is required")
	}

	if request.InitializeFrom == request.ExporterID {
		return nil, invalidRequest("exporter %s cannot be initialized from itself", request.ExporterID)
	}

	operations := []cluster.Operation{}

	for _, replica := range exporterReplicas(configuration) {
		if request.InitializeFrom != "" {
			if _, ok := replica.config.Exporter(request.InitializeFrom); !ok {
				return nil, invalidRequest("exporter %s is not configured on partition %d of member %d", request.InitializeFrom, replica.partition, replica.member)
			}
		}

		if exporter, ok := replica.config.Exporter(request.ExporterID); ok && exporter.State == cluster.ExporterEnabled {
			continue
		}

		operations = append(operations, cluster.PartitionEnableExporterOperation{
			Member:         replica.member,
			Partition:      replica.partition,
			ExporterID:     request.ExporterID,
			InitializeFrom: request.InitializeFrom,
		})
	}

	return operations, nil
}

// ExporterDisableRequest disables an exporter on every replica that knows it
type ExporterDisableRequest struct {
	ExporterID string `json:"exporterId"`
}

func (request ExporterDisableRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	replicas, err := replicasWithExporter(configuration, request.ExporterID)

	if err != nil {
		return nil, err
	}

	operations := []cluster.Operation{}

	for _, replica := range replicas {
		if exporter, _ := replica.config.Exporter(request.ExporterID); exporter.State != cluster.ExporterDisabled {
			operations = append(operations, cluster.PartitionDisableExporterOperation{Member: replica.member, Partition: replica.partition, ExporterID: request.ExporterID})
		}
	}

	return operations, nil
}

// ExporterDeleteRequest removes an exporter from every replica that knows it
type ExporterDeleteRequest struct {
	ExporterID string `json:"exporterId"`
}

func (request ExporterDeleteRequest) Operations(configuration cluster.ClusterConfiguration) ([]cluster.Operation, error) {
	replicas, err := replicasWithExporter(configuration, request.ExporterID)

	if err != nil {
		return nil, err
	}

	operations := make([]cluster.Operation, 0, len(replicas))

	for _, replica := range replicas {
		operations = append(operations, cluster.PartitionDeleteExporterOperation{Member: replica.member, Partition: replica.partition, ExporterID: request.ExporterID})
	}

	return operations, nil
}

// replicasWithExporter fails when no replica knows the exporter since that
// is most likely a mistyped id
func replicasWithExporter(configuration cluster.ClusterConfiguration, exporterID string) ([]exporterReplica, error) {
	if exporterID == "" {
		return nil, invalidRequest("an exporter id is required")
	}

	replicas := []exporterReplica{}

	for _, replica := range exporterReplicas(configuration) {
		if _, ok := replica.config.Exporter(exporterID); ok {
			replicas = append(replicas, replica)
		}
	}

	if len(replicas) == 0 && len(configuration.PartitionIDs()) > 0 {
		return nil, invalidRequest("exporter %s is not configured on any partition", exporterID)
	}

	return replicas, nil
}
