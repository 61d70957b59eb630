package cluster

import (
	"strconv"
)

// PartitionID identifies a partition. Partition ids run from 1 to the
// partition count of the cluster.
type PartitionID uint64

func (partitionID PartitionID) String() string {
	return strconv.FormatUint(uint64(partitionID), 10)
}

func ParsePartitionID(s string) (PartitionID, error) {
	id, err := strconv.ParseUint(s, 10, 64)

	if err != nil {
		return 0, err
	}

	return PartitionID(id), nil
}

type PartitionLifecycle string

const (
	PartitionUnknown       PartitionLifecycle = "UNKNOWN"
	PartitionJoining       PartitionLifecycle = "JOINING"
	PartitionActive        PartitionLifecycle = "ACTIVE"
	PartitionLeaving       PartitionLifecycle = "LEAVING"
	PartitionBootstrapping PartitionLifecycle = "BOOTSTRAPPING"
)

// PartitionState describes one replica of a partition on one member. The
// replica with the highest priority is the preferred leader.
type PartitionState struct {
	State    PartitionLifecycle     `json:"state"`
	Priority int                    `json:"priority"`
	Config   DynamicPartitionConfig `json:"config"`
}

func NewActivePartition(priority int, config DynamicPartitionConfig) PartitionState {
	return PartitionState{State: PartitionActive, Priority: priority, Config: config}
}

func NewJoiningPartition(priority int, config DynamicPartitionConfig) PartitionState {
	return PartitionState{State: PartitionJoining, Priority: priority, Config: config}
}

func NewBootstrappingPartition(priority int, config DynamicPartitionConfig) PartitionState {
	return PartitionState{State: PartitionBootstrapping, Priority: priority, Config: config}
}

func (partitionState PartitionState) ToActive() PartitionState {
	partitionState.State = PartitionActive

	return partitionState
}

func (partitionState PartitionState) ToLeaving() PartitionState {
	partitionState.State = PartitionLeaving

	return partitionState
}

func (partitionState PartitionState) WithPriority(priority int) PartitionState {
	partitionState.Priority = priority

	return partitionState
}

func (partitionState PartitionState) UpdateConfig(update func(DynamicPartitionConfig) DynamicPartitionConfig) PartitionState {
	partitionState.Config = update(partitionState.Config)

	return partitionState
}

type ExporterStatus string

const (
	ExporterEnabled  ExporterStatus = "ENABLED"
	ExporterDisabled ExporterStatus = "DISABLED"
)

type ExporterState struct {
	State           ExporterStatus `json:"state"`
	MetadataVersion int64          `json:"metadataVersion"`
	InitializedFrom string         `json:"initializedFrom,omitempty"`
}

// DynamicPartitionConfig is the part of a partition's configuration that can
// change while the cluster runs, independently of replica membership.
type DynamicPartitionConfig struct {
	Exporters map[string]ExporterState `json:"exporters"`
}

func NewDynamicPartitionConfig() DynamicPartitionConfig {
	return DynamicPartitionConfig{Exporters: map[string]ExporterState{}}
}

func (config DynamicPartitionConfig) Exporter(exporterID string) (ExporterState, bool) {
	exporterState, ok := config.Exporters[exporterID]

	return exporterState, ok
}

// EnableExporter marks the exporter enabled and bumps its metadata version.
// When initializeFrom names another exporter the new metadata version
// continues from that exporter's version.
func (config DynamicPartitionConfig) EnableExporter(exporterID string, initializeFrom string) DynamicPartitionConfig {
	exporters := config.copyExporters()
	current := exporters[exporterID]
	metadataVersion := current.MetadataVersion

	if from, ok := exporters[initializeFrom]; ok && initializeFrom != "" && from.MetadataVersion > metadataVersion {
		metadataVersion = from.MetadataVersion
	}

	exporters[exporterID] = ExporterState{
		State:           ExporterEnabled,
		MetadataVersion: metadataVersion + 1,
		InitializedFrom: initializeFrom,
	}

	return DynamicPartitionConfig{Exporters: exporters}
}

func (config DynamicPartitionConfig) DisableExporter(exporterID string) DynamicPartitionConfig {
	exporters := config.copyExporters()
	current := exporters[exporterID]
	current.State = ExporterDisabled
	exporters[exporterID] = current

	return DynamicPartitionConfig{Exporters: exporters}
}

func (config DynamicPartitionConfig) DeleteExporter(exporterID string) DynamicPartitionConfig {
	exporters := config.copyExporters()
	delete(exporters, exporterID)

	return DynamicPartitionConfig{Exporters: exporters}
}

func (config DynamicPartitionConfig) copyExporters() map[string]ExporterState {
	exporters := make(map[string]ExporterState, len(config.Exporters))

	for exporterID, exporterState := range config.Exporters {
		exporters[exporterID] = exporterState
	}

	return exporters
}
