package cluster

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ENoSuchOperationType = errors.New("The operation type is not supported")
var ECouldNotParseOperation = errors.New("The operation data was not properly formatted. Unable to parse it.")

type OperationType string

const (
	OperationMemberJoin                    OperationType = "MEMBER_JOIN"
	OperationMemberLeave                   OperationType = "MEMBER_LEAVE"
	OperationMemberRemove                  OperationType = "MEMBER_REMOVE"
	OperationPartitionJoin                 OperationType = "PARTITION_JOIN"
	OperationPartitionLeave                OperationType = "PARTITION_LEAVE"
	OperationPartitionBootstrap            OperationType = "PARTITION_BOOTSTRAP"
	OperationPartitionForceReconfigure     OperationType = "PARTITION_FORCE_RECONFIGURE"
	OperationPartitionReconfigurePriority  OperationType = "PARTITION_RECONFIGURE_PRIORITY"
	OperationPartitionEnableExporter       OperationType = "PARTITION_ENABLE_EXPORTER"
	OperationPartitionDisableExporter      OperationType = "PARTITION_DISABLE_EXPORTER"
	OperationPartitionDeleteExporter       OperationType = "PARTITION_DELETE_EXPORTER"
	OperationStartPartitionScaleUp         OperationType = "START_PARTITION_SCALE_UP"
	OperationAwaitRedistributionCompletion OperationType = "AWAIT_REDISTRIBUTION_COMPLETION"
	OperationAwaitRelocationCompletion     OperationType = "AWAIT_RELOCATION_COMPLETION"
	OperationUpdateRoutingState            OperationType = "UPDATE_ROUTING_STATE"
)

// OperationTypes lists every operation variant
var OperationTypes = []OperationType{
	OperationMemberJoin,
	OperationMemberLeave,
	OperationMemberRemove,
	OperationPartitionJoin,
	OperationPartitionLeave,
	OperationPartitionBootstrap,
	OperationPartitionForceReconfigure,
	OperationPartitionReconfigurePriority,
	OperationPartitionEnableExporter,
	OperationPartitionDisableExporter,
	OperationPartitionDeleteExporter,
	OperationStartPartitionScaleUp,
	OperationAwaitRedistributionCompletion,
	OperationAwaitRelocationCompletion,
	OperationUpdateRoutingState,
}

// Operation is one step of a change plan. The set of implementations is
// closed: only the types in this file implement it.
type Operation interface {
	// Target is the member that executes the operation
	Target() MemberID
	Type() OperationType
	operation()
}

type MemberJoinOperation struct {
	Member MemberID `json:"memberId"`
}

type MemberLeaveOperation struct {
	Member MemberID `json:"memberId"`
}

// MemberRemoveOperation removes MemberToRemove from the cluster. It is executed
// by Member, the issuer, because the removed member may be unreachable.
type MemberRemoveOperation struct {
	Member         MemberID `json:"memberId"`
	MemberToRemove MemberID `json:"memberToRemove"`
}

type PartitionJoinOperation struct {
	Member    MemberID    `json:"memberId"`
	Partition PartitionID `json:"partitionId"`
	Priority  int         `json:"priority"`
}

type PartitionLeaveOperation struct {
	Member                 MemberID    `json:"memberId"`
	Partition              PartitionID `json:"partitionId"`
	MinimumAllowedReplicas int         `json:"minimumAllowedReplicas"`
}

type PartitionBootstrapOperation struct {
	Member                 MemberID                `json:"memberId"`
	Partition              PartitionID             `json:"partitionId"`
	Priority               int                     `json:"priority"`
	Config                 *DynamicPartitionConfig `json:"config,omitempty"`
	InitializeFromSnapshot bool                    `json:"initializeFromSnapshot"`
}

// PartitionForceReconfigureOperation replaces the replica set of a partition
// with Members without the consent of the removed replicas.
type PartitionForceReconfigureOperation struct {
	Member    MemberID    `json:"memberId"`
	Partition PartitionID `json:"partitionId"`
	Members   []MemberID  `json:"members"`
}

type PartitionReconfigurePriorityOperation struct {
	Member    MemberID    `json:"memberId"`
	Partition PartitionID `json:"partitionId"`
	Priority  int         `json:"priority"`
}

type PartitionEnableExporterOperation struct {
	Member         MemberID    `json:"memberId"`
	Partition      PartitionID `json:"partitionId"`
	ExporterID     string      `json:"exporterId"`
	InitializeFrom string      `json:"initializeFrom,omitempty"`
}

type PartitionDisableExporterOperation struct {
	Member     MemberID    `json:"memberId"`
	Partition  PartitionID `json:"partitionId"`
	ExporterID string      `json:"exporterId"`
}

type PartitionDeleteExporterOperation struct {
	Member     MemberID    `json:"memberId"`
	Partition  PartitionID `json:"partitionId"`
	ExporterID string      `json:"exporterId"`
}

type StartPartitionScaleUpOperation struct {
	Member                MemberID `json:"memberId"`
	DesiredPartitionCount int      `json:"desiredPartitionCount"`
}

type AwaitRedistributionCompletionOperation struct {
	Member                   MemberID      `json:"memberId"`
	DesiredPartitionCount    int           `json:"desiredPartitionCount"`
	PartitionsToRedistribute []PartitionID `json:"partitionsToRedistribute"`
}

type AwaitRelocationCompletionOperation struct {
	Member                MemberID      `json:"memberId"`
	DesiredPartitionCount int           `json:"desiredPartitionCount"`
	PartitionsToRelocate  []PartitionID `json:"partitionsToRelocate"`
}

type UpdateRoutingStateOperation struct {
	Member       MemberID      `json:"memberId"`
	RoutingState *RoutingState `json:"routingState,omitempty"`
}

func (op MemberJoinOperation) Target() MemberID                    { return op.Member }
func (op MemberLeaveOperation) Target() MemberID                   { return op.Member }
func (op MemberRemoveOperation) Target() MemberID                  { return op.Member }
func (op PartitionJoinOperation) Target() MemberID                 { return op.Member }
func (op PartitionLeaveOperation) Target() MemberID                { return op.Member }
func (op PartitionBootstrapOperation) Target() MemberID            { return op.Member }
func (op PartitionForceReconfigureOperation) Target() MemberID     { return op.Member }
func (op PartitionReconfigurePriorityOperation) Target() MemberID  { return op.Member }
func (op PartitionEnableExporterOperation) Target() MemberID       { return op.Member }
func (op PartitionDisableExporterOperation) Target() MemberID      { return op.Member }
func (op PartitionDeleteExporterOperation) Target() MemberID       { return op.Member }
func (op StartPartitionScaleUpOperation) Target() MemberID         { return op.Member }
func (op AwaitRedistributionCompletionOperation) Target() MemberID { return op.Member }
func (op AwaitRelocationCompletionOperation) Target() MemberID     { return op.Member }
func (op UpdateRoutingStateOperation) Target() MemberID            { return op.Member }

func (MemberJoinOperation) Type() OperationType                { return OperationMemberJoin }
func (MemberLeaveOperation) Type() OperationType               { return OperationMemberLeave }
func (MemberRemoveOperation) Type() OperationType              { return OperationMemberRemove }
func (PartitionJoinOperation) Type() OperationType             { return OperationPartitionJoin }
func (PartitionLeaveOperation) Type() OperationType            { return OperationPartitionLeave }
func (PartitionBootstrapOperation) Type() OperationType        { return OperationPartitionBootstrap }
func (PartitionForceReconfigureOperation) Type() OperationType { return OperationPartitionForceReconfigure }
func (PartitionReconfigurePriorityOperation) Type() OperationType {
	return OperationPartitionReconfigurePriority
}
func (PartitionEnableExporterOperation) Type() OperationType  { return OperationPartitionEnableExporter }
func (PartitionDisableExporterOperation) Type() OperationType { return OperationPartitionDisableExporter }
func (PartitionDeleteExporterOperation) Type() OperationType  { return OperationPartitionDeleteExporter }
func (StartPartitionScaleUpOperation) Type() OperationType    { return OperationStartPartitionScaleUp }
func (AwaitRedistributionCompletionOperation) Type() OperationType {
	return OperationAwaitRedistributionCompletion
}
func (AwaitRelocationCompletionOperation) Type() OperationType { return OperationAwaitRelocationCompletion }
func (UpdateRoutingStateOperation) Type() OperationType        { return OperationUpdateRoutingState }

func (MemberJoinOperation) operation()                    {}
func (MemberLeaveOperation) operation()                   {}
func (MemberRemoveOperation) operation()                  {}
func (PartitionJoinOperation) operation()                 {}
func (PartitionLeaveOperation) operation()                {}
func (PartitionBootstrapOperation) operation()            {}
func (PartitionForceReconfigureOperation) operation()     {}
func (PartitionReconfigurePriorityOperation) operation()  {}
func (PartitionEnableExporterOperation) operation()       {}
func (PartitionDisableExporterOperation) operation()      {}
func (PartitionDeleteExporterOperation) operation()       {}
func (StartPartitionScaleUpOperation) operation()         {}
func (AwaitRedistributionCompletionOperation) operation() {}
func (AwaitRelocationCompletionOperation) operation()     {}
func (UpdateRoutingStateOperation) operation()            {}

// OperationEnvelope is the encoded form of an operation: its type plus the
// JSON encoding of its fields.
type OperationEnvelope struct {
	Type OperationType   `json:"type"`
	Data json.RawMessage `json:"data"`
}

func EncodeOperation(op Operation) (OperationEnvelope, error) {
	data, err := json.Marshal(op)

	if err != nil {
		return OperationEnvelope{}, err
	}

	return OperationEnvelope{Type: op.Type(), Data: data}, nil
}

func DecodeOperation(envelope OperationEnvelope) (Operation, error) {
	var err error

	decode := func(op interface{}) {
		err = json.Unmarshal(envelope.Data, op)
	}

	var op Operation

	switch envelope.Type {
	case OperationMemberJoin:
		var body MemberJoinOperation
		decode(&body)
		op = body
	case OperationMemberLeave:
		var body MemberLeaveOperation
		decode(&body)
		op = body
	case OperationMemberRemove:
		var body MemberRemoveOperation
		decode(&body)
		op = body
	case OperationPartitionJoin:
		var body PartitionJoinOperation
		decode(&body)
		op = body
	case OperationPartitionLeave:
		var body PartitionLeaveOperation
		decode(&body)
		op = body
	case OperationPartitionBootstrap:
		var body PartitionBootstrapOperation
		decode(&body)
		op = body
	case OperationPartitionForceReconfigure:
		var body PartitionForceReconfigureOperation
		decode(&body)
		op = body
	case OperationPartitionReconfigurePriority:
		var body PartitionReconfigurePriorityOperation
		decode(&body)
		op = body
	case OperationPartitionEnableExporter:
		var body PartitionEnableExporterOperation
		decode(&body)
		op = body
	case OperationPartitionDisableExporter:
		var body PartitionDisableExporterOperation
		decode(&body)
		op = body
	case OperationPartitionDeleteExporter:
		var body PartitionDeleteExporterOperation
		decode(&body)
		op = body
	case OperationStartPartitionScaleUp:
		var body StartPartitionScaleUpOperation
		decode(&body)
		op = body
	case OperationAwaitRedistributionCompletion:
		var body AwaitRedistributionCompletionOperation
		decode(&body)
		op = body
	case OperationAwaitRelocationCompletion:
		var body AwaitRelocationCompletionOperation
		decode(&body)
		op = body
	case OperationUpdateRoutingState:
		var body UpdateRoutingStateOperation
		decode(&body)
		op = body
	default:
		return nil, fmt.Errorf("%w: %s", ENoSuchOperationType, envelope.Type)
	}

	if err != nil {
		return nil, ECouldNotParseOperation
	}

	return op, nil
}

// OperationList is an ordered list of operations that encodes each element
// as an OperationEnvelope.
type OperationList []Operation

func (operations OperationList) MarshalJSON() ([]byte, error) {
	envelopes := make([]OperationEnvelope, 0, len(operations))

	for _, op := range operations {
		envelope, err := EncodeOperation(op)

		if err != nil {
			return nil, err
		}

		envelopes = append(envelopes, envelope)
	}

	return json.Marshal(envelopes)
}

func (operations *OperationList) UnmarshalJSON(data []byte) error {
	var envelopes []OperationEnvelope

	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}

	decoded := make(OperationList, 0, len(envelopes))

	for _, envelope := range envelopes {
		op, err := DecodeOperation(envelope)

		if err != nil {
			return err
		}

		decoded = append(decoded, op)
	}

	*operations = decoded

	return nil
}

func (op MemberJoinOperation) String() string {
	return fmt.Sprintf("MemberJoin(member=%d)", op.Member)
}

func (op MemberLeaveOperation) String() string {
	return fmt.Sprintf("MemberLeave(member=%d)", op.Member)
}

func (op MemberRemoveOperation) String() string {
	return fmt.Sprintf("MemberRemove(issuer=%d, member=%d)", op.Member, op.MemberToRemove)
}

func (op PartitionJoinOperation) String() string {
	return fmt.Sprintf("PartitionJoin(member=%d, partition=%d, priority=%d)", op.Member, op.Partition, op.Priority)
}

func (op PartitionLeaveOperation) String() string {
	return fmt.Sprintf("PartitionLeave(member=%d, partition=%d)", op.Member, op.Partition)
}

func (op PartitionBootstrapOperation) String() string {
	return fmt.Sprintf("PartitionBootstrap(member=%d, partition=%d, priority=%d)", op.Member, op.Partition, op.Priority)
}

func (op PartitionForceReconfigureOperation) String() string {
	return fmt.Sprintf("PartitionForceReconfigure(member=%d, partition=%d, members=%v)", op.Member, op.Partition, op.Members)
}

func (op PartitionReconfigurePriorityOperation) String() string {
	return fmt.Sprintf("PartitionReconfigurePriority(member=%d, partition=%d, priority=%d)", op.Member, op.Partition, op.Priority)
}

func (op PartitionEnableExporterOperation) String() string {
	return fmt.Sprintf("PartitionEnableExporter(member=%d, partition=%d, exporter=%s)", op.Member, op.Partition, op.ExporterID)
}

func (op PartitionDisableExporterOperation) String() string {
	return fmt.Sprintf("PartitionDisableExporter(member=%d, partition=%d, exporter=%s)", op.Member, op.Partition, op.ExporterID)
}

func (op PartitionDeleteExporterOperation) String() string {
	return fmt.Sprintf("PartitionDeleteExporter(member=%d, partition=%d, exporter=%s)", op.Member, op.Partition, op.ExporterID)
}

func (op StartPartitionScaleUpOperation) String() string {
	return fmt.Sprintf("StartPartitionScaleUp(member=%d, partitionCount=%d)", op.Member, op.DesiredPartitionCount)
}

func (op AwaitRedistributionCompletionOperation) String() string {
	return fmt.Sprintf("AwaitRedistributionCompletion(member=%d, partitionCount=%d, partitions=%v)", op.Member, op.DesiredPartitionCount, op.PartitionsToRedistribute)
}

func (op AwaitRelocationCompletionOperation) String() string {
	return fmt.Sprintf("AwaitRelocationCompletion(member=%d, partitionCount=%d, partitions=%v)", op.Member, op.DesiredPartitionCount, op.PartitionsToRelocate)
}

func (op UpdateRoutingStateOperation) String() string {
	return fmt.Sprintf("UpdateRoutingState(member=%d)", op.Member)
}
